package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/HansOheneba/celerey-api/pkg/common/logger"
	"github.com/HansOheneba/celerey-api/pkg/common/models"
)

// Service turns lead lifecycle events into admin notifications.
type Service struct {
	email  *EmailClient
	admins []string
}

func NewService(email *EmailClient, admins []string) *Service {
	return &Service{email: email, admins: admins}
}

// HandleEvent processes one event from the leads topic. Unknown event types
// are committed without action so the consumer never wedges on them.
func (s *Service) HandleEvent(ctx context.Context, event models.Event) error {
	switch event.Type {
	case "lead.captured":
		return s.notifyLeadCaptured(ctx, event)
	case "lead.status_changed":
		return s.notifyStatusChanged(ctx, event)
	default:
		logger.Log.WithField("event_type", event.Type).Debug("ignoring event")
		return nil
	}
}

func (s *Service) notifyLeadCaptured(ctx context.Context, event models.Event) error {
	first := dataString(event.Data, "first_name")
	last := dataString(event.Data, "last_name")
	email := dataString(event.Data, "email")
	tz := dataString(event.Data, "time_zone")

	subject := fmt.Sprintf("New lead: %s %s", first, last)
	body := fmt.Sprintf(
		"<h2>New BeginJourney lead</h2>"+
			"<p><strong>Name:</strong> %s %s</p>"+
			"<p><strong>Email:</strong> %s</p>"+
			"<p><strong>Time zone:</strong> %s</p>"+
			"<p><strong>Received:</strong> %s</p>",
		html.EscapeString(first),
		html.EscapeString(last),
		html.EscapeString(email),
		html.EscapeString(tz),
		formatTimestamp(event.Timestamp, tz),
	)

	return s.email.Send(ctx, s.admins, subject, body)
}

func (s *Service) notifyStatusChanged(ctx context.Context, event models.Event) error {
	status := dataString(event.Data, "status")
	actor := dataString(event.Data, "actor")
	leadID := dataString(event.Data, "lead_id")
	if leadID == "" {
		if v, ok := event.Data["lead_id"]; ok {
			leadID = fmt.Sprintf("%v", v)
		}
	}

	subject := fmt.Sprintf("Lead %s moved to %s", leadID, status)
	body := fmt.Sprintf(
		"<p>Lead <strong>%s</strong> was moved to <strong>%s</strong> by %s at %s.</p>",
		html.EscapeString(leadID),
		html.EscapeString(status),
		html.EscapeString(actor),
		formatTimestamp(event.Timestamp, ""),
	)

	return s.email.Send(ctx, s.admins, subject, body)
}

// formatTimestamp renders a readable local time, e.g.
// "Fri, 30 Jan 2026, 14:05 (Africa/Accra)". Falls back to UTC when the lead's
// time zone is missing or unknown.
func formatTimestamp(ts time.Time, tzName string) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	zone := "UTC"
	loc := time.UTC
	if tzName != "" {
		if parsed, err := time.LoadLocation(tzName); err == nil {
			loc = parsed
			zone = tzName
		}
	}
	return ts.In(loc).Format("Mon, 02 Jan 2006, 15:04") + " (" + zone + ")"
}

func dataString(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	if v, ok := data[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
