package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HansOheneba/celerey-api/pkg/common/logger"
	"github.com/HansOheneba/celerey-api/pkg/httpclient"
)

// EmailClient sends admin notifications through a Resend-compatible HTTP
// API. With no API key configured the client is disabled and every send is a
// logged no-op, so a missing key never takes the pipeline down.
type EmailClient struct {
	apiKey  string
	baseURL string
	from    string
	client  *http.Client
	enabled bool
}

func NewEmailClient(apiKey, baseURL, from string, timeout time.Duration) *EmailClient {
	if apiKey == "" {
		logger.Log.Warn("RESEND_API_KEY not set, email notifications disabled")
	}
	return &EmailClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		from:    from,
		client:  httpclient.New(timeout),
		enabled: apiKey != "",
	}
}

func (c *EmailClient) Enabled() bool {
	return c.enabled
}

type emailPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (c *EmailClient) Send(ctx context.Context, to []string, subject, html string) error {
	if !c.enabled {
		logger.Log.WithField("subject", subject).Debug("email client disabled, skipping send")
		return nil
	}
	if len(to) == 0 {
		logger.Log.Warn("no admin notification recipients configured")
		return nil
	}

	body, err := json.Marshal(emailPayload{
		From:    c.from,
		To:      to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("marshalling email payload: %w", err)
	}

	send := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("email API returned %d: %s", resp.StatusCode, detail)
		}
		return nil
	}

	if err := httpclient.Retry(ctx, 3, 200*time.Millisecond, send); err != nil {
		return fmt.Errorf("sending notification email: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"subject":    subject,
		"recipients": len(to),
	}).Info("Notification email sent")
	return nil
}
