package leads

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/HansOheneba/celerey-api/pkg/common/logger"
	"github.com/HansOheneba/celerey-api/pkg/common/models"
	"github.com/redis/go-redis/v9"
)

const statsCacheKey = "leads:stats"

// EventPublisher pushes lead lifecycle events onto the event bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Service struct {
	validator *Validator
	store     Store
	producer  EventPublisher
	cache     *redis.Client
	statuses  StatusConfig
	cacheTTL  time.Duration
}

func NewService(validator *Validator, store Store, producer EventPublisher, cache *redis.Client, statuses StatusConfig, cacheTTL time.Duration) *Service {
	return &Service{
		validator: validator,
		store:     store,
		producer:  producer,
		cache:     cache,
		statuses:  statuses,
		cacheTTL:  cacheTTL,
	}
}

// Capture validates a BeginJourneyModal submission and persists it. The
// insert is the source of truth; the lead.captured event is best effort and
// a publish failure never unwinds the row.
func (s *Service) Capture(ctx context.Context, req models.CaptureLeadRequest, meta models.RequestMeta) (models.Lead, error) {
	if err := s.validator.ValidateCapture(req); err != nil {
		return models.Lead{}, err
	}

	lead := models.Lead{
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Email:            NormalizeEmail(req.Email),
		Phone:            strings.TrimSpace(req.Phone),
		TimeZone:         strings.TrimSpace(req.TimeZone),
		ConsentToContact: *req.Agree,
		OfferID:          strings.TrimSpace(req.OfferID),
		PriceLabel:       strings.TrimSpace(req.PriceLabel),
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
	}

	if err := s.store.CreateLead(ctx, &lead); err != nil {
		return models.Lead{}, err
	}

	s.invalidateStats(ctx)
	s.publish(ctx, "lead.captured", lead.Source, map[string]interface{}{
		"lead_id":    lead.ID,
		"first_name": lead.FirstName,
		"last_name":  lead.LastName,
		"email":      lead.Email,
		"time_zone":  lead.TimeZone,
		"created_at": lead.CreatedAt,
	})

	return lead, nil
}

func (s *Service) Get(ctx context.Context, id uint) (models.Lead, error) {
	return s.store.GetLead(ctx, id)
}

func (s *Service) List(ctx context.Context, filter models.ListLeadsFilter) (models.LeadPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = defaultPerPage
	}
	if filter.Email != "" {
		filter.Email = NormalizeEmail(filter.Email)
	}

	items, total, err := s.store.ListLeads(ctx, filter)
	if err != nil {
		return models.LeadPage{}, err
	}

	return models.LeadPage{
		Leads:       items,
		Total:       total,
		Pages:       int((total + int64(filter.PerPage) - 1) / int64(filter.PerPage)),
		CurrentPage: filter.Page,
		PerPage:     filter.PerPage,
	}, nil
}

// UpdateStatus moves a lead through the operator workflow. The allow-list is
// enforced here, not at the storage layer.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status, actor string) (models.Lead, error) {
	normalized := strings.TrimSpace(strings.ToLower(status))
	if !s.statuses.Allowed(normalized) {
		return models.Lead{}, ValidationError{Fields: map[string]string{
			"status": "Invalid status. Must be one of: " + strings.Join(s.statuses.Statuses, ", "),
		}}
	}

	lead, err := s.store.UpdateLeadStatus(ctx, id, normalized, actor)
	if err != nil {
		return models.Lead{}, err
	}

	s.invalidateStats(ctx)
	s.publish(ctx, "lead.status_changed", lead.Source, map[string]interface{}{
		"lead_id": lead.ID,
		"status":  lead.Status,
		"actor":   actor,
	})

	return lead, nil
}

func (s *Service) UpdateNotes(ctx context.Context, id uint, notes, actor string) (models.Lead, error) {
	return s.store.UpdateLeadNotes(ctx, id, notes, actor)
}

func (s *Service) UpdateDetails(ctx context.Context, id uint, req models.UpdateLeadRequest, actor string) (models.Lead, error) {
	if req.Email != nil {
		normalized := NormalizeEmail(*req.Email)
		if !emailPattern.MatchString(normalized) {
			return models.Lead{}, ValidationError{Fields: map[string]string{"email": "Invalid email format"}}
		}
		req.Email = &normalized
	}
	return s.store.UpdateLeadDetails(ctx, id, req, actor)
}

func (s *Service) Events(ctx context.Context, id uint, limit int) ([]models.LeadEvent, error) {
	if _, err := s.store.GetLead(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListLeadEvents(ctx, id, limit)
}

// Stats returns lead counts grouped by status, served from the Redis cache
// when warm.
func (s *Service) Stats(ctx context.Context) (models.LeadStats, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats models.LeadStats
			if jsonErr := json.Unmarshal([]byte(raw), &stats); jsonErr == nil {
				return stats, nil
			}
		}
	}

	stats, err := s.store.CountLeadsByStatus(ctx)
	if err != nil {
		return models.LeadStats{}, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, raw, s.cacheTTL).Err(); err != nil {
				logger.Log.WithError(err).Warn("failed to cache lead stats")
			}
		}
	}

	return stats, nil
}

func (s *Service) publish(ctx context.Context, eventType, source string, data map[string]interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishEvent(ctx, eventType, source, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Error("failed to publish lead event")
	}
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil {
		logger.Log.WithError(err).Warn("failed to invalidate lead stats cache")
	}
}
