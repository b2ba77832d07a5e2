package leads

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/HansOheneba/celerey-api/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("lead not found")

// Store is the persistence contract the lead service runs against.
type Store interface {
	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLead(ctx context.Context, id uint) (models.Lead, error)
	ListLeads(ctx context.Context, filter models.ListLeadsFilter) ([]models.Lead, int64, error)
	UpdateLeadStatus(ctx context.Context, id uint, status, actor string) (models.Lead, error)
	UpdateLeadNotes(ctx context.Context, id uint, notes, actor string) (models.Lead, error)
	UpdateLeadDetails(ctx context.Context, id uint, req models.UpdateLeadRequest, actor string) (models.Lead, error)
	ListLeadEvents(ctx context.Context, leadID uint, limit int) ([]models.LeadEvent, error)
	CountLeadsByStatus(ctx context.Context) (models.LeadStats, error)
}

type Repository struct {
	db            *gorm.DB
	defaultSource string
	defaultStatus string
}

// NewRepository builds the gorm-backed store. Empty defaults fall back to the
// schema literals.
func NewRepository(db *gorm.DB, source, status string) *Repository {
	if source == "" {
		source = defaultSource
	}
	if status == "" {
		status = defaultStatus
	}
	return &Repository{db: db, defaultSource: source, defaultStatus: status}
}

type leadModel struct {
	ID               uint      `gorm:"primaryKey;autoIncrement;column:id"`
	FirstName        string    `gorm:"column:first_name;size:100;not null"`
	LastName         string    `gorm:"column:last_name;size:100;not null"`
	Email            string    `gorm:"column:email;size:255;not null;index:idx_support_leads_email"`
	Phone            string    `gorm:"column:phone;size:20;not null"`
	TimeZone         string    `gorm:"column:time_zone;size:100;not null"`
	// Pointer so an explicit false reaches the engine instead of being
	// dropped in favour of the column default.
	ConsentToContact *bool     `gorm:"column:consent_to_contact;not null;default:true"`
	OfferID          *string   `gorm:"column:offer_id;size:100"`
	PriceLabel       *string   `gorm:"column:price_label;size:100"`
	Source           string    `gorm:"column:source;size:100;not null;default:begin_journey_modal;index:idx_support_leads_source"`
	Status           string    `gorm:"column:status;size:50;not null;default:new;index:idx_support_leads_status"`
	IPAddress        *string   `gorm:"column:ip_address;size:45"`
	UserAgent        *string   `gorm:"column:user_agent;type:text"`
	InternalNotes    *string   `gorm:"column:internal_notes;type:text"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;index:idx_support_leads_created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null"`
}

func (leadModel) TableName() string { return "support_leads" }

type leadEventModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement;column:id"`
	LeadID    uint           `gorm:"column:lead_id;index"`
	Actor     string         `gorm:"column:actor;size:100"`
	Action    string         `gorm:"column:action;size:50"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	CreatedAt time.Time      `gorm:"column:created_at;not null"`
}

func (leadEventModel) TableName() string { return "support_lead_events" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&leadModel{}, &leadEventModel{})
}

// CreateLead persists a new submission, applying the documented defaults and
// stamping both timestamps. Required-field and length constraints are checked
// before the engine sees the row so violations surface uniformly.
func (r *Repository) CreateLead(ctx context.Context, lead *models.Lead) error {
	if lead.Source == "" {
		lead.Source = r.defaultSource
	}
	if lead.Status == "" {
		lead.Status = r.defaultStatus
	}
	if err := checkColumnConstraints(lead); err != nil {
		return err
	}

	consent := lead.ConsentToContact
	now := time.Now().UTC()
	rec := leadModel{
		FirstName:        lead.FirstName,
		LastName:         lead.LastName,
		Email:            lead.Email,
		Phone:            lead.Phone,
		TimeZone:         lead.TimeZone,
		ConsentToContact: &consent,
		OfferID:          nullable(lead.OfferID),
		PriceLabel:       nullable(lead.PriceLabel),
		Source:           lead.Source,
		Status:           lead.Status,
		IPAddress:        nullable(lead.IPAddress),
		UserAgent:        nullable(lead.UserAgent),
		InternalNotes:    nullable(lead.InternalNotes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return appendEvent(tx, rec.ID, "form", "captured", map[string]interface{}{
			"email":  rec.Email,
			"source": rec.Source,
		})
	})
	if err != nil {
		return err
	}

	*lead = mapLeadModel(rec)
	return nil
}

func (r *Repository) GetLead(ctx context.Context, id uint) (models.Lead, error) {
	var rec leadModel
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Lead{}, ErrNotFound
	}
	if err != nil {
		return models.Lead{}, err
	}
	return mapLeadModel(rec), nil
}

func (r *Repository) ListLeads(ctx context.Context, filter models.ListLeadsFilter) ([]models.Lead, int64, error) {
	query := r.db.WithContext(ctx).Model(&leadModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}

	var recs []leadModel
	err := query.Order("created_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]models.Lead, 0, len(recs))
	for _, rec := range recs {
		out = append(out, mapLeadModel(rec))
	}
	return out, total, nil
}

func (r *Repository) UpdateLeadStatus(ctx context.Context, id uint, status, actor string) (models.Lead, error) {
	return r.update(ctx, id, actor, "status_changed", map[string]interface{}{"status": status})
}

func (r *Repository) UpdateLeadNotes(ctx context.Context, id uint, notes, actor string) (models.Lead, error) {
	return r.update(ctx, id, actor, "notes_updated", map[string]interface{}{"internal_notes": notes})
}

func (r *Repository) UpdateLeadDetails(ctx context.Context, id uint, req models.UpdateLeadRequest, actor string) (models.Lead, error) {
	updates := map[string]interface{}{}
	setString(updates, "first_name", req.FirstName)
	setString(updates, "last_name", req.LastName)
	setString(updates, "email", req.Email)
	setString(updates, "phone", req.Phone)
	setString(updates, "time_zone", req.TimeZone)
	setString(updates, "offer_id", req.OfferID)
	setString(updates, "price_label", req.PriceLabel)
	if len(updates) == 0 {
		return r.GetLead(ctx, id)
	}
	if err := checkUpdateConstraints(updates); err != nil {
		return models.Lead{}, err
	}
	return r.update(ctx, id, actor, "details_updated", updates)
}

// update mutates a row and records the change in the audit trail within one
// transaction. id and created_at are never part of the updates map, and
// updated_at is always refreshed.
func (r *Repository) update(ctx context.Context, id uint, actor, action string, updates map[string]interface{}) (models.Lead, error) {
	var rec leadModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		stamped := make(map[string]interface{}, len(updates)+1)
		for col, val := range updates {
			stamped[col] = val
		}
		stamped["updated_at"] = time.Now().UTC()

		if err := tx.Model(&leadModel{}).Where("id = ?", id).Updates(stamped).Error; err != nil {
			return err
		}
		if err := appendEvent(tx, id, actor, action, updates); err != nil {
			return err
		}
		return tx.First(&rec, "id = ?", id).Error
	})
	if err != nil {
		return models.Lead{}, err
	}
	return mapLeadModel(rec), nil
}

func (r *Repository) ListLeadEvents(ctx context.Context, leadID uint, limit int) ([]models.LeadEvent, error) {
	if limit < 1 {
		limit = 100
	}
	var recs []leadEventModel
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.LeadEvent, 0, len(recs))
	for _, rec := range recs {
		event := models.LeadEvent{
			ID:        rec.ID,
			LeadID:    rec.LeadID,
			Actor:     rec.Actor,
			Action:    rec.Action,
			CreatedAt: rec.CreatedAt,
		}
		if len(rec.Payload) > 0 {
			_ = json.Unmarshal(rec.Payload, &event.Payload)
		}
		out = append(out, event)
	}
	return out, nil
}

func (r *Repository) CountLeadsByStatus(ctx context.Context) (models.LeadStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&leadModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return models.LeadStats{}, err
	}

	stats := models.LeadStats{ByStatus: make(map[string]int64, len(rows))}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}
	return stats, nil
}

func appendEvent(tx *gorm.DB, leadID uint, actor, action string, payload map[string]interface{}) error {
	var body datatypes.JSON
	if len(payload) > 0 {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = datatypes.JSON(raw)
	}
	return tx.Create(&leadEventModel{
		LeadID:    leadID,
		Actor:     actor,
		Action:    action,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}).Error
}

func mapLeadModel(rec leadModel) models.Lead {
	return models.Lead{
		ID:               rec.ID,
		FirstName:        rec.FirstName,
		LastName:         rec.LastName,
		Email:            rec.Email,
		Phone:            rec.Phone,
		TimeZone:         rec.TimeZone,
		ConsentToContact: rec.ConsentToContact != nil && *rec.ConsentToContact,
		OfferID:          deref(rec.OfferID),
		PriceLabel:       deref(rec.PriceLabel),
		Source:           rec.Source,
		Status:           rec.Status,
		IPAddress:        deref(rec.IPAddress),
		UserAgent:        deref(rec.UserAgent),
		InternalNotes:    deref(rec.InternalNotes),
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func setString(updates map[string]interface{}, column string, value *string) {
	if value != nil {
		updates[column] = *value
	}
}
