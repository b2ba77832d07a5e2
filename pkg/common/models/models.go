package models

import "time"

// Lead is the API-facing view of a captured lead. Field names follow the
// frontend convention used by the BeginJourneyModal payload.
type Lead struct {
	ID               uint      `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	TimeZone         string    `json:"timeZone"`
	ConsentToContact bool      `json:"agree"`
	OfferID          string    `json:"offerId,omitempty"`
	PriceLabel       string    `json:"priceLabel,omitempty"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
	IPAddress        string    `json:"ipAddress,omitempty"`
	UserAgent        string    `json:"userAgent,omitempty"`
	InternalNotes    string    `json:"internalNotes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CaptureLeadRequest is the BeginJourneyModal submission body. Agree maps to
// the consent_to_contact column; a pointer distinguishes a missing flag from
// an explicit false.
type CaptureLeadRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	TimeZone   string `json:"timeZone"`
	Agree      *bool  `json:"agree"`
	OfferID    string `json:"offerId,omitempty"`
	PriceLabel string `json:"priceLabel,omitempty"`
}

// RequestMeta carries request metadata recorded alongside a submission.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type CaptureLeadResponse struct {
	OK      bool   `json:"ok"`
	LeadID  uint   `json:"leadId"`
	Message string `json:"message"`
}

type UpdateLeadStatusRequest struct {
	Status string `json:"status"`
}

type UpdateLeadNotesRequest struct {
	InternalNotes string `json:"internalNotes"`
}

// UpdateLeadRequest is a partial update of contact details. Nil fields are
// left untouched.
type UpdateLeadRequest struct {
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	TimeZone   *string `json:"timeZone,omitempty"`
	OfferID    *string `json:"offerId,omitempty"`
	PriceLabel *string `json:"priceLabel,omitempty"`
}

// ListLeadsFilter selects leads along the indexed columns.
type ListLeadsFilter struct {
	Status        string
	Source        string
	Email         string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int
	PerPage       int
}

type LeadPage struct {
	Leads       []Lead `json:"leads"`
	Total       int64  `json:"total"`
	Pages       int    `json:"pages"`
	CurrentPage int    `json:"current_page"`
	PerPage     int    `json:"per_page"`
}

type LeadStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// LeadEvent is one entry of a lead's audit trail.
type LeadEvent struct {
	ID        int64                  `json:"id"`
	LeadID    uint                   `json:"lead_id"`
	Actor     string                 `json:"actor"`
	Action    string                 `json:"action"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Event is the envelope published to the event bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // lead.captured, lead.status_changed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
