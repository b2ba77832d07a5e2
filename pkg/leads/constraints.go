package leads

import (
	"fmt"
	"unicode/utf8"

	"github.com/HansOheneba/celerey-api/pkg/common/models"
)

const (
	defaultSource  = "begin_journey_modal"
	defaultStatus  = "new"
	defaultPerPage = 20
)

// columnLimits mirrors the declared varchar sizes of support_leads. Varchar
// limits count characters, not bytes.
var columnLimits = map[string]int{
	"first_name":  100,
	"last_name":   100,
	"email":       255,
	"phone":       20,
	"time_zone":   100,
	"offer_id":    100,
	"price_label": 100,
	"source":      100,
	"status":      50,
	"ip_address":  45,
}

var requiredColumns = []string{"first_name", "last_name", "email", "phone", "time_zone"}

// checkColumnConstraints enforces the table's NOT NULL and length
// declarations ahead of the engine, so a violation fails the same way on
// every backend.
func checkColumnConstraints(lead *models.Lead) error {
	values := map[string]string{
		"first_name":  lead.FirstName,
		"last_name":   lead.LastName,
		"email":       lead.Email,
		"phone":       lead.Phone,
		"time_zone":   lead.TimeZone,
		"offer_id":    lead.OfferID,
		"price_label": lead.PriceLabel,
		"source":      lead.Source,
		"status":      lead.Status,
		"ip_address":  lead.IPAddress,
	}

	fields := map[string]string{}
	for _, col := range requiredColumns {
		if values[col] == "" {
			fields[col] = col + " is required"
		}
	}
	for col, val := range values {
		if limit, ok := columnLimits[col]; ok && utf8.RuneCountInString(val) > limit {
			fields[col] = fmt.Sprintf("%s exceeds maximum length of %d", col, limit)
		}
	}

	if len(fields) > 0 {
		return ValidationError{Fields: fields}
	}
	return nil
}

// checkUpdateConstraints applies the same rules to a partial update: a
// required column may not be blanked and no value may exceed its size.
func checkUpdateConstraints(updates map[string]interface{}) error {
	fields := map[string]string{}
	for col, raw := range updates {
		val, ok := raw.(string)
		if !ok {
			continue
		}
		for _, req := range requiredColumns {
			if col == req && val == "" {
				fields[col] = col + " is required"
			}
		}
		if limit, ok := columnLimits[col]; ok && utf8.RuneCountInString(val) > limit {
			fields[col] = fmt.Sprintf("%s exceeds maximum length of %d", col, limit)
		}
	}
	if len(fields) > 0 {
		return ValidationError{Fields: fields}
	}
	return nil
}
