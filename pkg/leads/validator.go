package leads

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/HansOheneba/celerey-api/pkg/common/models"
)

// emailPattern matches the basic format accepted by the capture form.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidationError aggregates per-field failures so the handler can return
// them all at once.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("validation failed:")
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Fields[k])
		b.WriteString(";")
	}
	return strings.TrimSuffix(b.String(), ";")
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func ValidationFields(err error) map[string]string {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCapture checks a BeginJourneyModal submission. Field keys in the
// returned error follow the frontend naming so they can be echoed back to
// the form as-is.
func (v *Validator) ValidateCapture(req models.CaptureLeadRequest) error {
	fields := map[string]string{}

	requireText(fields, "firstName", req.FirstName)
	requireText(fields, "lastName", req.LastName)
	requireText(fields, "email", req.Email)
	requireText(fields, "phone", req.Phone)
	requireText(fields, "timeZone", req.TimeZone)

	if email := strings.TrimSpace(req.Email); email != "" && !emailPattern.MatchString(email) {
		fields["email"] = "Invalid email format"
	}

	if req.Agree == nil {
		fields["agree"] = "agree is required"
	} else if !*req.Agree {
		fields["agree"] = "You must agree to continue"
	}

	if len(fields) > 0 {
		return ValidationError{Fields: fields}
	}
	return nil
}

// NormalizeEmail trims and lowercases an address before it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func requireText(fields map[string]string, name, value string) {
	if value == "" {
		fields[name] = name + " is required"
		return
	}
	if strings.TrimSpace(value) == "" {
		fields[name] = name + " cannot be empty"
	}
}
