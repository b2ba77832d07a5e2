package leads

import (
	"testing"

	"github.com/HansOheneba/celerey-api/pkg/common/models"
)

func boolPtr(v bool) *bool { return &v }

func validCapture() models.CaptureLeadRequest {
	return models.CaptureLeadRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     "ama@example.com",
		Phone:     "+233201234567",
		TimeZone:  "Africa/Accra",
		Agree:     boolPtr(true),
	}
}

func TestValidateCapture(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name      string
		mutate    func(*models.CaptureLeadRequest)
		wantField string
	}{
		{name: "valid submission", mutate: func(r *models.CaptureLeadRequest) {}},
		{
			name:      "missing first name",
			mutate:    func(r *models.CaptureLeadRequest) { r.FirstName = "" },
			wantField: "firstName",
		},
		{
			name:      "blank last name",
			mutate:    func(r *models.CaptureLeadRequest) { r.LastName = "   " },
			wantField: "lastName",
		},
		{
			name:      "invalid email format",
			mutate:    func(r *models.CaptureLeadRequest) { r.Email = "not-an-email" },
			wantField: "email",
		},
		{
			name:      "missing phone",
			mutate:    func(r *models.CaptureLeadRequest) { r.Phone = "" },
			wantField: "phone",
		},
		{
			name:      "missing time zone",
			mutate:    func(r *models.CaptureLeadRequest) { r.TimeZone = "" },
			wantField: "timeZone",
		},
		{
			name:      "agree missing",
			mutate:    func(r *models.CaptureLeadRequest) { r.Agree = nil },
			wantField: "agree",
		},
		{
			name:      "agree false",
			mutate:    func(r *models.CaptureLeadRequest) { r.Agree = boolPtr(false) },
			wantField: "agree",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCapture()
			tt.mutate(&req)

			err := validator.ValidateCapture(req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid submission, got %v", err)
				}
				return
			}

			if !IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			fields := ValidationFields(err)
			if _, ok := fields[tt.wantField]; !ok {
				t.Fatalf("expected failure on %q, got %v", tt.wantField, fields)
			}
		})
	}
}

func TestValidateCaptureCollectsAllFailures(t *testing.T) {
	validator := NewValidator()
	err := validator.ValidateCapture(models.CaptureLeadRequest{})
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := ValidationFields(err)
	for _, want := range []string{"firstName", "lastName", "email", "phone", "timeZone", "agree"} {
		if _, ok := fields[want]; !ok {
			t.Errorf("expected %q in failures, got %v", want, fields)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ama@Example.COM "); got != "ama@example.com" {
		t.Fatalf("unexpected normalized email: %q", got)
	}
}
