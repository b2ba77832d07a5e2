package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HansOheneba/celerey-api/pkg/common/models"
	"github.com/gorilla/mux"
)

func newTestRouter(t *testing.T) (*mux.Router, *Service) {
	t.Helper()
	service, _, _ := newTestService()
	handler := NewHandler(service)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)
	handler.RegisterOperator(api)
	return router, service
}

func captureBody() map[string]interface{} {
	return map[string]interface{}{
		"firstName": "Kwame",
		"lastName":  "Boateng",
		"email":     "kwame@example.com",
		"phone":     "+233501234567",
		"timeZone":  "Africa/Accra",
		"agree":     true,
	}
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent/1.0")
	req.RemoteAddr = "203.0.113.7:52100"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCaptureEndpoint(t *testing.T) {
	router, service := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/start", captureBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp models.CaptureLeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.LeadID == 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	lead, err := service.Get(context.Background(), resp.LeadID)
	if err != nil {
		t.Fatal(err)
	}
	if lead.IPAddress != "203.0.113.7" {
		t.Errorf("ip = %q, want remote address host", lead.IPAddress)
	}
	if lead.UserAgent != "test-agent/1.0" {
		t.Errorf("user agent = %q", lead.UserAgent)
	}
}

func TestCaptureEndpointForwardedFor(t *testing.T) {
	router, service := newTestRouter(t)

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(captureBody()); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/start", &buf)
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	req.RemoteAddr = "10.0.0.1:40000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp models.CaptureLeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	lead, err := service.Get(context.Background(), resp.LeadID)
	if err != nil {
		t.Fatal(err)
	}
	if lead.IPAddress != "198.51.100.4" {
		t.Errorf("ip = %q, want first forwarded address", lead.IPAddress)
	}
}

func TestCaptureEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/start", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		body := captureBody()
		delete(body, "firstName")
		rec := doJSON(t, router, http.MethodPost, "/api/v1/start", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}

		var resp struct {
			OK      bool              `json:"ok"`
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.OK || resp.Error != "VALIDATION_ERROR" {
			t.Fatalf("unexpected response: %+v", resp)
		}
		if _, ok := resp.Details["firstName"]; !ok {
			t.Fatalf("expected firstName detail, got %v", resp.Details)
		}
	})

	t.Run("consent declined", func(t *testing.T) {
		body := captureBody()
		body["agree"] = false
		rec := doJSON(t, router, http.MethodPost, "/api/v1/start", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestGetLeadEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/start", captureBody())
	if rec.Code != http.StatusCreated {
		t.Fatal(rec.Body.String())
	}
	var created models.CaptureLeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	got := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/leads/%d", created.LeadID), nil)
	if got.Code != http.StatusOK {
		t.Fatalf("status = %d", got.Code)
	}
	var resp struct {
		OK   bool        `json:"ok"`
		Lead models.Lead `json:"lead"`
	}
	if err := json.Unmarshal(got.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Lead.Email != "kwame@example.com" {
		t.Errorf("lead = %+v", resp.Lead)
	}

	missing := doJSON(t, router, http.MethodGet, "/api/v1/leads/9999", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", missing.Code)
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/start", captureBody())
	var created models.CaptureLeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	path := fmt.Sprintf("/api/v1/leads/%d/status", created.LeadID)

	ok := doJSON(t, router, http.MethodPatch, path, models.UpdateLeadStatusRequest{Status: "contacted"})
	if ok.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", ok.Code, ok.Body.String())
	}

	bad := doJSON(t, router, http.MethodPatch, path, models.UpdateLeadStatusRequest{Status: "archived"})
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for disallowed status", bad.Code)
	}

	gone := doJSON(t, router, http.MethodPatch, "/api/v1/leads/9999/status", models.UpdateLeadStatusRequest{Status: "contacted"})
	if gone.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", gone.Code)
	}
}

func TestListAndStatsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for i := 0; i < 3; i++ {
		if rec := doJSON(t, router, http.MethodPost, "/api/v1/start", captureBody()); rec.Code != http.StatusCreated {
			t.Fatal(rec.Body.String())
		}
	}

	list := doJSON(t, router, http.MethodGet, "/api/v1/leads?status=new&per_page=2", nil)
	if list.Code != http.StatusOK {
		t.Fatalf("status = %d", list.Code)
	}
	var page models.LeadPage
	if err := json.Unmarshal(list.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 || len(page.Leads) != 2 || page.Pages != 2 {
		t.Fatalf("page = %+v", page)
	}

	stats := doJSON(t, router, http.MethodGet, "/api/v1/leads/stats", nil)
	if stats.Code != http.StatusOK {
		t.Fatalf("status = %d", stats.Code)
	}
	var s models.LeadStats
	if err := json.Unmarshal(stats.Body.Bytes(), &s); err != nil {
		t.Fatal(err)
	}
	if s.Total != 3 || s.ByStatus["new"] != 3 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestEventsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/start", captureBody())
	var created models.CaptureLeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	events := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/leads/%d/events", created.LeadID), nil)
	if events.Code != http.StatusOK {
		t.Fatalf("status = %d", events.Code)
	}
	var resp struct {
		Items []models.LeadEvent `json:"items"`
	}
	if err := json.Unmarshal(events.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Action != "captured" {
		t.Fatalf("items = %+v", resp.Items)
	}
}
