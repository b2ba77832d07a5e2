package leads

import (
	"context"
	"testing"

	"github.com/HansOheneba/celerey-api/pkg/common/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newSQLiteRepository(t *testing.T, source, status string) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	repo := NewRepository(db, source, status)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return repo
}

func storedLead() models.Lead {
	return models.Lead{
		FirstName:        "Ama",
		LastName:         "Mensah",
		Email:            "ama@example.com",
		Phone:            "+233201234567",
		TimeZone:         "Africa/Accra",
		ConsentToContact: true,
	}
}

func TestRepositoryPersistsExplicitConsentFalse(t *testing.T) {
	repo := newSQLiteRepository(t, "", "")
	ctx := context.Background()

	lead := storedLead()
	lead.ConsentToContact = false
	if err := repo.CreateLead(ctx, &lead); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ConsentToContact {
		t.Fatal("consent_to_contact read back true, writer supplied false")
	}
}

func TestRepositoryAppliesDefaults(t *testing.T) {
	repo := newSQLiteRepository(t, "", "")
	ctx := context.Background()

	lead := storedLead()
	if err := repo.CreateLead(ctx, &lead); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if lead.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if lead.Source != "begin_journey_modal" || lead.Status != "new" {
		t.Fatalf("defaults not applied: source=%q status=%q", lead.Source, lead.Status)
	}
	if lead.CreatedAt.IsZero() || !lead.UpdatedAt.Equal(lead.CreatedAt) {
		t.Fatalf("timestamps not stamped at insert: created=%v updated=%v", lead.CreatedAt, lead.UpdatedAt)
	}
}

func TestRepositoryUsesConfiguredDefaults(t *testing.T) {
	repo := newSQLiteRepository(t, "partner_page", "fresh")
	ctx := context.Background()

	lead := storedLead()
	if err := repo.CreateLead(ctx, &lead); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if lead.Source != "partner_page" || lead.Status != "fresh" {
		t.Fatalf("configured defaults not applied: source=%q status=%q", lead.Source, lead.Status)
	}

	explicit := storedLead()
	explicit.Source = "newsletter"
	explicit.Status = "contacted"
	if err := repo.CreateLead(ctx, &explicit); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if explicit.Source != "newsletter" || explicit.Status != "contacted" {
		t.Fatalf("supplied values overridden: source=%q status=%q", explicit.Source, explicit.Status)
	}
}

func TestRepositoryEventsNewestFirst(t *testing.T) {
	repo := newSQLiteRepository(t, "", "")
	ctx := context.Background()

	lead := storedLead()
	if err := repo.CreateLead(ctx, &lead); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	updated, err := repo.UpdateLeadStatus(ctx, lead.ID, "contacted", "ops@celerey.co")
	if err != nil {
		t.Fatalf("status update failed: %v", err)
	}
	if !updated.CreatedAt.Equal(lead.CreatedAt) {
		t.Error("created_at changed on update")
	}
	if updated.UpdatedAt.Before(lead.UpdatedAt) {
		t.Error("updated_at moved backwards on update")
	}

	events, err := repo.ListLeadEvents(ctx, lead.ID, 10)
	if err != nil {
		t.Fatalf("listing events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected capture + status events, got %d", len(events))
	}
	if events[0].Action != "status_changed" || events[1].Action != "captured" {
		t.Fatalf("expected newest-first ordering, got %q then %q", events[0].Action, events[1].Action)
	}
}
