package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/vcledger/internal/db"
	"github.com/erazemk/vcledger/internal/model"
)

var testNow = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func TestCreateAndListOrganizations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	acme, err := CreateOrganization(ctx, database, "Acme Medical", model.OrgTypeManufacturer, testNow)
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if acme.Status != model.OrgStatusActive {
		t.Errorf("expected status ACTIVE, got %s", acme.Status)
	}
	if !acme.CreatedAt.Equal(testNow) {
		t.Errorf("expected created_at %s, got %s", testNow, acme.CreatedAt)
	}
	CreateOrganization(ctx, database, "City Clinic", model.OrgTypeHospital, testNow)

	all, _ := ListOrganizations(ctx, database, "")
	if len(all) != 2 {
		t.Fatalf("expected 2 organizations, got %d", len(all))
	}
	hospitals, _ := ListOrganizations(ctx, database, model.OrgTypeHospital)
	if len(hospitals) != 1 || hospitals[0].Name != "City Clinic" {
		t.Errorf("expected only City Clinic, got %+v", hospitals)
	}

	n, err := CountOrganizations(ctx, database)
	if err != nil {
		t.Fatalf("CountOrganizations: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
}

func TestGetOrganizationNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	org, err := GetOrganization(context.Background(), database, 42)
	if err != nil {
		t.Fatalf("GetOrganization: %v", err)
	}
	if org != nil {
		t.Errorf("expected nil, got %+v", org)
	}
}

func TestUpdateOrganizationStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	org, _ := CreateOrganization(ctx, database, "North Supply", model.OrgTypeDistributor, testNow)
	if err := UpdateOrganizationStatus(ctx, database, org.ID, model.OrgStatusInactive); err != nil {
		t.Fatalf("UpdateOrganizationStatus: %v", err)
	}

	got, _ := GetOrganization(ctx, database, org.ID)
	if got.Status != model.OrgStatusInactive {
		t.Errorf("expected INACTIVE, got %s", got.Status)
	}

	if err := UpdateOrganizationStatus(ctx, database, org.ID, "DELETED"); err == nil {
		t.Error("expected unknown status to be rejected")
	}
}

func TestLotSettingsUpsert(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	org, _ := CreateOrganization(ctx, database, "Acme Medical", model.OrgTypeManufacturer, testNow)

	s, err := GetLotSettings(ctx, database, org.ID)
	if err != nil {
		t.Fatalf("GetLotSettings: %v", err)
	}
	if s != nil {
		t.Fatalf("expected no settings, got %+v", s)
	}

	want := model.LotSettings{OrganizationID: org.ID, Prefix: "AC", ModelDigits: 4, DateFormat: model.DateFormatYYJJJ, ExpiryMonths: 18}
	if err := UpsertLotSettings(ctx, database, want); err != nil {
		t.Fatalf("UpsertLotSettings: %v", err)
	}
	want.ExpiryMonths = 36
	if err := UpsertLotSettings(ctx, database, want); err != nil {
		t.Fatalf("second UpsertLotSettings: %v", err)
	}

	s, _ = GetLotSettings(ctx, database, org.ID)
	if s == nil || *s != want {
		t.Errorf("expected %+v, got %+v", want, s)
	}
}

func TestProducts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	org, _ := CreateOrganization(ctx, database, "Acme Medical", model.OrgTypeManufacturer, testNow)
	p, err := CreateProduct(ctx, database, org.ID, "Filler 1ml", "HA-200", testNow)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if !p.IsActive {
		t.Error("expected new product to be active")
	}
	CreateProduct(ctx, database, org.ID, "Booster", "BT-1", testNow)

	products, _ := ListProducts(ctx, database, org.ID)
	if len(products) != 2 || products[0].Name != "Booster" {
		t.Errorf("expected 2 products ordered by name, got %+v", products)
	}

	if err := SetProductActive(ctx, database, p.ID, false); err != nil {
		t.Fatalf("SetProductActive: %v", err)
	}
	got, _ := GetProduct(ctx, database, p.ID)
	if got.IsActive {
		t.Error("expected product to be inactive")
	}

	missing, err := GetProduct(ctx, database, 999)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for a missing product, got %+v, %v", missing, err)
	}
}

func TestUpsertPatient(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := UpsertPatient(ctx, database, "01012345678", testNow)
	if err != nil {
		t.Fatalf("UpsertPatient: %v", err)
	}
	second, err := UpsertPatient(ctx, database, "01012345678", testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("second UpsertPatient: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same patient, got %d and %d", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(testNow) {
		t.Errorf("expected the original created_at, got %s", second.CreatedAt)
	}

	got, _ := GetPatient(ctx, database, first.ID)
	if got == nil || got.Phone != "01012345678" {
		t.Errorf("unexpected patient %+v", got)
	}
}
