package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/db"
	"github.com/erazemk/vcledger/internal/model"
)

type seed struct {
	maker    *model.Organization
	hospital *model.Organization
	product  *model.Product
}

func newSeed(t *testing.T, database *sqlx.DB) *seed {
	t.Helper()
	ctx := context.Background()

	maker, err := CreateOrganization(ctx, database, "Acme Medical", model.OrgTypeManufacturer, testNow)
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	hospital, err := CreateOrganization(ctx, database, "City Clinic", model.OrgTypeHospital, testNow)
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	product, err := CreateProduct(ctx, database, maker.ID, "Filler 1ml", "HA-200", testNow)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return &seed{maker: maker, hospital: hospital, product: product}
}

// lot inserts a lot with n IN_STOCK codes owned by the manufacturer. Code i
// is created i seconds after at.
func (s *seed) lot(t *testing.T, database *sqlx.DB, number string, n int, at time.Time) (*model.Lot, []int64) {
	t.Helper()
	ctx := context.Background()

	l := &model.Lot{
		ProductID:       s.product.ID,
		LotNumber:       number,
		Quantity:        n,
		ManufactureDate: at.Truncate(24 * time.Hour),
		ExpiryDate:      at.AddDate(2, 0, 0).Truncate(24 * time.Hour),
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	id, err := InsertLot(ctx, database, l)
	if err != nil {
		t.Fatalf("InsertLot: %v", err)
	}
	l.ID = id

	ids := make([]int64, n)
	for i := range n {
		created := at.Add(time.Duration(i) * time.Second)
		ids[i], err = InsertCode(ctx, database, &model.VirtualCode{
			Code:      fmt.Sprintf("%s-%03d", number, i),
			LotID:     id,
			Status:    model.CodeStatusInStock,
			OwnerID:   s.maker.ID,
			OwnerType: model.OwnerTypeOrganization,
			CreatedAt: created,
			UpdatedAt: created,
		})
		if err != nil {
			t.Fatalf("InsertCode: %v", err)
		}
	}
	return l, ids
}

func TestSelectInStockFIFO(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := newSeed(t, database)

	// The newer lot is inserted first so insertion order and age disagree.
	newer, _ := s.lot(t, database, "LOT-B", 3, testNow.Add(time.Hour))
	older, olderIDs := s.lot(t, database, "LOT-A", 3, testNow)

	owner := model.OrgOwner(s.maker.ID)
	codes, err := SelectInStock(ctx, database, owner, s.product.ID, nil, 4)
	if err != nil {
		t.Fatalf("SelectInStock: %v", err)
	}
	if len(codes) != 4 {
		t.Fatalf("expected 4 codes, got %d", len(codes))
	}
	for i, id := range olderIDs {
		if codes[i].ID != id {
			t.Errorf("position %d: expected code %d, got %d", i, id, codes[i].ID)
		}
	}
	if codes[3].LotID != newer.ID {
		t.Errorf("expected the fourth code from the newer lot, got lot %d", codes[3].LotID)
	}
	if codes[0].LotNumber != older.LotNumber || codes[0].ProductID != s.product.ID {
		t.Errorf("expected joined lot fields, got %+v", codes[0])
	}

	lotID := newer.ID
	codes, _ = SelectInStock(ctx, database, owner, s.product.ID, &lotID, 10)
	if len(codes) != 3 {
		t.Errorf("expected 3 codes from the requested lot, got %d", len(codes))
	}

	codes, _ = SelectInStock(ctx, database, model.OrgOwner(s.hospital.ID), s.product.ID, nil, 10)
	if len(codes) != 0 {
		t.Errorf("expected no codes for another owner, got %d", len(codes))
	}
}

func TestUpdateCode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := newSeed(t, database)
	_, ids := s.lot(t, database, "LOT-A", 2, testNow)

	later := testNow.Add(time.Hour)
	if err := UpdateCode(ctx, database, ids[0], model.CodeStatusUsed, model.PatientOwner(7), "abc123", later); err != nil {
		t.Fatalf("UpdateCode: %v", err)
	}

	c, err := GetCodeByValue(ctx, database, "LOT-A-000")
	if err != nil {
		t.Fatalf("GetCodeByValue: %v", err)
	}
	if c.Status != model.CodeStatusUsed || c.Owner() != model.PatientOwner(7) || c.ChainHead != "abc123" {
		t.Errorf("unexpected code after update: %+v", c)
	}
	if !c.UpdatedAt.Equal(later) {
		t.Errorf("expected updated_at %s, got %s", later, c.UpdatedAt)
	}

	n, _ := CountInStock(ctx, database, model.OrgOwner(s.maker.ID), s.product.ID)
	if n != 1 {
		t.Errorf("expected 1 code left in stock, got %d", n)
	}
}

func TestGetCodeByValueNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	c, err := GetCodeByValue(context.Background(), database, "missing")
	if err != nil {
		t.Fatalf("GetCodeByValue: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
}

func TestCodesForRecord(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := newSeed(t, database)
	_, ids := s.lot(t, database, "LOT-A", 4, testNow)

	for _, id := range ids[1:3] {
		h := &model.HistoryEntry{
			VirtualCodeID: id,
			RecordKind:    model.RecordShipment,
			RecordID:      11,
			ActionType:    model.ActionShipped,
			CreatedAt:     testNow,
			Hash:          "h",
		}
		if _, err := InsertHistory(ctx, database, h); err != nil {
			t.Fatalf("InsertHistory: %v", err)
		}
	}

	codes, err := CodesForRecord(ctx, database, model.RecordShipment, 11, model.ActionShipped)
	if err != nil {
		t.Fatalf("CodesForRecord: %v", err)
	}
	if len(codes) != 2 || codes[0].ID != ids[1] || codes[1].ID != ids[2] {
		t.Errorf("expected codes %v, got %+v", ids[1:3], codes)
	}

	codes, _ = CodesForRecord(ctx, database, model.RecordShipment, 11, model.ActionRecalled)
	if len(codes) != 0 {
		t.Errorf("expected no codes for another action, got %d", len(codes))
	}
}

func TestLotQuantityAndCounts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := newSeed(t, database)
	l, ids := s.lot(t, database, "LOT-A", 3, testNow)

	if err := AddLotQuantity(ctx, database, l.ID, 5, testNow.Add(time.Hour)); err != nil {
		t.Fatalf("AddLotQuantity: %v", err)
	}
	got, _ := GetLot(ctx, database, l.ID)
	if got.Quantity != 8 {
		t.Errorf("expected quantity 8, got %d", got.Quantity)
	}

	locked, err := GetLotForUpdate(ctx, database, s.product.ID, "LOT-A")
	if err != nil {
		t.Fatalf("GetLotForUpdate: %v", err)
	}
	if locked == nil || locked.ID != l.ID {
		t.Errorf("expected lot %d, got %+v", l.ID, locked)
	}
	if missing, _ := GetLotForUpdate(ctx, database, s.product.ID, "LOT-Z"); missing != nil {
		t.Errorf("expected nil for unknown lot number, got %+v", missing)
	}

	UpdateCode(ctx, database, ids[0], model.CodeStatusDisposed, model.OrgOwner(s.maker.ID), "", testNow)
	counts, err := CountLotCodes(ctx, database, l.ID)
	if err != nil {
		t.Fatalf("CountLotCodes: %v", err)
	}
	if counts[model.CodeStatusInStock] != 2 || counts[model.CodeStatusDisposed] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}

	codes, _ := ListLotCodes(ctx, database, l.ID)
	if len(codes) != 3 {
		t.Errorf("expected 3 lot codes, got %d", len(codes))
	}
}

func TestOwnerInventory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := newSeed(t, database)
	s.lot(t, database, "LOT-A", 2, testNow)
	s.lot(t, database, "LOT-B", 3, testNow.Add(24*time.Hour))

	inv, err := OwnerInventory(ctx, database, model.OrgOwner(s.maker.ID))
	if err != nil {
		t.Fatalf("OwnerInventory: %v", err)
	}
	if len(inv) != 2 {
		t.Fatalf("expected 2 inventory rows, got %d", len(inv))
	}
	if inv[0].LotNumber != "LOT-A" || inv[0].Quantity != 2 || inv[1].Quantity != 3 {
		t.Errorf("unexpected inventory %+v", inv)
	}
	if inv[0].ProductName != "Filler 1ml" {
		t.Errorf("expected product name, got %q", inv[0].ProductName)
	}

	inv, _ = OwnerInventory(ctx, database, model.OrgOwner(s.hospital.ID))
	if len(inv) != 0 {
		t.Errorf("expected empty inventory, got %+v", inv)
	}
}
