package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// busyLedger runs a mix of every transfer kind over one lot.
func busyLedger(t *testing.T) (*fixture, *LotResult) {
	t.Helper()
	f := newFixture(t)
	ctx := context.Background()

	lot := f.lot(t, 40, "2024-01-15")
	f.clock.Advance(time.Minute)
	recalled := f.ship(t, f.manufacturer, f.distributor, model.OrgTypeDistributor, 10)
	f.clock.Advance(time.Minute)
	f.ship(t, f.manufacturer, f.hospital, model.OrgTypeHospital, 10)
	f.clock.Advance(time.Minute)
	if _, err := f.engine.RecallShipment(ctx, recalled.RecordID, f.manufacturer, "recount"); err != nil {
		t.Fatalf("RecallShipment: %v", err)
	}
	f.clock.Advance(time.Minute)
	f.ship(t, f.manufacturer, f.distributor, model.OrgTypeDistributor, 5)
	f.clock.Advance(time.Minute)
	if _, err := f.engine.CreateTreatment(ctx, TreatmentInput{
		HospitalID:   f.hospital,
		PatientPhone: "01012345678",
		Items:        []model.Item{{ProductID: f.product, Quantity: 4}},
	}); err != nil {
		t.Fatalf("CreateTreatment: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := f.engine.CreateDisposal(ctx, DisposalInput{
		OrganizationID: f.manufacturer,
		ReasonType:     model.DisposalReasonExpired,
		Items:          []model.Item{{ProductID: f.product, Quantity: 2}},
	}); err != nil {
		t.Fatalf("CreateDisposal: %v", err)
	}
	return f, lot
}

func TestConservation(t *testing.T) {
	f, lot := busyLedger(t)
	ctx := context.Background()

	counts, err := store.CountLotCodes(ctx, f.db, lot.LotID)
	if err != nil {
		t.Fatalf("CountLotCodes: %v", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	stored, _ := store.GetLot(ctx, f.db, lot.LotID)
	if total != stored.Quantity {
		t.Errorf("lot holds %d codes but quantity is %d", total, stored.Quantity)
	}
	if counts[model.CodeStatusUsed] != 4 || counts[model.CodeStatusDisposed] != 2 || counts[model.CodeStatusInStock] != 34 {
		t.Errorf("unexpected status counts %v", counts)
	}

	held := f.inStock(t, f.manufacturer) + f.inStock(t, f.distributor) + f.inStock(t, f.hospital)
	if held != counts[model.CodeStatusInStock] {
		t.Errorf("owners hold %d codes, %d are IN_STOCK", held, counts[model.CodeStatusInStock])
	}
}

func TestReplayMatchesCurrentState(t *testing.T) {
	f, lot := busyLedger(t)
	ctx := context.Background()

	for _, c := range f.lotCodes(t, lot.LotID) {
		entries, err := f.engine.ChainOfCustody(ctx, c.Code)
		if err != nil {
			t.Fatalf("ChainOfCustody: %v", err)
		}
		status, owner, err := Replay(entries)
		if err != nil {
			t.Fatalf("Replay(%s): %v", c.Code, err)
		}
		if status != c.Status || owner != c.Owner() {
			t.Errorf("code %s: replay gives %s %s, registry has %s %s", c.Code, status, owner, c.Status, c.Owner())
		}
	}
}

func TestChainOfCustodyOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.lot(t, 1, "2024-01-15")
	shipment := f.ship(t, f.manufacturer, f.distributor, model.OrgTypeDistributor, 1)
	f.clock.Advance(time.Hour)
	if _, err := f.engine.RecallShipment(ctx, shipment.RecordID, f.manufacturer, "recount"); err != nil {
		t.Fatalf("RecallShipment: %v", err)
	}

	code := f.lotCodes(t, lot.LotID)[0].Code
	entries, err := f.engine.ChainOfCustody(ctx, code)
	if err != nil {
		t.Fatalf("ChainOfCustody: %v", err)
	}
	want := []string{model.ActionProduced, model.ActionShipped, model.ActionRecalled}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, h := range entries {
		if h.ActionType != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], h.ActionType)
		}
	}
	if entries[2].IsRecall != true || entries[1].IsRecall {
		t.Error("expected only the RECALLED entry to be a recall entry")
	}
	if to, _ := entries[2].To(); to != model.OrgOwner(f.manufacturer) {
		t.Errorf("expected recall back to manufacturer, got %s", to)
	}

	_, err = f.engine.ChainOfCustody(ctx, "NOPE")
	expectCode(t, err, CodeCodeNotFound)
}

func TestHistoryOwnerStream(t *testing.T) {
	f, _ := busyLedger(t)
	ctx := context.Background()
	distributor := model.OrgOwner(f.distributor)

	// Without recalled records only the second shipment is visible.
	entries, err := f.engine.History(ctx, model.HistoryFilter{Owner: &distributor})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for _, h := range entries {
		if h.ActionType != model.ActionReceived {
			t.Errorf("expected RECEIVED, got %s", h.ActionType)
		}
	}

	entries, err = f.engine.History(ctx, model.HistoryFilter{Owner: &distributor, IncludeRecalled: true})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 25 {
		t.Errorf("expected 25 entries with recalls, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatal("expected newest entries first")
		}
	}

	manufacturer := model.OrgOwner(f.manufacturer)
	shipped, err := f.engine.History(ctx, model.HistoryFilter{
		Owner:       &manufacturer,
		ActionTypes: []string{model.ActionShipped},
	})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(shipped) != 15 {
		t.Errorf("expected 15 SHIPPED entries, got %d", len(shipped))
	}

	received, err := f.engine.History(ctx, model.HistoryFilter{
		Owner:           &manufacturer,
		ActionTypes:     []string{model.ActionReceived},
		IncludeRecalled: true,
	})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(received) != 0 {
		t.Errorf("expected the manufacturer to have received nothing, got %d", len(received))
	}
}

func TestHistoryGlobalFilters(t *testing.T) {
	f, lot := busyLedger(t)
	ctx := context.Background()

	all, err := f.engine.History(ctx, model.HistoryFilter{IncludeRecalled: true})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	// 40 produced, 25 shipped, 10 recalled, 4 treated, 2 disposed.
	if len(all) != 81 {
		t.Errorf("expected 81 entries, got %d", len(all))
	}

	limited, _ := f.engine.History(ctx, model.HistoryFilter{IncludeRecalled: true, Limit: 7})
	if len(limited) != 7 {
		t.Errorf("expected 7 entries, got %d", len(limited))
	}

	byLot, _ := f.engine.History(ctx, model.HistoryFilter{LotNumber: lot.LotNumber, ActionTypes: []string{model.ActionTreated, model.ActionDisposed}})
	if len(byLot) != 6 {
		t.Errorf("expected 6 TREATED or DISPOSED entries, got %d", len(byLot))
	}

	none, _ := f.engine.History(ctx, model.HistoryFilter{LotNumber: "NOPE", IncludeRecalled: true})
	if len(none) != 0 {
		t.Errorf("expected no entries for unknown lot, got %d", len(none))
	}

	from := time.Date(2024, 1, 15, 9, 6, 0, 0, time.UTC)
	late, _ := f.engine.History(ctx, model.HistoryFilter{From: &from, IncludeRecalled: true})
	if len(late) != 2 {
		t.Errorf("expected the 2 disposal entries after %s, got %d", from, len(late))
	}
}

func TestHistoryTimeBoundsIgnoreZone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.lot(t, 3, "2024-01-15")

	seoul := time.FixedZone("KST", 9*60*60)
	owner := model.OrgOwner(f.manufacturer)
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"utc from", time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), time.Time{}, 3},
		{"offset from", time.Date(2024, 1, 15, 17, 0, 0, 0, seoul), time.Time{}, 3},
		{"offset from after", time.Date(2024, 1, 15, 18, 30, 0, 0, seoul), time.Time{}, 0},
		{"offset to before", time.Time{}, time.Date(2024, 1, 15, 17, 59, 0, 0, seoul), 0},
		{"offset to after", time.Time{}, time.Date(2024, 1, 15, 18, 1, 0, 0, seoul), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := model.HistoryFilter{Owner: &owner}
			if !tt.from.IsZero() {
				filter.From = &tt.from
			}
			if !tt.to.IsZero() {
				filter.To = &tt.to
			}
			entries, err := f.engine.History(ctx, filter)
			if err != nil {
				t.Fatalf("History: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(entries))
			}
		})
	}
}

func TestInventorySummary(t *testing.T) {
	f, lot := busyLedger(t)

	inv, err := f.engine.Inventory(context.Background(), model.OrgOwner(f.hospital))
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	if len(inv) != 1 {
		t.Fatalf("expected one lot, got %d", len(inv))
	}
	if inv[0].LotID != lot.LotID || inv[0].Quantity != 6 || inv[0].ProductName != "Filler 1ml" {
		t.Errorf("unexpected inventory %+v", inv[0])
	}
}

func TestCodeStatus(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, 1, "2024-01-15")
	code := f.lotCodes(t, lot.LotID)[0].Code

	c, err := f.engine.CodeStatus(context.Background(), code)
	if err != nil {
		t.Fatalf("CodeStatus: %v", err)
	}
	if c.LotNumber != lot.LotNumber || c.Status != model.CodeStatusInStock {
		t.Errorf("unexpected code %+v", c)
	}

	_, err = f.engine.CodeStatus(context.Background(), "NOPE")
	expectCode(t, err, CodeCodeNotFound)
}
