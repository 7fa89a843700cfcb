package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/db"
	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture is a database with one organization of each type and one product
// owned by the manufacturer.
type fixture struct {
	db           *sqlx.DB
	engine       *Engine
	clock        *testClock
	manufacturer int64
	distributor  int64
	hospital     int64
	product      int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, db.NewTestDB(t))
}

func newFixtureOn(t *testing.T, database *sqlx.DB) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := &testClock{now: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}

	org := func(name, typ string) int64 {
		o, err := store.CreateOrganization(ctx, database, name, typ, clock.Now())
		if err != nil {
			t.Fatalf("CreateOrganization(%s): %v", name, err)
		}
		return o.ID
	}
	f := &fixture{
		db:           database,
		clock:        clock,
		manufacturer: org("Acme Medical", model.OrgTypeManufacturer),
		distributor:  org("North Supply", model.OrgTypeDistributor),
		hospital:     org("City Clinic", model.OrgTypeHospital),
	}

	p, err := store.CreateProduct(ctx, database, f.manufacturer, "Filler 1ml", "HA-200", clock.Now())
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	f.product = p.ID
	f.engine = New(database, WithClock(clock.Now))
	return f
}

// lot registers quantity units manufactured on date.
func (f *fixture) lot(t *testing.T, quantity int, date string) *LotResult {
	t.Helper()
	mfg, err := time.Parse(time.DateOnly, date)
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.engine.CreateOrAddLot(context.Background(), CreateLotInput{
		OrganizationID:  f.manufacturer,
		ProductID:       f.product,
		Quantity:        quantity,
		ManufactureDate: mfg,
	})
	if err != nil {
		t.Fatalf("CreateOrAddLot: %v", err)
	}
	return res
}

func (f *fixture) ship(t *testing.T, from, to int64, toType string, quantity int) *TransferResult {
	t.Helper()
	res, err := f.engine.CreateShipment(context.Background(), ShipmentInput{
		FromOrgID: from,
		ToOrgID:   to,
		ToOrgType: toType,
		Items:     []model.Item{{ProductID: f.product, Quantity: quantity}},
	})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	return res
}

func (f *fixture) inStock(t *testing.T, orgID int64) int {
	t.Helper()
	n, err := store.CountInStock(context.Background(), f.db, model.OrgOwner(orgID), f.product)
	if err != nil {
		t.Fatalf("CountInStock: %v", err)
	}
	return n
}

func (f *fixture) lotCodes(t *testing.T, lotID int64) []model.VirtualCode {
	t.Helper()
	codes, err := store.ListLotCodes(context.Background(), f.db, lotID)
	if err != nil {
		t.Fatalf("ListLotCodes: %v", err)
	}
	return codes
}

func expectCode(t *testing.T, err error, want Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil error", want)
	}
	if got := CodeOf(err); got != want {
		t.Fatalf("expected %s, got %v", want, err)
	}
	if !errors.Is(err, &Error{Code: want}) {
		t.Fatalf("errors.Is(%v, %s) = false", err, want)
	}
}
