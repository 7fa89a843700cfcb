package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/model"
)

const lotColumns = `id, product_id, lot_number, quantity, manufacture_date, expiry_date, created_at, updated_at`

// GetLot returns a lot by ID, or nil if it doesn't exist.
func GetLot(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Lot, error) {
	l := &model.Lot{}
	err := sqlx.GetContext(ctx, q, l, q.Rebind(`SELECT `+lotColumns+` FROM lots WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lot: %w", err)
	}
	return l, nil
}

// GetLotForUpdate returns the lot with the given number for a product and
// locks it for the rest of the transaction. Returns nil if it doesn't exist.
func GetLotForUpdate(ctx context.Context, q sqlx.ExtContext, productID int64, lotNumber string) (*model.Lot, error) {
	l := &model.Lot{}
	err := sqlx.GetContext(ctx, q, l, q.Rebind(
		`SELECT `+lotColumns+` FROM lots WHERE product_id = ? AND lot_number = ?`+forUpdate(q, "")),
		productID, lotNumber,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lot: %w", err)
	}
	return l, nil
}

// InsertLot creates a lot and returns its ID.
func InsertLot(ctx context.Context, q sqlx.ExtContext, l *model.Lot) (int64, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO lots (product_id, lot_number, quantity, manufacture_date, expiry_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ProductID, l.LotNumber, l.Quantity, l.ManufactureDate, l.ExpiryDate, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("creating lot: %w", err)
	}
	return id, nil
}

// AddLotQuantity grows a lot by delta units.
func AddLotQuantity(ctx context.Context, q sqlx.ExtContext, id int64, delta int, now time.Time) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE lots SET quantity = quantity + ?, updated_at = ? WHERE id = ?`),
		delta, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating lot quantity: %w", err)
	}
	return nil
}

// ListLots returns a product's lots, oldest first.
func ListLots(ctx context.Context, q sqlx.ExtContext, productID int64) ([]model.Lot, error) {
	var lots []model.Lot
	err := sqlx.SelectContext(ctx, q, &lots, q.Rebind(
		`SELECT `+lotColumns+` FROM lots WHERE product_id = ? ORDER BY manufacture_date, id`), productID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}
	return lots, nil
}
