package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/model"
)

// OwnerInventory returns the IN_STOCK codes an owner holds, counted per lot.
func OwnerInventory(ctx context.Context, q sqlx.ExtContext, owner model.Owner) ([]model.Inventory, error) {
	var inv []model.Inventory
	err := sqlx.SelectContext(ctx, q, &inv, q.Rebind(
		`SELECT vc.owner_id, vc.owner_type, l.product_id, p.name AS product_name,
		        l.id AS lot_id, l.lot_number, l.expiry_date, COUNT(*) AS quantity
		 FROM virtual_codes vc
		 JOIN lots l ON l.id = vc.lot_id
		 JOIN products p ON p.id = l.product_id
		 WHERE vc.owner_type = ? AND vc.owner_id = ? AND vc.status = ?
		 GROUP BY vc.owner_id, vc.owner_type, l.product_id, p.name, l.id, l.lot_number, l.expiry_date
		 ORDER BY p.name, l.expiry_date, l.id`),
		owner.Type, owner.ID, model.CodeStatusInStock,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	return inv, nil
}

// CountInStock returns how many IN_STOCK codes of a product an owner holds.
func CountInStock(ctx context.Context, q sqlx.ExtContext, owner model.Owner, productID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, q.Rebind(
		`SELECT COUNT(*)
		 FROM virtual_codes vc
		 JOIN lots l ON l.id = vc.lot_id
		 WHERE vc.owner_type = ? AND vc.owner_id = ? AND vc.status = ? AND l.product_id = ?`),
		owner.Type, owner.ID, model.CodeStatusInStock, productID,
	)
	if err != nil {
		return 0, fmt.Errorf("counting inventory: %w", err)
	}
	return n, nil
}

// CountLotCodes returns the number of codes a lot holds per status.
func CountLotCodes(ctx context.Context, q sqlx.ExtContext, lotID int64) (map[string]int, error) {
	rows, err := q.QueryxContext(ctx, q.Rebind(
		`SELECT status, COUNT(*) FROM virtual_codes WHERE lot_id = ? GROUP BY status`), lotID,
	)
	if err != nil {
		return nil, fmt.Errorf("counting lot codes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning lot codes: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
