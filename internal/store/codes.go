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

const codeColumns = `vc.id, vc.code, vc.lot_id, vc.status, vc.owner_id, vc.owner_type, vc.chain_head,
	vc.created_at, vc.updated_at, l.lot_number, l.product_id`

// InsertCode creates a virtual code and returns its ID.
func InsertCode(ctx context.Context, q sqlx.ExtContext, c *model.VirtualCode) (int64, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO virtual_codes (code, lot_id, status, owner_id, owner_type, chain_head, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Code, c.LotID, c.Status, c.OwnerID, c.OwnerType, c.ChainHead, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("creating virtual code: %w", err)
	}
	return id, nil
}

// SelectInStock returns up to limit IN_STOCK codes of a product held by
// owner, oldest first. With lotID set only that lot is considered. On
// drivers with row locks the selected rows stay locked until the
// transaction ends.
func SelectInStock(ctx context.Context, q sqlx.ExtContext, owner model.Owner, productID int64, lotID *int64, limit int) ([]model.VirtualCode, error) {
	query := `SELECT ` + codeColumns + `
	          FROM virtual_codes vc
	          JOIN lots l ON l.id = vc.lot_id
	          WHERE vc.owner_type = ? AND vc.owner_id = ? AND vc.status = ? AND l.product_id = ?`
	args := []any{owner.Type, owner.ID, model.CodeStatusInStock, productID}

	if lotID != nil {
		query += ` AND vc.lot_id = ?`
		args = append(args, *lotID)
	}
	query += ` ORDER BY vc.created_at, vc.id LIMIT ?` + forUpdate(q, "vc")
	args = append(args, limit)

	var codes []model.VirtualCode
	if err := sqlx.SelectContext(ctx, q, &codes, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("selecting codes: %w", err)
	}
	return codes, nil
}

// UpdateCode sets a code's status, owner and chain head.
func UpdateCode(ctx context.Context, q sqlx.ExtContext, id int64, status string, owner model.Owner, chainHead string, now time.Time) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE virtual_codes SET status = ?, owner_id = ?, owner_type = ?, chain_head = ?, updated_at = ?
		 WHERE id = ?`),
		status, owner.ID, owner.Type, chainHead, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating virtual code: %w", err)
	}
	return nil
}

// GetCodeByValue returns a code by its serialized value, or nil if it
// doesn't exist.
func GetCodeByValue(ctx context.Context, q sqlx.ExtContext, code string) (*model.VirtualCode, error) {
	c := &model.VirtualCode{}
	err := sqlx.GetContext(ctx, q, c, q.Rebind(
		`SELECT `+codeColumns+`
		 FROM virtual_codes vc
		 JOIN lots l ON l.id = vc.lot_id
		 WHERE vc.code = ?`), code,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting virtual code: %w", err)
	}
	return c, nil
}

// CodesForRecord returns the codes a transfer record moved, identified by
// the history entries it appended with the given action. The rows are
// locked on drivers that support it.
func CodesForRecord(ctx context.Context, q sqlx.ExtContext, recordKind string, recordID int64, action string) ([]model.VirtualCode, error) {
	var codes []model.VirtualCode
	err := sqlx.SelectContext(ctx, q, &codes, q.Rebind(
		`SELECT `+codeColumns+`
		 FROM virtual_codes vc
		 JOIN lots l ON l.id = vc.lot_id
		 WHERE vc.id IN (
		     SELECT h.virtual_code_id FROM histories h
		     WHERE h.record_kind = ? AND h.record_id = ? AND h.action_type = ?
		 )
		 ORDER BY vc.created_at, vc.id`+forUpdate(q, "vc")),
		recordKind, recordID, action,
	)
	if err != nil {
		return nil, fmt.Errorf("listing record codes: %w", err)
	}
	return codes, nil
}

// ListLotCodes returns every code of a lot in creation order.
func ListLotCodes(ctx context.Context, q sqlx.ExtContext, lotID int64) ([]model.VirtualCode, error) {
	var codes []model.VirtualCode
	err := sqlx.SelectContext(ctx, q, &codes, q.Rebind(
		`SELECT `+codeColumns+`
		 FROM virtual_codes vc
		 JOIN lots l ON l.id = vc.lot_id
		 WHERE vc.lot_id = ?
		 ORDER BY vc.created_at, vc.id`), lotID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing lot codes: %w", err)
	}
	return codes, nil
}
