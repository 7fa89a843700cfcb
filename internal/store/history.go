package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/model"
)

const historyColumns = `h.id, h.virtual_code_id, h.record_kind, h.record_id, h.action_type,
	h.from_owner_id, h.from_owner_type, h.to_owner_id, h.to_owner_type, h.is_recall,
	h.created_at, h.prev_hash, h.hash, vc.code, l.lot_number, l.product_id`

// History stream limits.
const (
	DefaultHistoryLimit = 500
	MaxHistoryLimit     = 5000
)

// InsertHistory appends a history entry and returns its ID. Entries are
// never updated or deleted afterwards.
func InsertHistory(ctx context.Context, q sqlx.ExtContext, h *model.HistoryEntry) (int64, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO histories (virtual_code_id, record_kind, record_id, action_type,
		     from_owner_id, from_owner_type, to_owner_id, to_owner_type, is_recall, created_at, prev_hash, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.VirtualCodeID, h.RecordKind, h.RecordID, h.ActionType,
		h.FromOwnerID, h.FromOwnerType, h.ToOwnerID, h.ToOwnerType, h.IsRecall, h.CreatedAt, h.PrevHash, h.Hash,
	)
	if err != nil {
		return 0, fmt.Errorf("appending history: %w", err)
	}
	return id, nil
}

// ListCodeHistory returns a code's history entries in the order they were
// appended.
func ListCodeHistory(ctx context.Context, q sqlx.ExtContext, codeID int64) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	err := sqlx.SelectContext(ctx, q, &entries, q.Rebind(
		`SELECT `+historyColumns+`
		 FROM histories h
		 JOIN virtual_codes vc ON vc.id = h.virtual_code_id
		 JOIN lots l ON l.id = vc.lot_id
		 WHERE h.virtual_code_id = ?
		 ORDER BY h.created_at, h.id`), codeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing code history: %w", err)
	}
	return entries, nil
}

// QueryHistory returns history entries matching f, newest first.
//
// With an owner set, only entries the owner sent or received are returned
// and the SHIPPED and RECEIVED action filters are read from the owner's side
// of the shipment. Without an owner, RECEIVED matches every SHIPPED entry.
func QueryHistory(ctx context.Context, q sqlx.ExtContext, f model.HistoryFilter) ([]model.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + `
	          FROM histories h
	          JOIN virtual_codes vc ON vc.id = h.virtual_code_id
	          JOIN lots l ON l.id = vc.lot_id
	          LEFT JOIN shipment_batches sb ON h.record_kind = 'SHIPMENT' AND sb.id = h.record_id
	          LEFT JOIN treatment_records tr ON h.record_kind = 'TREATMENT' AND tr.id = h.record_id
	          WHERE 1=1`
	var args []any

	if f.Owner != nil {
		query += ` AND ((h.from_owner_type = ? AND h.from_owner_id = ?) OR (h.to_owner_type = ? AND h.to_owner_id = ?))`
		args = append(args, f.Owner.Type, f.Owner.ID, f.Owner.Type, f.Owner.ID)
	}
	// Entries are stored in UTC and SQLite compares timestamps as text, so
	// the bounds must be in UTC too.
	if f.From != nil {
		query += ` AND h.created_at >= ?`
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		query += ` AND h.created_at <= ?`
		args = append(args, f.To.UTC())
	}
	if f.LotNumber != "" {
		query += ` AND l.lot_number = ?`
		args = append(args, f.LotNumber)
	}
	if !f.IncludeRecalled {
		query += ` AND NOT h.is_recall AND NOT COALESCE(sb.is_recalled, tr.is_recalled, FALSE)`
	}
	if len(f.ActionTypes) > 0 {
		var clauses []string
		for _, action := range f.ActionTypes {
			switch {
			case f.Owner != nil && action == model.ActionReceived:
				clauses = append(clauses, `(h.action_type = ? AND h.to_owner_type = ? AND h.to_owner_id = ?)`)
				args = append(args, model.ActionShipped, f.Owner.Type, f.Owner.ID)
			case f.Owner != nil && action == model.ActionShipped:
				clauses = append(clauses, `(h.action_type = ? AND h.from_owner_type = ? AND h.from_owner_id = ?)`)
				args = append(args, model.ActionShipped, f.Owner.Type, f.Owner.ID)
			case action == model.ActionReceived:
				clauses = append(clauses, `h.action_type = ?`)
				args = append(args, model.ActionShipped)
			default:
				clauses = append(clauses, `h.action_type = ?`)
				args = append(args, action)
			}
		}
		query += ` AND (` + strings.Join(clauses, ` OR `) + `)`
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	query += ` ORDER BY h.created_at DESC, h.id DESC LIMIT ?`
	args = append(args, limit)

	var entries []model.HistoryEntry
	if err := sqlx.SelectContext(ctx, q, &entries, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	return entries, nil
}
