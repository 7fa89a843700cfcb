package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/db"
	"github.com/erazemk/vcledger/internal/model"
)

// forUpdate returns the row-locking suffix for drivers that support it.
func forUpdate(q sqlx.ExtContext, of string) string {
	if !db.LocksRows(q.DriverName()) {
		return ""
	}
	if of != "" {
		return " FOR UPDATE OF " + of
	}
	return " FOR UPDATE"
}

// insertReturningID runs an INSERT ... RETURNING id statement.
func insertReturningID(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, error) {
	var id int64
	if err := sqlx.GetContext(ctx, q, &id, q.Rebind(query+` RETURNING id`), args...); err != nil {
		return 0, err
	}
	return id, nil
}

// CreateOrganization creates a new active organization.
func CreateOrganization(ctx context.Context, q sqlx.ExtContext, name, orgType string, now time.Time) (*model.Organization, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO organizations (name, type, status, created_at) VALUES (?, ?, ?, ?)`,
		name, orgType, model.OrgStatusActive, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating organization: %w", err)
	}
	return GetOrganization(ctx, q, id)
}

// GetOrganization returns an organization by ID, or nil if it doesn't exist.
func GetOrganization(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Organization, error) {
	o := &model.Organization{}
	err := sqlx.GetContext(ctx, q, o, q.Rebind(
		`SELECT id, name, type, status, created_at FROM organizations WHERE id = ?`), id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting organization: %w", err)
	}
	return o, nil
}

// ListOrganizations returns all organizations, optionally filtered by type.
func ListOrganizations(ctx context.Context, q sqlx.ExtContext, orgType string) ([]model.Organization, error) {
	query := `SELECT id, name, type, status, created_at FROM organizations`
	var args []any
	if orgType != "" {
		query += ` WHERE type = ?`
		args = append(args, orgType)
	}
	query += ` ORDER BY name, id`

	var orgs []model.Organization
	if err := sqlx.SelectContext(ctx, q, &orgs, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	return orgs, nil
}

// CountOrganizations returns the number of organizations.
func CountOrganizations(ctx context.Context, q sqlx.ExtContext) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM organizations`); err != nil {
		return 0, fmt.Errorf("counting organizations: %w", err)
	}
	return n, nil
}

// UpdateOrganizationStatus sets an organization's status.
func UpdateOrganizationStatus(ctx context.Context, q sqlx.ExtContext, id int64, status string) error {
	_, err := q.ExecContext(ctx, q.Rebind(`UPDATE organizations SET status = ? WHERE id = ?`), status, id)
	if err != nil {
		return fmt.Errorf("updating organization status: %w", err)
	}
	return nil
}

// GetLotSettings returns an organization's lot-numbering settings, or nil if
// none were configured.
func GetLotSettings(ctx context.Context, q sqlx.ExtContext, orgID int64) (*model.LotSettings, error) {
	s := &model.LotSettings{}
	err := sqlx.GetContext(ctx, q, s, q.Rebind(
		`SELECT organization_id, prefix, model_digits, date_format, expiry_months
		 FROM lot_settings WHERE organization_id = ?`), orgID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lot settings: %w", err)
	}
	return s, nil
}

// UpsertLotSettings stores an organization's lot-numbering settings.
func UpsertLotSettings(ctx context.Context, q sqlx.ExtContext, s model.LotSettings) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`INSERT INTO lot_settings (organization_id, prefix, model_digits, date_format, expiry_months)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (organization_id) DO UPDATE SET
		     prefix = excluded.prefix,
		     model_digits = excluded.model_digits,
		     date_format = excluded.date_format,
		     expiry_months = excluded.expiry_months`),
		s.OrganizationID, s.Prefix, s.ModelDigits, s.DateFormat, s.ExpiryMonths,
	)
	if err != nil {
		return fmt.Errorf("storing lot settings: %w", err)
	}
	return nil
}
