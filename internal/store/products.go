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

// CreateProduct creates a new active product for an organization.
func CreateProduct(ctx context.Context, q sqlx.ExtContext, orgID int64, name, modelName string, now time.Time) (*model.Product, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO products (organization_id, name, model_name, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		orgID, name, modelName, true, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return GetProduct(ctx, q, id)
}

// GetProduct returns a product by ID, or nil if it doesn't exist.
func GetProduct(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Product, error) {
	p := &model.Product{}
	err := sqlx.GetContext(ctx, q, p, q.Rebind(
		`SELECT id, organization_id, name, model_name, is_active, created_at
		 FROM products WHERE id = ?`), id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// ListProducts returns an organization's products.
func ListProducts(ctx context.Context, q sqlx.ExtContext, orgID int64) ([]model.Product, error) {
	var products []model.Product
	err := sqlx.SelectContext(ctx, q, &products, q.Rebind(
		`SELECT id, organization_id, name, model_name, is_active, created_at
		 FROM products WHERE organization_id = ? ORDER BY name, id`), orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// SetProductActive activates or deactivates a product.
func SetProductActive(ctx context.Context, q sqlx.ExtContext, id int64, active bool) error {
	_, err := q.ExecContext(ctx, q.Rebind(`UPDATE products SET is_active = ? WHERE id = ?`), active, id)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	return nil
}

// UpsertPatient returns the patient with the given normalized phone number,
// creating it if needed.
func UpsertPatient(ctx context.Context, q sqlx.ExtContext, phone string, now time.Time) (*model.Patient, error) {
	_, err := q.ExecContext(ctx, q.Rebind(
		`INSERT INTO patients (phone, created_at) VALUES (?, ?) ON CONFLICT (phone) DO NOTHING`),
		phone, now,
	)
	if err != nil {
		return nil, fmt.Errorf("storing patient: %w", err)
	}

	p := &model.Patient{}
	err = sqlx.GetContext(ctx, q, p, q.Rebind(`SELECT id, phone, created_at FROM patients WHERE phone = ?`), phone)
	if err != nil {
		return nil, fmt.Errorf("getting patient: %w", err)
	}
	return p, nil
}

// GetPatient returns a patient by ID, or nil if it doesn't exist.
func GetPatient(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Patient, error) {
	p := &model.Patient{}
	err := sqlx.GetContext(ctx, q, p, q.Rebind(`SELECT id, phone, created_at FROM patients WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting patient: %w", err)
	}
	return p, nil
}
