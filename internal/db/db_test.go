package db

import "testing"

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	var count int
	err := database.Get(&count, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'virtual_codes'`)
	if err != nil {
		t.Fatalf("checking tables: %v", err)
	}
	if count != 1 {
		t.Errorf("expected virtual_codes table, got count %d", count)
	}
}

func TestHistoriesAppendOnly(t *testing.T) {
	database := NewTestDB(t)

	mustExec := func(q string) {
		t.Helper()
		if _, err := database.Exec(q); err != nil {
			t.Fatalf("exec %q: %v", q, err)
		}
	}
	mustExec(`INSERT INTO organizations (id, name, type, created_at) VALUES (1, 'Acme', 'MANUFACTURER', '2024-01-15 00:00:00+00:00')`)
	mustExec(`INSERT INTO products (id, organization_id, name, model_name, created_at) VALUES (1, 1, 'Stent', 'CS-100', '2024-01-15 00:00:00+00:00')`)
	mustExec(`INSERT INTO lots (id, product_id, lot_number, quantity, manufacture_date, expiry_date, created_at, updated_at)
	          VALUES (1, 1, 'L1', 1, '2024-01-15', '2026-01-14', '2024-01-15 00:00:00+00:00', '2024-01-15 00:00:00+00:00')`)
	mustExec(`INSERT INTO virtual_codes (id, code, lot_id, status, owner_id, owner_type, created_at, updated_at)
	          VALUES (1, 'C1', 1, 'IN_STOCK', 1, 'ORGANIZATION', '2024-01-15 00:00:00+00:00', '2024-01-15 00:00:00+00:00')`)
	mustExec(`INSERT INTO histories (virtual_code_id, record_kind, record_id, action_type, created_at, prev_hash, hash)
	          VALUES (1, 'LOT', 1, 'PRODUCED', '2024-01-15 00:00:00+00:00', '', 'h1')`)

	if _, err := database.Exec(`UPDATE histories SET hash = 'forged'`); err == nil {
		t.Error("expected update of histories to fail")
	}
	if _, err := database.Exec(`DELETE FROM histories`); err == nil {
		t.Error("expected delete from histories to fail")
	}
}

func TestLocksRows(t *testing.T) {
	if LocksRows(DriverSQLite) {
		t.Error("sqlite should not use row locks")
	}
	if !LocksRows(DriverPostgres) {
		t.Error("postgres should use row locks")
	}
}

func TestPostgresSchemaIdempotent(t *testing.T) {
	database := NewPostgresTestDB(t)

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	var count int
	err := database.Get(&count, `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = 'virtual_codes'`)
	if err != nil {
		t.Fatalf("checking tables: %v", err)
	}
	if count != 1 {
		t.Errorf("expected virtual_codes table, got count %d", count)
	}
	if !LocksRows(database.DriverName()) {
		t.Error("expected postgres connections to lock rows")
	}
}
