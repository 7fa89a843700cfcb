package db

// sqliteSchema is the full SQLite database schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS organizations (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    type       TEXT NOT NULL CHECK (type IN ('MANUFACTURER', 'DISTRIBUTOR', 'HOSPITAL', 'ADMIN')),
    status     TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'INACTIVE', 'PENDING')),
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS lot_settings (
    organization_id INTEGER PRIMARY KEY REFERENCES organizations(id),
    prefix          TEXT NOT NULL DEFAULT '',
    model_digits    INTEGER NOT NULL DEFAULT 5 CHECK (model_digits BETWEEN 1 AND 12),
    date_format     TEXT NOT NULL DEFAULT 'YYMMDD' CHECK (date_format IN ('YYMMDD', 'YYYYMMDD', 'YYJJJ')),
    expiry_months   INTEGER NOT NULL DEFAULT 24 CHECK (expiry_months > 0)
);

CREATE TABLE IF NOT EXISTS products (
    id              INTEGER PRIMARY KEY,
    organization_id INTEGER NOT NULL REFERENCES organizations(id),
    name            TEXT NOT NULL,
    model_name      TEXT NOT NULL,
    is_active       BOOLEAN NOT NULL DEFAULT 1,
    created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS patients (
    id         INTEGER PRIMARY KEY,
    phone      TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS lots (
    id               INTEGER PRIMARY KEY,
    product_id       INTEGER NOT NULL REFERENCES products(id),
    lot_number       TEXT NOT NULL,
    quantity         INTEGER NOT NULL CHECK (quantity BETWEEN 1 AND 100000),
    manufacture_date DATE NOT NULL,
    expiry_date      DATE NOT NULL,
    created_at       DATETIME NOT NULL,
    updated_at       DATETIME NOT NULL,
    UNIQUE (product_id, lot_number)
);

CREATE TABLE IF NOT EXISTS virtual_codes (
    id         INTEGER PRIMARY KEY,
    code       TEXT NOT NULL UNIQUE,
    lot_id     INTEGER NOT NULL REFERENCES lots(id),
    status     TEXT NOT NULL CHECK (status IN ('IN_STOCK', 'USED', 'DISPOSED')),
    owner_id   INTEGER NOT NULL,
    owner_type TEXT NOT NULL CHECK (owner_type IN ('ORGANIZATION', 'PATIENT')),
    chain_head TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_virtual_codes_owner
    ON virtual_codes(owner_type, owner_id, status, created_at, id);
CREATE INDEX IF NOT EXISTS idx_virtual_codes_lot ON virtual_codes(lot_id);

CREATE TABLE IF NOT EXISTS shipment_batches (
    id              INTEGER PRIMARY KEY,
    from_owner_id   INTEGER NOT NULL,
    from_owner_type TEXT NOT NULL,
    to_owner_id     INTEGER NOT NULL,
    to_owner_type   TEXT NOT NULL,
    to_org_type     TEXT NOT NULL,
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    created_at      DATETIME NOT NULL,
    is_recalled     BOOLEAN NOT NULL DEFAULT 0,
    recall_kind     TEXT CHECK (recall_kind IN ('RECALL', 'RETURN')),
    recall_reason   TEXT,
    recall_date     DATETIME
);

CREATE TABLE IF NOT EXISTS treatment_records (
    id             INTEGER PRIMARY KEY,
    hospital_id    INTEGER NOT NULL REFERENCES organizations(id),
    patient_id     INTEGER NOT NULL REFERENCES patients(id),
    treatment_date DATE NOT NULL,
    quantity       INTEGER NOT NULL CHECK (quantity > 0),
    created_at     DATETIME NOT NULL,
    is_recalled    BOOLEAN NOT NULL DEFAULT 0,
    recall_reason  TEXT,
    recall_date    DATETIME
);

CREATE TABLE IF NOT EXISTS disposal_records (
    id              INTEGER PRIMARY KEY,
    organization_id INTEGER NOT NULL REFERENCES organizations(id),
    disposal_date   DATE NOT NULL,
    reason_type     TEXT NOT NULL CHECK (reason_type IN ('EXPIRED', 'DAMAGED', 'DEFECTIVE', 'LOST', 'OTHER')),
    reason_custom   TEXT,
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS histories (
    id              INTEGER PRIMARY KEY,
    virtual_code_id INTEGER NOT NULL REFERENCES virtual_codes(id),
    record_kind     TEXT NOT NULL CHECK (record_kind IN ('LOT', 'SHIPMENT', 'TREATMENT', 'DISPOSAL')),
    record_id       INTEGER NOT NULL,
    action_type     TEXT NOT NULL CHECK (action_type IN ('PRODUCED', 'SHIPPED', 'RECEIVED', 'TREATED', 'RECALLED', 'DISPOSED', 'RETURNED')),
    from_owner_id   INTEGER,
    from_owner_type TEXT,
    to_owner_id     INTEGER,
    to_owner_type   TEXT,
    is_recall       BOOLEAN NOT NULL DEFAULT 0,
    created_at      DATETIME NOT NULL,
    prev_hash       TEXT NOT NULL,
    hash            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_histories_code ON histories(virtual_code_id, created_at, id);
CREATE INDEX IF NOT EXISTS idx_histories_record ON histories(record_kind, record_id);
CREATE INDEX IF NOT EXISTS idx_histories_created ON histories(created_at);

CREATE TRIGGER IF NOT EXISTS histories_no_update BEFORE UPDATE ON histories
BEGIN
    SELECT RAISE(ABORT, 'histories is append-only');
END;

CREATE TRIGGER IF NOT EXISTS histories_no_delete BEFORE DELETE ON histories
BEGIN
    SELECT RAISE(ABORT, 'histories is append-only');
END;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// postgresSchema mirrors sqliteSchema for Postgres. Statements are split on
// semicolons, so none may contain one.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS organizations (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    type       TEXT NOT NULL CHECK (type IN ('MANUFACTURER', 'DISTRIBUTOR', 'HOSPITAL', 'ADMIN')),
    status     TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'INACTIVE', 'PENDING')),
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS lot_settings (
    organization_id BIGINT PRIMARY KEY REFERENCES organizations(id),
    prefix          TEXT NOT NULL DEFAULT '',
    model_digits    INTEGER NOT NULL DEFAULT 5 CHECK (model_digits BETWEEN 1 AND 12),
    date_format     TEXT NOT NULL DEFAULT 'YYMMDD' CHECK (date_format IN ('YYMMDD', 'YYYYMMDD', 'YYJJJ')),
    expiry_months   INTEGER NOT NULL DEFAULT 24 CHECK (expiry_months > 0)
);

CREATE TABLE IF NOT EXISTS products (
    id              BIGSERIAL PRIMARY KEY,
    organization_id BIGINT NOT NULL REFERENCES organizations(id),
    name            TEXT NOT NULL,
    model_name      TEXT NOT NULL,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS patients (
    id         BIGSERIAL PRIMARY KEY,
    phone      TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS lots (
    id               BIGSERIAL PRIMARY KEY,
    product_id       BIGINT NOT NULL REFERENCES products(id),
    lot_number       TEXT NOT NULL,
    quantity         INTEGER NOT NULL CHECK (quantity BETWEEN 1 AND 100000),
    manufacture_date DATE NOT NULL,
    expiry_date      DATE NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL,
    UNIQUE (product_id, lot_number)
);

CREATE TABLE IF NOT EXISTS virtual_codes (
    id         BIGSERIAL PRIMARY KEY,
    code       TEXT NOT NULL UNIQUE,
    lot_id     BIGINT NOT NULL REFERENCES lots(id),
    status     TEXT NOT NULL CHECK (status IN ('IN_STOCK', 'USED', 'DISPOSED')),
    owner_id   BIGINT NOT NULL,
    owner_type TEXT NOT NULL CHECK (owner_type IN ('ORGANIZATION', 'PATIENT')),
    chain_head TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_virtual_codes_owner
    ON virtual_codes(owner_type, owner_id, status, created_at, id);
CREATE INDEX IF NOT EXISTS idx_virtual_codes_lot ON virtual_codes(lot_id);

CREATE TABLE IF NOT EXISTS shipment_batches (
    id              BIGSERIAL PRIMARY KEY,
    from_owner_id   BIGINT NOT NULL,
    from_owner_type TEXT NOT NULL,
    to_owner_id     BIGINT NOT NULL,
    to_owner_type   TEXT NOT NULL,
    to_org_type     TEXT NOT NULL,
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    created_at      TIMESTAMPTZ NOT NULL,
    is_recalled     BOOLEAN NOT NULL DEFAULT FALSE,
    recall_kind     TEXT CHECK (recall_kind IN ('RECALL', 'RETURN')),
    recall_reason   TEXT,
    recall_date     TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS treatment_records (
    id             BIGSERIAL PRIMARY KEY,
    hospital_id    BIGINT NOT NULL REFERENCES organizations(id),
    patient_id     BIGINT NOT NULL REFERENCES patients(id),
    treatment_date DATE NOT NULL,
    quantity       INTEGER NOT NULL CHECK (quantity > 0),
    created_at     TIMESTAMPTZ NOT NULL,
    is_recalled    BOOLEAN NOT NULL DEFAULT FALSE,
    recall_reason  TEXT,
    recall_date    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS disposal_records (
    id              BIGSERIAL PRIMARY KEY,
    organization_id BIGINT NOT NULL REFERENCES organizations(id),
    disposal_date   DATE NOT NULL,
    reason_type     TEXT NOT NULL CHECK (reason_type IN ('EXPIRED', 'DAMAGED', 'DEFECTIVE', 'LOST', 'OTHER')),
    reason_custom   TEXT,
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS histories (
    id              BIGSERIAL PRIMARY KEY,
    virtual_code_id BIGINT NOT NULL REFERENCES virtual_codes(id),
    record_kind     TEXT NOT NULL CHECK (record_kind IN ('LOT', 'SHIPMENT', 'TREATMENT', 'DISPOSAL')),
    record_id       BIGINT NOT NULL,
    action_type     TEXT NOT NULL CHECK (action_type IN ('PRODUCED', 'SHIPPED', 'RECEIVED', 'TREATED', 'RECALLED', 'DISPOSED', 'RETURNED')),
    from_owner_id   BIGINT,
    from_owner_type TEXT,
    to_owner_id     BIGINT,
    to_owner_type   TEXT,
    is_recall       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL,
    prev_hash       TEXT NOT NULL,
    hash            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_histories_code ON histories(virtual_code_id, created_at, id);
CREATE INDEX IF NOT EXISTS idx_histories_record ON histories(record_kind, record_id);
CREATE INDEX IF NOT EXISTS idx_histories_created ON histories(created_at);

CREATE OR REPLACE RULE histories_no_update AS ON UPDATE TO histories DO INSTEAD NOTHING;
CREATE OR REPLACE RULE histories_no_delete AS ON DELETE TO histories DO INSTEAD NOTHING;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);
`
