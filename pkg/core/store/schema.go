package store

const postgresSchema = `
CREATE TABLE IF NOT EXISTS deals (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	target_company TEXT NOT NULL DEFAULT '',
	industry       TEXT NOT NULL DEFAULT '',
	deal_size      DOUBLE PRECISION NOT NULL DEFAULT 0,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS documents (
	id                  BIGSERIAL PRIMARY KEY,
	deal_id             BIGINT NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
	filename            TEXT NOT NULL,
	file_path           TEXT NOT NULL DEFAULT '',
	file_type           TEXT NOT NULL DEFAULT '',
	file_size           BIGINT NOT NULL DEFAULT 0,
	extracted_text      TEXT,
	doc_type            TEXT,
	doc_type_confidence DOUBLE PRECISION,
	financial_data      JSONB
);

CREATE TABLE IF NOT EXISTS analyses (
	id            BIGSERIAL PRIMARY KEY,
	deal_id       BIGINT NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
	analysis_type TEXT NOT NULL,
	status        TEXT NOT NULL,
	results       JSONB,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at  TIMESTAMPTZ,
	UNIQUE (deal_id, analysis_type)
);

CREATE INDEX IF NOT EXISTS idx_deals_status ON deals (status, updated_at);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS deals (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT NOT NULL,
	target_company TEXT NOT NULL DEFAULT '',
	industry       TEXT NOT NULL DEFAULT '',
	deal_size      REAL NOT NULL DEFAULT 0,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS documents (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	deal_id             INTEGER NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
	filename            TEXT NOT NULL,
	file_path           TEXT NOT NULL DEFAULT '',
	file_type           TEXT NOT NULL DEFAULT '',
	file_size           INTEGER NOT NULL DEFAULT 0,
	extracted_text      TEXT,
	doc_type            TEXT,
	doc_type_confidence REAL,
	financial_data      TEXT
);

CREATE TABLE IF NOT EXISTS analyses (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	deal_id       INTEGER NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
	analysis_type TEXT NOT NULL,
	status        TEXT NOT NULL,
	results       TEXT,
	error_message TEXT,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at  TIMESTAMP,
	UNIQUE (deal_id, analysis_type)
);

CREATE INDEX IF NOT EXISTS idx_deals_status ON deals (status, updated_at);
`
