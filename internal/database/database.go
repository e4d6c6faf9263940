package database

import (
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/config"
)

func Connect() (*sqlx.DB, error) {
	return sqlx.Connect("pgx", config.DatabaseDSN())
}

// Schema creates the assessment tables when they do not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS companies (
	id                   BIGSERIAL PRIMARY KEY,
	name                 TEXT NOT NULL,
	vat_number           TEXT NOT NULL,
	fiscal_code          TEXT NOT NULL DEFAULT '',
	address              TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	postal_code          TEXT NOT NULL DEFAULT '',
	province             TEXT NOT NULL DEFAULT '',
	phone                TEXT,
	email                TEXT,
	legal_representative TEXT,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS exposure_assessments (
	id           BIGSERIAL PRIMARY KEY,
	company_id   BIGINT REFERENCES companies(id) ON DELETE SET NULL,
	job_title    TEXT NOT NULL,
	department   TEXT NOT NULL,
	measurements JSONB NOT NULL,
	lex          TEXT NOT NULL,
	peak_max     TEXT NOT NULL,
	risk_class   TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS protector_assessments (
	id            BIGSERIAL PRIMARY KEY,
	company_id    BIGINT REFERENCES companies(id) ON DELETE SET NULL,
	job_title     TEXT NOT NULL,
	department    TEXT NOT NULL,
	protector_id  TEXT NOT NULL,
	hml           JSONB NOT NULL,
	reference_lex TEXT NOT NULL,
	pnr           TEXT,
	leff          TEXT,
	adequacy      TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS meter_samples (
	id         BIGSERIAL PRIMARY KEY,
	meter_id   TEXT NOT NULL,
	activity   TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	leq        DOUBLE PRECISION NOT NULL,
	minutes    DOUBLE PRECISION NOT NULL,
	peak       DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS meter_samples_meter_started ON meter_samples (meter_id, started_at);
`

func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(Schema)
	return err
}
