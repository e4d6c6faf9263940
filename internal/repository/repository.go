package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

const defaultLimit = 50

type Repos struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultLimit
	}
	return limit
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}

func deleted(res sql.Result, err error, what string, id int64) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

// Companies

func (r *Repos) InsertCompany(ctx context.Context, c *domain.Company) error {
	return r.db.QueryRowxContext(ctx, `INSERT INTO companies(name, vat_number, fiscal_code, address, city, postal_code, province, phone, email, legal_representative)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id, created_at`,
		c.Name, c.VATNumber, c.FiscalCode, c.Address, c.City, c.PostalCode, c.Province, c.Phone, c.Email, c.LegalContact,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *Repos) ListCompanies(ctx context.Context, limit int) ([]domain.Company, error) {
	out := []domain.Company{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, name, vat_number, fiscal_code, address, city, postal_code, province, phone, email, legal_representative, created_at
		FROM companies ORDER BY name LIMIT $1`, limitOrDefault(limit))
	return out, err
}

func (r *Repos) GetCompany(ctx context.Context, id int64) (*domain.Company, error) {
	var c domain.Company
	err := r.db.GetContext(ctx, &c, `SELECT id, name, vat_number, fiscal_code, address, city, postal_code, province, phone, email, legal_representative, created_at
		FROM companies WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "company", id)
	}
	return &c, nil
}

// Exposure assessments

const exposureColumns = `id, company_id, job_title, department, measurements, lex, peak_max, risk_class, created_at`

func (r *Repos) InsertExposure(ctx context.Context, a *domain.ExposureAssessment) error {
	return r.db.QueryRowxContext(ctx, `INSERT INTO exposure_assessments(company_id, job_title, department, measurements, lex, peak_max, risk_class)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		a.CompanyID, a.JobTitle, a.Department, a.Measurements, a.LEX, a.PeakMax, a.RiskClass,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *Repos) ListExposure(ctx context.Context, limit int) ([]domain.ExposureAssessment, error) {
	out := []domain.ExposureAssessment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+exposureColumns+` FROM exposure_assessments ORDER BY created_at DESC LIMIT $1`, limitOrDefault(limit))
	return out, err
}

func (r *Repos) ListExposureByCompany(ctx context.Context, companyID int64) ([]domain.ExposureAssessment, error) {
	out := []domain.ExposureAssessment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+exposureColumns+` FROM exposure_assessments WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	return out, err
}

func (r *Repos) GetExposure(ctx context.Context, id int64) (*domain.ExposureAssessment, error) {
	var a domain.ExposureAssessment
	if err := r.db.GetContext(ctx, &a, `SELECT `+exposureColumns+` FROM exposure_assessments WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "exposure assessment", id)
	}
	return &a, nil
}

func (r *Repos) DeleteExposure(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exposure_assessments WHERE id = $1`, id)
	return deleted(res, err, "exposure assessment", id)
}

// Protector assessments

const protectorColumns = `id, company_id, job_title, department, protector_id, hml, reference_lex, pnr, leff, adequacy, created_at`

func (r *Repos) InsertProtector(ctx context.Context, a *domain.ProtectorAssessment) error {
	return r.db.QueryRowxContext(ctx, `INSERT INTO protector_assessments(company_id, job_title, department, protector_id, hml, reference_lex, pnr, leff, adequacy)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at`,
		a.CompanyID, a.JobTitle, a.Department, a.ProtectorID, a.HML, a.ReferenceLEX, a.PNR, a.EffectiveLevel, a.Adequacy,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *Repos) ListProtector(ctx context.Context, limit int) ([]domain.ProtectorAssessment, error) {
	out := []domain.ProtectorAssessment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+protectorColumns+` FROM protector_assessments ORDER BY created_at DESC LIMIT $1`, limitOrDefault(limit))
	return out, err
}

func (r *Repos) ListProtectorByCompany(ctx context.Context, companyID int64) ([]domain.ProtectorAssessment, error) {
	out := []domain.ProtectorAssessment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+protectorColumns+` FROM protector_assessments WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	return out, err
}

func (r *Repos) GetProtector(ctx context.Context, id int64) (*domain.ProtectorAssessment, error) {
	var a domain.ProtectorAssessment
	if err := r.db.GetContext(ctx, &a, `SELECT `+protectorColumns+` FROM protector_assessments WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "protector assessment", id)
	}
	return &a, nil
}

func (r *Repos) DeleteProtector(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM protector_assessments WHERE id = $1`, id)
	return deleted(res, err, "protector assessment", id)
}

// Meter samples

func (r *Repos) InsertSample(ctx context.Context, s *domain.MeterSample) error {
	return r.db.QueryRowxContext(ctx, `INSERT INTO meter_samples(meter_id, activity, started_at, leq, minutes, peak) VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		s.MeterID, s.Activity, s.StartedAt, s.LEQ, s.Minutes, s.Peak,
	).Scan(&s.ID)
}

// ListSamples returns a meter's segments that started in [from, to).
func (r *Repos) ListSamples(ctx context.Context, meterID string, from, to time.Time) ([]domain.MeterSample, error) {
	out := []domain.MeterSample{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, meter_id, activity, started_at, leq, minutes, peak FROM meter_samples
		WHERE meter_id = $1 AND started_at >= $2 AND started_at < $3 ORDER BY started_at`, meterID, from, to)
	return out, err
}

// ListMeterIDs returns the meters that reported a segment in [from, to).
func (r *Repos) ListMeterIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	out := []string{}
	err := r.db.SelectContext(ctx, &out, `SELECT DISTINCT meter_id FROM meter_samples
		WHERE started_at >= $1 AND started_at < $2 ORDER BY meter_id`, from, to)
	return out, err
}
