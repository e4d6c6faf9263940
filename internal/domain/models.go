package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/forminput"
)

type Company struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	VATNumber    string    `db:"vat_number" json:"vat_number"`
	FiscalCode   string    `db:"fiscal_code" json:"fiscal_code"`
	Address      string    `db:"address" json:"address"`
	City         string    `db:"city" json:"city"`
	PostalCode   string    `db:"postal_code" json:"postal_code"`
	Province     string    `db:"province" json:"province"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Email        *string   `db:"email" json:"email,omitempty"`
	LegalContact *string   `db:"legal_representative" json:"legal_representative,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ExposureAssessment is a saved daily-exposure evaluation. Results are kept
// in their rendered string form so reports reprint exactly what was shown.
type ExposureAssessment struct {
	ID           int64        `db:"id" json:"id"`
	CompanyID    *int64       `db:"company_id" json:"company_id"`
	JobTitle     string       `db:"job_title" json:"job_title"`
	Department   string       `db:"department" json:"department"`
	Measurements Measurements `db:"measurements" json:"measurements"`
	LEX          string       `db:"lex" json:"lex"`
	PeakMax      string       `db:"peak_max" json:"peak_max"`
	RiskClass    string       `db:"risk_class" json:"risk_class"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// ProtectorAssessment is a saved hearing-protector evaluation. PNR, L'eff
// and adequacy are nil when there was nothing to compute.
type ProtectorAssessment struct {
	ID             int64     `db:"id" json:"id"`
	CompanyID      *int64    `db:"company_id" json:"company_id"`
	JobTitle       string    `db:"job_title" json:"job_title"`
	Department     string    `db:"department" json:"department"`
	ProtectorID    string    `db:"protector_id" json:"protector_id"`
	HML            HMLValues `db:"hml" json:"hml"`
	ReferenceLEX   string    `db:"reference_lex" json:"reference_lex"`
	PNR            *string   `db:"pnr" json:"pnr"`
	EffectiveLevel *string   `db:"leff" json:"leff"`
	Adequacy       *string   `db:"adequacy" json:"adequacy"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// MeterSample is one activity segment reported by a sound level meter.
type MeterSample struct {
	ID        int64     `db:"id" json:"id"`
	MeterID   string    `db:"meter_id" json:"meter_id"`
	Activity  string    `db:"activity" json:"activity"`
	StartedAt time.Time `db:"started_at" json:"started_at"`
	LEQ       float64   `db:"leq" json:"leq"`
	Minutes   float64   `db:"minutes" json:"minutes"`
	Peak      *float64  `db:"peak" json:"peak,omitempty"`
}

// Measurements is stored as a JSONB column.
type Measurements []forminput.Row

// HMLValues is stored as a JSONB column.
type HMLValues forminput.HML

func (m Measurements) Value() (driver.Value, error) {
	if m == nil {
		m = Measurements{}
	}
	return json.Marshal(m)
}

func (m *Measurements) Scan(src any) error {
	return scanJSON(src, m)
}

func (h HMLValues) Value() (driver.Value, error) {
	return json.Marshal(h)
}

func (h *HMLValues) Scan(src any) error {
	return scanJSON(src, h)
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}
