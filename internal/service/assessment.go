package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/acoustics"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/cloud"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/forminput"
)

type AssessmentService struct {
	store    Store
	catalog  *acoustics.ProtectorCatalog
	archiver Archiver
	notifier Notifier
	now      func() time.Time
}

// ExposureEvaluation is the engine output for a set of form rows.
type ExposureEvaluation struct {
	Exposure      acoustics.ExposureResult `json:"exposure"`
	Risk          acoustics.RiskClass      `json:"risk"`
	Contributions []float64                `json:"contributions"` // per-row LEX,8h share
}

// EvaluateExposure parses the rows and runs the exposure calculator and risk
// classifier.
func (s *AssessmentService) EvaluateExposure(rows []forminput.Row) ExposureEvaluation {
	set := forminput.ToMeasurementSet(rows)
	exposure := acoustics.ComputeExposure(set)

	contributions := make([]float64, len(set))
	for i, m := range set {
		contributions[i] = acoustics.PartialExposure(m)
	}
	return ExposureEvaluation{
		Exposure:      exposure,
		Risk:          acoustics.ClassifyRisk(exposure.LEX),
		Contributions: contributions,
	}
}

// ProtectorInput is the hearing-protector form. ReferenceLEX overrides the
// LEX computed from Measurements when it holds a non-zero number.
type ProtectorInput struct {
	ProtectorID  string          `json:"protector_id"`
	HML          forminput.HML   `json:"hml"`
	ReferenceLEX string          `json:"reference_lex"`
	Measurements []forminput.Row `json:"measurements,omitempty"`
}

// ProtectorEvaluation reports the values the HML method ran on and its
// result. Result is nil when there was nothing to compute.
type ProtectorEvaluation struct {
	Protector      *acoustics.ProtectorProfile    `json:"protector,omitempty"`
	H              float64                        `json:"h"`
	M              float64                        `json:"m"`
	L              float64                        `json:"l"`
	ReferenceLevel float64                        `json:"reference_level"`
	Formula        string                         `json:"formula,omitempty"`
	Result         *acoustics.AttenuationResult   `json:"result,omitempty"`
	Formatted      acoustics.FormattedAttenuation `json:"formatted"`
}

// EvaluateProtector resolves the protector's H/M/L, picks the reference level
// and applies the HML method.
func (s *AssessmentService) EvaluateProtector(in ProtectorInput) ProtectorEvaluation {
	var ev ProtectorEvaluation
	if p, ok := s.catalog.Get(in.ProtectorID); ok && in.ProtectorID != acoustics.CustomProtectorID {
		ev.Protector = &p
	}

	h, m, l := in.HML.Entered()
	ev.H, ev.M, ev.L = s.catalog.Resolve(in.ProtectorID, h, m, l)

	lex := acoustics.DailyExposureLevel(forminput.ToMeasurementSet(in.Measurements))
	ev.ReferenceLevel = acoustics.ResolveReferenceLevel(forminput.ParseNumber(in.ReferenceLEX), lex)

	result, ok := acoustics.ComputeAttenuation(ev.ReferenceLevel, ev.H, ev.M, ev.L)
	if !ok {
		ev.Formatted = acoustics.EmptyAttenuation
		return ev
	}
	ev.Result = &result
	ev.Formula = acoustics.HMLFormula(ev.ReferenceLevel).Formula
	ev.Formatted = result.Formatted()
	return ev
}

// ExposureRequest is a daily-exposure assessment to save.
type ExposureRequest struct {
	CompanyID    *int64          `json:"company_id"`
	JobTitle     string          `json:"job_title"`
	Department   string          `json:"department"`
	Measurements []forminput.Row `json:"measurements"`
}

func (r ExposureRequest) validate() error {
	var missing []string
	if strings.TrimSpace(r.JobTitle) == "" {
		missing = append(missing, "job_title")
	}
	if strings.TrimSpace(r.Department) == "" {
		missing = append(missing, "department")
	}
	if len(r.Measurements) == 0 {
		missing = append(missing, "measurements")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// SaveExposure evaluates the rows server-side and stores the assessment.
func (s *AssessmentService) SaveExposure(ctx context.Context, req ExposureRequest) (*domain.ExposureAssessment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	ev := s.EvaluateExposure(req.Measurements)

	a := &domain.ExposureAssessment{
		CompanyID:    req.CompanyID,
		JobTitle:     strings.TrimSpace(req.JobTitle),
		Department:   strings.TrimSpace(req.Department),
		Measurements: normalizeRows(req.Measurements),
		LEX:          acoustics.FormatLevel(ev.Exposure.LEX),
		PeakMax:      acoustics.FormatLevel(ev.Exposure.PeakMax),
		RiskClass:    ev.Risk.Label,
	}
	if err := s.store.InsertExposure(ctx, a); err != nil {
		return nil, fmt.Errorf("insert exposure assessment: %w", err)
	}

	s.archive(ctx, exposureKey(a.ID), a)
	if ev.Risk.Band == acoustics.RiskHigh {
		s.alert(ctx, cloud.ExposureAlert(a, s.now()))
	}
	return a, nil
}

// ProtectorRequest is a hearing-protector assessment to save.
type ProtectorRequest struct {
	CompanyID  *int64 `json:"company_id"`
	JobTitle   string `json:"job_title"`
	Department string `json:"department"`
	ProtectorInput
}

func (r ProtectorRequest) validate(catalog *acoustics.ProtectorCatalog) error {
	var missing []string
	if strings.TrimSpace(r.JobTitle) == "" {
		missing = append(missing, "job_title")
	}
	if strings.TrimSpace(r.Department) == "" {
		missing = append(missing, "department")
	}
	if r.ProtectorID == "" {
		missing = append(missing, "protector_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if _, ok := catalog.Get(r.ProtectorID); !ok {
		return fmt.Errorf("%w: unknown protector %q", ErrInvalidInput, r.ProtectorID)
	}
	return nil
}

// SaveProtector evaluates the protector server-side and stores the assessment.
// The stored reference LEX is the level actually used.
func (s *AssessmentService) SaveProtector(ctx context.Context, req ProtectorRequest) (*domain.ProtectorAssessment, error) {
	if err := req.validate(s.catalog); err != nil {
		return nil, err
	}
	ev := s.EvaluateProtector(req.ProtectorInput)

	a := &domain.ProtectorAssessment{
		CompanyID:    req.CompanyID,
		JobTitle:     strings.TrimSpace(req.JobTitle),
		Department:   strings.TrimSpace(req.Department),
		ProtectorID:  req.ProtectorID,
		HML:          domain.HMLValues(req.HML.Normalize()),
		ReferenceLEX: acoustics.FormatLevel(ev.ReferenceLevel),
	}
	if ev.Result != nil {
		a.PNR = &ev.Formatted.PNR
		a.EffectiveLevel = &ev.Formatted.EffectiveLevel
		a.Adequacy = &ev.Formatted.Adequacy
	}
	if err := s.store.InsertProtector(ctx, a); err != nil {
		return nil, fmt.Errorf("insert protector assessment: %w", err)
	}

	s.archive(ctx, protectorKey(a.ID), a)
	if ev.Result != nil && ev.Result.Adequacy == acoustics.AdequacyInsufficient {
		name := req.ProtectorID
		if ev.Protector != nil {
			name = ev.Protector.Name
		}
		s.alert(ctx, cloud.ProtectorAlert(a, name, s.now()))
	}
	return a, nil
}

func (s *AssessmentService) GetExposure(ctx context.Context, id int64) (*domain.ExposureAssessment, error) {
	return s.store.GetExposure(ctx, id)
}

func (s *AssessmentService) ListExposure(ctx context.Context, limit int) ([]domain.ExposureAssessment, error) {
	return s.store.ListExposure(ctx, limit)
}

func (s *AssessmentService) ListExposureByCompany(ctx context.Context, companyID int64) ([]domain.ExposureAssessment, error) {
	return s.store.ListExposureByCompany(ctx, companyID)
}

func (s *AssessmentService) DeleteExposure(ctx context.Context, id int64) error {
	if err := s.store.DeleteExposure(ctx, id); err != nil {
		return err
	}
	s.unarchive(ctx, exposureKey(id))
	return nil
}

func (s *AssessmentService) GetProtector(ctx context.Context, id int64) (*domain.ProtectorAssessment, error) {
	return s.store.GetProtector(ctx, id)
}

func (s *AssessmentService) ListProtector(ctx context.Context, limit int) ([]domain.ProtectorAssessment, error) {
	return s.store.ListProtector(ctx, limit)
}

func (s *AssessmentService) ListProtectorByCompany(ctx context.Context, companyID int64) ([]domain.ProtectorAssessment, error) {
	return s.store.ListProtectorByCompany(ctx, companyID)
}

func (s *AssessmentService) DeleteProtector(ctx context.Context, id int64) error {
	if err := s.store.DeleteProtector(ctx, id); err != nil {
		return err
	}
	s.unarchive(ctx, protectorKey(id))
	return nil
}

// ExposureSnapshot returns the archived JSON of a saved exposure assessment.
func (s *AssessmentService) ExposureSnapshot(ctx context.Context, id int64) ([]byte, error) {
	return s.snapshot(ctx, exposureKey(id))
}

// ProtectorSnapshot returns the archived JSON of a saved protector assessment.
func (s *AssessmentService) ProtectorSnapshot(ctx context.Context, id int64) ([]byte, error) {
	return s.snapshot(ctx, protectorKey(id))
}

func (s *AssessmentService) snapshot(ctx context.Context, key string) ([]byte, error) {
	if s.archiver == nil {
		return nil, fmt.Errorf("snapshot archive: %w", ErrNotConfigured)
	}
	return s.archiver.GetSnapshot(ctx, key)
}

// ArchivedKeys lists snapshot keys for kind ("exposure" or "protector"), or
// all of them when kind is empty.
func (s *AssessmentService) ArchivedKeys(ctx context.Context, kind string) ([]string, error) {
	if s.archiver == nil {
		return nil, fmt.Errorf("snapshot archive: %w", ErrNotConfigured)
	}
	prefix := archivePrefix
	switch kind {
	case "":
	case "exposure", "protector":
		prefix += kind + "/"
	default:
		return nil, fmt.Errorf("%w: unknown assessment kind %q", ErrInvalidInput, kind)
	}
	return s.archiver.ListSnapshots(ctx, prefix)
}

const archivePrefix = "assessments/"

func exposureKey(id int64) string  { return fmt.Sprintf(archivePrefix+"exposure/%d.json", id) }
func protectorKey(id int64) string { return fmt.Sprintf(archivePrefix+"protector/%d.json", id) }

func normalizeRows(rows []forminput.Row) domain.Measurements {
	out := make(domain.Measurements, len(rows))
	for i, r := range rows {
		out[i] = forminput.Row{
			Activity: strings.TrimSpace(r.Activity),
			Level:    forminput.NormalizeNumber(r.Level),
			Duration: forminput.NormalizeNumber(r.Duration),
			Peak:     forminput.NormalizeNumber(r.Peak),
		}
	}
	return out
}

// Archive and alert failures never fail the save; the record is already stored.

func (s *AssessmentService) archive(ctx context.Context, key string, v any) {
	if s.archiver == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("snapshot encode failed")
		return
	}
	if _, err := s.archiver.PutSnapshot(ctx, key, data); err != nil {
		log.Error().Err(err).Str("key", key).Msg("snapshot archive failed")
	}
}

func (s *AssessmentService) unarchive(ctx context.Context, key string) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.DeleteSnapshot(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("snapshot delete failed")
	}
}

func (s *AssessmentService) alert(ctx context.Context, a cloud.Alert) {
	if s.notifier == nil {
		log.Warn().Str("subject", a.Subject).Msg("alert not sent: notifications disabled")
		return
	}
	if err := s.notifier.SendAlert(ctx, a); err != nil {
		log.Error().Err(err).Str("subject", a.Subject).Msg("alert publish failed")
	}
}
