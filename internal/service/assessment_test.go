package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/acoustics"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/forminput"
)

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestServices(t *testing.T) (*Services, *memStore, *memArchive, *recordingNotifier) {
	t.Helper()
	store := newMemStore()
	archive := newMemArchive()
	notifier := &recordingNotifier{}
	svcs := NewWithStore(store,
		WithArchiver(archive),
		WithNotifier(notifier),
		WithClock(func() time.Time { return fixedNow }),
	)
	return svcs, store, archive, notifier
}

func TestEvaluateExposure(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)

	ev := svcs.Assessments.EvaluateExposure([]forminput.Row{
		{Activity: "Lathe", Level: "90", Duration: "240", Peak: "130"},
		{Activity: "Office", Level: "70", Duration: "240"},
	})

	assert.Equal(t, 87.0, ev.Exposure.LEX)
	assert.Equal(t, 130.0, ev.Exposure.PeakMax)
	assert.Equal(t, acoustics.RiskHigh, ev.Risk.Band)
	assert.Equal(t, []float64{87.0, 67.0}, ev.Contributions)
}

func TestEvaluateExposureCommaDecimals(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)

	ev := svcs.Assessments.EvaluateExposure([]forminput.Row{
		{Activity: "Grinding", Level: "84,5", Duration: "480", Peak: "128,3"},
	})

	assert.Equal(t, 84.5, ev.Exposure.LEX)
	assert.Equal(t, 128.3, ev.Exposure.PeakMax)
	assert.Equal(t, acoustics.RiskMedium, ev.Risk.Band)
}

func TestEvaluateProtectorCatalogue(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)

	ev := svcs.Assessments.EvaluateProtector(ProtectorInput{
		ProtectorID:  "3m_classic",
		ReferenceLEX: "95",
	})

	require.NotNil(t, ev.Protector)
	assert.Equal(t, "3m_classic", ev.Protector.ID)
	assert.Equal(t, []float64{30, 24, 22}, []float64{ev.H, ev.M, ev.L})
	assert.Equal(t, "M - H/4", ev.Formula)
	require.NotNil(t, ev.Result)
	assert.Equal(t, 16.5, ev.Result.PNR)
	assert.Equal(t, 78.5, ev.Result.EffectiveLevel)
	assert.Equal(t, acoustics.AdequacyOptimal, ev.Result.Adequacy)
	assert.Equal(t, "78.5", ev.Formatted.EffectiveLevel)
}

func TestEvaluateProtectorUsesMeasuredLEX(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)

	ev := svcs.Assessments.EvaluateProtector(ProtectorInput{
		ProtectorID:  "3m_classic",
		Measurements: []forminput.Row{{Activity: "Press", Level: "95", Duration: "480"}},
	})

	assert.Equal(t, 95.0, ev.ReferenceLevel)
	require.NotNil(t, ev.Result)
	assert.Equal(t, 78.5, ev.Result.EffectiveLevel)
}

func TestEvaluateProtectorEnteredValuesWin(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)

	ev := svcs.Assessments.EvaluateProtector(ProtectorInput{
		ProtectorID:  "3m_classic",
		HML:          forminput.HML{M: "30"},
		ReferenceLEX: "95",
	})

	assert.Equal(t, []float64{30, 30, 22}, []float64{ev.H, ev.M, ev.L})
	require.NotNil(t, ev.Result)
	assert.Equal(t, 22.5, ev.Result.PNR)
}

func TestEvaluateProtectorNothingToCompute(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)

	ev := svcs.Assessments.EvaluateProtector(ProtectorInput{ProtectorID: "custom", ReferenceLEX: "95"})

	assert.Nil(t, ev.Protector)
	assert.Nil(t, ev.Result)
	assert.Empty(t, ev.Formula)
	assert.True(t, ev.Formatted.IsEmpty())
	assert.Equal(t, acoustics.EmptyAttenuation, ev.Formatted)
}

func TestSaveExposure(t *testing.T) {
	svcs, store, archive, notifier := newTestServices(t)

	a, err := svcs.Assessments.SaveExposure(context.Background(), ExposureRequest{
		JobTitle:   " Machinist ",
		Department: "Workshop",
		Measurements: []forminput.Row{
			{Activity: "Lathe", Level: "82,4", Duration: "480", Peak: "120"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, "Machinist", a.JobTitle)
	assert.Equal(t, "82.4", a.LEX)
	assert.Equal(t, "120.0", a.PeakMax)
	assert.Equal(t, "MEDIUM - lower exposure action value", a.RiskClass)
	assert.Equal(t, "82.4", a.Measurements[0].Level)
	assert.Len(t, store.exposures, 1)
	assert.Empty(t, notifier.alerts)

	var snapshot domain.ExposureAssessment
	require.Contains(t, archive.objects, "assessments/exposure/1.json")
	require.NoError(t, json.Unmarshal(archive.objects["assessments/exposure/1.json"], &snapshot))
	assert.Equal(t, "82.4", snapshot.LEX)
}

func TestSaveExposureAlertsAboveLimit(t *testing.T) {
	svcs, _, _, notifier := newTestServices(t)

	a, err := svcs.Assessments.SaveExposure(context.Background(), ExposureRequest{
		JobTitle:     "Press operator",
		Department:   "Stamping",
		Measurements: []forminput.Row{{Activity: "Press", Level: "95", Duration: "480", Peak: "138"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "HIGH - exposure limit value exceeded", a.RiskClass)
	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0].Subject, "Press operator")
	assert.Contains(t, notifier.alerts[0].Message, "95.0")
	assert.Contains(t, notifier.alerts[0].Message, "2026-03-02T10:00:00Z")
}

func TestSaveExposureValidation(t *testing.T) {
	svcs, store, _, _ := newTestServices(t)

	_, err := svcs.Assessments.SaveExposure(context.Background(), ExposureRequest{Department: "Workshop"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "job_title")
	assert.Contains(t, err.Error(), "measurements")
	assert.Empty(t, store.exposures)
}

func TestSaveExposureArchiveFailureDoesNotFail(t *testing.T) {
	svcs, store, archive, _ := newTestServices(t)
	archive.failPut = true

	_, err := svcs.Assessments.SaveExposure(context.Background(), ExposureRequest{
		JobTitle:     "Welder",
		Department:   "Fabrication",
		Measurements: []forminput.Row{{Activity: "Welding", Level: "80", Duration: "480"}},
	})
	require.NoError(t, err)
	assert.Len(t, store.exposures, 1)
}

func TestSaveExposureStoreError(t *testing.T) {
	svcs, store, archive, _ := newTestServices(t)
	store.failInsert = errors.New("connection reset")

	_, err := svcs.Assessments.SaveExposure(context.Background(), ExposureRequest{
		JobTitle:     "Welder",
		Department:   "Fabrication",
		Measurements: []forminput.Row{{Activity: "Welding", Level: "80", Duration: "480"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, archive.objects)
}

func TestSaveProtectorInsufficient(t *testing.T) {
	svcs, _, _, notifier := newTestServices(t)

	a, err := svcs.Assessments.SaveProtector(context.Background(), ProtectorRequest{
		JobTitle:   "Press operator",
		Department: "Stamping",
		ProtectorInput: ProtectorInput{
			ProtectorID:  "custom",
			HML:          forminput.HML{H: "5", M: "5", L: "5"},
			ReferenceLEX: "100",
		},
	})
	require.NoError(t, err)

	require.NotNil(t, a.EffectiveLevel)
	assert.Equal(t, "95.0", *a.EffectiveLevel)
	assert.Equal(t, "5.0", *a.PNR)
	assert.Equal(t, "INSUFFICIENT - inadequate protector", *a.Adequacy)
	assert.Equal(t, "100.0", a.ReferenceLEX)
	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0].Message, "Protector: custom")
}

func TestSaveProtectorCatalogue(t *testing.T) {
	svcs, _, archive, notifier := newTestServices(t)

	a, err := svcs.Assessments.SaveProtector(context.Background(), ProtectorRequest{
		JobTitle:   "Machinist",
		Department: "Workshop",
		ProtectorInput: ProtectorInput{
			ProtectorID:  "3m_classic",
			ReferenceLEX: "95",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "OPTIMAL - adequate protection", *a.Adequacy)
	assert.Empty(t, notifier.alerts)
	assert.Contains(t, archive.objects, "assessments/protector/1.json")
}

func TestSaveProtectorWithoutResult(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)

	a, err := svcs.Assessments.SaveProtector(context.Background(), ProtectorRequest{
		JobTitle:       "Clerk",
		Department:     "Office",
		ProtectorInput: ProtectorInput{ProtectorID: "3m_classic"},
	})
	require.NoError(t, err)

	assert.Nil(t, a.PNR)
	assert.Nil(t, a.EffectiveLevel)
	assert.Nil(t, a.Adequacy)
	assert.Equal(t, "0.0", a.ReferenceLEX)
}

func TestSaveProtectorUnknownProtector(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)

	_, err := svcs.Assessments.SaveProtector(context.Background(), ProtectorRequest{
		JobTitle:       "Machinist",
		Department:     "Workshop",
		ProtectorInput: ProtectorInput{ProtectorID: "cotton_wool"},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "cotton_wool")
}

func TestDeleteExposureRemovesSnapshot(t *testing.T) {
	svcs, _, archive, _ := newTestServices(t)
	ctx := context.Background()

	a, err := svcs.Assessments.SaveExposure(ctx, ExposureRequest{
		JobTitle:     "Welder",
		Department:   "Fabrication",
		Measurements: []forminput.Row{{Activity: "Welding", Level: "80", Duration: "480"}},
	})
	require.NoError(t, err)
	require.Len(t, archive.objects, 1)

	require.NoError(t, svcs.Assessments.DeleteExposure(ctx, a.ID))
	assert.Empty(t, archive.objects)

	_, err = svcs.Assessments.GetExposure(ctx, a.ID)
	assert.Error(t, err)
}

func TestListByCompany(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)
	ctx := context.Background()
	company := int64(7)

	for _, id := range []*int64{&company, nil} {
		_, err := svcs.Assessments.SaveExposure(ctx, ExposureRequest{
			CompanyID:    id,
			JobTitle:     "Welder",
			Department:   "Fabrication",
			Measurements: []forminput.Row{{Activity: "Welding", Level: "80", Duration: "480"}},
		})
		require.NoError(t, err)
	}

	items, err := svcs.Assessments.ListExposureByCompany(ctx, company)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	all, err := svcs.Assessments.ListExposure(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCompanyCreateRequiresName(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)
	ctx := context.Background()

	err := svcs.Companies.Create(ctx, &domain.Company{Name: "  "})
	require.ErrorIs(t, err, ErrInvalidInput)

	c := &domain.Company{Name: " Acme Metalworks "}
	require.NoError(t, svcs.Companies.Create(ctx, c))
	got, err := svcs.Companies.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Metalworks", got.Name)
}

func TestSnapshots(t *testing.T) {
	svcs, _, _, _ := newTestServices(t)
	ctx := context.Background()

	a, err := svcs.Assessments.SaveExposure(ctx, ExposureRequest{
		JobTitle:     "Welder",
		Department:   "Fabrication",
		Measurements: []forminput.Row{{Activity: "Welding", Level: "80", Duration: "480"}},
	})
	require.NoError(t, err)
	_, err = svcs.Assessments.SaveProtector(ctx, ProtectorRequest{
		JobTitle:       "Welder",
		Department:     "Fabrication",
		ProtectorInput: ProtectorInput{ProtectorID: "peltor_x5", ReferenceLEX: "80"},
	})
	require.NoError(t, err)

	data, err := svcs.Assessments.ExposureSnapshot(ctx, a.ID)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"job_title":"Welder"`)

	keys, err := svcs.Assessments.ArchivedKeys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"assessments/exposure/1.json", "assessments/protector/2.json"}, keys)

	keys, err = svcs.Assessments.ArchivedKeys(ctx, "protector")
	require.NoError(t, err)
	assert.Equal(t, []string{"assessments/protector/2.json"}, keys)

	_, err = svcs.Assessments.ArchivedKeys(ctx, "company")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSnapshotsWithoutArchive(t *testing.T) {
	svcs := NewWithStore(newMemStore())

	_, err := svcs.Assessments.ExposureSnapshot(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = svcs.Assessments.ArchivedKeys(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
