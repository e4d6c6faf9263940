package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/cloud"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/repository"
)

type memStore struct {
	mu         sync.Mutex
	nextID     int64
	companies  []domain.Company
	exposures  []domain.ExposureAssessment
	protectors []domain.ProtectorAssessment
	samples    []domain.MeterSample
	failInsert error
}

func newMemStore() *memStore { return &memStore{} }

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) InsertCompany(_ context.Context, c *domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.companies = append(s.companies, *c)
	return nil
}

func (s *memStore) ListCompanies(_ context.Context, _ int) ([]domain.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Company{}, s.companies...), nil
}

func (s *memStore) GetCompany(_ context.Context, id int64) (*domain.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.companies {
		if s.companies[i].ID == id {
			c := s.companies[i]
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) InsertExposure(_ context.Context, a *domain.ExposureAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return s.failInsert
	}
	a.ID = s.id()
	s.exposures = append(s.exposures, *a)
	return nil
}

func (s *memStore) ListExposure(_ context.Context, _ int) ([]domain.ExposureAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ExposureAssessment{}, s.exposures...), nil
}

func (s *memStore) ListExposureByCompany(_ context.Context, companyID int64) ([]domain.ExposureAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.ExposureAssessment{}
	for _, a := range s.exposures {
		if a.CompanyID != nil && *a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) GetExposure(_ context.Context, id int64) (*domain.ExposureAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.exposures {
		if s.exposures[i].ID == id {
			a := s.exposures[i]
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) DeleteExposure(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.exposures {
		if s.exposures[i].ID == id {
			s.exposures = append(s.exposures[:i], s.exposures[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) InsertProtector(_ context.Context, a *domain.ProtectorAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return s.failInsert
	}
	a.ID = s.id()
	s.protectors = append(s.protectors, *a)
	return nil
}

func (s *memStore) ListProtector(_ context.Context, _ int) ([]domain.ProtectorAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ProtectorAssessment{}, s.protectors...), nil
}

func (s *memStore) ListProtectorByCompany(_ context.Context, companyID int64) ([]domain.ProtectorAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.ProtectorAssessment{}
	for _, a := range s.protectors {
		if a.CompanyID != nil && *a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) GetProtector(_ context.Context, id int64) (*domain.ProtectorAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.protectors {
		if s.protectors[i].ID == id {
			a := s.protectors[i]
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) DeleteProtector(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.protectors {
		if s.protectors[i].ID == id {
			s.protectors = append(s.protectors[:i], s.protectors[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) InsertSample(_ context.Context, smp *domain.MeterSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	smp.ID = s.id()
	s.samples = append(s.samples, *smp)
	return nil
}

func (s *memStore) ListSamples(_ context.Context, meterID string, from, to time.Time) ([]domain.MeterSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.MeterSample{}
	for _, smp := range s.samples {
		if smp.MeterID == meterID && !smp.StartedAt.Before(from) && smp.StartedAt.Before(to) {
			out = append(out, smp)
		}
	}
	return out, nil
}

func (s *memStore) ListMeterIDs(_ context.Context, from, to time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, smp := range s.samples {
		if !seen[smp.MeterID] && !smp.StartedAt.Before(from) && smp.StartedAt.Before(to) {
			seen[smp.MeterID] = true
			out = append(out, smp.MeterID)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memArchive struct {
	objects map[string][]byte
	failPut bool
}

func newMemArchive() *memArchive { return &memArchive{objects: map[string][]byte{}} }

func (a *memArchive) PutSnapshot(_ context.Context, key string, data []byte) (string, error) {
	if a.failPut {
		return "", errors.New("bucket unavailable")
	}
	a.objects[key] = data
	return "https://archive.local/" + key, nil
}

func (a *memArchive) GetSnapshot(_ context.Context, key string) ([]byte, error) {
	data, ok := a.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (a *memArchive) ListSnapshots(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range a.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (a *memArchive) DeleteSnapshot(_ context.Context, key string) error {
	delete(a.objects, key)
	return nil
}

type recordingNotifier struct {
	alerts  []cloud.Alert
	batches [][]cloud.Alert
	err     error
}

func (n *recordingNotifier) SendAlert(_ context.Context, a cloud.Alert) error {
	n.alerts = append(n.alerts, a)
	return n.err
}

func (n *recordingNotifier) SendBatchAlerts(_ context.Context, alerts []cloud.Alert) error {
	n.batches = append(n.batches, alerts)
	return n.err
}

type recordingMirror struct {
	segments []domain.MeterSample
	err      error
}

func (m *recordingMirror) PutSegment(_ context.Context, s *domain.MeterSample) error {
	m.segments = append(m.segments, *s)
	return m.err
}

func (m *recordingMirror) BatchPutSegments(_ context.Context, samples []domain.MeterSample) error {
	m.segments = append(m.segments, samples...)
	return m.err
}

func (m *recordingMirror) SegmentsSince(_ context.Context, meterID string, since time.Time) ([]domain.MeterSample, error) {
	var out []domain.MeterSample
	for _, s := range m.segments {
		if s.MeterID == meterID && !s.StartedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, m.err
}
