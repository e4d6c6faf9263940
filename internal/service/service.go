package service

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/acoustics"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/cloud"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/repository"
)

var (
	// ErrInvalidInput marks requests rejected before reaching storage.
	ErrInvalidInput  = errors.New("invalid input")
	// ErrNotConfigured is returned by operations that need a cloud service
	// that is switched off.
	ErrNotConfigured = errors.New("service not configured")
)

// Store is the persistence the services need; *repository.Repos satisfies it.
type Store interface {
	InsertCompany(ctx context.Context, c *domain.Company) error
	ListCompanies(ctx context.Context, limit int) ([]domain.Company, error)
	GetCompany(ctx context.Context, id int64) (*domain.Company, error)

	InsertExposure(ctx context.Context, a *domain.ExposureAssessment) error
	ListExposure(ctx context.Context, limit int) ([]domain.ExposureAssessment, error)
	ListExposureByCompany(ctx context.Context, companyID int64) ([]domain.ExposureAssessment, error)
	GetExposure(ctx context.Context, id int64) (*domain.ExposureAssessment, error)
	DeleteExposure(ctx context.Context, id int64) error

	InsertProtector(ctx context.Context, a *domain.ProtectorAssessment) error
	ListProtector(ctx context.Context, limit int) ([]domain.ProtectorAssessment, error)
	ListProtectorByCompany(ctx context.Context, companyID int64) ([]domain.ProtectorAssessment, error)
	GetProtector(ctx context.Context, id int64) (*domain.ProtectorAssessment, error)
	DeleteProtector(ctx context.Context, id int64) error

	InsertSample(ctx context.Context, s *domain.MeterSample) error
	ListSamples(ctx context.Context, meterID string, from, to time.Time) ([]domain.MeterSample, error)
	ListMeterIDs(ctx context.Context, from, to time.Time) ([]string, error)
}

// Archiver keeps JSON snapshots of saved assessments (S3 in production).
type Archiver interface {
	PutSnapshot(ctx context.Context, key string, data []byte) (string, error)
	GetSnapshot(ctx context.Context, key string) ([]byte, error)
	ListSnapshots(ctx context.Context, prefix string) ([]string, error)
	DeleteSnapshot(ctx context.Context, key string) error
}

// Notifier publishes safety alerts (SNS in production).
type Notifier interface {
	SendAlert(ctx context.Context, alert cloud.Alert) error
	SendBatchAlerts(ctx context.Context, alerts []cloud.Alert) error
}

// SegmentMirror copies meter segments to a second store (DynamoDB in production).
type SegmentMirror interface {
	PutSegment(ctx context.Context, sample *domain.MeterSample) error
	BatchPutSegments(ctx context.Context, samples []domain.MeterSample) error
	SegmentsSince(ctx context.Context, meterID string, since time.Time) ([]domain.MeterSample, error)
}

type Services struct {
	Store       Store
	Catalog     *acoustics.ProtectorCatalog
	Assessments *AssessmentService
	Companies   *CompanyService
	Samples     *SampleService
}

type Option func(*options)

type options struct {
	archiver Archiver
	notifier Notifier
	mirror   SegmentMirror
	catalog  *acoustics.ProtectorCatalog
	now      func() time.Time
}

func WithArchiver(a Archiver) Option                   { return func(o *options) { o.archiver = a } }
func WithNotifier(n Notifier) Option                   { return func(o *options) { o.notifier = n } }
func WithSegmentMirror(m SegmentMirror) Option         { return func(o *options) { o.mirror = m } }
func WithCatalog(c *acoustics.ProtectorCatalog) Option { return func(o *options) { o.catalog = c } }
func WithClock(now func() time.Time) Option            { return func(o *options) { o.now = now } }

func New(db *sqlx.DB, opts ...Option) *Services {
	return NewWithStore(repository.New(db), opts...)
}

func NewWithStore(store Store, opts ...Option) *Services {
	o := options{catalog: acoustics.DefaultCatalog(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Services{
		Store:   store,
		Catalog: o.catalog,
		Assessments: &AssessmentService{
			store:    store,
			catalog:  o.catalog,
			archiver: o.archiver,
			notifier: o.notifier,
			now:      o.now,
		},
		Companies: &CompanyService{store: store},
		Samples:   &SampleService{store: store, mirror: o.mirror, notifier: o.notifier},
	}
}
