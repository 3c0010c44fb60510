// Package previo is the application service behind the HTTP API. It drives
// the header, packaging and product steps of a wizard session, binds photos
// to session slots and completes the previo.
package previo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/imageupload"
	"github.com/dharsanguruparan/Previo/internal/metrics"
	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/report"
	"github.com/dharsanguruparan/Previo/internal/repository"
	"github.com/dharsanguruparan/Previo/internal/session"
	"github.com/dharsanguruparan/Previo/internal/signing"
)

// PrevioStore is the previos table.
type PrevioStore interface {
	Create(ctx context.Context, h *model.ShipmentHeader, organizationID, createdBy string) error
	UpdatePackaging(ctx context.Context, h model.ShipmentHeader) error
	SetStatus(ctx context.Context, id string, status model.Status) error
	Get(ctx context.Context, id string) (*repository.Previo, error)
	List(ctx context.Context, f repository.ListFilter) ([]repository.PrevioSummary, error)
}

// ProductStore is the products table.
type ProductStore interface {
	CreateAll(ctx context.Context, previoID string, products []model.Product) error
	ListByPrevio(ctx context.Context, previoID string) ([]repository.ProductRow, error)
	Get(ctx context.Context, id string) (*repository.ProductRow, error)
}

// OrganizationResolver finds the tenant of a user.
type OrganizationResolver interface {
	OrganizationForUser(ctx context.Context, userID string) (string, error)
}

// Photos uploads and indexes operation photos.
type Photos interface {
	Upload(ctx context.Context, req imageupload.Request) (*model.OperationImage, error)
	List(ctx context.Context, op model.OperationType, operationID string, productID *string) ([]model.OperationImage, error)
	Delete(ctx context.Context, url string) error
}

// Archiver schedules the archived report of a completed previo.
type Archiver interface {
	Archive(ctx context.Context, previoID string) (string, error)
}

// Reports finds archived report rows.
type Reports interface {
	Get(ctx context.Context, id string) (*repository.Report, error)
	LatestCompleted(ctx context.Context, previoID string) (*repository.Report, error)
}

// ArchiveStore reads archived report blobs.
type ArchiveStore interface {
	GetReport(ctx context.Context, key string) ([]byte, error)
	PresignReport(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Deps groups the Service collaborators. Archiver, Reports and Archive may
// be nil.
type Deps struct {
	Sessions      session.Store
	Previos       PrevioStore
	Products      ProductStore
	Organizations OrganizationResolver
	Photos        Photos
	Archiver      Archiver
	Reports       Reports
	Archive       ArchiveStore
	Generator     *report.Generator
	Signer        *signing.Signer
	Metrics       *metrics.Metrics
	Log           *logrus.Entry
	PublicURL     string
	ShareTTL      time.Duration
	Now           func() time.Time
	NewID         func() string
}

// Service implements every wizard operation.
type Service struct {
	sessions  session.Store
	previos   PrevioStore
	products  ProductStore
	orgs      OrganizationResolver
	photos    Photos
	archiver  Archiver
	reports   Reports
	archive   ArchiveStore
	generator *report.Generator
	signer    *signing.Signer
	metrics   *metrics.Metrics
	log       *logrus.Entry
	publicURL string
	shareTTL  time.Duration
	now       func() time.Time
	newID     func() string
}

// New constructs a Service.
func New(d Deps) *Service {
	s := &Service{
		sessions:  d.Sessions,
		previos:   d.Previos,
		products:  d.Products,
		orgs:      d.Organizations,
		photos:    d.Photos,
		archiver:  d.Archiver,
		reports:   d.Reports,
		archive:   d.Archive,
		generator: d.Generator,
		signer:    d.Signer,
		metrics:   d.Metrics,
		log:       d.Log,
		publicURL: d.PublicURL,
		shareTTL:  d.ShareTTL,
		now:       d.Now,
		newID:     d.NewID,
	}
	if s.generator == nil {
		s.generator = report.New()
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.log = s.log.WithField("component", "previo")
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.shareTTL <= 0 {
		s.shareTTL = 24 * time.Hour
	}
	return s
}

// load fetches a session and maps a miss onto a not-found error.
func (s *Service) load(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return nil, apperr.NotFound("Sesión no encontrada o expirada")
	}
	if err != nil {
		return nil, apperr.Internal("No se pudo leer la sesión", err)
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess *session.Session) error {
	if err := s.sessions.Save(ctx, sess); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return apperr.NotFound("Sesión no encontrada o expirada")
		}
		return apperr.Internal("No se pudo guardar la sesión", err)
	}
	return nil
}

func (s *Service) sessionLog(sess *session.Session) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{"session_id": sess.ID, "previo_id": sess.Header.PrevioID()})
}

// Session returns the stored wizard session.
func (s *Service) Session(ctx context.Context, id string) (*session.Session, error) {
	return s.load(ctx, id)
}
