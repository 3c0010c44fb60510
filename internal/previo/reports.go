package previo

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/report"
	"github.com/dharsanguruparan/Previo/internal/repository"
	"github.com/dharsanguruparan/Previo/internal/signing"
)

// Rendered is a PDF ready to download.
type Rendered struct {
	Filename string
	Data     []byte
}

func (s *Service) render(h model.ShipmentHeader, products []model.Product) (*Rendered, error) {
	data, err := s.generator.Render(h, products)
	if err != nil {
		return nil, apperr.Internal("No se pudo generar el PDF", err)
	}
	s.metrics.RecordReport("pdf")
	return &Rendered{Filename: report.Filename(h), Data: data}, nil
}

// SessionReport renders the in-progress session.
func (s *Service) SessionReport(ctx context.Context, id string) (*Rendered, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.render(sess.Header, sess.Products)
}

// SessionPreview renders the in-progress session as a data URL.
func (s *Service) SessionPreview(ctx context.Context, id string) (string, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	uri, err := s.generator.DataURL(sess.Header, sess.Products)
	if err != nil {
		return "", apperr.Internal("No se pudo generar la vista previa", err)
	}
	s.metrics.RecordReport("data_url")
	return uri, nil
}

func (s *Service) stored(ctx context.Context, previoID string) (*repository.Previo, []model.Product, error) {
	p, err := s.previos.Get(ctx, previoID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.products.ListByPrevio(ctx, previoID)
	if err != nil {
		return nil, nil, err
	}
	products := make([]model.Product, len(rows))
	for i, r := range rows {
		products[i] = r.Product()
	}
	return p, products, nil
}

func (s *Service) latest(ctx context.Context, previoID string) *repository.Report {
	if s.reports == nil {
		return nil
	}
	rep, err := s.reports.LatestCompleted(ctx, previoID)
	switch {
	case err == nil:
		return rep
	case !apperr.IsKind(err, apperr.KindNotFound):
		s.log.WithError(err).WithField("previo_id", previoID).Warn("latest report lookup failed")
	}
	return nil
}

// PrevioReport serves the archived PDF of a stored previo, rendering it from
// the persisted products when no archive can be read.
func (s *Service) PrevioReport(ctx context.Context, previoID string) (*Rendered, error) {
	p, products, err := s.stored(ctx, previoID)
	if err != nil {
		return nil, err
	}
	if rep := s.latest(ctx, previoID); rep != nil && s.archive != nil {
		data, err := s.archive.GetReport(ctx, rep.ObjectKey)
		if err == nil {
			s.metrics.RecordReport("archive")
			return &Rendered{Filename: report.Filename(p.Header), Data: data}, nil
		}
		s.log.WithError(err).WithField("object_key", rep.ObjectKey).Warn("archived report unreadable, rendering")
	}
	return s.render(p.Header, products)
}

// Report returns an archive job row.
func (s *Service) Report(ctx context.Context, id string) (*repository.Report, error) {
	if s.reports == nil {
		return nil, apperr.NotFound("Reporte no encontrado")
	}
	return s.reports.Get(ctx, id)
}

// Details is everything known about a stored previo.
type Details struct {
	Previo   *repository.Previo      `json:"previo"`
	Products []repository.ProductRow `json:"products"`
	Images   []model.OperationImage  `json:"images"`
	Report   *repository.Report      `json:"report,omitempty"`
	// ReportURL is a presigned download of the archived PDF.
	ReportURL string `json:"report_url,omitempty"`
}

// Details loads a stored previo with its products, packaging and product
// photos, and the latest archived report when there is one.
func (s *Service) Details(ctx context.Context, previoID string) (*Details, error) {
	p, err := s.previos.Get(ctx, previoID)
	if err != nil {
		return nil, err
	}
	rows, err := s.products.ListByPrevio(ctx, previoID)
	if err != nil {
		return nil, err
	}
	d := &Details{Previo: p, Products: rows}
	if s.photos != nil {
		for _, op := range []model.OperationType{model.OperationEmbalaje, model.OperationPrevio} {
			imgs, err := s.photos.List(ctx, op, previoID, nil)
			if err != nil {
				return nil, err
			}
			d.Images = append(d.Images, imgs...)
		}
	}
	d.Report = s.latest(ctx, previoID)
	if d.Report != nil && s.archive != nil {
		link, err := s.archive.PresignReport(ctx, d.Report.ObjectKey, s.shareTTL)
		if err != nil {
			s.log.WithError(err).WithField("object_key", d.Report.ObjectKey).Warn("presign report failed")
		} else {
			d.ReportURL = link
		}
	}
	return d, nil
}

// ProductDetails is one stored product with its photos.
type ProductDetails struct {
	Product *repository.ProductRow `json:"product"`
	Images  []model.OperationImage `json:"images"`
}

// ProductDetails loads a product of a stored previo. Products of another
// previo are reported as missing.
func (s *Service) ProductDetails(ctx context.Context, previoID, productID string) (*ProductDetails, error) {
	row, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if row.PrevioID != previoID {
		return nil, apperr.NotFound("Producto no encontrado")
	}
	d := &ProductDetails{Product: row}
	if s.photos != nil {
		imgs, err := s.photos.List(ctx, model.OperationPrevio, previoID, &productID)
		if err != nil {
			return nil, err
		}
		d.Images = imgs
	}
	return d, nil
}

// ListInput filters the previo list of a user's organization.
type ListInput struct {
	Status string
	Search string
	Limit  int
}

// List returns the previos of the user's organization, newest first.
func (s *Service) List(ctx context.Context, userID string, in ListInput) ([]repository.PrevioSummary, error) {
	orgID, err := s.orgs.OrganizationForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := model.Status(strings.TrimSpace(in.Status))
	if status != "" && status != model.StatusInProgress && status != model.StatusCompleted {
		return nil, apperr.Validation("status debe ser in-progress o completed")
	}
	return s.previos.List(ctx, repository.ListFilter{
		OrganizationID: orgID,
		Status:         status,
		Search:         strings.TrimSpace(in.Search),
		Limit:          in.Limit,
	})
}

// Share signs a download link for a completed previo.
func (s *Service) Share(ctx context.Context, previoID string) (signing.Link, error) {
	if s.signer == nil {
		return signing.Link{}, apperr.Internal("Enlaces compartidos no configurados", nil)
	}
	p, err := s.previos.Get(ctx, previoID)
	if err != nil {
		return signing.Link{}, err
	}
	if p.Header.Status != model.StatusCompleted {
		return signing.Link{}, apperr.Validation("Solo se pueden compartir previos completados")
	}
	return s.signer.ShareLink(strings.TrimRight(s.publicURL, "/"), previoID, s.shareTTL), nil
}

// SharedReport verifies the query of a share link and renders the previo it
// points to. The previo must still be completed.
func (s *Service) SharedReport(ctx context.Context, q url.Values) (*Rendered, error) {
	if s.signer == nil {
		return nil, apperr.Internal("Enlaces compartidos no configurados", nil)
	}
	previoID, err := s.signer.Verify(q)
	switch {
	case errors.Is(err, signing.ErrExpired):
		return nil, apperr.Forbidden("El enlace ha expirado", err)
	case err != nil:
		return nil, apperr.Forbidden("Enlace inválido", err)
	}
	p, products, err := s.stored(ctx, previoID)
	if err != nil {
		return nil, err
	}
	if p.Header.Status != model.StatusCompleted {
		return nil, apperr.NotFound("Previo no encontrado")
	}
	return s.render(p.Header, products)
}

