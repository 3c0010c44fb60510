package previo

import (
	"context"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/session"
	"github.com/dharsanguruparan/Previo/internal/wizard"
)

// Completion is the outcome of Complete.
type Completion struct {
	PrevioID string `json:"previo_id"`
	ReportID string `json:"report_id,omitempty"`
	Products int    `json:"products"`
}

// Complete validates every product, persists them in order, marks the
// previo completed and tears the session down. Tearing down happens only
// after every write succeeded. Archiving the report is best effort.
func (s *Service) Complete(ctx context.Context, id string) (*Completion, *session.Session, *wizard.Notice, error) {
	sess, notice, err := s.ValidateProducts(ctx, id)
	if err != nil || notice != nil {
		return nil, sess, notice, err
	}
	previoID := sess.Header.PrevioID()
	if previoID == "" {
		return nil, nil, nil, apperr.Validation("El previo aún no ha sido creado")
	}
	log := s.sessionLog(sess)

	if err := s.products.CreateAll(ctx, previoID, sess.Products); err != nil {
		log.WithError(err).Error("persist products failed")
		return nil, nil, nil, err
	}
	if err := s.previos.SetStatus(ctx, previoID, model.StatusCompleted); err != nil {
		log.WithError(err).Error("mark previo completed failed")
		return nil, nil, nil, err
	}

	out := &Completion{PrevioID: previoID, Products: len(sess.Products)}
	if s.archiver != nil {
		reportID, err := s.archiver.Archive(ctx, previoID)
		if err != nil {
			log.WithError(err).Warn("report archiving not scheduled")
		} else {
			out.ReportID = reportID
		}
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("session not removed after completion")
	}
	s.metrics.RecordCompleted()
	log.WithField("products", out.Products).Info("previo completed")
	return out, nil, nil, nil
}

// ResumeSaved replaces the current products with the saved-for-later ones.
func (s *Service) ResumeSaved(ctx context.Context, id string) (*session.Session, error) {
	saved, err := s.sessions.Saved(ctx, id)
	if err != nil {
		return nil, apperr.Internal("No se pudo leer el progreso guardado", err)
	}
	if len(saved) == 0 {
		return nil, apperr.NotFound("No hay productos guardados para esta sesión")
	}
	sess, _, err := s.mutate(ctx, id, func(w *wizard.Wizard) (*wizard.Notice, error) {
		*w = *wizard.Restore(wizard.State{Products: saved}, wizard.WithIDGenerator(s.newID))
		return nil, nil
	})
	return sess, err
}
