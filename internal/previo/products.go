package previo

import (
	"context"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/session"
	"github.com/dharsanguruparan/Previo/internal/wizard"
)

// mutate runs fn on the session's product wizard and saves the result.
// A notice is returned next to the saved session; an error saves nothing.
func (s *Service) mutate(ctx context.Context, id string, fn func(*wizard.Wizard) (*wizard.Notice, error)) (*session.Session, *wizard.Notice, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sess.Step != session.StepProducts {
		return nil, nil, apperr.Validation("Complete primero la información de embalaje")
	}
	w := sess.Wizard(wizard.WithIDGenerator(s.newID))
	notice, err := fn(w)
	if err != nil {
		return nil, nil, err
	}
	sess.Apply(w)
	if err := s.save(ctx, sess); err != nil {
		return nil, nil, err
	}
	if notice != nil {
		s.metrics.RecordNotice("products")
	}
	return sess, notice, nil
}

// AddProduct appends a blank product and makes it the active one.
func (s *Service) AddProduct(ctx context.Context, id string) (*session.Session, error) {
	sess, _, err := s.mutate(ctx, id, func(w *wizard.Wizard) (*wizard.Notice, error) {
		w.AddProduct()
		return nil, nil
	})
	return sess, err
}

// RemoveProduct drops the product at index. Removing the last product is
// refused with a notice.
func (s *Service) RemoveProduct(ctx context.Context, id string, index int) (*session.Session, *wizard.Notice, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) (*wizard.Notice, error) {
		return w.RemoveProduct(index), nil
	})
}

// UpdateProductField writes one field of the active product.
func (s *Service) UpdateProductField(ctx context.Context, id, field string, value any) (*session.Session, error) {
	sess, _, err := s.mutate(ctx, id, func(w *wizard.Wizard) (*wizard.Notice, error) {
		return nil, w.UpdateProductField(field, value)
	})
	return sess, err
}

// SetCurrentProductIndex switches the active product.
func (s *Service) SetCurrentProductIndex(ctx context.Context, id string, index int) (*session.Session, error) {
	sess, _, err := s.mutate(ctx, id, func(w *wizard.Wizard) (*wizard.Notice, error) {
		return nil, w.SetCurrentProductIndex(index)
	})
	return sess, err
}

// ValidateProducts checks every product in order. On the first failure the
// offending product becomes active and the notice names it.
func (s *Service) ValidateProducts(ctx context.Context, id string) (*session.Session, *wizard.Notice, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) (*wizard.Notice, error) {
		return w.ValidateProducts(), nil
	})
}

// SaveForLater copies the current products into the saved slot of the
// session without completing the previo.
func (s *Service) SaveForLater(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SaveForLater(ctx, id, sess.Products); err != nil {
		return nil, apperr.Internal("No se pudo guardar el progreso", err)
	}
	s.sessionLog(sess).WithField("products", len(sess.Products)).Info("products saved for later")
	return sess, nil
}
