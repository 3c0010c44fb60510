// Package session keeps the in-progress wizard between HTTP requests.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/wizard"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Step is the wizard step a session is on.
type Step string

const (
	StepPackaging Step = "packaging"
	StepProducts  Step = "products"
)

// Session is the explicit wizard context. Header maps to the current header
// key, Products and ActiveIndex to the current products key.
type Session struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	Step        Step                 `json:"step"`
	Header      model.ShipmentHeader `json:"header"`
	Products    []model.Product      `json:"products"`
	ActiveIndex int                  `json:"active_index"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Wizard rebuilds the product wizard from the stored products.
func (s *Session) Wizard(opts ...wizard.Option) *wizard.Wizard {
	return wizard.Restore(wizard.State{Products: s.Products, ActiveIndex: s.ActiveIndex}, opts...)
}

// Apply copies the wizard state back onto the session.
func (s *Session) Apply(w *wizard.Wizard) {
	st := w.State()
	s.Products = st.Products
	s.ActiveIndex = st.ActiveIndex
}

func (s *Session) clone() *Session {
	c := *s
	c.Products = append([]model.Product(nil), s.Products...)
	return &c
}

// Store persists sessions. Implementations are last-write-wins.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// SaveForLater writes the saved products key, separate from the
	// current products.
	SaveForLater(ctx context.Context, id string, products []model.Product) error
	Saved(ctx context.Context, id string) ([]model.Product, error)
	Delete(ctx context.Context, id string) error
}
