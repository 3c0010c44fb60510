// Package wizard holds the product verification state machine: an ordered
// list of products, the index being edited, and the validation rules of
// every wizard step.
package wizard

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/model"
)

// Notice is a user-facing validation message. It never travels as an error:
// a step either advances or returns exactly one notice.
type Notice struct {
	Message      string `json:"notice"`
	Field        string `json:"field,omitempty"`
	ProductIndex *int   `json:"product_index,omitempty"`
}

func (n *Notice) String() string {
	if n == nil {
		return ""
	}
	return n.Message
}

// State is the serializable form of a Wizard.
type State struct {
	Products    []model.Product `json:"products"`
	ActiveIndex int             `json:"active_index"`
}

// Wizard keeps 1 ≤ len(products) and 0 ≤ active < len(products) at all times.
type Wizard struct {
	products []model.Product
	active   int
	newID    func() string
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithIDGenerator replaces the product ID source, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(w *Wizard) { w.newID = fn }
}

// New starts a wizard with one empty product.
func New(opts ...Option) *Wizard {
	w := &Wizard{newID: uuid.NewString}
	for _, opt := range opts {
		opt(w)
	}
	w.products = []model.Product{model.NewProduct(w.newID())}
	return w
}

// Restore rebuilds a wizard from saved state, repairing an empty list or an
// out-of-range index.
func Restore(state State, opts ...Option) *Wizard {
	w := &Wizard{newID: uuid.NewString}
	for _, opt := range opts {
		opt(w)
	}
	w.products = append([]model.Product(nil), state.Products...)
	if len(w.products) == 0 {
		w.products = []model.Product{model.NewProduct(w.newID())}
	}
	w.active = clamp(state.ActiveIndex, len(w.products))
	return w
}

// State returns a copy of the wizard state.
func (w *Wizard) State() State {
	return State{Products: w.Products(), ActiveIndex: w.active}
}

// Products returns a copy of the product list.
func (w *Wizard) Products() []model.Product {
	return append([]model.Product(nil), w.products...)
}

// Len is the number of products.
func (w *Wizard) Len() int { return len(w.products) }

// ActiveIndex is the product being edited.
func (w *Wizard) ActiveIndex() int { return w.active }

// Current returns the product being edited.
func (w *Wizard) Current() model.Product { return w.products[w.active] }

// AddProduct appends an empty product and makes it the active one.
func (w *Wizard) AddProduct() model.Product {
	p := model.NewProduct(w.newID())
	w.products = append(w.products, p)
	w.active = len(w.products) - 1
	return p
}

// RemoveProduct deletes the product at index. The last remaining product
// cannot be removed; that case returns a notice and changes nothing.
func (w *Wizard) RemoveProduct(index int) *Notice {
	if len(w.products) <= 1 {
		return &Notice{Message: "Debe existir al menos un producto"}
	}
	if index < 0 || index >= len(w.products) {
		return &Notice{Message: fmt.Sprintf("El producto %d no existe", index+1)}
	}
	w.products = append(w.products[:index], w.products[index+1:]...)
	if w.active >= len(w.products) {
		w.active = len(w.products) - 1
	}
	return nil
}

// SetCurrentProductIndex switches the product being edited. Switching away
// from an incomplete product is allowed.
func (w *Wizard) SetCurrentProductIndex(index int) error {
	if index < 0 || index >= len(w.products) {
		return apperr.Validation(fmt.Sprintf("índice de producto fuera de rango: %d", index))
	}
	w.active = index
	return nil
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
