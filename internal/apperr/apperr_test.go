package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		Validation("x"):       http.StatusUnprocessableEntity,
		Upload("x", nil):      http.StatusBadRequest,
		NotFound("x"):         http.StatusNotFound,
		Forbidden("x", nil):   http.StatusForbidden,
		Unauthorized("x"):     http.StatusUnauthorized,
		Persistence("x", nil): http.StatusBadGateway,
		Internal("x", nil):    http.StatusInternalServerError,
	}
	for e, want := range cases {
		assert.Equal(t, want, e.Status(), string(e.Kind))
	}
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("create previo: %w", Persistence("no se pudo guardar", cause))

	got := As(wrapped)
	assert.Equal(t, KindPersistence, got.Kind)
	assert.ErrorIs(t, got, cause)
	assert.True(t, IsKind(wrapped, KindPersistence))

	plain := As(errors.New("boom"))
	assert.Equal(t, KindInternal, plain.Kind)
}
