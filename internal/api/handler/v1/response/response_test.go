package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.Permission("no"), http.StatusForbidden},
		{apperr.State("later"), http.StatusConflict},
		{apperr.Conflict("dup"), http.StatusConflict},
		{apperr.InsufficientFunds("poor"), http.StatusPaymentRequired},
		{apperr.NotFound("gone"), http.StatusNotFound},
		{apperr.Integrity("broken"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("s.store.X -> %w", tt.err)
			assert.Equal(t, tt.status, FromError(wrapped).HTTPStatusCode)
		})
	}
}

func TestFromErrorHidesChain(t *testing.T) {
	e := FromError(fmt.Errorf("InventoryService.Purchase -> %w", apperr.InsufficientFunds("purchase costs %d innopoints", 30)))
	assert.Equal(t, "purchase costs 30 innopoints", e.Message)
	assert.Equal(t, "Payment Required", e.StatusText)

	e = FromError(errors.New("dial tcp: connection refused"))
	assert.Empty(t, e.Message)
}
