package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"statement not found", WrapStatementNotFound("FS-1"), http.StatusNotFound},
		{"structure not found", WrapStructureNotFound("abc"), http.StatusNotFound},
		{"validation", WrapValidation("amount is required"), http.StatusBadRequest},
		{"invalid amount", WrapInvalidPaymentAmount("-1", "10"), http.StatusBadRequest},
		{"duplicate statement", WrapStatementExists("dup"), http.StatusConflict},
		{"duplicate payment", WrapPaymentExists("PAY-1"), http.StatusConflict},
		{"structure locked", WrapStructureLocked("abc"), http.StatusConflict},
		{"database", WrapDatabaseError(errors.New("boom")), http.StatusInternalServerError},
		{"wrapped business error", fmt.Errorf("issue: %w", WrapStatementNotFound("FS-2")), http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestBusinessError_Unwrap(t *testing.T) {
	err := WrapPaymentNotFound("PAY-9")

	assert.True(t, errors.Is(err, ErrPaymentNotFound))
	assert.Equal(t, "Payment PAY-9 not found", Message(err))
	assert.Contains(t, err.Error(), ErrCodePaymentNotFound)
	assert.Equal(t, "internal server error", Message(errors.New("raw")))
}
