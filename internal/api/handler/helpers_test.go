package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openclaw/claw/internal/core"
)

func TestWriteCoreError_SentinelStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("gig g-1: %w", core.ErrNotFound), http.StatusNotFound},
		{"forbidden", fmt.Errorf("gig g-1 is not yours: %w", core.ErrForbidden), http.StatusForbidden},
		{"conflict", fmt.Errorf("gig g-1 is not open: %w", core.ErrConflict), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			writeCoreError(rec, r, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestWriteCoreError_UnclassifiedIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	writeCoreError(rec, r, errors.New(`insert user: ERROR: duplicate key value violates unique constraint "users_pkey" (SQLSTATE 23505)`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Equal(t, "Something went wrong", body["error"])
	assert.NotContains(t, body["error"], "SQLSTATE")
}

func TestWritePaymentError_UpstreamIs502(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	writePaymentError(rec, r, fmt.Errorf("create funding invoice: %w: %v", core.ErrUpstream, errors.New("provider returned 503")))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Equal(t, "Payment provider request failed", body["error"])
	assert.NotContains(t, body["error"], "503")
}
