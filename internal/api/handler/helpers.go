package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/openclaw/claw/internal/api/response"
	"github.com/openclaw/claw/internal/core"
	"github.com/openclaw/claw/internal/webhook"
)

// Dispatcher fans out webhook events. *webhook.Dispatcher satisfies this.
type Dispatcher interface {
	Trigger(ctx context.Context, event, ownerUserID string, data any) []webhook.Delivery
}

// nopDispatcher is used when no dispatcher is wired, e.g. in tests.
type nopDispatcher struct{}

func (nopDispatcher) Trigger(context.Context, string, string, any) []webhook.Delivery { return nil }

// isCoreSentinel reports whether the error carries one of core's
// classification sentinels.
func isCoreSentinel(err error) bool {
	return errors.Is(err, core.ErrNotFound) ||
		errors.Is(err, core.ErrForbidden) ||
		errors.Is(err, core.ErrConflict)
}

// writeCoreError maps core sentinel errors to HTTP statuses. Anything
// unclassified is a 500 with a generic body; the detail goes to the request
// logger only, so wrapped SQL never reaches the client.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrForbidden):
		response.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrConflict):
		response.WriteError(w, http.StatusConflict, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled error")
		response.WriteError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
