package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/openclaw/claw/internal/model"
)

func newSubmissionHandler() *Submission {
	return NewSubmission(nil, nil, nil, nil, nil, zerolog.Nop())
}

func TestSubmissionSubmit_MissingDeliverableURL(t *testing.T) {
	h := newSubmissionHandler()
	rec := httptest.NewRecorder()
	r := withUser(newRequest(http.MethodPost, "/api/gigs/gig-1/submit", map[string]any{
		"notes": "done",
	}), &model.User{ID: validID})
	r = withChiURLParam(r, "id", "gig-1")

	h.Submit(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestSubmissionSubmit_InvalidDeliverableURL(t *testing.T) {
	h := newSubmissionHandler()
	rec := httptest.NewRecorder()
	r := withUser(newRequest(http.MethodPost, "/api/gigs/gig-1/submit", map[string]any{
		"deliverable_url": "not a url",
	}), &model.User{ID: validID})
	r = withChiURLParam(r, "id", "gig-1")

	h.Submit(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmissionApprove_MissingID(t *testing.T) {
	h := newSubmissionHandler()
	rec := httptest.NewRecorder()
	r := withUser(newRequest(http.MethodPost, "/api/submissions//approve", map[string]any{}), &model.User{ID: validID})

	h.Approve(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmissionReject_MissingID(t *testing.T) {
	h := newSubmissionHandler()
	rec := httptest.NewRecorder()
	r := withUser(newRequest(http.MethodPost, "/api/submissions//reject", map[string]any{}), &model.User{ID: validID})

	h.Reject(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
