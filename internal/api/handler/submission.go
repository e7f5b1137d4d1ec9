package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	mw "github.com/openclaw/claw/internal/api/middleware"
	"github.com/openclaw/claw/internal/api/request"
	"github.com/openclaw/claw/internal/api/response"
	"github.com/openclaw/claw/internal/core"
	"github.com/openclaw/claw/internal/model"
)

// Submission handles deliverable submissions and their review.
type Submission struct {
	svc        *core.SubmissionService
	gigs       *core.GigService
	users      *core.UserService
	payments   *core.PaymentService
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// NewSubmission creates a Submission handler. payments may be nil when no
// payment provider is configured; approval then skips the payout.
func NewSubmission(svc *core.SubmissionService, gigs *core.GigService, users *core.UserService,
	payments *core.PaymentService, dispatcher Dispatcher, logger zerolog.Logger) *Submission {
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	return &Submission{svc: svc, gigs: gigs, users: users, payments: payments, dispatcher: dispatcher, logger: logger}
}

// Submit hands in a deliverable for an assigned gig. Assignee only.
func (h *Submission) Submit(w http.ResponseWriter, r *http.Request) {
	gigID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.Submit
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := mw.GetUser(r.Context())
	sub, err := h.svc.Submit(r.Context(), gigID, user.ID, req.DeliverableURL, req.Notes)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	if gig, err := h.gigs.GetByID(r.Context(), gigID); err == nil {
		h.dispatcher.Trigger(r.Context(), model.EventSubmissionCreated, gig.OwnerID, sub)
	}

	response.WriteJSON(w, http.StatusCreated, sub)
}

// ListByGig lists a gig's submissions. Visible to the owner and assignee.
func (h *Submission) ListByGig(w http.ResponseWriter, r *http.Request) {
	gigID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	gig, err := h.gigs.GetByID(r.Context(), gigID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	user := mw.GetUser(r.Context())
	isAssignee := gig.AssignedTo != nil && *gig.AssignedTo == user.ID
	if gig.OwnerID != user.ID && !isAssignee {
		response.WriteError(w, http.StatusForbidden, "only the gig owner or assignee can view submissions")
		return
	}

	subs, err := h.svc.ListByGig(r.Context(), gigID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

// Approve accepts a submission, completes the gig, and pays the worker when
// they have a Lightning address. The payout is best effort: a provider
// failure is reported in the response but does not undo the approval.
func (h *Submission) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.Review
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.svc.Approve(r.Context(), id, mw.GetUser(r.Context()).ID, req.Note)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	resp := map[string]any{"submission": sub}

	if h.payments != nil {
		gig, gigErr := h.gigs.GetByID(r.Context(), sub.GigID)
		worker, userErr := h.users.GetByID(r.Context(), sub.WorkerID)
		if gigErr == nil && userErr == nil && worker.LightningAddress != "" {
			payment, payErr := h.payments.Payout(r.Context(), gig, worker)
			if payErr != nil {
				h.logger.Error().Err(payErr).Str("gig_id", gig.ID).Msg("payout failed")
				resp["payout_error"] = payErr.Error()
			} else {
				resp["payout"] = payment
				h.dispatcher.Trigger(r.Context(), model.EventPaymentSettled, worker.ID, payment)
			}
		}
	}

	h.dispatcher.Trigger(r.Context(), model.EventSubmissionApproved, sub.WorkerID, sub)
	response.WriteJSON(w, http.StatusOK, resp)
}

// Reject sends a submission back to the worker with a review note.
func (h *Submission) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.Review
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.svc.Reject(r.Context(), id, mw.GetUser(r.Context()).ID, req.Note)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	h.dispatcher.Trigger(r.Context(), model.EventSubmissionRejected, sub.WorkerID, sub)
	response.WriteJSON(w, http.StatusOK, sub)
}
