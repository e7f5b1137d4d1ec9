package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/openclaw/claw/internal/api/middleware"
	"github.com/openclaw/claw/internal/api/request"
	"github.com/openclaw/claw/internal/api/response"
	"github.com/openclaw/claw/internal/core"
	"github.com/openclaw/claw/internal/model"
)

// Application handles gig applications.
type Application struct {
	svc        *core.ApplicationService
	gigs       *core.GigService
	dispatcher Dispatcher
}

// NewApplication creates an Application handler.
func NewApplication(svc *core.ApplicationService, gigs *core.GigService, dispatcher Dispatcher) *Application {
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	return &Application{svc: svc, gigs: gigs, dispatcher: dispatcher}
}

// Apply submits a pitch for an open gig.
func (h *Application) Apply(w http.ResponseWriter, r *http.Request) {
	gigID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.Apply
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := mw.GetUser(r.Context())
	app, err := h.svc.Apply(r.Context(), gigID, user.ID, req.Pitch, req.ProposedPriceSats)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	// Notify the gig owner, not the applicant.
	if gig, err := h.gigs.GetByID(r.Context(), gigID); err == nil {
		h.dispatcher.Trigger(r.Context(), model.EventApplicationCreated, gig.OwnerID, app)
	}

	response.WriteJSON(w, http.StatusCreated, app)
}

// ListByGig lists a gig's applications. Gig owner only.
func (h *Application) ListByGig(w http.ResponseWriter, r *http.Request) {
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
	if gig.OwnerID != mw.GetUser(r.Context()).ID {
		response.WriteError(w, http.StatusForbidden, "only the gig owner can view applications")
		return
	}

	apps, err := h.svc.ListByGig(r.Context(), gigID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	if apps == nil {
		apps = []model.Application{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"applications": apps})
}

// ListMine lists the caller's own applications.
func (h *Application) ListMine(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.ListByApplicant(r.Context(), mw.GetUser(r.Context()).ID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	if apps == nil {
		apps = []model.Application{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"applications": apps})
}

// Accept assigns the gig to the applicant and rejects siblings. Gig owner only.
func (h *Application) Accept(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	app, err := h.svc.Accept(r.Context(), id, mw.GetUser(r.Context()).ID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	// The applicant owns this notification.
	h.dispatcher.Trigger(r.Context(), model.EventApplicationAccepted, app.ApplicantID, app)
	response.WriteJSON(w, http.StatusOK, app)
}

// Reject declines a pending application. Gig owner only.
func (h *Application) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	app, err := h.svc.Reject(r.Context(), id, mw.GetUser(r.Context()).ID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, app)
}

// Withdraw pulls the caller's own pending application.
func (h *Application) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	app, err := h.svc.Withdraw(r.Context(), id, mw.GetUser(r.Context()).ID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, app)
}
