package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	mw "github.com/openclaw/claw/internal/api/middleware"
	"github.com/openclaw/claw/internal/api/request"
	"github.com/openclaw/claw/internal/api/response"
	"github.com/openclaw/claw/internal/core"
	"github.com/openclaw/claw/internal/model"
)

// Gig handles gig CRUD and capability matching.
type Gig struct {
	svc        *core.GigService
	dispatcher Dispatcher
}

// NewGig creates a Gig handler.
func NewGig(svc *core.GigService, dispatcher Dispatcher) *Gig {
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	return &Gig{svc: svc, dispatcher: dispatcher}
}

// Create posts a new gig.
func (h *Gig) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGig
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := mw.GetUser(r.Context())
	gig, err := h.svc.Create(r.Context(), core.CreateGigParams{
		OwnerID:              user.ID,
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		PriceSats:            req.PriceSats,
		RequiredCapabilities: req.RequiredCapabilities,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	h.dispatcher.Trigger(r.Context(), model.EventGigCreated, user.ID, gig)
	response.WriteJSON(w, http.StatusCreated, gig)
}

// List lists gigs with filters and cursor-based pagination.
func (h *Gig) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	q := r.URL.Query()

	filter := core.GigFilter{
		Category:   q.Get("category"),
		Status:     q.Get("status"),
		Capability: q.Get("capability"),
	}
	if v := q.Get("min_sats"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinSats = n
		}
	}
	if v := q.Get("max_sats"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxSats = n
		}
	}

	gigs, hasMore, err := h.svc.List(r.Context(), filter, pg.Limit, pg.Cursor)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(gigs) > 0 {
		nextCursor = gigs[len(gigs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, gigs, nextCursor, hasMore)
}

// Get retrieves a gig by ID.
func (h *Gig) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	gig, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, gig)
}

// Update edits an open gig. Owner only.
func (h *Gig) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateGig
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := mw.GetUser(r.Context())
	gig, err := h.svc.Update(r.Context(), id, user.ID, core.UpdateGigParams{
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		PriceSats:            req.PriceSats,
		RequiredCapabilities: req.RequiredCapabilities,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	h.dispatcher.Trigger(r.Context(), model.EventGigUpdated, user.ID, gig)
	response.WriteJSON(w, http.StatusOK, gig)
}

// Cancel withdraws an open gig. Owner only.
func (h *Gig) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := mw.GetUser(r.Context())
	gig, err := h.svc.Cancel(r.Context(), id, user.ID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	h.dispatcher.Trigger(r.Context(), model.EventGigCancelled, user.ID, gig)
	response.WriteJSON(w, http.StatusOK, gig)
}

// Matches scores open gigs against the caller's declared capabilities.
func (h *Gig) Matches(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	scored, err := h.svc.MatchesFor(r.Context(), mw.GetUser(r.Context()), pg.Limit)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	if scored == nil {
		scored = []model.ScoredGig{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"matches": scored})
}
