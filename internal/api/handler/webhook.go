package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/openclaw/claw/internal/api/middleware"
	"github.com/openclaw/claw/internal/api/request"
	"github.com/openclaw/claw/internal/api/response"
	"github.com/openclaw/claw/internal/core"
	"github.com/openclaw/claw/internal/model"
	"github.com/openclaw/claw/internal/webhook"
)

// Webhook handles webhook subscription management.
type Webhook struct {
	svc        *core.WebhookService
	dispatcher Dispatcher
}

// NewWebhook creates a Webhook handler.
func NewWebhook(svc *core.WebhookService, dispatcher Dispatcher) *Webhook {
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	return &Webhook{svc: svc, dispatcher: dispatcher}
}

// Create registers a subscription. The secret is returned in this response
// only; listings omit it.
func (h *Webhook) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateWebhook
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.svc.Create(r.Context(), mw.GetUser(r.Context()).ID, req.URL, req.Secret, req.Events)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, sub)
}

// List lists the caller's subscriptions with secrets blanked.
func (h *Webhook) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.ListByUser(r.Context(), mw.GetUser(r.Context()).ID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	if subs == nil {
		subs = []model.WebhookSubscription{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"webhooks": subs})
}

// Delete removes a subscription. Owner only.
func (h *Webhook) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id, mw.GetUser(r.Context()).ID); err != nil {
		writeCoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Test fires a webhook.test event at the caller's subscriptions and reports
// each delivery outcome so subscribers can be debugged end to end.
func (h *Webhook) Test(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUser(r.Context())
	deliveries := h.dispatcher.Trigger(r.Context(), model.EventWebhookTest, user.ID, map[string]any{
		"message": "claw webhook test",
		"user_id": user.ID,
	})
	if deliveries == nil {
		deliveries = []webhook.Delivery{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"deliveries": deliveries})
}
