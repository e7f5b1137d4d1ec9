package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	mw "github.com/openclaw/claw/internal/api/middleware"
	"github.com/openclaw/claw/internal/api/request"
	"github.com/openclaw/claw/internal/api/response"
	"github.com/openclaw/claw/internal/core"
	"github.com/openclaw/claw/internal/model"
)

// Payment handles Lightning invoices and payout records.
type Payment struct {
	svc        *core.PaymentService
	gigs       *core.GigService
	dispatcher Dispatcher
}

// NewPayment creates a Payment handler.
func NewPayment(svc *core.PaymentService, gigs *core.GigService, dispatcher Dispatcher) *Payment {
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	return &Payment{svc: svc, gigs: gigs, dispatcher: dispatcher}
}

// CreateInvoice asks the payment provider for a funding invoice covering
// the gig price. Gig owner only.
func (h *Payment) CreateInvoice(w http.ResponseWriter, r *http.Request) {
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

	payment, err := h.svc.CreateFundingInvoice(r.Context(), gig, mw.GetUser(r.Context()).ID)
	if err != nil {
		writePaymentError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, payment)
}

// Get retrieves a payment. Participants only.
func (h *Payment) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	user := mw.GetUser(r.Context())
	if !payment.IsParticipant(user.ID) {
		response.WriteError(w, http.StatusNotFound, "payment "+id+": not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, payment)
}

// ListMine lists payments where the caller is payer or payee.
func (h *Payment) ListMine(w http.ResponseWriter, r *http.Request) {
	payments, err := h.svc.ListByUser(r.Context(), mw.GetUser(r.Context()).ID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	if payments == nil {
		payments = []model.Payment{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

// Check polls the provider for a pending invoice and settles the record
// when it has been paid.
func (h *Payment) Check(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := mw.GetUser(r.Context())
	payment, err := h.svc.Check(r.Context(), id, user.ID)
	if err != nil {
		writePaymentError(w, r, err)
		return
	}

	if payment.Status == model.PaymentStatusSettled {
		owner := payment.PayerID
		if payment.PayeeID != nil {
			owner = *payment.PayeeID
		}
		h.dispatcher.Trigger(r.Context(), model.EventPaymentSettled, owner, payment)
	}

	response.WriteJSON(w, http.StatusOK, payment)
}

// writePaymentError maps provider failures to 502 and everything else to
// the usual core taxonomy.
func writePaymentError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrUpstream) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("payment provider failure")
		response.WriteError(w, http.StatusBadGateway, "Payment provider request failed")
		return
	}
	writeCoreError(w, r, err)
}
