package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openclaw/claw/internal/lightning"
	"github.com/openclaw/claw/internal/model"
	"github.com/openclaw/claw/internal/platform"
)

const paymentColumns = `id, gig_id, payer_id, payee_id, amount_sats, payment_hash,
	payment_request, kind, status, created_at, settled_at`

// LightningProvider is the slice of the payment API the marketplace uses.
// Settlement logic is entirely the provider's; we only create invoices,
// poll their state, and push payouts.
type LightningProvider interface {
	CreateInvoice(ctx context.Context, amountSats int64, memo string) (*lightning.Invoice, error)
	GetInvoice(ctx context.Context, paymentHash string) (*lightning.Invoice, error)
	PayAddress(ctx context.Context, address string, amountSats int64, memo string) (*lightning.PaymentReceipt, error)
}

// PaymentService records Lightning invoices and payouts tied to gigs.
type PaymentService struct {
	db       DB
	provider LightningProvider
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(db DB, provider LightningProvider) *PaymentService {
	return &PaymentService{db: db, provider: provider}
}

// CreateFundingInvoice asks the provider for an invoice covering the gig
// price and records it as a pending funding payment. Gig owner only.
func (s *PaymentService) CreateFundingInvoice(ctx context.Context, gig *model.Gig, callerID string) (*model.Payment, error) {
	if gig.OwnerID != callerID {
		return nil, fmt.Errorf("gig %s is not yours: %w", gig.ID, ErrForbidden)
	}

	inv, err := s.provider.CreateInvoice(ctx, gig.PriceSats, "claw gig "+gig.ID+": "+gig.Title)
	if err != nil {
		return nil, fmt.Errorf("create funding invoice: %w: %v", ErrUpstream, err)
	}

	// No payee yet: the funding invoice is paid to the platform, and the
	// worker only becomes payee at payout time.
	id := platform.NewID()
	_, err = s.db.Exec(ctx, `
		INSERT INTO payments (id, gig_id, payer_id, payee_id, amount_sats, payment_hash,
			payment_request, kind, status, created_at)
		VALUES ($1, $2, $3, NULL, $4, $5, $6, $7, $8, now())`,
		id, gig.ID, callerID, gig.PriceSats, inv.PaymentHash, inv.PaymentRequest,
		model.PaymentKindFunding, model.PaymentStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Payout pushes the gig price to the worker's Lightning address and records
// it. Called after a submission is approved; failures surface to the caller
// but the approval itself has already happened.
func (s *PaymentService) Payout(ctx context.Context, gig *model.Gig, worker *model.User) (*model.Payment, error) {
	if worker.LightningAddress == "" {
		return nil, fmt.Errorf("worker %s has no lightning address: %w", worker.ID, ErrConflict)
	}

	receipt, err := s.provider.PayAddress(ctx, worker.LightningAddress, gig.PriceSats, "claw payout for gig "+gig.ID)
	if err != nil {
		return nil, fmt.Errorf("pay worker: %w: %v", ErrUpstream, err)
	}

	id := platform.NewID()
	_, err = s.db.Exec(ctx, `
		INSERT INTO payments (id, gig_id, payer_id, payee_id, amount_sats, payment_hash,
			payment_request, kind, status, created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8, now(), now())`,
		id, gig.ID, gig.OwnerID, worker.ID, gig.PriceSats, receipt.PaymentHash,
		model.PaymentKindPayout, model.PaymentStatusSettled,
	)
	if err != nil {
		return nil, fmt.Errorf("insert payout: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Check polls the provider for a pending payment and settles the row when
// the provider reports the invoice paid.
func (s *PaymentService) Check(ctx context.Context, id, callerID string) (*model.Payment, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsParticipant(callerID) {
		return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
	}
	if p.Status != model.PaymentStatusPending {
		return p, nil
	}

	inv, err := s.provider.GetInvoice(ctx, p.PaymentHash)
	if err != nil {
		return nil, fmt.Errorf("check invoice: %w: %v", ErrUpstream, err)
	}
	if !inv.Settled {
		return p, nil
	}

	_, err = s.db.Exec(ctx,
		`UPDATE payments SET status = $1, settled_at = now() WHERE id = $2 AND status = $3`,
		model.PaymentStatusSettled, id, model.PaymentStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("settle payment %s: %w", id, err)
	}

	return s.GetByID(ctx, id)
}

// GetByID retrieves a payment by ID.
func (s *PaymentService) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	var p model.Payment
	err := s.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id,
	).Scan(&p.ID, &p.GigID, &p.PayerID, &p.PayeeID, &p.AmountSats, &p.PaymentHash,
		&p.PaymentRequest, &p.Kind, &p.Status, &p.CreatedAt, &p.SettledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get payment %s: %w", id, err)
	}
	return &p, nil
}

// ListByUser retrieves payments where the user is payer or payee.
func (s *PaymentService) ListByUser(ctx context.Context, userID string) ([]model.Payment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payer_id = $1 OR payee_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.GigID, &p.PayerID, &p.PayeeID, &p.AmountSats,
			&p.PaymentHash, &p.PaymentRequest, &p.Kind, &p.Status, &p.CreatedAt, &p.SettledAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}
