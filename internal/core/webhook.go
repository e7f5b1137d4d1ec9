package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openclaw/claw/internal/model"
	"github.com/openclaw/claw/internal/platform"
)

const webhookColumns = `id, user_id, url, secret, events, active, created_at`

// WebhookService manages webhook subscriptions. Delivery itself lives in
// the webhook package; this service only owns the rows.
type WebhookService struct {
	db DB
}

// NewWebhookService creates a WebhookService.
func NewWebhookService(db DB) *WebhookService {
	return &WebhookService{db: db}
}

// Create registers a subscription. A secret is generated when none is given
// and returned once in the model; listings omit it.
func (s *WebhookService) Create(ctx context.Context, userID, url, secret string, events []string) (*model.WebhookSubscription, error) {
	if len(events) == 0 {
		events = []string{model.EventWildcard}
	}
	if secret == "" {
		secret = platform.NewSecret(32)
	}

	id := platform.NewID()
	_, err := s.db.Exec(ctx, `
		INSERT INTO webhook_subscriptions (id, user_id, url, secret, events, active, created_at)
		VALUES ($1, $2, $3, $4, $5, true, now())`,
		id, userID, url, secret, events,
	)
	if err != nil {
		return nil, fmt.Errorf("create webhook subscription: %w", err)
	}

	return s.getByID(ctx, id)
}

// ListByUser retrieves a user's subscriptions with secrets blanked.
func (s *WebhookService) ListByUser(ctx context.Context, userID string) ([]model.WebhookSubscription, error) {
	subs, err := s.listWhere(ctx, `user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].Secret = ""
	}
	return subs, nil
}

// ActiveForEvent retrieves the owner's active subscriptions that want the
// given event, secrets included — this is the dispatcher's lookup.
func (s *WebhookService) ActiveForEvent(ctx context.Context, userID, event string) ([]model.WebhookSubscription, error) {
	subs, err := s.listWhere(ctx, `user_id = $1 AND active`, userID)
	if err != nil {
		return nil, err
	}

	matched := subs[:0]
	for _, sub := range subs {
		if sub.Matches(event) {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

// Delete removes a subscription. Owner only, enforced in the predicate.
func (s *WebhookService) Delete(ctx context.Context, id, userID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM webhook_subscriptions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete webhook subscription %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("webhook subscription %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetOwned retrieves a subscription including its secret, owner only.
func (s *WebhookService) GetOwned(ctx context.Context, id, userID string) (*model.WebhookSubscription, error) {
	sub, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, fmt.Errorf("webhook subscription %s: %w", id, ErrNotFound)
	}
	return sub, nil
}

func (s *WebhookService) getByID(ctx context.Context, id string) (*model.WebhookSubscription, error) {
	var sub model.WebhookSubscription
	err := s.db.QueryRow(ctx,
		`SELECT `+webhookColumns+` FROM webhook_subscriptions WHERE id = $1`, id,
	).Scan(&sub.ID, &sub.UserID, &sub.URL, &sub.Secret, &sub.Events, &sub.Active, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("webhook subscription %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get webhook subscription %s: %w", id, err)
	}
	return &sub, nil
}

func (s *WebhookService) listWhere(ctx context.Context, where string, args ...any) ([]model.WebhookSubscription, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+webhookColumns+` FROM webhook_subscriptions WHERE `+where+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list webhook subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.WebhookSubscription
	for rows.Next() {
		var sub model.WebhookSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.URL, &sub.Secret,
			&sub.Events, &sub.Active, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook subscriptions: %w", err)
	}
	return subs, nil
}
