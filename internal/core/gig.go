package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/openclaw/claw/internal/model"
	"github.com/openclaw/claw/internal/platform"
)

const gigColumns = `id, owner_id, title, description, category, price_sats,
	required_capabilities, status, assigned_to, created_at, updated_at`

// GigService manages gigs and capability matching.
type GigService struct {
	db DB
}

// NewGigService creates a GigService.
func NewGigService(db DB) *GigService {
	return &GigService{db: db}
}

// CreateGigParams holds the fields accepted when posting a gig.
type CreateGigParams struct {
	OwnerID              string
	Title                string
	Description          string
	Category             string
	PriceSats            int64
	RequiredCapabilities []string
}

// Create posts a new open gig.
func (s *GigService) Create(ctx context.Context, p CreateGigParams) (*model.Gig, error) {
	if p.RequiredCapabilities == nil {
		p.RequiredCapabilities = []string{}
	}

	id := platform.NewID()
	_, err := s.db.Exec(ctx, `
		INSERT INTO gigs (id, owner_id, title, description, category, price_sats,
			required_capabilities, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`,
		id, p.OwnerID, p.Title, p.Description, p.Category, p.PriceSats,
		p.RequiredCapabilities, model.GigStatusOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("create gig: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID retrieves a gig by ID.
func (s *GigService) GetByID(ctx context.Context, id string) (*model.Gig, error) {
	g, err := scanGig(s.db.QueryRow(ctx, `SELECT `+gigColumns+` FROM gigs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("gig %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get gig %s: %w", id, err)
	}
	return g, nil
}

// GigFilter narrows List results. Zero values mean "no constraint".
type GigFilter struct {
	Category   string
	Status     string
	Capability string
	MinSats    int64
	MaxSats    int64
}

// List retrieves gigs matching the filter, newest first, with cursor-based
// pagination.
func (s *GigService) List(ctx context.Context, f GigFilter, limit int, cursor string) ([]model.Gig, bool, error) {
	query := `SELECT ` + gigColumns + ` FROM gigs WHERE 1=1`
	args := []any{}
	argIdx := 1

	if f.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argIdx)
		args = append(args, f.Category)
		argIdx++
	}
	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, f.Status)
		argIdx++
	}
	if f.Capability != "" {
		query += fmt.Sprintf(` AND $%d = ANY(required_capabilities)`, argIdx)
		args = append(args, f.Capability)
		argIdx++
	}
	if f.MinSats > 0 {
		query += fmt.Sprintf(` AND price_sats >= $%d`, argIdx)
		args = append(args, f.MinSats)
		argIdx++
	}
	if f.MaxSats > 0 {
		query += fmt.Sprintf(` AND price_sats <= $%d`, argIdx)
		args = append(args, f.MaxSats)
		argIdx++
	}
	if cursor != "" {
		// Keyset pagination on the sort key: the cursor is the last gig of
		// the previous page, so resolve its position and continue below it.
		query += fmt.Sprintf(` AND (created_at, id) < (SELECT created_at, id FROM gigs WHERE id = $%d)`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY created_at DESC, id DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list gigs: %w", err)
	}
	defer rows.Close()

	var gigs []model.Gig
	for rows.Next() {
		g, err := scanGigRows(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan gig: %w", err)
		}
		gigs = append(gigs, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate gigs: %w", err)
	}

	hasMore := len(gigs) > limit
	if hasMore {
		gigs = gigs[:limit]
	}
	return gigs, hasMore, nil
}

// UpdateGigParams holds the mutable gig fields.
type UpdateGigParams struct {
	Title                string
	Description          string
	Category             string
	PriceSats            int64
	RequiredCapabilities []string
}

// Update modifies a gig. Only the owner may update, and only while the gig
// is still open; ownership is enforced in the predicate rather than with an
// application-level lock.
func (s *GigService) Update(ctx context.Context, id, ownerID string, p UpdateGigParams) (*model.Gig, error) {
	if p.RequiredCapabilities == nil {
		p.RequiredCapabilities = []string{}
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE gigs
		SET title = $1, description = $2, category = $3, price_sats = $4,
			required_capabilities = $5, updated_at = now()
		WHERE id = $6 AND owner_id = $7 AND status = $8`,
		p.Title, p.Description, p.Category, p.PriceSats, p.RequiredCapabilities,
		id, ownerID, model.GigStatusOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("update gig %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, s.explainWriteMiss(ctx, id, ownerID)
	}
	return s.GetByID(ctx, id)
}

// Cancel marks an open gig as cancelled. Owner only.
func (s *GigService) Cancel(ctx context.Context, id, ownerID string) (*model.Gig, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE gigs SET status = $1, updated_at = now()
		WHERE id = $2 AND owner_id = $3 AND status = $4`,
		model.GigStatusCancelled, id, ownerID, model.GigStatusOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("cancel gig %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, s.explainWriteMiss(ctx, id, ownerID)
	}
	return s.GetByID(ctx, id)
}

// SetStatus transitions a gig between workflow states with an expected-status
// predicate, so concurrent transitions cannot both win.
func (s *GigService) SetStatus(ctx context.Context, id, fromStatus, toStatus string, assignedTo *string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE gigs SET status = $1, assigned_to = COALESCE($2, assigned_to), updated_at = now()
		WHERE id = $3 AND status = $4`,
		toStatus, assignedTo, id, fromStatus,
	)
	if err != nil {
		return fmt.Errorf("set gig %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("gig %s is not %s: %w", id, fromStatus, ErrConflict)
	}
	return nil
}

// MatchesFor scores open gigs against a user's capabilities, best first.
// Zero-score gigs and the user's own gigs are excluded.
func (s *GigService) MatchesFor(ctx context.Context, user *model.User, limit int) ([]model.ScoredGig, error) {
	gigs, _, err := s.List(ctx, GigFilter{Status: model.GigStatusOpen}, 500, "")
	if err != nil {
		return nil, err
	}

	var scored []model.ScoredGig
	for _, g := range gigs {
		if g.OwnerID == user.ID {
			continue
		}
		score := MatchScore(&g, user)
		if score <= 0 {
			continue
		}
		scored = append(scored, model.ScoredGig{Gig: g, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// MatchScore rates how well a user's capabilities fit a gig, in [0, 1].
// The base is the fraction of required capabilities the user holds; a gig
// without requirements starts at 0.5. Working in the gig's category adds a
// 0.2 bonus, capped at 1.
func MatchScore(gig *model.Gig, user *model.User) float64 {
	var score float64

	if len(gig.RequiredCapabilities) == 0 {
		score = 0.5
	} else {
		have := make(map[string]bool, len(user.Capabilities))
		for _, c := range user.Capabilities {
			have[c] = true
		}
		matched := 0
		for _, c := range gig.RequiredCapabilities {
			if have[c] {
				matched++
			}
		}
		score = float64(matched) / float64(len(gig.RequiredCapabilities))
	}

	for _, c := range user.Categories {
		if c == gig.Category && gig.Category != "" {
			score += 0.2
			break
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// explainWriteMiss distinguishes "gig missing", "not yours", and "wrong
// state" after a guarded UPDATE matched no rows.
func (s *GigService) explainWriteMiss(ctx context.Context, id, ownerID string) error {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if g.OwnerID != ownerID {
		return fmt.Errorf("gig %s is not yours: %w", id, ErrForbidden)
	}
	return fmt.Errorf("gig %s is %s: %w", id, g.Status, ErrConflict)
}

func scanGig(row pgx.Row) (*model.Gig, error) {
	var g model.Gig
	err := row.Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &g.Category,
		&g.PriceSats, &g.RequiredCapabilities, &g.Status, &g.AssignedTo,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanGigRows(rows pgx.Rows) (*model.Gig, error) {
	var g model.Gig
	err := rows.Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &g.Category,
		&g.PriceSats, &g.RequiredCapabilities, &g.Status, &g.AssignedTo,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
