package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openclaw/claw/internal/model"
	"github.com/openclaw/claw/internal/platform"
)

const applicationColumns = `id, gig_id, applicant_id, pitch, proposed_price_sats, status, created_at`

// ApplicationService manages gig applications.
type ApplicationService struct {
	db   DB
	gigs *GigService
}

// NewApplicationService creates an ApplicationService.
func NewApplicationService(db DB, gigs *GigService) *ApplicationService {
	return &ApplicationService{db: db, gigs: gigs}
}

// Apply creates a pending application for an open gig. Applying to your own
// gig or applying twice is rejected.
func (s *ApplicationService) Apply(ctx context.Context, gigID, applicantID, pitch string, proposedSats *int64) (*model.Application, error) {
	gig, err := s.gigs.GetByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if gig.Status != model.GigStatusOpen {
		return nil, fmt.Errorf("gig %s is %s: %w", gigID, gig.Status, ErrConflict)
	}
	if gig.OwnerID == applicantID {
		return nil, fmt.Errorf("cannot apply to your own gig: %w", ErrConflict)
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE gig_id = $1 AND applicant_id = $2)`,
		gigID, applicantID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check existing application: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("already applied to gig %s: %w", gigID, ErrConflict)
	}

	id := platform.NewID()
	_, err = s.db.Exec(ctx, `
		INSERT INTO applications (id, gig_id, applicant_id, pitch, proposed_price_sats, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		id, gigID, applicantID, pitch, proposedSats, model.ApplicationStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID retrieves an application by ID.
func (s *ApplicationService) GetByID(ctx context.Context, id string) (*model.Application, error) {
	a, err := scanApplication(s.db.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	return a, nil
}

// ListByGig retrieves all applications for a gig. Caller checks ownership.
func (s *ApplicationService) ListByGig(ctx context.Context, gigID string) ([]model.Application, error) {
	return s.list(ctx, `gig_id = $1`, gigID)
}

// ListByApplicant retrieves a user's own applications.
func (s *ApplicationService) ListByApplicant(ctx context.Context, applicantID string) ([]model.Application, error) {
	return s.list(ctx, `applicant_id = $1`, applicantID)
}

// Accept marks an application accepted, assigns the gig to the applicant,
// and rejects all sibling applications. Only the gig owner may accept.
func (s *ApplicationService) Accept(ctx context.Context, id, callerID string) (*model.Application, error) {
	app, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	gig, err := s.gigs.GetByID(ctx, app.GigID)
	if err != nil {
		return nil, err
	}
	if gig.OwnerID != callerID {
		return nil, fmt.Errorf("gig %s is not yours: %w", gig.ID, ErrForbidden)
	}
	if app.Status != model.ApplicationStatusPending {
		return nil, fmt.Errorf("application %s is %s: %w", id, app.Status, ErrConflict)
	}

	if err := s.gigs.SetStatus(ctx, gig.ID, model.GigStatusOpen, model.GigStatusAssigned, &app.ApplicantID); err != nil {
		return nil, err
	}

	_, err = s.db.Exec(ctx,
		`UPDATE applications SET status = $1 WHERE id = $2`,
		model.ApplicationStatusAccepted, id,
	)
	if err != nil {
		return nil, fmt.Errorf("accept application %s: %w", id, err)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE applications SET status = $1 WHERE gig_id = $2 AND id != $3 AND status = $4`,
		model.ApplicationStatusRejected, gig.ID, id, model.ApplicationStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("reject sibling applications: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Reject marks a pending application rejected. Only the gig owner may reject.
func (s *ApplicationService) Reject(ctx context.Context, id, callerID string) (*model.Application, error) {
	app, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	gig, err := s.gigs.GetByID(ctx, app.GigID)
	if err != nil {
		return nil, err
	}
	if gig.OwnerID != callerID {
		return nil, fmt.Errorf("gig %s is not yours: %w", gig.ID, ErrForbidden)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE applications SET status = $1 WHERE id = $2 AND status = $3`,
		model.ApplicationStatusRejected, id, model.ApplicationStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("reject application %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("application %s is %s: %w", id, app.Status, ErrConflict)
	}

	return s.GetByID(ctx, id)
}

// Withdraw lets an applicant pull a pending application.
func (s *ApplicationService) Withdraw(ctx context.Context, id, callerID string) (*model.Application, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE applications SET status = $1 WHERE id = $2 AND applicant_id = $3 AND status = $4`,
		model.ApplicationStatusWithdrawn, id, callerID, model.ApplicationStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("withdraw application %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		app, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if app.ApplicantID != callerID {
			return nil, fmt.Errorf("application %s is not yours: %w", id, ErrForbidden)
		}
		return nil, fmt.Errorf("application %s is %s: %w", id, app.Status, ErrConflict)
	}

	return s.GetByID(ctx, id)
}

func (s *ApplicationService) list(ctx context.Context, where string, arg any) ([]model.Application, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []model.Application
	for rows.Next() {
		var a model.Application
		if err := rows.Scan(&a.ID, &a.GigID, &a.ApplicantID, &a.Pitch,
			&a.ProposedPriceSats, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}

func scanApplication(row pgx.Row) (*model.Application, error) {
	var a model.Application
	err := row.Scan(&a.ID, &a.GigID, &a.ApplicantID, &a.Pitch,
		&a.ProposedPriceSats, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
