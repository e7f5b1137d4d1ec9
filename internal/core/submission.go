package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openclaw/claw/internal/model"
	"github.com/openclaw/claw/internal/platform"
)

const submissionColumns = `id, gig_id, worker_id, deliverable_url, notes, status, review_note, created_at, reviewed_at`

// SubmissionService manages deliverable submissions and their review.
type SubmissionService struct {
	db   DB
	gigs *GigService
}

// NewSubmissionService creates a SubmissionService.
func NewSubmissionService(db DB, gigs *GigService) *SubmissionService {
	return &SubmissionService{db: db, gigs: gigs}
}

// Submit hands in a deliverable for an assigned gig. Only the assignee may
// submit; the gig moves to in_review.
func (s *SubmissionService) Submit(ctx context.Context, gigID, workerID, deliverableURL, notes string) (*model.Submission, error) {
	gig, err := s.gigs.GetByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if gig.AssignedTo == nil || *gig.AssignedTo != workerID {
		return nil, fmt.Errorf("gig %s is not assigned to you: %w", gigID, ErrForbidden)
	}
	if gig.Status != model.GigStatusAssigned {
		return nil, fmt.Errorf("gig %s is %s: %w", gigID, gig.Status, ErrConflict)
	}

	if err := s.gigs.SetStatus(ctx, gigID, model.GigStatusAssigned, model.GigStatusInReview, nil); err != nil {
		return nil, err
	}

	id := platform.NewID()
	_, err = s.db.Exec(ctx, `
		INSERT INTO submissions (id, gig_id, worker_id, deliverable_url, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		id, gigID, workerID, deliverableURL, notes, model.SubmissionStatusSubmitted,
	)
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID retrieves a submission by ID.
func (s *SubmissionService) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get submission %s: %w", id, err)
	}
	return sub, nil
}

// ListByGig retrieves a gig's submissions, newest first. Visible to the gig
// owner and the assignee; the handler enforces that.
func (s *SubmissionService) ListByGig(ctx context.Context, gigID string) ([]model.Submission, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE gig_id = $1 ORDER BY created_at DESC`, gigID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.GigID, &sub.WorkerID, &sub.DeliverableURL,
			&sub.Notes, &sub.Status, &sub.ReviewNote, &sub.CreatedAt, &sub.ReviewedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}

// Approve accepts a submission and completes the gig. Gig owner only.
func (s *SubmissionService) Approve(ctx context.Context, id, callerID, reviewNote string) (*model.Submission, error) {
	sub, gig, err := s.loadForReview(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if err := s.gigs.SetStatus(ctx, gig.ID, model.GigStatusInReview, model.GigStatusCompleted, nil); err != nil {
		return nil, err
	}

	if err := s.review(ctx, sub.ID, model.SubmissionStatusApproved, reviewNote); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Reject sends a submission back; the gig returns to assigned so the worker
// can try again.
func (s *SubmissionService) Reject(ctx context.Context, id, callerID, reviewNote string) (*model.Submission, error) {
	sub, gig, err := s.loadForReview(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if err := s.gigs.SetStatus(ctx, gig.ID, model.GigStatusInReview, model.GigStatusAssigned, nil); err != nil {
		return nil, err
	}

	if err := s.review(ctx, sub.ID, model.SubmissionStatusRejected, reviewNote); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *SubmissionService) loadForReview(ctx context.Context, id, callerID string) (*model.Submission, *model.Gig, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	gig, err := s.gigs.GetByID(ctx, sub.GigID)
	if err != nil {
		return nil, nil, err
	}
	if gig.OwnerID != callerID {
		return nil, nil, fmt.Errorf("gig %s is not yours: %w", gig.ID, ErrForbidden)
	}
	if sub.Status != model.SubmissionStatusSubmitted {
		return nil, nil, fmt.Errorf("submission %s is %s: %w", id, sub.Status, ErrConflict)
	}
	return sub, gig, nil
}

func (s *SubmissionService) review(ctx context.Context, id, status, note string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE submissions SET status = $1, review_note = $2, reviewed_at = now() WHERE id = $3`,
		status, note, id,
	)
	if err != nil {
		return fmt.Errorf("review submission %s: %w", id, err)
	}
	return nil
}

func scanSubmission(row pgx.Row) (*model.Submission, error) {
	var sub model.Submission
	err := row.Scan(&sub.ID, &sub.GigID, &sub.WorkerID, &sub.DeliverableURL,
		&sub.Notes, &sub.Status, &sub.ReviewNote, &sub.CreatedAt, &sub.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
