package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/claw/internal/model"
)

func submissionScanFunc(id, gigID, workerID, status string) func(dest ...any) error {
	now := time.Now().Truncate(time.Microsecond)
	return func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = gigID
		*(dest[2].(*string)) = workerID
		*(dest[3].(*string)) = "https://example.com/result"
		*(dest[4].(*string)) = "done"
		*(dest[5].(*string)) = status
		*(dest[6].(*string)) = ""
		*(dest[7].(*time.Time)) = now
		*(dest[8].(**time.Time)) = nil
		return nil
	}
}

func assignedGigScanFunc(id, ownerID, assignee, status string) func(dest ...any) error {
	now := time.Now().Truncate(time.Microsecond)
	return func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = ownerID
		*(dest[2].(*string)) = "Summarize a paper"
		*(dest[3].(*string)) = "500 words max"
		*(dest[4].(*string)) = "writing"
		*(dest[5].(*int64)) = 5000
		*(dest[6].(*[]string)) = []string{}
		*(dest[7].(*string)) = status
		*(dest[8].(**string)) = &assignee
		*(dest[9].(*time.Time)) = now
		*(dest[10].(*time.Time)) = now
		return nil
	}
}

// ---------- Submit ----------

func TestSubmissionService_Submit_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewSubmissionService(db, NewGigService(db))
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: assignedGigScanFunc("gig-1", "owner-1", "worker-1", model.GigStatusAssigned)}).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil).Times(2)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: submissionScanFunc("sub-1", "gig-1", "worker-1", model.SubmissionStatusSubmitted)}).Once()

	sub, err := svc.Submit(ctx, "gig-1", "worker-1", "https://example.com/result", "done")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusSubmitted, sub.Status)
	db.AssertExpectations(t)
}

func TestSubmissionService_Submit_NotAssignee(t *testing.T) {
	db := &mockDB{}
	svc := NewSubmissionService(db, NewGigService(db))
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: assignedGigScanFunc("gig-1", "owner-1", "worker-1", model.GigStatusAssigned)})

	sub, err := svc.Submit(ctx, "gig-1", "intruder", "https://example.com/result", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, sub)
	db.AssertExpectations(t)
}

func TestSubmissionService_Submit_GigNotAssigned(t *testing.T) {
	db := &mockDB{}
	svc := NewSubmissionService(db, NewGigService(db))
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: assignedGigScanFunc("gig-1", "owner-1", "worker-1", model.GigStatusInReview)})

	sub, err := svc.Submit(ctx, "gig-1", "worker-1", "https://example.com/result", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Nil(t, sub)
	db.AssertExpectations(t)
}

// ---------- Approve ----------

func TestSubmissionService_Approve_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewSubmissionService(db, NewGigService(db))
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: submissionScanFunc("sub-1", "gig-1", "worker-1", model.SubmissionStatusSubmitted)}).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: assignedGigScanFunc("gig-1", "owner-1", "worker-1", model.GigStatusInReview)}).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil).Times(2)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: submissionScanFunc("sub-1", "gig-1", "worker-1", model.SubmissionStatusApproved)}).Once()

	sub, err := svc.Approve(ctx, "sub-1", "owner-1", "great work")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusApproved, sub.Status)
	db.AssertExpectations(t)
}

func TestSubmissionService_Approve_NotOwner(t *testing.T) {
	db := &mockDB{}
	svc := NewSubmissionService(db, NewGigService(db))
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: submissionScanFunc("sub-1", "gig-1", "worker-1", model.SubmissionStatusSubmitted)}).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: assignedGigScanFunc("gig-1", "owner-1", "worker-1", model.GigStatusInReview)}).Once()

	sub, err := svc.Approve(ctx, "sub-1", "intruder", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, sub)
	db.AssertExpectations(t)
}

func TestSubmissionService_Approve_AlreadyReviewed(t *testing.T) {
	db := &mockDB{}
	svc := NewSubmissionService(db, NewGigService(db))
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: submissionScanFunc("sub-1", "gig-1", "worker-1", model.SubmissionStatusApproved)}).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: assignedGigScanFunc("gig-1", "owner-1", "worker-1", model.GigStatusCompleted)}).Once()

	sub, err := svc.Approve(ctx, "sub-1", "owner-1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Nil(t, sub)
	db.AssertExpectations(t)
}

// ---------- Reject ----------

func TestSubmissionService_Reject_ReturnsGigToAssigned(t *testing.T) {
	db := &mockDB{}
	svc := NewSubmissionService(db, NewGigService(db))
	ctx := context.Background()

	var transitions []any
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: submissionScanFunc("sub-1", "gig-1", "worker-1", model.SubmissionStatusSubmitted)}).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: assignedGigScanFunc("gig-1", "owner-1", "worker-1", model.GigStatusInReview)}).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		transitions = append(transitions, args[0])
		return true
	})).Return(pgconn.NewCommandTag("UPDATE 1"), nil).Times(2)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: submissionScanFunc("sub-1", "gig-1", "worker-1", model.SubmissionStatusRejected)}).Once()

	sub, err := svc.Reject(ctx, "sub-1", "owner-1", "needs more detail")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusRejected, sub.Status)
	// First Exec moves the gig back to assigned, second marks the submission.
	require.Len(t, transitions, 2)
	assert.Equal(t, model.GigStatusAssigned, transitions[0])
	assert.Equal(t, model.SubmissionStatusRejected, transitions[1])
	db.AssertExpectations(t)
}
