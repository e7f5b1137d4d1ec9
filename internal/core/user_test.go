package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func userScanFunc(id, name string) func(dest ...any) error {
	now := time.Now().Truncate(time.Microsecond)
	expires := now.Add(24 * time.Hour)
	return func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = name
		*(dest[2].(*string)) = name
		*(dest[3].(*string)) = "bio"
		*(dest[4].(*string)) = "agent"
		*(dest[5].(*[]string)) = []string{"code-review"}
		*(dest[6].(*[]string)) = []string{"coding"}
		*(dest[7].(*string)) = "worker@getalby.com"
		*(dest[8].(*string)) = "octocat"
		*(dest[9].(*string)) = "claw_deadbeef"
		*(dest[10].(**time.Time)) = &expires
		*(dest[11].(*time.Time)) = now
		*(dest[12].(*time.Time)) = now
		return nil
	}
}

func TestNewUserService(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)

	require.NotNil(t, svc)
	assert.Equal(t, db, svc.db)
}

// ---------- Register ----------

func TestUserService_Register_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, 365*24*time.Hour)
	ctx := context.Background()

	existsRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = false
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(existsRow).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: userScanFunc("user-1", "test-agent")}).Once()

	user, rawKey, err := svc.Register(ctx, RegisterParams{Name: "test-agent"})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "test-agent", user.Name)
	assert.True(t, strings.HasPrefix(rawKey, "claw_"))
	assert.Len(t, rawKey, 69)
	db.AssertExpectations(t)
}

func TestUserService_Register_NameTaken(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)
	ctx := context.Background()

	existsRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = true
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(existsRow)

	user, rawKey, err := svc.Register(ctx, RegisterParams{Name: "taken"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Nil(t, user)
	assert.Empty(t, rawKey)
	db.AssertExpectations(t)
}

func TestUserService_Register_GeneratesNameWhenEmpty(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)
	ctx := context.Background()

	var insertedName string
	existsRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = false
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(existsRow).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		insertedName = args[1].(string)
		return true
	})).Return(pgconn.CommandTag{}, nil)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: userScanFunc("user-1", "generated")}).Once()

	_, _, err := svc.Register(ctx, RegisterParams{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(insertedName, "agent_"))
	db.AssertExpectations(t)
}

// ---------- Authenticate ----------

func TestUserService_Authenticate_EmptyKey(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)

	res := svc.Authenticate(context.Background(), "")
	assert.False(t, res.Success)
	assert.Equal(t, "Authentication required", res.Error)
	assert.Contains(t, res.Hint, "x-api-key")
	db.AssertNotCalled(t, "QueryRow")
}

func TestUserService_Authenticate_HashedKey(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)
	ctx := context.Background()

	rawKey := "claw_0123456789abcdef"
	hash := sha256.Sum256([]byte(rawKey))
	wantHash := hex.EncodeToString(hash[:])

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		return len(args) == 1 && args[0] == wantHash
	})).Return(&mockRow{scanFunc: userScanFunc("user-1", "test-agent")})

	res := svc.Authenticate(ctx, rawKey)
	require.True(t, res.Success)
	assert.Equal(t, "user-1", res.User.ID)
	assert.Empty(t, res.Error)
	db.AssertExpectations(t)
}

func TestUserService_Authenticate_LegacyFallback(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)
	ctx := context.Background()

	// Hashed lookup misses, plaintext lookup hits.
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		return len(args) == 1 && args[0] == "legacy-key"
	})).Return(&mockRow{scanFunc: userScanFunc("user-2", "old-timer")}).Once()

	res := svc.Authenticate(ctx, "legacy-key")
	require.True(t, res.Success)
	assert.Equal(t, "user-2", res.User.ID)
	db.AssertExpectations(t)
}

func TestUserService_Authenticate_InvalidKeyIsGeneric(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)
	ctx := context.Background()

	missRow := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(missRow)

	res := svc.Authenticate(ctx, "claw_wrong")
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid API key", res.Error)
	assert.Empty(t, res.Hint)
	db.AssertExpectations(t)
}

// ---------- RegenerateKey ----------

func TestUserService_RegenerateKey_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: userScanFunc("user-1", "test-agent")})

	user, rawKey, err := svc.RegenerateKey(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, strings.HasPrefix(rawKey, "claw_"))
	db.AssertExpectations(t)
}

func TestUserService_RegenerateKey_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	user, rawKey, err := svc.RegenerateKey(ctx, "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, user)
	assert.Empty(t, rawKey)
	db.AssertExpectations(t)
}

// ---------- GetByID ----------

func TestUserService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	user, err := svc.GetByID(ctx, "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, user)
	db.AssertExpectations(t)
}

// ---------- List ----------

func TestUserService_List_HasMore(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db, time.Hour)
	ctx := context.Background()

	rows := newMockRows(
		userScanFunc("user-1", "a"),
		userScanFunc("user-2", "b"),
		userScanFunc("user-3", "c"),
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	users, hasMore, err := svc.List(ctx, 2, "")
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.True(t, hasMore)
	db.AssertExpectations(t)
}

// ---------- newAPIKey ----------

func TestNewAPIKey_Shape(t *testing.T) {
	rawKey, keyHash, keyPrefix, err := newAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "claw_"))
	assert.Len(t, rawKey, 69)
	assert.Equal(t, rawKey[:13], keyPrefix)

	hash := sha256.Sum256([]byte(rawKey))
	assert.Equal(t, hex.EncodeToString(hash[:]), keyHash)
}

func TestNewAPIKey_Unique(t *testing.T) {
	a, _, _, err := newAPIKey()
	require.NoError(t, err)
	b, _, _, err := newAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
