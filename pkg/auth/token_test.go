package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/storage/memory"
)

var testSecret = []byte("test_signing_secret")

func newTestTokenService(t *testing.T) (*TokenService, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc, err := NewTokenService(TokenConfig{Secret: testSecret}, store, store)
	require.NoError(t, err)
	return svc, store
}

func seedUser(t *testing.T, store *memory.Store, email string) api.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), api.User{
		Name:     "Test User",
		Username: "user_" + email,
		Email:    email,
	})
	require.NoError(t, err)
	return user
}

func TestTokenService_IssueVerifyRoundTrip(t *testing.T) {
	svc, store := newTestTokenService(t)
	ctx := context.Background()
	user := seedUser(t, store, "a@b.com")

	token, err := svc.Issue(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Value)
	assert.Equal(t, user.ID, token.UserID)

	got, err := svc.Verify(ctx, token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)
}

func TestTokenService_VerifyUnknownValue(t *testing.T) {
	svc, _ := newTestTokenService(t)

	_, err := svc.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenService_VerifySignedButNeverIssued(t *testing.T) {
	svc, _ := newTestTokenService(t)

	// A value signed with the right key but absent from the store must be
	// rejected exactly like a forged one.
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "a@b.com",
	}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), value)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenService_VerifyTamperedSignature(t *testing.T) {
	svc, store := newTestTokenService(t)
	ctx := context.Background()
	user := seedUser(t, store, "a@b.com")

	token, err := svc.Issue(ctx, user)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, token.Value+"x")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenService_StaleTokenAfterUserDeletion(t *testing.T) {
	svc, store := newTestTokenService(t)
	ctx := context.Background()
	user := seedUser(t, store, "a@b.com")

	token, err := svc.Issue(ctx, user)
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, user.ID))

	_, err = svc.Verify(ctx, token.Value)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenService_RepeatedLoginsProduceDistinctValues(t *testing.T) {
	svc, store := newTestTokenService(t)
	ctx := context.Background()
	user := seedUser(t, store, "a@b.com")

	t1, err := svc.Issue(ctx, user)
	require.NoError(t, err)
	t2, err := svc.Issue(ctx, user)
	require.NoError(t, err)

	assert.NotEqual(t, t1.Value, t2.Value)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	store := memory.New()
	svc, err := NewTokenService(TokenConfig{Secret: testSecret, TTL: time.Millisecond}, store, store)
	require.NoError(t, err)

	ctx := context.Background()
	user := seedUser(t, store, "a@b.com")

	token, err := svc.Issue(ctx, user)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = svc.Verify(ctx, token.Value)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	store := memory.New()
	_, err := NewTokenService(TokenConfig{}, store, store)
	assert.Error(t, err)
}
