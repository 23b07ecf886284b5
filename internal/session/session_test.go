package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/user"
)

func claimsFor(userID, tokenID string, exp time.Time) *user.JwtCustomClaims {
	return &user.JwtCustomClaims{
		UserID:   userID,
		Username: userID + "-name",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestResolve_EnsuresProfileOnce(t *testing.T) {
	profiles := &MockProfileEnsurer{}
	profiles.On("EnsureProfile", mock.Anything, "u1", "u1-name", (*string)(nil)).
		Return(&user.Profile{ID: "u1", Rating: user.DefaultRating}, nil).Once()
	m := NewManager(profiles, NewMemoryRevocationStore())
	claims := claimsFor("u1", "t1", time.Now().Add(time.Hour))

	first, err := m.Resolve(context.Background(), claims)
	require.NoError(t, err)
	second, err := m.Resolve(context.Background(), claims)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "t1", first.TokenID)
	assert.Equal(t, "u1-name", first.Username)
	profiles.AssertNumberOfCalls(t, "EnsureProfile", 1)
}

func TestResolve_ProfileFailure(t *testing.T) {
	profiles := &MockProfileEnsurer{}
	profiles.On("EnsureProfile", mock.Anything, "u1", "u1-name", (*string)(nil)).
		Return(nil, apperrors.Persistence("Error creating profile", errors.New("db down")))
	m := NewManager(profiles, NewMemoryRevocationStore())

	sess, err := m.Resolve(context.Background(), claimsFor("u1", "t1", time.Now().Add(time.Hour)))
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.Equal(t, 0, m.Active())
}

func TestResolve_RejectsMissingClaims(t *testing.T) {
	m := NewManager(&MockProfileEnsurer{}, NewMemoryRevocationStore())

	_, err := m.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = m.Resolve(context.Background(), &user.JwtCustomClaims{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSignOut_RevokesAndClearsUserSessions(t *testing.T) {
	profiles := &MockProfileEnsurer{}
	profiles.On("EnsureProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&user.Profile{ID: "u1"}, nil)
	m := NewManager(profiles, NewMemoryRevocationStore())
	exp := time.Now().Add(time.Hour)
	ctx := context.Background()

	phone, err := m.Resolve(ctx, claimsFor("u1", "phone", exp))
	require.NoError(t, err)
	_, err = m.Resolve(ctx, claimsFor("u1", "laptop", exp))
	require.NoError(t, err)
	_, err = m.Resolve(ctx, claimsFor("u2", "other", exp))
	require.NoError(t, err)
	require.Equal(t, 3, m.Active())

	require.NoError(t, m.SignOut(ctx, phone))
	assert.Equal(t, 1, m.Active())

	_, err = m.Resolve(ctx, claimsFor("u1", "phone", exp))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// Other tokens of the same user are re-resolved, not revoked.
	_, err = m.Resolve(ctx, claimsFor("u1", "laptop", exp))
	assert.NoError(t, err)
}

func TestSignOut_NilSession(t *testing.T) {
	m := NewManager(&MockProfileEnsurer{}, NewMemoryRevocationStore())
	assert.ErrorIs(t, m.SignOut(context.Background(), nil), apperrors.ErrUnauthorized)
}

func TestCachedSessionExpires(t *testing.T) {
	profiles := &MockProfileEnsurer{}
	profiles.On("EnsureProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&user.Profile{ID: "u1"}, nil)
	m := NewManager(profiles, NewMemoryRevocationStore())
	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.Resolve(context.Background(), claimsFor("u1", "t1", now.Add(time.Minute)))
	require.NoError(t, err)

	m.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok := m.cached("t1")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Active())
}

func TestMemoryRevocationStore_Expiry(t *testing.T) {
	store := NewMemoryRevocationStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "t1", time.Minute))
	revoked, err := store.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, revoked)

	store.now = func() time.Time { return now.Add(time.Minute) }
	revoked, err = store.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = store.IsRevoked(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)
}
