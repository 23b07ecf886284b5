package session

import (
	"context"
	"sync"
	"time"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/internal/user"
	"go.uber.org/zap"
)

// Session is the signed-in user bound to a single token.
type Session struct {
	UserID    string
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, id, username string, email *string) (*user.Profile, error)
}

type Manager struct {
	profiles ProfileEnsurer
	revoked  RevocationStore
	now      func() time.Time
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(profiles ProfileEnsurer, revoked RevocationStore) *Manager {
	return &Manager{
		profiles: profiles,
		revoked:  revoked,
		now:      time.Now,
		logger:   logger.NewNamedLogger("session"),
		sessions: make(map[string]*Session),
	}
}

// Resolve returns the session for a verified token. The profile is ensured the
// first time a token is seen.
func (m *Manager) Resolve(ctx context.Context, claims *user.JwtCustomClaims) (*Session, error) {
	if claims == nil || claims.UserID == "" {
		return nil, apperrors.Unauthorized("invalid token")
	}
	revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.Unauthorized("token has been revoked")
	}

	if sess, ok := m.cached(claims.ID); ok {
		return sess, nil
	}

	if _, err := m.profiles.EnsureProfile(ctx, claims.UserID, claims.Username, nil); err != nil {
		return nil, err
	}
	sess := &Session{
		UserID:   claims.UserID,
		Username: claims.Username,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}

	if claims.ID != "" {
		m.mu.Lock()
		m.sessions[claims.ID] = sess
		m.mu.Unlock()
	}
	return sess, nil
}

func (m *Manager) cached(tokenID string) (*Session, bool) {
	if tokenID == "" {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[tokenID]
	if !ok {
		return nil, false
	}
	if !sess.ExpiresAt.IsZero() && !m.now().Before(sess.ExpiresAt) {
		delete(m.sessions, tokenID)
		return nil, false
	}
	return sess, true
}

// SignOut revokes the session token until it expires and drops every cached
// session of the same user.
func (m *Manager) SignOut(ctx context.Context, sess *Session) error {
	if sess == nil {
		return apperrors.Unauthorized("no active session")
	}
	if sess.TokenID != "" {
		if ttl := sess.ExpiresAt.Sub(m.now()); ttl > 0 {
			if err := m.revoked.Revoke(ctx, sess.TokenID, ttl); err != nil {
				return err
			}
		}
	}

	m.mu.Lock()
	for id, cached := range m.sessions {
		if cached.UserID == sess.UserID {
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	m.logger.Infof("Session closed for %s", sess.UserID)
	return nil
}

// Active reports how many sessions are cached.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
