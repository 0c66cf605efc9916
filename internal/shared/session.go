package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session is an opaque login token bound to a user.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionManager stores sessions in Redis and maps them to cookies.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a new session for userID.
func (sm *SessionManager) Create(ctx context.Context, userID string) (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}
	now := sm.now()
	sess := &Session{
		Token:     id.String(),
		UserID:    userID,
		ExpiresAt: now.Add(sm.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := sm.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Lookup returns the live session for token or ErrSessionNotFound.
func (sm *SessionManager) Lookup(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !sess.ExpiresAt.After(sm.now()) {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// Renew pushes the expiry of sess forward by the configured TTL.
func (sm *SessionManager) Renew(ctx context.Context, sess *Session) (*Session, error) {
	now := sm.now()
	renewed := *sess
	renewed.ExpiresAt = now.Add(sm.ttl)
	renewed.UpdatedAt = now
	if err := sm.save(ctx, &renewed); err != nil {
		return nil, err
	}
	return &renewed, nil
}

// Destroy removes the session. Unknown tokens are ignored.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if err := sm.client.Del(ctx, sm.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TokenFromRequest reads the session cookie.
func (sm *SessionManager) TokenFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// SetCookie writes the session cookie.
func (sm *SessionManager) SetCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(sm.ttl.Seconds()),
	})
}

// ClearCookie expires the session cookie on the client.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "invalid",
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

func (sm *SessionManager) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return sm.client.Set(ctx, sm.redisKey(sess.Token), data, sm.ttl).Err()
}

func (sm *SessionManager) redisKey(token string) string {
	return "session:" + token
}
