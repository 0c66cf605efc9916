package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
	"github.com/rentdesk/rentdesk/internal/users"
)

// UserStore is the part of the account service authentication depends on.
type UserStore interface {
	ByID(ctx context.Context, id string) (*users.User, error)
	ByEmail(ctx context.Context, email string) (*users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	users    UserStore
	sessions *shared.SessionManager
	engine   *authz.Engine
	logger   *slog.Logger
	lookups  singleflight.Group
}

// NewService constructs a new Service.
func NewService(users UserStore, sessions *shared.SessionManager, engine *authz.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, sessions: sessions, engine: engine, logger: logger}
}

// Anonymous returns the principal used for requests without a session cookie.
func (s *Service) Anonymous() (authz.Principal, error) {
	features, err := s.engine.Policy().Roles().FeaturesFor(authz.RoleAnonymous)
	if err != nil {
		return nil, err
	}
	return &authz.Subject{Features: features}, nil
}

// Login validates email/password credentials and opens a session.
func (s *Service) Login(ctx context.Context, actor authz.Principal, email, password string) (*shared.Session, error) {
	if err := rbac.Check(s.engine, actor, authz.CreateSession, nil); err != nil {
		return nil, err
	}
	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !rbac.Holds(s.engine, user, authz.CreateSession) {
		return nil, ErrLoginNotPermitted
	}
	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("session opened", slog.String("user_id", user.ID))
	return sess, nil
}

// Resolve maps a session token to its session and account. Unknown or expired tokens and
// sessions whose account vanished yield shared.ErrInvalidSession.
func (s *Service) Resolve(ctx context.Context, token string) (*shared.Session, *users.User, error) {
	sess, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return nil, nil, shared.ErrInvalidSession
		}
		return nil, nil, err
	}
	v, err, _ := s.lookups.Do(sess.UserID, func() (any, error) {
		return s.users.ByID(ctx, sess.UserID)
	})
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, nil, shared.ErrInvalidSession
		}
		return nil, nil, err
	}
	// The loaded account is shared between concurrent callers.
	user := *v.(*users.User)
	return sess, &user, nil
}

// Renew extends the session lifetime.
func (s *Service) Renew(ctx context.Context, sess *shared.Session) (*shared.Session, error) {
	return s.sessions.Renew(ctx, sess)
}

// Logout destroys the session.
func (s *Service) Logout(ctx context.Context, sess *shared.Session) error {
	if sess == nil {
		return shared.ErrInvalidSession
	}
	return s.sessions.Destroy(ctx, sess.Token)
}
