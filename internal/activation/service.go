package activation

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/hibiken/asynq"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/users"
	"github.com/rentdesk/rentdesk/jobs"
)

// UserStore is the part of the account service activation depends on.
type UserStore interface {
	ByID(ctx context.Context, id string) (*users.User, error)
	SetFeatures(ctx context.Context, id string, features []string) (*users.User, error)
}

// MailQueue enqueues activation mail.
type MailQueue interface {
	EnqueueActivationMail(ctx context.Context, payload jobs.ActivationMailPayload) (*asynq.TaskInfo, error)
}

// Service issues and redeems activation tokens.
type Service struct {
	store     *Store
	users     UserStore
	engine    *authz.Engine
	mail      MailQueue
	publicURL string
	logger    *slog.Logger
}

// NewService builds Service instance. mail may be nil, in which case tokens are only logged.
func NewService(store *Store, users UserStore, engine *authz.Engine, mail MailQueue, publicURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, users: users, engine: engine, mail: mail, publicURL: publicURL, logger: logger}
}

// Issue creates a token for u and queues the activation mail. It implements users.ActivationIssuer.
func (s *Service) Issue(ctx context.Context, u *users.User) error {
	token, err := s.store.Create(ctx, u.ID)
	if err != nil {
		return err
	}
	link := s.link(token.ID)
	if s.mail == nil {
		s.logger.Info("activation token issued", slog.String("user_id", u.ID), slog.String("link", link))
		return nil
	}
	_, err = s.mail.EnqueueActivationMail(ctx, jobs.ActivationMailPayload{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Token:     token.ID,
		Link:      link,
		ExpiresAt: token.ExpiresAt,
	})
	return err
}

// Activate redeems tokenID and grants the customer role to its owner.
func (s *Service) Activate(ctx context.Context, actor authz.Principal, tokenID string) (*Token, error) {
	if err := rbac.Check(s.engine, actor, authz.ReadActivationToken, nil); err != nil {
		return nil, err
	}
	token, err := s.store.Find(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.ByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if !rbac.Holds(s.engine, user, authz.ReadActivationToken) {
		return nil, ErrAlreadyActivated
	}
	features, err := s.engine.Policy().Roles().FeaturesFor(authz.RoleCustomer)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.SetFeatures(ctx, user.ID, features); err != nil {
		return nil, err
	}
	used, err := s.store.Consume(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user activated", slog.String("user_id", user.ID))
	return used, nil
}

func (s *Service) link(tokenID string) string {
	path := "/api/v1/activations/" + url.PathEscape(tokenID)
	if s.publicURL == "" {
		return path
	}
	u, err := url.JoinPath(s.publicURL, path)
	if err != nil {
		return s.publicURL + path
	}
	return u
}

var _ users.ActivationIssuer = (*Service)(nil)
