package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
)

// ActivationIssuer hands out activation tokens for freshly created accounts.
type ActivationIssuer interface {
	Issue(ctx context.Context, u *User) error
}

// Service handles account business logic.
type Service struct {
	repo      Repository
	engine    *authz.Engine
	issuer    ActivationIssuer
	logger    *slog.Logger
	validator *validator.Validate
	hashCost  int
}

// NewService builds Service instance. issuer may be nil when activation mail is disabled.
func NewService(repo Repository, engine *authz.Engine, issuer ActivationIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		engine:    engine,
		issuer:    issuer,
		logger:    logger,
		validator: httpx.NewValidator(),
		hashCost:  bcrypt.DefaultCost,
	}
}

// Create registers a new account with the activation-only feature set.
func (s *Service) Create(ctx context.Context, actor authz.Principal, input map[string]any) (*User, error) {
	if err := rbac.Check(s.engine, actor, authz.CreateUser, nil); err != nil {
		return nil, err
	}
	filtered, err := s.engine.FilterInput(actor, authz.CreateUser, input, nil)
	if err != nil {
		return nil, err
	}
	var req CreateUserRequest
	if err := httpx.Bind(filtered, &req); err != nil {
		return nil, err
	}
	if err := httpx.ValidateStruct(s.validator, req); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, "", req.Username, req.Email, req.CPF); err != nil {
		return nil, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
		Features: []string{authz.ReadActivationToken},
		CPF:      req.CPF,
		Phone:    req.Phone,
		Address:  req.Address,
		Notes:    req.Notes,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user created", slog.String("user_id", user.ID))

	if s.issuer != nil {
		if err := s.issuer.Issue(ctx, user); err != nil {
			s.logger.Warn("issue activation token", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}
	return user, nil
}

// Get returns the account named username when actor may read it.
func (s *Service) Get(ctx context.Context, actor authz.Principal, username string) (*User, error) {
	target, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := rbac.Check(s.engine, actor, authz.ReadUser, target); err != nil {
		return nil, err
	}
	return target, nil
}

// ByID loads an account without authorization. Used to resolve session owners.
func (s *Service) ByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// Update applies the writable subset of input to the account named username.
func (s *Service) Update(ctx context.Context, actor authz.Principal, username string, input map[string]any) (*User, error) {
	target, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := rbac.Check(s.engine, actor, authz.UpdateUser, target); err != nil {
		return nil, err
	}
	filtered, err := s.engine.FilterInput(actor, authz.UpdateUser, input, target)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return target, nil
	}
	if err := httpx.RejectNulls(filtered, "notes"); err != nil {
		return nil, err
	}
	var patch userPatch
	if err := httpx.Bind(filtered, &patch); err != nil {
		return nil, err
	}

	updated := *target
	if patch.Username != nil {
		updated.Username = *patch.Username
	}
	if patch.Email != nil {
		updated.Email = *patch.Email
	}
	if patch.CPF != nil {
		updated.CPF = *patch.CPF
	}
	if patch.Phone != nil {
		updated.Phone = *patch.Phone
	}
	if patch.Address != nil {
		updated.Address = *patch.Address
	}
	if _, ok := filtered["notes"]; ok {
		updated.Notes = patch.Notes
	}
	if err := httpx.ValidateStruct(s.validator, updated); err != nil {
		return nil, err
	}

	var newUsername, email, cpf string
	if !strings.EqualFold(updated.Username, target.Username) {
		newUsername = updated.Username
	}
	if !strings.EqualFold(updated.Email, target.Email) {
		email = updated.Email
	}
	if updated.CPF != target.CPF {
		cpf = updated.CPF
	}
	if err := s.ensureUnique(ctx, target.ID, newUsername, email, cpf); err != nil {
		return nil, err
	}

	if patch.Password != nil {
		if err := httpx.ValidateStruct(s.validator, passwordInput{Password: *patch.Password}); err != nil {
			return nil, err
		}
		hash, err := s.hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		updated.Password = hash
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetRole replaces the features of the account named username with those of role.
func (s *Service) SetRole(ctx context.Context, actor authz.Principal, username, role string) (*User, error) {
	if err := rbac.Check(s.engine, actor, authz.UpdateUserFeatures, nil); err != nil {
		return nil, err
	}
	features, err := s.engine.Policy().Roles().FeaturesFor(authz.Role(role))
	if err != nil {
		if errors.Is(err, authz.ErrUnknownRole) {
			return nil, ErrUnknownRole
		}
		return nil, err
	}
	target, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.SetFeatures(ctx, target.ID, features)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user role changed", slog.String("user_id", updated.ID), slog.String("role", role))
	return updated, nil
}

// ByEmail loads an account by email without authorization. Used to authenticate.
func (s *Service) ByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// SetFeatures replaces the features of the account id. Used by activation.
func (s *Service) SetFeatures(ctx context.Context, id string, features []string) (*User, error) {
	return s.repo.SetFeatures(ctx, id, features)
}

func (s *Service) ensureUnique(ctx context.Context, selfID, username, email, cpf string) error {
	checks := []struct {
		value string
		find  func(context.Context, string) (*User, error)
		taken error
	}{
		{username, s.repo.FindByUsername, ErrUsernameTaken},
		{email, s.repo.FindByEmail, ErrEmailTaken},
		{cpf, s.repo.FindByCPF, ErrCPFTaken},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		existing, err := c.find(ctx, c.value)
		switch {
		case errors.Is(err, ErrUserNotFound):
			continue
		case err != nil:
			return err
		case existing.ID != selfID:
			return c.taken
		}
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
