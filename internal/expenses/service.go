package expenses

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Service records financial expenses.
type Service struct {
	repo      Repository
	engine    *authz.Engine
	logger    *slog.Logger
	validator *validator.Validate
}

// NewService builds Service instance.
func NewService(repo Repository, engine *authz.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, engine: engine, logger: logger, validator: httpx.NewValidator()}
}

// Create records an expense.
func (s *Service) Create(ctx context.Context, actor authz.Principal, input map[string]any) (*Expense, error) {
	if err := rbac.Check(s.engine, actor, authz.CreateExpenses, nil); err != nil {
		return nil, err
	}
	filtered, err := s.engine.FilterInput(actor, authz.CreateExpenses, input, nil)
	if err != nil {
		return nil, err
	}
	if err := httpx.RejectNulls(filtered, nullableFields...); err != nil {
		return nil, err
	}
	var req CreateExpenseRequest
	if err := httpx.Bind(filtered, &req); err != nil {
		return nil, err
	}
	if err := httpx.ValidateStruct(s.validator, req); err != nil {
		return nil, err
	}

	expense := &Expense{
		Description:   req.Description,
		AmountInCents: *req.AmountInCents,
		Category:      req.Category,
		PaidAt:        req.PaidAt,
		DueDateAt:     req.DueDateAt,
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, err
	}
	s.logger.Info("expense created", slog.String("expense_id", expense.ID), slog.Int64("amount_in_cents", expense.AmountInCents))
	return expense, nil
}

// Get loads one expense.
func (s *Service) Get(ctx context.Context, actor authz.Principal, id string) (*Expense, error) {
	if err := rbac.Check(s.engine, actor, authz.ReadExpenses, nil); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// List returns one page of expenses.
func (s *Service) List(ctx context.Context, actor authz.Principal, page shared.PageRequest) ([]Expense, shared.Pagination, error) {
	if err := rbac.Check(s.engine, actor, authz.ReadExpenses, nil); err != nil {
		return nil, shared.Pagination{}, err
	}
	page = shared.NewPageRequest(page.Page, page.PerPage)
	expenses, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return expenses, shared.NewPagination(page, total), nil
}

// Update applies input to the expense.
func (s *Service) Update(ctx context.Context, actor authz.Principal, id string, input map[string]any) (*Expense, error) {
	if err := rbac.Check(s.engine, actor, authz.UpdateExpenses, nil); err != nil {
		return nil, err
	}
	if len(input) == 0 {
		return nil, ErrNothingToUpdate
	}
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	filtered, err := s.engine.FilterInput(actor, authz.UpdateExpenses, input, nil)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return target, nil
	}
	if err := httpx.RejectNulls(filtered, nullableFields...); err != nil {
		return nil, err
	}
	var patch expensePatch
	if err := httpx.Bind(filtered, &patch); err != nil {
		return nil, err
	}

	updated := *target
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.AmountInCents != nil {
		updated.AmountInCents = *patch.AmountInCents
	}
	if _, ok := filtered["category"]; ok {
		updated.Category = patch.Category
	}
	if _, ok := filtered["paid_at"]; ok {
		updated.PaidAt = patch.PaidAt
	}
	if _, ok := filtered["due_date_at"]; ok {
		updated.DueDateAt = patch.DueDateAt
	}
	if err := httpx.ValidateStruct(s.validator, updated); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the expense.
func (s *Service) Delete(ctx context.Context, actor authz.Principal, id string) error {
	if err := rbac.Check(s.engine, actor, authz.DeleteExpenses, nil); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("expense deleted", slog.String("expense_id", id))
	return nil
}
