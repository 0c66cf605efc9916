package orders

import (
	"context"
	"errors"
	"log/slog"
	"maps"

	"github.com/go-playground/validator/v10"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
	"github.com/rentdesk/rentdesk/internal/users"
)

// CustomerStore resolves the account an order is placed for.
type CustomerStore interface {
	ByID(ctx context.Context, id string) (*users.User, error)
}

// Service handles customer order workflow.
type Service struct {
	repo      Repository
	customers CustomerStore
	engine    *authz.Engine
	logger    *slog.Logger
	validator *validator.Validate
}

// NewService builds Service instance.
func NewService(repo Repository, customers CustomerStore, engine *authz.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		customers: customers,
		engine:    engine,
		logger:    logger,
		validator: httpx.NewValidator(),
	}
}

// Create places an order for the customer named by customer_id.
func (s *Service) Create(ctx context.Context, actor authz.Principal, input map[string]any) (*Order, error) {
	if err := rbac.Check(s.engine, actor, authz.CreateOrders, nil); err != nil {
		return nil, err
	}
	customer, err := s.customer(ctx, input["customer_id"])
	if err != nil {
		return nil, err
	}
	if err := rbac.Check(s.engine, actor, authz.CreateOrders, customer); err != nil {
		return nil, err
	}
	filtered, err := s.engine.FilterInput(actor, authz.CreateOrders, input, customer)
	if err != nil {
		return nil, err
	}
	if err := httpx.RejectNulls(filtered, nullableFields...); err != nil {
		return nil, err
	}
	var req CreateOrderRequest
	if err := httpx.Bind(filtered, &req); err != nil {
		return nil, err
	}
	if err := httpx.ValidateStruct(s.validator, req); err != nil {
		return nil, err
	}
	if req.EndDate.Before(*req.StartDate) {
		return nil, ErrEndBeforeStart
	}

	order := &Order{
		CustomerID:    customer.ID,
		StartDate:     *req.StartDate,
		EndDate:       *req.EndDate,
		Status:        StatusPending,
		Notes:         req.Notes,
		LocationRefer: req.LocationRefer,
		Lat:           req.Lat,
		Lng:           req.Lng,
	}
	if req.Status != nil {
		order.Status = *req.Status
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("order created",
		slog.String("order_id", order.ID),
		slog.String("customer_id", order.CustomerID),
		slog.String("status", order.Status))
	return order, nil
}

// List returns every order to holders of read:orders and the caller's own orders to
// holders of read:orders:self.
func (s *Service) List(ctx context.Context, actor authz.Principal, page shared.PageRequest) ([]Order, shared.Pagination, error) {
	var customerID string
	switch {
	case rbac.Holds(s.engine, actor, authz.ReadOrders):
	case rbac.Holds(s.engine, actor, authz.ReadOrdersSelf):
		customerID = actor.GetID()
	default:
		return nil, shared.Pagination{}, readForbidden(s.engine, actor)
	}
	page = shared.NewPageRequest(page.Page, page.PerPage)
	orders, total, err := s.repo.List(ctx, customerID, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return orders, shared.NewPagination(page, total), nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, actor authz.Principal, id string) (*Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rbac.Holds(s.engine, actor, authz.ReadOrders) {
		return order, nil
	}
	ok, err := s.engine.Can(actor, authz.ReadOrdersSelf, order)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httpx.ForbiddenEither(authz.ReadOrders, authz.ReadOrdersSelf)
	}
	return order, nil
}

// Update applies input to the order. Customers acting on their own order may only
// touch pending orders, and the only status they may set is canceled.
func (s *Service) Update(ctx context.Context, actor authz.Principal, id string, input map[string]any) (*Order, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Check(s.engine, actor, authz.UpdateOrders, target); err != nil {
		return nil, err
	}
	asOwner := !rbac.Holds(s.engine, actor, authz.UpdateOrdersOthers)
	if asOwner && target.Status != StatusPending {
		return nil, ErrOrderLocked
	}

	cancel := false
	writable := input
	if status, ok := input["status"]; ok && !rbac.Holds(s.engine, actor, authz.UpdateOrdersStatus) {
		if !asOwner || status != StatusCanceled || !rbac.Holds(s.engine, actor, authz.UpdateOrdersSelf) {
			return nil, ErrStatusNotPermitted
		}
		cancel = true
		writable = maps.Clone(input)
		delete(writable, "status")
	}

	filtered := map[string]any{}
	if len(writable) > 0 || !cancel {
		filtered, err = s.engine.FilterInput(actor, authz.UpdateOrders, writable, target)
		if err != nil {
			return nil, err
		}
	}
	if cancel {
		filtered["status"] = StatusCanceled
	}
	if len(filtered) == 0 {
		return target, nil
	}
	if err := httpx.RejectNulls(filtered, "notes", "location_refer", "lat", "lng"); err != nil {
		return nil, err
	}
	var patch orderPatch
	if err := httpx.Bind(filtered, &patch); err != nil {
		return nil, err
	}

	updated := *target
	if patch.StartDate != nil {
		updated.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		updated.EndDate = *patch.EndDate
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	if _, ok := filtered["notes"]; ok {
		updated.Notes = patch.Notes
	}
	if _, ok := filtered["location_refer"]; ok {
		updated.LocationRefer = patch.LocationRefer
	}
	if _, ok := filtered["lat"]; ok {
		updated.Lat = patch.Lat
	}
	if _, ok := filtered["lng"]; ok {
		updated.Lng = patch.Lng
	}
	if err := httpx.ValidateStruct(s.validator, updated); err != nil {
		return nil, err
	}
	if updated.EndDate.Before(updated.StartDate) {
		return nil, ErrEndBeforeStart
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	if updated.Status != target.Status {
		s.logger.Info("order status changed",
			slog.String("order_id", updated.ID),
			slog.String("from", target.Status),
			slog.String("to", updated.Status))
	}
	return &updated, nil
}

// Delete soft-deletes the order. Completed orders also need delete:orders:completed.
func (s *Service) Delete(ctx context.Context, actor authz.Principal, id string) (*Order, error) {
	if err := rbac.Check(s.engine, actor, authz.DeleteOrders, nil); err != nil {
		return nil, err
	}
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Status == StatusCompleted {
		if err := rbac.Check(s.engine, actor, authz.DeleteOrdersCompleted, nil); err != nil {
			return nil, err
		}
	}
	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order deleted", slog.String("order_id", deleted.ID))
	return deleted, nil
}

func (s *Service) customer(ctx context.Context, raw any) (*users.User, error) {
	id, _ := raw.(string)
	if !httpx.IsUUID(id) {
		return nil, ErrCustomerNotFound
	}
	customer, err := s.customers.ByID(ctx, id)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrCustomerNotFound
	}
	return customer, err
}

func readForbidden(e *authz.Engine, actor authz.Principal) error {
	if _, err := e.Has(actor, authz.ReadOrders); err != nil {
		return err
	}
	return httpx.ForbiddenEither(authz.ReadOrders, authz.ReadOrdersSelf)
}
