package devices

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Service manages the device inventory.
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

// Create registers a device.
func (s *Service) Create(ctx context.Context, actor authz.Principal, input map[string]any) (*Device, error) {
	if err := rbac.Check(s.engine, actor, authz.CreateDevices, nil); err != nil {
		return nil, err
	}
	filtered, err := s.engine.FilterInput(actor, authz.CreateDevices, input, nil)
	if err != nil {
		return nil, err
	}
	if err := httpx.RejectNulls(filtered, nullableFields...); err != nil {
		return nil, err
	}
	var req CreateDeviceRequest
	if err := httpx.Bind(filtered, &req); err != nil {
		return nil, err
	}
	if err := httpx.ValidateStruct(s.validator, req); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = StatusAvailable
	}
	if err := s.ensureUnique(ctx, "", req.UTIDDevice, req.SerialNumber); err != nil {
		return nil, err
	}

	device := &Device{
		EmailAcc:           req.EmailAcc,
		UTIDDevice:         req.UTIDDevice,
		SerialNumber:       req.SerialNumber,
		SerialNumberRouter: req.SerialNumberRouter,
		Model:              req.Model,
		Provider:           req.Provider,
		TrackerCode:        req.TrackerCode,
		Status:             req.Status,
		Notes:              req.Notes,
	}
	if err := s.repo.Create(ctx, device); err != nil {
		return nil, err
	}
	s.logger.Info("device created", slog.String("device_id", device.ID))
	return device, nil
}

// Get loads one device.
func (s *Service) Get(ctx context.Context, actor authz.Principal, id string) (*Device, error) {
	if err := rbac.Check(s.engine, actor, authz.ReadDevices, nil); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// List returns one page of devices.
func (s *Service) List(ctx context.Context, actor authz.Principal, filter ListFilter, page shared.PageRequest) ([]Device, shared.Pagination, error) {
	if err := rbac.Check(s.engine, actor, authz.ReadDevices, nil); err != nil {
		return nil, shared.Pagination{}, err
	}
	if err := httpx.ValidateStruct(s.validator, filter); err != nil {
		return nil, shared.Pagination{}, err
	}
	page = shared.NewPageRequest(page.Page, page.PerPage)
	devices, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return devices, shared.NewPagination(page, total), nil
}

// Update applies input to the device. Holders of update:devices may change any writable
// field; holders of update:devices:status only the status.
func (s *Service) Update(ctx context.Context, actor authz.Principal, id string, input map[string]any) (*Device, error) {
	feature := authz.UpdateDevices
	if !rbac.Holds(s.engine, actor, authz.UpdateDevices) {
		if !rbac.Holds(s.engine, actor, authz.UpdateDevicesStatus) {
			return nil, rbac.Check(s.engine, actor, authz.UpdateDevices, nil)
		}
		feature = authz.UpdateDevicesStatus
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	filtered, err := s.engine.FilterInput(actor, feature, input, nil)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		if feature == authz.UpdateDevicesStatus {
			return nil, ErrUpdateNotPermitted
		}
		return target, nil
	}
	if err := httpx.RejectNulls(filtered, nullableFields...); err != nil {
		return nil, err
	}
	var patch devicePatch
	if err := httpx.Bind(filtered, &patch); err != nil {
		return nil, err
	}

	updated := *target
	setString(&updated.EmailAcc, patch.EmailAcc)
	setString(&updated.UTIDDevice, patch.UTIDDevice)
	setString(&updated.SerialNumber, patch.SerialNumber)
	setString(&updated.SerialNumberRouter, patch.SerialNumberRouter)
	setString(&updated.Model, patch.Model)
	setString(&updated.Status, patch.Status)
	if _, ok := filtered["provider"]; ok {
		updated.Provider = patch.Provider
	}
	if _, ok := filtered["tracker_code"]; ok {
		updated.TrackerCode = patch.TrackerCode
	}
	if _, ok := filtered["notes"]; ok {
		updated.Notes = patch.Notes
	}
	if err := httpx.ValidateStruct(s.validator, updated); err != nil {
		return nil, err
	}

	var utid, serial string
	if !strings.EqualFold(updated.UTIDDevice, target.UTIDDevice) {
		utid = updated.UTIDDevice
	}
	if !strings.EqualFold(updated.SerialNumber, target.SerialNumber) {
		serial = updated.SerialNumber
	}
	if err := s.ensureUnique(ctx, target.ID, utid, serial); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	if updated.Status != target.Status {
		s.logger.Info("device status changed",
			slog.String("device_id", updated.ID),
			slog.String("from", target.Status),
			slog.String("to", updated.Status))
	}
	return &updated, nil
}

// Delete removes the device and returns its last state.
func (s *Service) Delete(ctx context.Context, actor authz.Principal, id string) (*Device, error) {
	if err := rbac.Check(s.engine, actor, authz.DeleteDevices, nil); err != nil {
		return nil, err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("device deleted", slog.String("device_id", deleted.ID))
	return deleted, nil
}

func (s *Service) ensureUnique(ctx context.Context, selfID, utid, serial string) error {
	checks := []struct {
		value string
		find  func(context.Context, string) (*Device, error)
		taken error
	}{
		{utid, s.repo.FindByUTID, ErrUTIDTaken},
		{serial, s.repo.FindBySerial, ErrSerialTaken},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		existing, err := c.find(ctx, c.value)
		switch {
		case errors.Is(err, ErrDeviceNotFound):
			continue
		case err != nil:
			return err
		case existing.ID != selfID:
			return c.taken
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
