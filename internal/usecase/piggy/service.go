package piggy

import (
	"context"
	"time"

	domainPiggy "digipiggy-hub/internal/domain/piggy"
	"digipiggy-hub/internal/logger"
	"digipiggy-hub/internal/notify"
	"digipiggy-hub/internal/store"
	appErrors "digipiggy-hub/pkg/errors"
	"digipiggy-hub/pkg/money"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements the piggy-bank use cases on top of the store. The store
// trusts its inputs, so all user-input validation happens here.
type Service struct {
	store    *store.Store
	notifier notify.Notifier
}

// NewService creates a new piggy service.
func NewService(st *store.Store, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		store:    st,
		notifier: notifier,
	}
}

func (s *Service) CreateDevice(ctx context.Context, req *CreateDeviceRequest) (*DeviceResponse, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	// Onboarding completes with the device paired and on Wi-Fi unless the
	// caller says otherwise.
	wifiStatus := domainPiggy.WifiConnected
	if req.WifiStatus != nil {
		wifiStatus = domainPiggy.WifiStatus(*req.WifiStatus)
	}
	bleStatus := domainPiggy.BlePaired
	if req.BleStatus != nil {
		bleStatus = domainPiggy.BleStatus(*req.BleStatus)
	}

	device := &domainPiggy.Device{
		ID:         req.ID,
		Name:       req.Name,
		Balance:    0,
		WifiStatus: wifiStatus,
		BleStatus:  bleStatus,
		Goals:      []domainPiggy.Goal{},
		CreatedAt:  time.Now().UTC(),
	}

	// Upsert: re-onboarding the same device replaces the previous entry.
	s.store.AddDevice(device)

	logger.Info("Device added",
		zap.String("device_id", device.ID),
		zap.String("event", "device_added"),
	)

	return ToDeviceResponse(s.store.Device(device.ID)), nil
}

func (s *Service) GetDevice(ctx context.Context, deviceID string) (*DeviceResponse, error) {
	device := s.store.Device(deviceID)
	if device == nil {
		return nil, domainPiggy.ErrDeviceNotFound
	}
	return ToDeviceResponse(device), nil
}

func (s *Service) ListDevices(ctx context.Context) (*DeviceListResponse, error) {
	devices := s.store.Devices()
	responses := make([]DeviceResponse, len(devices))
	for i, d := range devices {
		responses[i] = *ToDeviceResponse(d)
	}
	return &DeviceListResponse{
		Devices: responses,
		Total:   s.store.DeviceCount(),
	}, nil
}

func (s *Service) UpdateDevice(ctx context.Context, deviceID string, req *UpdateDeviceRequest) (*DeviceResponse, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	patch := domainPiggy.DevicePatch{Name: req.Name}
	if req.WifiStatus != nil {
		status := domainPiggy.WifiStatus(*req.WifiStatus)
		patch.WifiStatus = &status
	}
	if req.BleStatus != nil {
		status := domainPiggy.BleStatus(*req.BleStatus)
		patch.BleStatus = &status
	}

	if s.store.UpdateDevice(deviceID, patch) == store.NotFound {
		return nil, domainPiggy.ErrDeviceNotFound
	}

	logger.Info("Device updated",
		zap.String("device_id", deviceID),
		zap.String("event", "device_updated"),
	)

	return ToDeviceResponse(s.store.Device(deviceID)), nil
}

func (s *Service) DeleteDevice(ctx context.Context, deviceID string) error {
	if s.store.RemoveDevice(deviceID) == store.NotFound {
		return domainPiggy.ErrDeviceNotFound
	}

	logger.Info("Device removed",
		zap.String("device_id", deviceID),
		zap.String("event", "device_removed"),
	)
	return nil
}

func (s *Service) CreateGoal(ctx context.Context, req *CreateGoalRequest) (*GoalResponse, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	goal := domainPiggy.Goal{
		ID:            uuid.New().String(),
		DeviceID:      req.DeviceID,
		Title:         req.Title,
		Emoji:         req.Emoji,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: 0,
		CreatedAt:     time.Now().UTC(),
	}

	if s.store.AddGoal(goal) == store.NotFound {
		return nil, domainPiggy.ErrDeviceNotFound
	}

	logger.Info("Goal added",
		zap.String("device_id", goal.DeviceID),
		zap.String("goal_id", goal.ID),
		zap.String("event", "goal_added"),
	)

	resp := ToGoalResponse(goal)
	return &resp, nil
}

func (s *Service) UpdateGoal(ctx context.Context, goalID string, req *UpdateGoalRequest) (*GoalResponse, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	patch := domainPiggy.GoalPatch{Title: req.Title, Emoji: req.Emoji}
	if s.store.UpdateGoal(goalID, patch) == store.NotFound {
		return nil, domainPiggy.ErrGoalNotFound
	}

	logger.Info("Goal updated",
		zap.String("goal_id", goalID),
		zap.String("event", "goal_updated"),
	)

	goal, _ := s.store.Goal(goalID)
	resp := ToGoalResponse(goal)
	return &resp, nil
}

// AdjustBalance applies a deposit or withdrawal to a device, optionally
// counting the same delta towards one of its goals, then sends the device a
// best-effort message describing the change. The notification never blocks
// or rolls back the adjustment.
func (s *Service) AdjustBalance(ctx context.Context, deviceID string, req *AdjustBalanceRequest) (*AdjustBalanceResponse, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	device, res := s.store.AdjustBalance(deviceID, req.DeltaCents, req.GoalID)
	if res == store.NotFound {
		return nil, domainPiggy.ErrDeviceNotFound
	}

	logger.Info("Balance adjusted",
		zap.String("device_id", deviceID),
		zap.Int64("delta_cents", req.DeltaCents),
		zap.Int64("balance", device.Balance),
		zap.String("event", "balance_adjusted"),
	)

	go s.sendBalanceMessage(deviceID, req.DeltaCents)

	resp := &AdjustBalanceResponse{Device: ToDeviceResponse(device)}
	if req.GoalID != "" {
		if goal, ok := s.store.Goal(req.GoalID); ok {
			goalResp := ToGoalResponse(goal)
			resp.Goal = &goalResp
		}
	}
	return resp, nil
}

func (s *Service) sendBalanceMessage(deviceID string, deltaCents int64) {
	msg := "You received " + money.FormatCentsShort(deltaCents)
	if deltaCents < 0 {
		msg = "You spent " + money.FormatCentsShort(-deltaCents)
	}

	if err := s.notifier.SendMessage(context.Background(), deviceID, msg); err != nil {
		logger.Warn("Failed to send device message",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}
}
