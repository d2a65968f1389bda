package piggy

import (
	"time"

	domainPiggy "digipiggy-hub/internal/domain/piggy"
	"digipiggy-hub/pkg/money"
)

type CreateDeviceRequest struct {
	ID         string  `json:"id" validate:"required,max=64"`
	Name       string  `json:"name" validate:"required,device_name"`
	WifiStatus *string `json:"wifi_status" validate:"omitempty,oneof=disconnected connecting connected"`
	BleStatus  *string `json:"ble_status" validate:"omitempty,oneof=disconnected scanning pairing paired"`
}

type UpdateDeviceRequest struct {
	Name       *string `json:"name" validate:"omitempty,device_name"`
	WifiStatus *string `json:"wifi_status" validate:"omitempty,oneof=disconnected connecting connected"`
	BleStatus  *string `json:"ble_status" validate:"omitempty,oneof=disconnected scanning pairing paired"`
}

type CreateGoalRequest struct {
	DeviceID     string `json:"device_id" validate:"required"`
	Title        string `json:"title" validate:"required,min=1,max=100"`
	Emoji        string `json:"emoji" validate:"omitempty,max=16"`
	TargetAmount int64  `json:"target_amount" validate:"required,gt=0"`
}

type UpdateGoalRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=100"`
	Emoji *string `json:"emoji" validate:"omitempty,max=16"`
}

type AdjustBalanceRequest struct {
	DeltaCents int64  `json:"delta_cents" validate:"required"`
	GoalID     string `json:"goal_id" validate:"omitempty"`
}

type GoalResponse struct {
	ID             string    `json:"id"`
	DeviceID       string    `json:"device_id"`
	Title          string    `json:"title"`
	Emoji          string    `json:"emoji,omitempty"`
	TargetAmount   int64     `json:"target_amount"`
	CurrentAmount  int64     `json:"current_amount"`
	TargetDisplay  string    `json:"target_display"`
	CurrentDisplay string    `json:"current_display"`
	Progress       float64   `json:"progress"`
	CreatedAt      time.Time `json:"created_at"`
}

type DeviceResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Balance        int64                  `json:"balance"`
	BalanceDisplay string                 `json:"balance_display"`
	WifiStatus     domainPiggy.WifiStatus `json:"wifi_status"`
	BleStatus      domainPiggy.BleStatus  `json:"ble_status"`
	Goals          []GoalResponse         `json:"goals"`
	CreatedAt      time.Time              `json:"created_at"`
}

type DeviceListResponse struct {
	Devices []DeviceResponse `json:"devices"`
	Total   int              `json:"total"`
}

type AdjustBalanceResponse struct {
	Device *DeviceResponse `json:"device"`
	Goal   *GoalResponse   `json:"goal,omitempty"`
}

func ToGoalResponse(g domainPiggy.Goal) GoalResponse {
	return GoalResponse{
		ID:             g.ID,
		DeviceID:       g.DeviceID,
		Title:          g.Title,
		Emoji:          g.Emoji,
		TargetAmount:   g.TargetAmount,
		CurrentAmount:  g.CurrentAmount,
		TargetDisplay:  money.FormatCents(g.TargetAmount),
		CurrentDisplay: money.FormatCents(g.CurrentAmount),
		Progress:       g.Progress(),
		CreatedAt:      g.CreatedAt,
	}
}

func ToDeviceResponse(d *domainPiggy.Device) *DeviceResponse {
	if d == nil {
		return nil
	}
	goals := make([]GoalResponse, len(d.Goals))
	for i, g := range d.Goals {
		goals[i] = ToGoalResponse(g)
	}
	return &DeviceResponse{
		ID:             d.ID,
		Name:           d.Name,
		Balance:        d.Balance,
		BalanceDisplay: money.FormatCents(d.Balance),
		WifiStatus:     d.WifiStatus,
		BleStatus:      d.BleStatus,
		Goals:          goals,
		CreatedAt:      d.CreatedAt,
	}
}
