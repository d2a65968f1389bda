package piggy

import "time"

// Device represents a paired piggy-bank unit in the domain. Amounts are kept
// in currency minor units (cents) to avoid floating-point rounding.
type Device struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Balance    int64      `json:"balance"`
	WifiStatus WifiStatus `json:"wifiStatus"`
	BleStatus  BleStatus  `json:"bleStatus"`
	Goals      []Goal     `json:"goals"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Goal is a savings target owned by a Device. Goals keep insertion order:
// the newest goal is always appended last.
type Goal struct {
	ID            string    `json:"id"`
	DeviceID      string    `json:"deviceId"`
	Title         string    `json:"title"`
	Emoji         string    `json:"emoji,omitempty"`
	TargetAmount  int64     `json:"targetAmount"`
	CurrentAmount int64     `json:"currentAmount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// WifiStatus reflects the last-known Wi-Fi connectivity state reported during
// onboarding. Informational only, never validated against the real network.
type WifiStatus string

const (
	WifiDisconnected WifiStatus = "disconnected"
	WifiConnecting   WifiStatus = "connecting"
	WifiConnected    WifiStatus = "connected"
)

// BleStatus reflects the last-known Bluetooth pairing state.
type BleStatus string

const (
	BleDisconnected BleStatus = "disconnected"
	BleScanning     BleStatus = "scanning"
	BlePairing      BleStatus = "pairing"
	BlePaired       BleStatus = "paired"
)

// DevicePatch carries the mutable device fields for a partial update.
// Nil fields are left untouched.
type DevicePatch struct {
	Name       *string
	Balance    *int64
	WifiStatus *WifiStatus
	BleStatus  *BleStatus
}

// GoalPatch carries the mutable goal fields for a partial update.
type GoalPatch struct {
	Title         *string
	Emoji         *string
	CurrentAmount *int64
}

// Apply merges the patch into the device.
func (d *Device) Apply(p DevicePatch) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Balance != nil {
		d.Balance = *p.Balance
	}
	if p.WifiStatus != nil {
		d.WifiStatus = *p.WifiStatus
	}
	if p.BleStatus != nil {
		d.BleStatus = *p.BleStatus
	}
}

// Apply merges the patch into the goal.
func (g *Goal) Apply(p GoalPatch) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Emoji != nil {
		g.Emoji = *p.Emoji
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
}

// AdjustBalance applies a signed delta to the device balance, clamping at
// zero. A withdrawal that would overdraw is truncated, not rejected.
func (d *Device) AdjustBalance(deltaCents int64) {
	d.Balance = max(0, d.Balance+deltaCents)
}

// AdjustProgress applies a signed delta to the goal progress, clamped to
// [0, TargetAmount]. The clamp is independent of any device-level clamp.
func (g *Goal) AdjustProgress(deltaCents int64) {
	next := g.CurrentAmount + deltaCents
	if next < 0 {
		next = 0
	}
	if next > g.TargetAmount {
		next = g.TargetAmount
	}
	g.CurrentAmount = next
}

// Progress reports goal completion in the range [0, 1].
func (g *Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	return float64(g.CurrentAmount) / float64(g.TargetAmount)
}

// Clone returns a deep copy of the device, including its goals.
func (d *Device) Clone() *Device {
	cp := *d
	cp.Goals = make([]Goal, len(d.Goals))
	copy(cp.Goals, d.Goals)
	return &cp
}
