package piggy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainPiggy "digipiggy-hub/internal/domain/piggy"
	"digipiggy-hub/internal/store"
	appErrors "digipiggy-hub/pkg/errors"
)

type memSlot struct {
	mu      sync.Mutex
	data    []byte
	written bool
}

func (m *memSlot) Load(ctx context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, m.written, nil
}

func (m *memSlot) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.written = true
	return nil
}

type capturedMessage struct {
	DeviceID string
	Msg      string
}

type fakeNotifier struct {
	messages chan capturedMessage
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{messages: make(chan capturedMessage, 8)}
}

func (f *fakeNotifier) SendMessage(ctx context.Context, deviceID, msg string) error {
	f.messages <- capturedMessage{DeviceID: deviceID, Msg: msg}
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeNotifier) {
	t.Helper()
	st := store.New(&memSlot{}, nil)
	st.Hydrate(context.Background())
	notifier := newFakeNotifier()
	return NewService(st, notifier), notifier
}

func addTestDevice(t *testing.T, svc *Service, id string) *DeviceResponse {
	t.Helper()
	device, err := svc.CreateDevice(context.Background(), &CreateDeviceRequest{
		ID:   id,
		Name: "Piggy " + id,
	})
	if err != nil {
		t.Fatalf("CreateDevice failed: %v", err)
	}
	return device
}

func TestCreateDevice_DefaultsToOnboardedStatuses(t *testing.T) {
	svc, _ := newTestService(t)

	device := addTestDevice(t, svc, "device_1234")

	if device.Balance != 0 {
		t.Errorf("expected zero starting balance, got %d", device.Balance)
	}
	if device.WifiStatus != domainPiggy.WifiConnected {
		t.Errorf("expected wifi connected after onboarding, got %s", device.WifiStatus)
	}
	if device.BleStatus != domainPiggy.BlePaired {
		t.Errorf("expected ble paired after onboarding, got %s", device.BleStatus)
	}
	if device.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}
}

// Device IDs are opaque strings from the hardware; length carries no meaning.
func TestCreateDevice_AcceptsShortID(t *testing.T) {
	svc, _ := newTestService(t)

	device, err := svc.CreateDevice(context.Background(), &CreateDeviceRequest{
		ID:   "d1",
		Name: "Piggy",
	})
	if err != nil {
		t.Fatalf("expected short ID to be accepted, got %v", err)
	}
	if device.ID != "d1" {
		t.Fatalf("expected device d1, got %q", device.ID)
	}
}

func TestCreateDevice_RejectsBlankName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateDevice(context.Background(), &CreateDeviceRequest{
		ID:   "device_1234",
		Name: "   ",
	})

	var appErr *appErrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateGoal_RejectsNonPositiveTarget(t *testing.T) {
	svc, _ := newTestService(t)
	addTestDevice(t, svc, "d1")

	for _, target := range []int64{0, -100} {
		_, err := svc.CreateGoal(context.Background(), &CreateGoalRequest{
			DeviceID:     "d1",
			Title:        "Bicycle",
			TargetAmount: target,
		})

		var appErr *appErrors.AppError
		if !errors.As(err, &appErr) {
			t.Errorf("target %d: expected validation error, got %v", target, err)
		}
	}
}

func TestCreateGoal_UnknownDeviceIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateGoal(context.Background(), &CreateGoalRequest{
		DeviceID:     "missing",
		Title:        "Bicycle",
		TargetAmount: 10000,
	})

	if !errors.Is(err, domainPiggy.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestAdjustBalance_DepositNotifiesDevice(t *testing.T) {
	svc, notifier := newTestService(t)
	addTestDevice(t, svc, "d1")

	resp, err := svc.AdjustBalance(context.Background(), "d1", &AdjustBalanceRequest{DeltaCents: 5000})
	if err != nil {
		t.Fatalf("AdjustBalance failed: %v", err)
	}
	if resp.Device.Balance != 5000 {
		t.Fatalf("expected balance 5000, got %d", resp.Device.Balance)
	}

	select {
	case msg := <-notifier.messages:
		if msg.DeviceID != "d1" {
			t.Errorf("message sent to wrong device: %s", msg.DeviceID)
		}
		if msg.Msg != "You received 50 kr" {
			t.Errorf("unexpected message text: %q", msg.Msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for device message")
	}
}

func TestAdjustBalance_WithdrawalMessageAndClamp(t *testing.T) {
	svc, notifier := newTestService(t)
	addTestDevice(t, svc, "d1")

	if _, err := svc.AdjustBalance(context.Background(), "d1", &AdjustBalanceRequest{DeltaCents: 5000}); err != nil {
		t.Fatal(err)
	}
	<-notifier.messages

	resp, err := svc.AdjustBalance(context.Background(), "d1", &AdjustBalanceRequest{DeltaCents: -8000})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Device.Balance != 0 {
		t.Fatalf("expected clamped balance 0, got %d", resp.Device.Balance)
	}

	select {
	case msg := <-notifier.messages:
		if msg.Msg != "You spent 80 kr" {
			t.Errorf("unexpected message text: %q", msg.Msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for device message")
	}
}

func TestAdjustBalance_TargetsGoal(t *testing.T) {
	svc, notifier := newTestService(t)
	addTestDevice(t, svc, "d1")

	goal, err := svc.CreateGoal(context.Background(), &CreateGoalRequest{
		DeviceID:     "d1",
		Title:        "Bicycle",
		Emoji:        "🚲",
		TargetAmount: 10000,
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := svc.AdjustBalance(context.Background(), "d1", &AdjustBalanceRequest{
		DeltaCents: 15000,
		GoalID:     goal.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	<-notifier.messages

	if resp.Device.Balance != 15000 {
		t.Errorf("expected balance 15000, got %d", resp.Device.Balance)
	}
	if resp.Goal == nil {
		t.Fatal("expected goal in response")
	}
	if resp.Goal.CurrentAmount != 10000 {
		t.Errorf("expected goal clamped at 10000, got %d", resp.Goal.CurrentAmount)
	}
	if resp.Goal.Progress != 1 {
		t.Errorf("expected full progress, got %f", resp.Goal.Progress)
	}
}

func TestAdjustBalance_UnknownDevice(t *testing.T) {
	svc, notifier := newTestService(t)

	_, err := svc.AdjustBalance(context.Background(), "missing", &AdjustBalanceRequest{DeltaCents: 100})
	if !errors.Is(err, domainPiggy.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}

	select {
	case msg := <-notifier.messages:
		t.Fatalf("unexpected message for failed adjustment: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeleteDevice_RemovesGoalsWithIt(t *testing.T) {
	svc, _ := newTestService(t)
	addTestDevice(t, svc, "d1")

	goal, err := svc.CreateGoal(context.Background(), &CreateGoalRequest{
		DeviceID:     "d1",
		Title:        "Bicycle",
		TargetAmount: 10000,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteDevice(context.Background(), "d1"); err != nil {
		t.Fatalf("DeleteDevice failed: %v", err)
	}

	if _, err := svc.GetDevice(context.Background(), "d1"); !errors.Is(err, domainPiggy.ErrDeviceNotFound) {
		t.Fatalf("expected device gone, got %v", err)
	}
	if _, err := svc.UpdateGoal(context.Background(), goal.ID, &UpdateGoalRequest{}); !errors.Is(err, domainPiggy.ErrGoalNotFound) {
		t.Fatalf("expected goal gone, got %v", err)
	}
}

func TestListDevices_OrderedByCreation(t *testing.T) {
	svc, _ := newTestService(t)
	addTestDevice(t, svc, "d1")
	addTestDevice(t, svc, "d2")

	list, err := svc.ListDevices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if list.Total != 2 || len(list.Devices) != 2 {
		t.Fatalf("expected 2 devices, got total=%d len=%d", list.Total, len(list.Devices))
	}
}

func TestUpdateDevice_Rename(t *testing.T) {
	svc, _ := newTestService(t)
	addTestDevice(t, svc, "d1")

	name := "Lisa's piggy"
	device, err := svc.UpdateDevice(context.Background(), "d1", &UpdateDeviceRequest{Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if device.Name != name {
		t.Errorf("expected renamed device, got %q", device.Name)
	}
}
