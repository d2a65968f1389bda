package onboarding

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

// BleDevice is a discoverable piggy-bank unit as seen during a Bluetooth scan.
type BleDevice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var (
	ErrScanFailed = errors.New("bluetooth scan failed, try again")
	ErrPairFailed = errors.New("pairing failed, try again")
)

const defaultFailureRate = 0.1

// BleScanner simulates Bluetooth discovery and pairing: fixed candidates,
// a bit of latency, and an occasional failure. There is no real radio.
type BleScanner struct {
	mu          sync.Mutex
	rng         *rand.Rand
	sleep       func(ctx context.Context, d time.Duration) error
	failureRate float64

	scanDelay time.Duration
	pairDelay time.Duration
}

func NewBleScanner() *BleScanner {
	return &BleScanner{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:       sleepCtx,
		failureRate: defaultFailureRate,
		scanDelay:   800 * time.Millisecond,
		pairDelay:   1200 * time.Millisecond,
	}
}

// Scan returns the discoverable devices after a simulated delay.
func (s *BleScanner) Scan(ctx context.Context) ([]BleDevice, error) {
	if err := s.sleep(ctx, s.scanDelay); err != nil {
		return nil, err
	}
	if s.roll() {
		return nil, ErrScanFailed
	}
	return []BleDevice{
		{ID: "device_1234", Name: "DigiPiggy_1234"},
		{ID: "device_lisa", Name: "DigiPiggy_Lisa"},
		{ID: "device_5678", Name: "DigiPiggy_5678"},
	}, nil
}

// Pair simulates pairing with a previously scanned device.
func (s *BleScanner) Pair(ctx context.Context, id string) error {
	if err := s.sleep(ctx, s.pairDelay); err != nil {
		return err
	}
	if s.roll() {
		return ErrPairFailed
	}
	return nil
}

func (s *BleScanner) roll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.failureRate
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
