package onboarding

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

var (
	ErrWifiScanFailed = errors.New("wifi scan failed, try again")
	ErrConnectFailed  = errors.New("connection failed, check the password")
)

// WifiScanner simulates the device-side Wi-Fi setup step during onboarding.
type WifiScanner struct {
	mu          sync.Mutex
	rng         *rand.Rand
	sleep       func(ctx context.Context, d time.Duration) error
	failureRate float64

	scanDelay    time.Duration
	connectDelay time.Duration
}

func NewWifiScanner() *WifiScanner {
	return &WifiScanner{
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:        sleepCtx,
		failureRate:  defaultFailureRate,
		scanDelay:    600 * time.Millisecond,
		connectDelay: 1500 * time.Millisecond,
	}
}

// Scan returns nearby network names after a simulated delay.
func (s *WifiScanner) Scan(ctx context.Context) ([]string, error) {
	if err := s.sleep(ctx, s.scanDelay); err != nil {
		return nil, err
	}
	if s.roll() {
		return nil, ErrWifiScanFailed
	}
	return []string{
		"HomeNetwork_5G",
		"HomeNetwork_2.4G",
		"NeighborWiFi",
		"CafeGuest",
		"MyRouter",
	}, nil
}

// Connect simulates pushing Wi-Fi credentials to the device.
func (s *WifiScanner) Connect(ctx context.Context, ssid, password string) error {
	if err := s.sleep(ctx, s.connectDelay); err != nil {
		return err
	}
	if s.roll() {
		return ErrConnectFailed
	}
	return nil
}

func (s *WifiScanner) roll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.failureRate
}
