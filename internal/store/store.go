package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"digipiggy-hub/internal/domain/piggy"

	"go.uber.org/zap"
)

// SnapshotStore is the single durable key-value slot the store persists into.
// Load reports ok=false when the slot has never been written.
type SnapshotStore interface {
	Load(ctx context.Context) (data []byte, ok bool, err error)
	Save(ctx context.Context, data []byte) error
}

// Result reports whether a mutation found its target entity. Operations on
// missing entities never error and never touch state; they report NotFound so
// callers can surface it without the store raising anything.
type Result int

const (
	Applied Result = iota
	NotFound
)

// snapshotVersion is embedded in every persisted document. Documents without
// a version field (written before versioning existed) are read as version 1.
const snapshotVersion = 1

type snapshot struct {
	Version int                      `json:"version"`
	Devices map[string]*piggy.Device `json:"devices"`
}

// Store is the single source of truth for all device and goal state. It owns
// the data exclusively; every change routes through its methods. In-memory
// effects are synchronous and immediately visible, while persistence runs as
// a detached write of the whole snapshot after each mutation.
type Store struct {
	mu          sync.RWMutex
	devices     map[string]*piggy.Device
	deviceCount int
	hydrated    bool
	seq         uint64 // bumped on every mutation, guarded by mu

	snaps SnapshotStore
	log   *zap.Logger

	writes    sync.WaitGroup
	persistMu sync.Mutex // serializes slot writes
	savedSeq  uint64     // highest seq written to the slot, guarded by persistMu

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// New creates an empty, not-yet-hydrated store backed by the given slot.
func New(snaps SnapshotStore, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		devices: make(map[string]*piggy.Device),
		snaps:   snaps,
		log:     log,
		subs:    make(map[chan Event]struct{}),
	}
}

// Hydrate performs the one-time load from the durable slot. It must be called
// once, before the store is read. Read or parse failures degrade to an empty
// store; the store always ends up hydrated so callers never block on it.
func (s *Store) Hydrate(ctx context.Context) {
	devices := make(map[string]*piggy.Device)

	data, ok, err := s.snaps.Load(ctx)
	switch {
	case err != nil:
		s.log.Error("failed to hydrate store, starting empty", zap.Error(err))
	case ok:
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			s.log.Error("failed to parse persisted snapshot, starting empty", zap.Error(err))
		} else if snap.Devices != nil {
			devices = snap.Devices
		}
	}

	s.mu.Lock()
	s.devices = devices
	s.deviceCount = len(devices)
	s.hydrated = true
	s.mu.Unlock()

	s.log.Info("store hydrated",
		zap.Int("device_count", len(devices)),
		zap.String("event", "store_hydrated"),
	)
	s.emit(Event{Type: EventHydrated})
}

// Hydrated reports whether the one-time load has completed. State read before
// this returns true is not authoritative.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// AddDevice inserts a device keyed by its ID. An existing ID is silently
// overwritten: the operation is an idempotent upsert, not a create.
func (s *Store) AddDevice(d *piggy.Device) {
	s.mu.Lock()
	s.devices[d.ID] = d.Clone()
	s.deviceCount = len(s.devices)
	s.seq++
	s.mu.Unlock()

	s.schedulePersist()
	s.emit(Event{Type: EventDeviceAdded, DeviceID: d.ID})
}

// UpdateDevice merges the patch into an existing device.
func (s *Store) UpdateDevice(id string, patch piggy.DevicePatch) Result {
	s.mu.Lock()
	d, ok := s.devices[id]
	if !ok {
		s.mu.Unlock()
		return NotFound
	}
	d.Apply(patch)
	s.seq++
	s.mu.Unlock()

	s.schedulePersist()
	s.emit(Event{Type: EventDeviceUpdated, DeviceID: id})
	return Applied
}

// RemoveDevice deletes the device entry. Its goals go with it; a removed
// device leaves no orphan goal behind.
func (s *Store) RemoveDevice(id string) Result {
	s.mu.Lock()
	if _, ok := s.devices[id]; !ok {
		s.mu.Unlock()
		return NotFound
	}
	delete(s.devices, id)
	s.deviceCount = len(s.devices)
	s.seq++
	s.mu.Unlock()

	s.schedulePersist()
	s.emit(Event{Type: EventDeviceRemoved, DeviceID: id})
	return Applied
}

// AddGoal appends a goal to its owning device's goal list, preserving
// insertion order. NotFound if the owner does not exist.
func (s *Store) AddGoal(g piggy.Goal) Result {
	s.mu.Lock()
	d, ok := s.devices[g.DeviceID]
	if !ok {
		s.mu.Unlock()
		return NotFound
	}
	d.Goals = append(d.Goals, g)
	s.seq++
	s.mu.Unlock()

	s.schedulePersist()
	s.emit(Event{Type: EventGoalAdded, DeviceID: g.DeviceID, GoalID: g.ID})
	return Applied
}

// UpdateGoal locates a goal by ID across all devices and merges the patch.
// The scan stops at the first match.
func (s *Store) UpdateGoal(goalID string, patch piggy.GoalPatch) Result {
	s.mu.Lock()
	for _, d := range s.devices {
		for i := range d.Goals {
			if d.Goals[i].ID == goalID {
				d.Goals[i].Apply(patch)
				deviceID := d.ID
				s.seq++
				s.mu.Unlock()

				s.schedulePersist()
				s.emit(Event{Type: EventGoalUpdated, DeviceID: deviceID, GoalID: goalID})
				return Applied
			}
		}
	}
	s.mu.Unlock()
	return NotFound
}

// AdjustBalance applies a signed delta in minor units to the device balance,
// clamped at zero. When goalID is non-empty the same delta is applied to that
// goal's progress, clamped to [0, target] independently of the balance clamp;
// the two clamps can diverge and that divergence is intentional. The returned
// device is a deep copy of the adjusted state, taken under the same lock so
// a concurrent removal cannot leave the caller without it.
func (s *Store) AdjustBalance(deviceID string, deltaCents int64, goalID string) (*piggy.Device, Result) {
	s.mu.Lock()
	d, ok := s.devices[deviceID]
	if !ok {
		s.mu.Unlock()
		return nil, NotFound
	}
	d.AdjustBalance(deltaCents)
	if goalID != "" {
		for i := range d.Goals {
			if d.Goals[i].ID == goalID {
				d.Goals[i].AdjustProgress(deltaCents)
				break
			}
		}
	}
	adjusted := d.Clone()
	s.seq++
	s.mu.Unlock()

	s.schedulePersist()
	s.emit(Event{Type: EventBalanceAdjusted, DeviceID: deviceID, GoalID: goalID})
	return adjusted, Applied
}

// Device returns a deep copy of the device, or nil when absent.
func (s *Store) Device(id string) *piggy.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[id]
	if !ok {
		return nil
	}
	return d.Clone()
}

// Goal returns a copy of the goal with the given ID, scanning all devices.
func (s *Store) Goal(goalID string) (piggy.Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.devices {
		for i := range d.Goals {
			if d.Goals[i].ID == goalID {
				return d.Goals[i], true
			}
		}
	}
	return piggy.Goal{}, false
}

// Devices returns a deep-copied snapshot of all devices, ordered oldest
// first so display order is stable across calls.
func (s *Store) Devices() []*piggy.Device {
	s.mu.RLock()
	out := make([]*piggy.Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DeviceCount returns the cached device count. It always matches the number
// of devices after every mutation.
func (s *Store) DeviceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceCount
}

// schedulePersist writes the snapshot to the slot in a detached goroutine.
// Mutations never wait for the write; a failed write is logged and dropped.
// Writes are serialized through persistMu and encode the current state at
// write time, so a write scheduled earlier can never clobber the slot with
// an older snapshot. The sequence check drops writes whose state is already
// covered by a completed one.
func (s *Store) schedulePersist() {
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()

		s.persistMu.Lock()
		defer s.persistMu.Unlock()

		data, seq, err := s.encode()
		if err != nil {
			s.log.Error("failed to encode snapshot", zap.Error(err))
			return
		}
		if seq <= s.savedSeq {
			return
		}
		if err := s.snaps.Save(context.Background(), data); err != nil {
			s.log.Error("failed to persist store", zap.Error(err))
			return
		}
		s.savedSeq = seq
	}()
}

// Persist writes the current snapshot synchronously. Mutations do not use
// this path; it exists for shutdown, where the last write should not race
// process exit.
func (s *Store) Persist(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	data, seq, err := s.encode()
	if err != nil {
		return err
	}
	if err := s.snaps.Save(ctx, data); err != nil {
		return err
	}
	if seq > s.savedSeq {
		s.savedSeq = seq
	}
	return nil
}

// Flush blocks until all in-flight background writes have completed. Because
// each write encodes at write time, the slot holds the latest state once
// Flush returns. Tests and shutdown use it to make the fire-and-forget
// writes deterministic.
func (s *Store) Flush() {
	s.writes.Wait()
}

func (s *Store) encode() ([]byte, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.Marshal(snapshot{Version: snapshotVersion, Devices: s.devices})
	return data, s.seq, err
}
