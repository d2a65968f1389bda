package store

// EventType names a store mutation for subscribers.
type EventType string

const (
	EventHydrated        EventType = "hydrated"
	EventDeviceAdded     EventType = "device_added"
	EventDeviceUpdated   EventType = "device_updated"
	EventDeviceRemoved   EventType = "device_removed"
	EventGoalAdded       EventType = "goal_added"
	EventGoalUpdated     EventType = "goal_updated"
	EventBalanceAdjusted EventType = "balance_adjusted"
)

// Event describes one applied mutation. GoalID is empty for device-level
// events and for balance adjustments that did not target a goal.
type Event struct {
	Type     EventType `json:"type"`
	DeviceID string    `json:"deviceId,omitempty"`
	GoalID   string    `json:"goalId,omitempty"`
}

const subscriberBuffer = 16

// Subscribe registers a listener for store events. The returned channel is
// buffered; a subscriber that falls behind loses events rather than blocking
// mutations.
func (s *Store) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes the listener and closes its channel.
func (s *Store) Unsubscribe(ch chan Event) {
	s.subMu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.subMu.Unlock()
}

func (s *Store) emit(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
