package piggy

import "errors"

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrGoalNotFound   = errors.New("goal not found")
)
