package core

import (
	"fmt"
	"sync/atomic"
)

// ModelLimiter caps the number of model calls a single run may make. It is
// the safeguard against tool-calling loops that never settle on an answer.
// A max of 0 disables the cap.
type ModelLimiter struct {
	max   int64
	count atomic.Int64
}

// NewModelLimiter creates a limiter allowing up to max calls.
func NewModelLimiter(max int) *ModelLimiter {
	return &ModelLimiter{max: int64(max)}
}

// Increment records one model call and returns an error once the cap is
// exceeded. Callers check before issuing the call.
func (ml *ModelLimiter) Increment() error {
	n := ml.count.Add(1)
	if ml.max > 0 && n > ml.max {
		return fmt.Errorf("exceeded max model calls: %d", ml.max)
	}
	return nil
}

// Count returns how many calls have been recorded so far.
func (ml *ModelLimiter) Count() int {
	return int(ml.count.Load())
}

// Remaining returns how many calls are left, or -1 when uncapped.
func (ml *ModelLimiter) Remaining() int {
	if ml.max == 0 {
		return -1
	}
	return int(ml.max - ml.count.Load())
}
