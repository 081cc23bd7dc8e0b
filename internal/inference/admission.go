package inference

import (
	"context"
	"time"
)

// admission bounds model work: at most cap(slots) calls run at once and at
// most cap(queue) requests hold a place, running or waiting. A nil
// admission admits everything.
type admission struct {
	queue   chan struct{}
	slots   chan struct{}
	maxWait time.Duration
}

func newAdmission(maxConcurrent, maxQueue int, maxWait time.Duration) *admission {
	if maxConcurrent <= 0 {
		return nil
	}
	if maxQueue < maxConcurrent {
		maxQueue = maxConcurrent
	}
	return &admission{
		queue:   make(chan struct{}, maxQueue),
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// begin reserves a queue place and then a run slot. The returned release
// func must be called once the model call is done.
func (a *admission) begin(ctx context.Context) (func(), error) {
	if a == nil {
		return func() {}, nil
	}
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	timer := time.NewTimer(a.maxWait)
	defer timer.Stop()
	select {
	case a.queue <- struct{}{}:
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-a.queue
		}
	}()
	select {
	case a.slots <- struct{}{}:
		acquired = true
		return func() { <-a.slots; <-a.queue }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{}
	}
}

// inFlight reports running and waiting model calls.
func (a *admission) inFlight() (running, waiting int) {
	if a == nil {
		return 0, 0
	}
	running = len(a.slots)
	return running, len(a.queue) - running
}
