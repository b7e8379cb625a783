package helper

import (
	"sync"
	"time"
)

// keepalive tears the session down after a period without calls. A call in
// flight holds the timer open. A nil *keepalive is valid and does nothing.
//
// Lock order: keepalive.mu is taken before Client.mu, never after.
type keepalive struct {
	mu          sync.Mutex
	timer       *time.Timer
	timerID     uint64
	nextTimerID uint64
	inFlight    int
	timeout     time.Duration
	onIdle      func()
}

func newKeepalive(timeout time.Duration, onIdle func()) *keepalive {
	if timeout <= 0 {
		return nil
	}
	return &keepalive{timeout: timeout, onIdle: onIdle}
}

// Begin marks the start of an operation and cancels any pending timer.
func (k *keepalive) Begin() {
	if k == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	k.stopTimerLocked()
	k.inFlight++
}

// End marks completion of an operation. The idle timer starts once the last
// in-flight operation completes.
func (k *keepalive) End() {
	if k == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.inFlight > 1 {
		k.inFlight--
		return
	}
	k.inFlight = 0
	k.startTimerLocked()
}

// Stop cancels the pending timer.
func (k *keepalive) Stop() {
	if k == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopTimerLocked()
}

func (k *keepalive) stopTimerLocked() {
	if k.timer != nil {
		k.timer.Stop()
		k.timer = nil
		k.timerID = 0
	}
}

func (k *keepalive) startTimerLocked() {
	k.stopTimerLocked()

	k.nextTimerID++
	timerID := k.nextTimerID
	k.timer = time.AfterFunc(k.timeout, func() {
		k.expire(timerID)
	})
	k.timerID = timerID
}

func (k *keepalive) expire(timerID uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.timerID != timerID || k.inFlight > 0 {
		return
	}

	k.timer = nil
	k.timerID = 0
	if k.onIdle != nil {
		k.onIdle()
	}
}
