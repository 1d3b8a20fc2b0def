// internal/room/scheduler.go
package room

import "time"

// Timer is a pending callback that can be stopped. Stop on a fired or stopped timer is a no-op.
type Timer interface {
	Stop() bool
}

// Scheduler is the time source of a Service. Production code uses SystemScheduler;
// tests substitute a manual clock.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler runs callbacks with time.AfterFunc.
type SystemScheduler struct{}

func (SystemScheduler) Now() time.Time { return time.Now() }

func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// timerSlot owns at most one pending timer. Every arm or cancel bumps seq so a callback
// that was already queued when its slot moved on can recognise itself as stale.
type timerSlot struct {
	name  string
	timer Timer
	seq   uint64
}

func (s *timerSlot) cancel() {
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *timerSlot) pending() bool {
	return s.timer != nil
}
