package gameroom

import "time"

// scheduler holds the one pending deadline of a room. Arming replaces whatever was armed
// before, so at most one fire is ever outstanding. Owned by the room goroutine.
type scheduler struct {
	timer    *time.Timer
	deadline time.Time
	now      func() time.Time
}

func newScheduler(now func() time.Time) *scheduler {
	return &scheduler{now: now}
}

// Arm schedules a fire at deadline. Re-arming for the same instant is a no-op.
func (s *scheduler) Arm(deadline time.Time) {
	if s.timer != nil && deadline.Equal(s.deadline) {
		return
	}
	d := deadline.Sub(s.now())
	if d < 0 {
		d = 0
	}
	if s.timer == nil {
		s.timer = time.NewTimer(d)
	} else {
		s.timer.Reset(d)
	}
	s.deadline = deadline
}

func (s *scheduler) Stop() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.deadline = time.Time{}
}

// C is nil while nothing was ever armed, so a select on it blocks.
func (s *scheduler) C() <-chan time.Time {
	if s.timer == nil {
		return nil
	}
	return s.timer.C
}

// Fired must be called after receiving from C: the timer is spent and the next Arm
// restarts it even for the same deadline.
func (s *scheduler) Fired() {
	s.deadline = time.Time{}
}

// Armed reports the pending deadline, if any.
func (s *scheduler) Armed() (time.Time, bool) {
	return s.deadline, !s.deadline.IsZero()
}
