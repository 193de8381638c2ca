package arrow

import "time"

// Timer posts a single TimerExpired event when the run duration elapses.
// It is the only concurrently-running activity beside the pump and
// communicates with it exclusively through the event channel; it never
// touches transport state.
type Timer struct {
	timer *time.Timer
	done  chan struct{}
}

// StartTimer arms a timer that delivers TimerExpired on events after d.
func StartTimer(d time.Duration, events chan<- Event) *Timer {
	t := &Timer{done: make(chan struct{})}
	t.timer = time.AfterFunc(d, func() {
		select {
		case events <- Event{Type: EventTimerExpired}:
		case <-t.done:
		}
	})
	return t
}

// Stop disarms the timer. Safe to call after expiry and more than once.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.timer.Stop()
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}
