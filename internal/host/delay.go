package host

import "time"

// TimerDelayer schedules callbacks with time.AfterFunc.
type TimerDelayer struct{}

func NewTimerDelayer() TimerDelayer { return TimerDelayer{} }

var _ Delayer = TimerDelayer{}

func (TimerDelayer) AfterFunc(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
