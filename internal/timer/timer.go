// Package timer tracks how long a game has been running.
package timer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrInvalidDuration is returned by Parse for values it cannot read.
var ErrInvalidDuration = errors.New("invalid duration")

// Timer is idle until Start is called and running afterwards. It cannot be
// paused or reset; a new game gets a new Timer.
type Timer struct {
	clock clockwork.Clock
	start time.Time
}

// New returns an idle timer reading time from clock. A nil clock uses the
// real wall clock.
func New(clock clockwork.Clock) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{clock: clock}
}

// Start moves the timer to running. Calling it again has no effect.
func (t *Timer) Start() {
	if t.Started() {
		return
	}
	t.start = t.clock.Now()
}

// Started reports whether Start has been called.
func (t *Timer) Started() bool {
	return !t.start.IsZero()
}

// StartedAt returns the start instant, or the zero time while idle.
func (t *Timer) StartedAt() time.Time {
	return t.start
}

// Duration is zero while idle and the elapsed wall-clock time, rounded to
// whole seconds, while running.
func (t *Timer) Duration() time.Duration {
	if !t.Started() {
		return 0
	}
	d := t.clock.Since(t.start).Round(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// Format renders d as H:MM:SS with unpadded hours.
func Format(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

// Encode serializes d for storage. Parse(Encode(d)) == d.
func Encode(d time.Duration) string {
	return d.String()
}

// Parse reads a duration written by Encode, or the H:MM:SS display form.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDuration)
	}
	if strings.Contains(s, ":") {
		return parseClock(s)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative %q", ErrInvalidDuration, s)
	}
	return d, nil
}

func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	var values [3]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		if i > 0 && (len(p) != 2 || n > 59) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		values[i] = n
	}
	return time.Duration(values[0])*time.Hour +
		time.Duration(values[1])*time.Minute +
		time.Duration(values[2])*time.Second, nil
}
