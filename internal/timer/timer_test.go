package timer

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestIdleTimerIsZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock)
	for i := 0; i < 3; i++ {
		clock.Advance(time.Minute)
		if d := tm.Duration(); d != 0 {
			t.Fatalf("idle Duration() = %v, want 0", d)
		}
	}
	if tm.Started() {
		t.Error("Started() = true before Start()")
	}
	if !tm.StartedAt().IsZero() {
		t.Error("StartedAt() should be zero while idle")
	}
}

func TestRunningTimerIsMonotonic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock)
	tm.Start()

	var last time.Duration
	for _, step := range []time.Duration{0, 400 * time.Millisecond, time.Second, 90 * time.Second} {
		clock.Advance(step)
		d := tm.Duration()
		if d < last {
			t.Fatalf("Duration() decreased: %v after %v", d, last)
		}
		last = d
	}
	if last != 91*time.Second {
		t.Errorf("Duration() = %v, want 1m31s", last)
	}
}

func TestStartIsOneWay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock)
	tm.Start()
	first := tm.StartedAt()
	clock.Advance(time.Hour)
	tm.Start()
	if !tm.StartedAt().Equal(first) {
		t.Errorf("second Start() moved the start instant from %v to %v", first, tm.StartedAt())
	}
	if tm.Duration() != time.Hour {
		t.Errorf("Duration() = %v, want 1h", tm.Duration())
	}
}

func TestNewWithNilClock(t *testing.T) {
	tm := New(nil)
	tm.Start()
	if tm.Duration() < 0 {
		t.Error("Duration() should not be negative")
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		dur      time.Duration
		expected string
	}{
		{0, "0:00:00"},
		{3725 * time.Second, "1:02:05"},
		{59 * time.Second, "0:00:59"},
		{90 * time.Second, "0:01:30"},
		{12*time.Hour + 5*time.Second, "12:00:05"},
		{1500 * time.Millisecond, "0:00:01"},
		{-time.Second, "0:00:00"},
	}
	for _, c := range cases {
		if got := Format(c.dur); got != c.expected {
			t.Errorf("Format(%v) = %q, want %q", c.dur, got, c.expected)
		}
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{0, time.Second, 90 * time.Second, 3725 * time.Second} {
		got, err := Parse(Encode(d))
		if err != nil {
			t.Fatalf("Parse(Encode(%v)) error = %v", d, err)
		}
		if got != d {
			t.Errorf("Parse(Encode(%v)) = %v", d, got)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		ok    bool
	}{
		{"1m30s", 90 * time.Second, true},
		{"0:02:00", 2 * time.Minute, true},
		{"1:02:05", 3725 * time.Second, true},
		{"", 0, false},
		{"soon", 0, false},
		{"-5s", 0, false},
		{"0:2:00", 0, false},
		{"0:00:60", 0, false},
		{"1:00", 0, false},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.ok {
			if err != nil || got != tt.want {
				t.Errorf("Parse(%q) = %v, %v; want %v, nil", tt.input, got, err, tt.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidDuration", tt.input, err)
		}
	}
}
