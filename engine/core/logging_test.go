package core

import "testing"

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected LogLevel
		ok       bool
	}{
		{"", LogLevelInfo, true},
		{"debug", LogLevelDebug, true},
		{" WARN ", LogLevelWarn, true},
		{"warning", LogLevelWarn, true},
		{"error", LogLevelError, true},
		{"fatal", LogLevelFatal, true},
		{"verbose", LogLevelInfo, false},
	}
	for _, test := range tests {
		got, ok := ParseLogLevel(test.in)
		if got != test.expected || ok != test.ok {
			t.Errorf("ParseLogLevel(%q)=%d,%v; expected %d,%v", test.in, got, ok, test.expected, test.ok)
		}
	}
}

func TestClock(t *testing.T) {
	c := NewClock()
	c.Update()
	if c.Elapsed() != 0 {
		t.Errorf("a clock that was never started reports %s", c.Elapsed())
	}
	c.Start()
	c.Stop()
	elapsed := c.Elapsed()
	c.Update()
	if c.Elapsed() != elapsed {
		t.Error("a stopped clock must not advance")
	}
}
