package chatclient

import (
	"testing"
	"time"
)

func TestRetryPolicyDelaySchedule(t *testing.T) {
	p := DefaultRetryPolicy()

	want := []time.Duration{
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second,
		8 * time.Second,
		8 * time.Second,
		8 * time.Second,
		8 * time.Second,
	}
	for attempt, expected := range want {
		got, ok := p.Delay(attempt)
		if !ok {
			t.Fatalf("attempt %d: want ok", attempt)
		}
		if got != expected {
			t.Fatalf("attempt %d: want=%v got=%v", attempt, expected, got)
		}
	}

	if _, ok := p.Delay(10); ok {
		t.Fatalf("attempt 10: want budget exhausted")
	}
	if _, ok := p.Delay(-1); ok {
		t.Fatalf("negative attempt: want not ok")
	}
}

func TestRetryPolicyCapBelowInitial(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Initial: time.Second, Cap: 100 * time.Millisecond}
	d, ok := p.Delay(0)
	if !ok || d != 100*time.Millisecond {
		t.Fatalf("want cap, got d=%v ok=%v", d, ok)
	}
}
