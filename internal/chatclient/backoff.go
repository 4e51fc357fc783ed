package chatclient

import "time"

// RetryPolicy is the polling schedule: a doubling delay with a cap and
// a bounded attempt budget. Delay is pure so schedules are testable
// without sleeping.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Cap         time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 10,
		Initial:     500 * time.Millisecond,
		Cap:         8 * time.Second,
	}
}

// Delay returns the wait before the given zero-based attempt and
// whether the attempt is still within budget.
func (p RetryPolicy) Delay(attempt int) (time.Duration, bool) {
	if attempt < 0 || attempt >= p.MaxAttempts {
		return 0, false
	}
	d := p.Initial
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.Cap {
			return p.Cap, true
		}
	}
	if d > p.Cap {
		d = p.Cap
	}
	return d, true
}
