// Package backoff provides retry delay calculation strategies.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before a given retry attempt.
type Strategy interface {
	// Delay returns the backoff duration for attempt (0-based) given the
	// configured floor, ceiling, growth multiplier and jitter fraction.
	Delay(attempt int, floor, ceiling time.Duration, multiplier, jitter float64) time.Duration
}

// ExponentialJitter grows the delay exponentially from the floor and adds
// uniform jitter. The result never exceeds the ceiling.
type ExponentialJitter struct{}

func (ExponentialJitter) Delay(attempt int, floor, ceiling time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the exponent so the float math cannot overflow.
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(floor) * pow(multiplier, attempt))
	if delay < 0 || delay > ceiling {
		delay = ceiling
	}

	jitter = clampJitter(jitter)
	if jitter > 0 {
		extra := time.Duration(float64(delay) * jitter * rand.Float64())
		if delay+extra > ceiling {
			delay = ceiling
		} else {
			delay += extra
		}
	}
	return delay
}

// DecorrelatedJitter implements AWS-style decorrelated jitter: each delay is
// drawn uniformly from [floor, min(ceiling, floor*3^attempt)]. It ignores the
// configured multiplier and jitter fraction.
type DecorrelatedJitter struct{}

func (DecorrelatedJitter) Delay(attempt int, floor, ceiling time.Duration, _, _ float64) time.Duration {
	if attempt <= 0 {
		return floor
	}
	if attempt > 10 {
		attempt = 10
	}

	base := float64(floor)
	upper := base * pow(3.0, attempt)
	if upper > float64(ceiling) || upper < 0 {
		upper = float64(ceiling)
	}
	if upper < base {
		upper = base
	}

	delay := time.Duration(base + rand.Float64()*(upper-base))
	if delay < 0 || delay > ceiling {
		delay = ceiling
	}
	return delay
}

func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

// pow is integer exponentiation on float64, avoiding math.Pow edge cases for
// the small exponents used here.
func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
