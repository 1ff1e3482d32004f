// Package jitter добавляет случайность в интервалы повторов (backoff),
// чтобы параллельные повторы не совпадали по времени.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Duration возвращает продолжительность с джиттером в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	return withFloat(d, jitterFactor, rand.Float64())
}

// DurationWithRand то же, что Duration, но с заданным генератором. Нужен для детерминированных тестов.
func DurationWithRand(d time.Duration, jitterFactor float64, rng *rand.Rand) time.Duration {
	return withFloat(d, jitterFactor, rng.Float64())
}

// ExponentialBackoff возвращает base*2^attempt, ограниченное max, с джиттером.
// attempt считается с нуля.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(Exponential(base, max, attempt), jitterFactor)
}

// Exponential возвращает base*2^attempt без джиттера, не больше max.
func Exponential(base, max time.Duration, attempt int) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		if backoff >= max/2 {
			return max
		}
		backoff *= 2
	}

	return min(backoff, max)
}

func withFloat(d time.Duration, jitterFactor, f float64) time.Duration {
	if d <= 0 || jitterFactor <= 0 {
		return d
	}

	return d + time.Duration(f*jitterFactor*float64(d))
}
