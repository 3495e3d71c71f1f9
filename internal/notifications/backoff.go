package notifications

import (
	"math"
	"math/rand/v2"
	"time"
)

// ExponentialBackoff doubles base for every attempt up to capDelay and adds
// up to 10% jitter.
//
//	attempt=0 => base
//	attempt=1 => 2*base
//	attempt=2 => 4*base
func ExponentialBackoff(attempt int, base, capDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	if jitter := int64(delay / 10); jitter > 0 {
		delay += time.Duration(rand.Int64N(jitter))
	}
	return delay
}
