package resilience

import (
	"math"
	"time"
)

// Policy configures the retry loop and the per-operation circuit breaker of
// an Executor. Zero fields fall back to the base values.
type Policy struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func basePolicy() Policy {
	return Policy{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

// ClassificationPolicy guards model calls. A failed classification is not
// retried: the entry is counted as failed and the pass moves on. The breaker
// needs a wider window because a pass fans out many calls at once.
func ClassificationPolicy() Policy {
	p := basePolicy()
	p.RetryMaxAttempts = 1
	p.BreakerMinRequests = 20
	p.BreakerOpenTimeout = time.Minute
	return p
}

// FetchPolicy guards the registry snapshot download, a single large GET
// that is worth a few slow retries.
func FetchPolicy() Policy {
	p := basePolicy()
	p.RetryMaxAttempts = 4
	p.RetryInitialBackoff = 2 * time.Second
	p.RetryMaxBackoff = 16 * time.Second
	p.BreakerMinRequests = 3
	p.BreakerOpenTimeout = 5 * time.Minute
	return p
}

// PublishPolicy guards job publication from the API. Retries stay short so
// an enqueue request answers quickly while NATS reconnects.
func PublishPolicy() Policy {
	return basePolicy()
}

func (p Policy) withDefaults() Policy {
	base := basePolicy()

	if p.RetryMaxAttempts <= 0 {
		p.RetryMaxAttempts = base.RetryMaxAttempts
	}
	if p.RetryInitialBackoff <= 0 {
		p.RetryInitialBackoff = base.RetryInitialBackoff
	}
	if p.RetryMaxBackoff < p.RetryInitialBackoff {
		p.RetryMaxBackoff = p.RetryInitialBackoff
	}
	if p.RetryMultiplier < 1.0 {
		p.RetryMultiplier = base.RetryMultiplier
	}
	if p.BreakerMinRequests == 0 {
		p.BreakerMinRequests = base.BreakerMinRequests
	}
	if p.BreakerFailureRatio <= 0 || p.BreakerFailureRatio > 1 {
		p.BreakerFailureRatio = base.BreakerFailureRatio
	}
	if p.BreakerOpenTimeout <= 0 {
		p.BreakerOpenTimeout = base.BreakerOpenTimeout
	}
	if p.BreakerHalfOpenMaxCalls == 0 {
		p.BreakerHalfOpenMaxCalls = base.BreakerHalfOpenMaxCalls
	}
	return p
}

// backoff is the wait after the given failed attempt (1-based).
func (p Policy) backoff(attempt int) time.Duration {
	wait := float64(p.RetryInitialBackoff) * math.Pow(p.RetryMultiplier, float64(attempt-1))
	if wait > float64(p.RetryMaxBackoff) {
		return p.RetryMaxBackoff
	}
	return time.Duration(wait)
}
