package httpx

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Backoff computes exponential delays with optional jitter.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64

	mu   sync.Mutex
	rand *rand.Rand
}

// NewBackoff returns a Backoff initialized with the supplied parameters.
func NewBackoff(base, max time.Duration, jitter float64) *Backoff {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if max <= 0 || max < base {
		max = 5 * time.Second
	}
	if jitter < 0 {
		jitter = 0
	}
	return &Backoff{
		BaseDelay: base,
		MaxDelay:  max,
		Jitter:    math.Min(jitter, 1),
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ForAttempt returns the delay before retry number attempt (0-indexed).
func (b *Backoff) ForAttempt(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := b.MaxDelay
	if attempt < 32 {
		if d := b.BaseDelay << uint(attempt); d > 0 && d < b.MaxDelay {
			delay = d
		}
	}
	return b.jitter(delay)
}

// ForResponse honours a Retry-After header (seconds or HTTP date) when the
// server sends one, capped at MaxDelay. Otherwise it falls back to ForAttempt.
func (b *Backoff) ForResponse(resp *http.Response, attempt int) time.Duration {
	if d, ok := retryAfter(resp, time.Now()); ok {
		if d > b.MaxDelay {
			return b.MaxDelay
		}
		return d
	}
	return b.ForAttempt(attempt)
}

func (b *Backoff) jitter(delay time.Duration) time.Duration {
	if b.Jitter == 0 || delay <= 0 {
		return delay
	}
	b.mu.Lock()
	r := b.rand.Float64()
	b.mu.Unlock()
	factor := 1 + (r*2-1)*b.Jitter
	if factor < 0 {
		factor = 0
	}
	return time.Duration(float64(delay) * factor)
}

func retryAfter(resp *http.Response, now time.Time) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}
