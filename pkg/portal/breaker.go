package portal

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnavailable is returned without contacting the portal after repeated
// transport or server failures, until the cooldown has passed.
var ErrUnavailable = eris.New("portal: unavailable")

// breaker stops a batch from hammering a portal that is down. It opens after
// threshold consecutive failures and lets one trial request through per cooldown.
type breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	failures int
	openedAt time.Time
	trying  bool
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (b *breaker) open() bool {
	return b.failures >= b.threshold
}

// allow reports whether a request may be sent.
func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open() {
		return nil
	}
	if b.trying || b.now().Sub(b.openedAt) < b.cooldown {
		return ErrUnavailable
	}
	b.trying = true
	return nil
}

// release ends a request without counting it, e.g. one the caller cancelled.
func (b *breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trying = false
}

// record counts the result of a request that allow let through.
func (b *breaker) record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wasOpen := b.open()
	b.trying = false
	if !failed {
		if wasOpen {
			zap.L().Info("portal: reachable again")
		}
		b.failures = 0
		return
	}
	b.failures++
	if b.open() {
		b.openedAt = b.now()
		if !wasOpen {
			zap.L().Warn("portal: failing fast after consecutive failures", zap.Int("failures", b.failures))
		}
	}
}
