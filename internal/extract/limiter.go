package extract

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter bounds one host: a minimum delay between requests and a cap on
// in-flight requests.
type hostLimiter struct {
	limiter *rate.Limiter
	slots   chan struct{}
}

// hostLimiters holds one limiter per host so parallel workers never hammer a
// single institution's site, in rate or in concurrency.
type hostLimiters struct {
	delay       time.Duration
	concurrency int
	mu          sync.Mutex
	hosts       map[string]*hostLimiter
}

func newHostLimiters(delay time.Duration, concurrency int) *hostLimiters {
	return &hostLimiters{delay: delay, concurrency: concurrency, hosts: map[string]*hostLimiter{}}
}

func (h *hostLimiters) forHost(host string) *hostLimiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	hl, ok := h.hosts[host]
	if !ok {
		hl = &hostLimiter{}
		if h.delay > 0 {
			hl.limiter = rate.NewLimiter(rate.Every(h.delay), 1)
		}
		if h.concurrency > 0 {
			hl.slots = make(chan struct{}, h.concurrency)
		}
		h.hosts[host] = hl
	}
	return hl
}

// acquire blocks until the host of rawURL has a free slot and its politeness
// delay has elapsed. The returned release function frees the slot and must be
// called once the request is finished.
func (h *hostLimiters) acquire(ctx context.Context, rawURL string) (func(), error) {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	hl := h.forHost(host)

	if hl.slots != nil {
		select {
		case hl.slots <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if hl.limiter != nil {
		if err := hl.limiter.Wait(ctx); err != nil {
			if hl.slots != nil {
				<-hl.slots
			}
			return nil, err
		}
	}

	return func() {
		if hl.slots != nil {
			<-hl.slots
		}
	}, nil
}
