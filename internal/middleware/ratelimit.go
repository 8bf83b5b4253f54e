package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL     = 10 * time.Minute
	limiterSweepPeriod = 5 * time.Minute
)

// clientLimiter is a per-client token bucket and the last time it was used.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore keeps one token bucket per client address.
type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	every     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(limit int, per time.Duration) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*clientLimiter),
		every:    rate.Limit(float64(limit) / per.Seconds()),
		burst:    limit,
		now:      time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now()
	if t.Sub(s.lastSweep) > limiterSweepPeriod {
		for k, l := range s.limiters {
			if t.Sub(l.lastSeen) > limiterIdleTTL {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = t
	}
	l, ok := s.limiters[key]
	if !ok {
		l = &clientLimiter{limiter: rate.NewLimiter(s.every, s.burst)}
		s.limiters[key] = l
	}
	l.lastSeen = t
	return l.limiter
}

// RateLimit allows a burst of limit requests per client address, refilled
// evenly over per. The client is r.RemoteAddr, so RealIP must run first when
// the service sits behind a proxy.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 || per <= 0 {
			return next
		}
		store := newLimiterStore(limit, per)
		retry := strconv.Itoa(int(math.Ceil(per.Seconds() / float64(limit))))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.get(remoteHost(r)).Allow() {
				w.Header().Set("Retry-After", retry)
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
