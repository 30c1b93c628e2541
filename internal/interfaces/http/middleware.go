package http

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// clientLimiter applies a per-client-IP token bucket. Buckets are kept for
// the lifetime of the server; the expected client set is small.
type clientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*rate.Limiter
	ratePerS rate.Limit
	burst    int
}

func newClientLimiter(ratePerS float64, burst int) *clientLimiter {
	return &clientLimiter{
		clients:  make(map[string]*rate.Limiter),
		ratePerS: rate.Limit(ratePerS),
		burst:    burst,
	}
}

func (cl *clientLimiter) limiterFor(ip string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	lim, ok := cl.clients[ip]
	if !ok {
		lim = rate.NewLimiter(cl.ratePerS, cl.burst)
		cl.clients[ip] = lim
	}
	return lim
}

func (cl *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !cl.limiterFor(ip).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
