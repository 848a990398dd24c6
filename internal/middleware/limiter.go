package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"storefront-be/internal/utils"

	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Public checkout (Strict)
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20

	// Staff dashboards poll order lists and register state
	limitStaff = rate.Limit(20)
	burstStaff = 40

	// Internal / trusted services
	limitInternal = rate.Limit(100)
	burstInternal = 200
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex
)

func init() {
	go cleanupVisitors()
}

func getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupVisitors drops buckets idle for more than three minutes.
func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for key, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, key)
			}
		}
		mu.Unlock()
	}
}

// RateLimitMiddleware throttles per identity and tier. internalKey enables the
// trusted tier for callers presenting it in X-Service-Auth.
func RateLimitMiddleware(internalKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit, burst, tier := resolveRateTier(r, internalKey)

			var identity string
			if staffID, ok := utils.GetStaffIDFromContext(r.Context()); ok {
				identity = "staff:" + staffID.String()
			} else if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
				identity = "device:" + deviceID
			} else {
				ip, _, err := net.SplitHostPort(r.RemoteAddr)
				if err != nil {
					ip = r.RemoteAddr
				}
				identity = "ip:" + ip
			}

			// Separate quotas per tier for the same identity.
			key := fmt.Sprintf("%s:%s", identity, tier)

			if !getVisitor(key, limit, burst).Allow() {
				utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func resolveRateTier(r *http.Request, internalKey string) (rate.Limit, int, string) {
	if internalKey != "" && r.Header.Get("X-Service-Auth") == internalKey {
		return limitInternal, burstInternal, "internal"
	}

	if isCheckout(r) {
		return limitStrict, burstStrict, "strict"
	}

	if _, ok := utils.GetStaffIDFromContext(r.Context()); ok {
		return limitStaff, burstStaff, "staff"
	}

	return limitGeneral, burstGeneral, "general"
}

// isCheckout matches POST /stores/{slug}/orders.
func isCheckout(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	return len(parts) == 3 && parts[0] == "stores" && parts[2] == "orders"
}
