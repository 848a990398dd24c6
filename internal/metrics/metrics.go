package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	OrdersSubmitted   = "orders_submitted"
	OrdersReplayed    = "orders_replayed"
	OrdersFailed      = "orders_failed"
	BillingBlocked    = "billing_blocked"
	RegistersOpened   = "registers_opened"
	RegistersClosed   = "registers_closed"
	MovementsRecorded = "movements_recorded"
	HTTPRequests      = "http_requests"
	HTTPErrors        = "http_errors"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry hands out named counters. Counters are created on first use.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*Counter)}
}

func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[name]; ok {
		return c
	}
	c = &Counter{}
	r.counters[name] = c
	return c
}

type Sample struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
}

// Snapshot returns every counter sorted by name.
func (r *Registry) Snapshot() []Sample {
	r.mu.RLock()
	out := make([]Sample, 0, len(r.counters))
	for name, c := range r.counters {
		out = append(out, Sample{Name: name, Value: c.Load()})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var Default = NewRegistry()

func Inc(name string) {
	Default.Counter(name).Inc()
}
