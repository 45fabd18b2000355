// Package quota tracks per-provider call budgets over fixed time windows.
//
// Each provider gets one counter: a limit and a window length supplied at
// startup. Consumption models intent to call, not success; a slot is never
// refunded once granted, even if the outbound call later fails or times out.
package quota

import (
	"sort"
	"sync"
	"time"
)

// WindowKind names the budget window of a provider.
type WindowKind string

const (
	WindowPerDay    WindowKind = "per_day"
	WindowPerMinute WindowKind = "per_minute"
)

// Length returns the duration of one window.
func (k WindowKind) Length() time.Duration {
	switch k {
	case WindowPerMinute:
		return time.Minute
	default:
		return 24 * time.Hour
	}
}

// Window configures one provider's budget.
type Window struct {
	Kind  WindowKind
	Limit int
}

// Status is a point-in-time snapshot of one provider's quota,
// exposed on the status endpoint.
type Status struct {
	Provider  string     `json:"provider"`
	Window    WindowKind `json:"window"`
	Limit     int        `json:"limit"`
	Used      int        `json:"used"`
	Remaining int        `json:"remaining"`
	ResetsAt  time.Time  `json:"resets_at"`
}

type providerQuota struct {
	window      Window
	used        int
	windowStart time.Time
}

// Tracker is the process-wide quota state, shared by all in-flight
// requests. All mutation happens under one mutex so that rollover and
// consumption form a single atomic unit.
type Tracker struct {
	mu     sync.Mutex
	quotas map[string]*providerQuota
	now    func() time.Time // injectable for tests
}

// NewTracker builds a tracker for the given provider windows.
func NewTracker(windows map[string]Window) *Tracker {
	t := &Tracker{
		quotas: make(map[string]*providerQuota, len(windows)),
		now:    time.Now,
	}
	start := time.Now()
	for id, w := range windows {
		t.quotas[id] = &providerQuota{window: w, windowStart: start}
	}
	return t
}

// TryConsume atomically claims one call slot for the provider. It rolls the
// window over first if the current time has passed windowStart + length,
// then grants iff used < limit. Providers with no configured window are
// always granted.
func (t *Tracker) TryConsume(providerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	q, ok := t.quotas[providerID]
	if !ok {
		return true
	}
	t.rollover(q)
	if q.used >= q.window.Limit {
		return false
	}
	q.used++
	return true
}

// Status reports every tracked provider's current usage. Windows are rolled
// over on read so a caller never sees a stale exhausted window.
func (t *Tracker) Status() []Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Status, 0, len(t.quotas))
	for id, q := range t.quotas {
		t.rollover(q)
		out = append(out, Status{
			Provider:  id,
			Window:    q.window.Kind,
			Limit:     q.window.Limit,
			Used:      q.used,
			Remaining: q.window.Limit - q.used,
			ResetsAt:  q.windowStart.Add(q.window.Kind.Length()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

// rollover resets the counter when the window has elapsed. Callers hold t.mu.
func (t *Tracker) rollover(q *providerQuota) {
	now := t.now()
	if !now.Before(q.windowStart.Add(q.window.Kind.Length())) {
		q.used = 0
		q.windowStart = now
	}
}
