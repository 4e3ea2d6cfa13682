package standard

import (
	"sort"
	"sync"
	"time"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/group"
)

// ConnectivityWindow bounds the calls kept for statistics.
const ConnectivityWindow = time.Hour

// Health classifies a connection by its recent success rate.
type Health int

const (
	HealthIdle Health = iota
	HealthHealthy
	HealthDegraded
	HealthUnhealthy
)

// Healths describes Health values.
var Healths = attribute.EnumTable{
	int(HealthIdle):      "idle",
	int(HealthHealthy):   "healthy",
	int(HealthDegraded):  "degraded",
	int(HealthUnhealthy): "unhealthy",
}

type call struct {
	at      time.Time
	ok      bool
	latency time.Duration
	err     string
}

// Connectivity records calls to one remote endpoint.
type Connectivity struct {
	URL string

	mu    sync.Mutex
	calls []call
	now   func() time.Time
}

// NewConnectivity creates a tracker for url.
func NewConnectivity(url string) *Connectivity {
	return &Connectivity{URL: url, now: time.Now}
}

// SetClock replaces the time source.
func (c *Connectivity) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// TrackSuccess records a successful call.
func (c *Connectivity) TrackSuccess(latency time.Duration) {
	c.track(call{ok: true, latency: latency})
}

// TrackFailure records a failed call.
func (c *Connectivity) TrackFailure(latency time.Duration, msg string) {
	c.track(call{latency: latency, err: msg})
}

func (c *Connectivity) track(cl call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl.at = c.now().UTC()
	c.calls = append(c.calls, cl)
	c.prune()
}

// prune drops calls older than the window. Callers hold mu.
func (c *Connectivity) prune() {
	cutoff := c.now().Add(-ConnectivityWindow)
	for i, cl := range c.calls {
		if cl.at.After(cutoff) {
			c.calls = c.calls[i:]
			return
		}
	}
	c.calls = nil
}

func (c *Connectivity) recent() []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune()
	return append([]call(nil), c.calls...)
}

// Calls returns the number of calls in the window.
func (c *Connectivity) Calls() int { return len(c.recent()) }

// SuccessRate returns the share of successful calls, 0..1.
func (c *Connectivity) SuccessRate() (float64, bool) {
	calls := c.recent()
	if len(calls) == 0 {
		return 0, false
	}
	ok := 0
	for _, cl := range calls {
		if cl.ok {
			ok++
		}
	}
	return float64(ok) / float64(len(calls)), true
}

// Health classifies the window: below 90% success is unhealthy, below 95%
// degraded.
func (c *Connectivity) Health() Health {
	rate, ok := c.SuccessRate()
	switch {
	case !ok:
		return HealthIdle
	case rate < 0.9:
		return HealthUnhealthy
	case rate < 0.95:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}

// Latency returns the p-th latency percentile of the window.
func (c *Connectivity) Latency(p float64) (time.Duration, bool) {
	calls := c.recent()
	if len(calls) == 0 {
		return 0, false
	}
	latencies := make([]time.Duration, len(calls))
	for i, cl := range calls {
		latencies[i] = cl.latency
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	return latencies[int(float64(len(latencies)-1)*p)], true
}

// LastCall returns the time of the most recent call.
func (c *Connectivity) LastCall() (time.Time, bool) {
	calls := c.recent()
	if len(calls) == 0 {
		return time.Time{}, false
	}
	return calls[len(calls)-1].at, true
}

// LastError returns the message of the most recent failure.
func (c *Connectivity) LastError() (string, bool) {
	calls := c.recent()
	for i := len(calls) - 1; i >= 0; i-- {
		if !calls[i].ok {
			return calls[i].err, true
		}
	}
	return "", false
}

func (c *Connectivity) latencyOf(p float64) attribute.Getter {
	return func() (attribute.Value, bool) {
		d, ok := c.Latency(p)
		if !ok {
			return attribute.Absent(), false
		}
		return attribute.String(d.String()), true
	}
}

// PrepareInspection contributes the connection statistics.
func (c *Connectivity) PrepareInspection(co *coordinator.Coordinator) {
	co.AppendStatic("url", "URL", "", attribute.String(c.URL), group.General)
	co.AppendEnum(group.General, Healths,
		attribute.Prop("health", attribute.IntOf(c.Health)))
	co.AppendTransformed(group.General, attribute.Percent,
		attribute.Prop("successRate", func() (attribute.Value, bool) {
			rate, ok := c.SuccessRate()
			return attribute.Float(rate), ok
		}))
	co.AppendDynamicNamed(group.General, map[string]string{
		"latency.p50": "Latency p50",
		"latency.p95": "Latency p95",
		"latency.p99": "Latency p99",
	},
		attribute.Prop("latency.p50", c.latencyOf(0.50)),
		attribute.Prop("latency.p95", c.latencyOf(0.95)),
		attribute.Prop("latency.p99", c.latencyOf(0.99)),
	)
	co.AppendDynamic(group.States,
		attribute.Prop("calls", attribute.IntOf(c.Calls)),
		attribute.Prop("lastCall", func() (attribute.Value, bool) {
			t, ok := c.LastCall()
			return attribute.TimeValue(t), ok
		}),
		attribute.Prop("lastError", func() (attribute.Value, bool) {
			msg, ok := c.LastError()
			return attribute.String(msg), ok
		}),
	)
}
