package metrics

import (
	"sync"
	"time"
)

type RequestSample struct {
	Path      string
	Method    string
	Status    int
	Latency   time.Duration
	Timestamp time.Time
}

// Recorder keeps rolling request counters for the metrics endpoint. It is
// intentionally coarse: per-route totals and error counts, not histograms.
type Recorder struct {
	mu      sync.Mutex
	total   int64
	errors  int64
	byRoute map[string]int64
	latency time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{byRoute: map[string]int64{}}
}

func (r *Recorder) Record(s RequestSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	if s.Status >= 500 {
		r.errors++
	}
	r.byRoute[s.Method+" "+s.Path]++
	r.latency += s.Latency
}

type Snapshot struct {
	TotalRequests   int64            `json:"totalRequests"`
	ServerErrors    int64            `json:"serverErrors"`
	RequestsByRoute map[string]int64 `json:"requestsByRoute"`
	AvgLatencyMS    float64          `json:"avgLatencyMs"`
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	byRoute := make(map[string]int64, len(r.byRoute))
	for k, v := range r.byRoute {
		byRoute[k] = v
	}
	snap := Snapshot{TotalRequests: r.total, ServerErrors: r.errors, RequestsByRoute: byRoute}
	if r.total > 0 {
		snap.AvgLatencyMS = float64(r.latency.Milliseconds()) / float64(r.total)
	}
	return snap
}
