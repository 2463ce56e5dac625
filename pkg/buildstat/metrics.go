package buildstat

import "github.com/prometheus/client_golang/prometheus"

// Recorder publishes a running build's block/edge counts and the
// restructure loop's round/shortcut activity as Prometheus gauges and
// counters, the same registry-per-process idiom the server command uses
// for its HTTP request metrics. A nil *Recorder is always safe to call
// methods on, so callers that don't care about metrics can pass nil
// straight through (including as the chgraph.Store.SetRecorder and
// offtp.WriteGraph arguments).
type Recorder struct {
	blockCount   prometheus.Gauge
	edgeCount    prometheus.Gauge
	bytesWritten prometheus.Gauge

	rounds           prometheus.Counter
	shortcutsMerged  prometheus.Counter
	shortcutsDropped prometheus.Counter
}

// NewRecorder registers this build's metrics on reg and returns a
// Recorder bound to them.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		blockCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chofftp_build_blocks_total",
			Help: "Number of on-disk blocks allocated by the most recent OffTP build.",
		}),
		edgeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chofftp_build_edges_written_total",
			Help: "Number of edges written to the edges section of the most recent OffTP build.",
		}),
		bytesWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chofftp_build_bytes_written_total",
			Help: "Number of bytes written to disk by the most recent OffTP build.",
		}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chofftp_restructure_rounds_total",
			Help: "Number of contraction rounds applied by Store.Restructure.",
		}),
		shortcutsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chofftp_restructure_shortcuts_merged_total",
			Help: "Number of candidate shortcuts folded into the live graph, new or overwriting an existing edge.",
		}),
		shortcutsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chofftp_restructure_shortcuts_dropped_total",
			Help: "Number of candidate shortcuts discarded: deduped against another candidate or losing to an existing edge.",
		}),
	}
	reg.MustRegister(r.blockCount, r.edgeCount, r.bytesWritten, r.rounds, r.shortcutsMerged, r.shortcutsDropped)
	return r
}

func (r *Recorder) SetBlockCount(n int) {
	if r == nil {
		return
	}
	r.blockCount.Set(float64(n))
}

func (r *Recorder) SetEdgeCount(n int) {
	if r == nil {
		return
	}
	r.edgeCount.Set(float64(n))
}

func (r *Recorder) SetBytesWritten(n int64) {
	if r == nil {
		return
	}
	r.bytesWritten.Set(float64(n))
}

func (r *Recorder) AddRound() {
	if r == nil {
		return
	}
	r.rounds.Inc()
}

func (r *Recorder) AddShortcutsMerged(n int) {
	if r == nil {
		return
	}
	r.shortcutsMerged.Add(float64(n))
}

func (r *Recorder) AddShortcutsDropped(n int) {
	if r == nil {
		return
	}
	r.shortcutsDropped.Add(float64(n))
}
