// Package quartermaster metrics.
// Exposes Prometheus counters/gauges for every sublist transition. Grounded
// on the Omnia arena/queue package's QueueMetrics shape: a namespace-scoped
// bundle of collectors built once and attached to the operational type
// (there, InstrumentedQueue; here, Client.WithMetrics) rather than read back
// out of a global registry.
package quartermaster

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the collectors a Client increments as items move between
// sublists. A nil *Metrics on Client disables instrumentation entirely —
// every call site checks c.metrics != nil before touching it.
type Metrics struct {
	enqueues   *prometheus.CounterVec
	claims     *prometheus.CounterVec
	acks       *prometheus.CounterVec
	requeues   *prometheus.CounterVec
	reclaims   *prometheus.CounterVec
	sublistLen *prometheus.GaugeVec
}

// MetricsConfig names the registry and namespace new metrics register
// under. Namespace defaults to "quartermaster" when empty.
type MetricsConfig struct {
	Namespace string
	Registry  prometheus.Registerer
}

// NewMetrics builds and registers a Metrics bundle. Registry defaults to
// prometheus.DefaultRegisterer, matching the teacher's habit of talking
// directly to go-redis's default client rather than threading a handle
// through every constructor.
func NewMetrics(cfg MetricsConfig) *Metrics {
	ns := cfg.Namespace
	if ns == "" {
		ns = "quartermaster"
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		enqueues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "enqueues_total", Help: "Items pushed onto the unprocessed sublist.",
		}, []string{"queue"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "claims_total", Help: "Items popped from unprocessed into working.",
		}, []string{"queue"}),
		acks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "acks_total", Help: "Completed items removed from working.",
		}, []string{"queue", "result"}),
		requeues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "requeues_total", Help: "Items moved out of working via requeue.",
		}, []string{"queue", "outcome"}),
		reclaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "reclaims_total", Help: "Items reclaimed from working after expiry.",
		}, []string{"queue"}),
		sublistLen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: "sublist_length", Help: "Observed length of a sublist at last QueueLength call.",
		}, []string{"queue", "sublist"}),
	}

	for _, c := range []prometheus.Collector{m.enqueues, m.claims, m.acks, m.requeues, m.reclaims, m.sublistLen} {
		reg.MustRegister(c)
	}
	return m
}
