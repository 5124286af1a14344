package redisconn

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the observable side-effect surface beyond logging (§11.2): a
// small set of gauges and counters describing queue depth, write
// decisions, and lifecycle state, registered against a caller-supplied
// prometheus.Registerer so multiple Handlers in one process can share one
// registry with distinguishing labels.
type Metrics struct {
	dispatchQueueLen   prometheus.Gauge
	holdingBufferLen   prometheus.Gauge
	lifecycleState     prometheus.Gauge
	commandsWritten    prometheus.Counter
	commandsCompleted  *prometheus.CounterVec
	writeLockWait      prometheus.Histogram
}

// NewMetrics constructs and registers a Metrics collector. addr labels the
// series so a process managing several connections can tell them apart.
func NewMetrics(reg prometheus.Registerer, addr string) *Metrics {
	labels := prometheus.Labels{"remote_addr": addr}

	m := &Metrics{
		dispatchQueueLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "redisconn_dispatch_queue_length",
			Help:        "Commands written to the transport and awaiting a reply.",
			ConstLabels: labels,
		}),
		holdingBufferLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "redisconn_holding_buffer_length",
			Help:        "Commands accepted while the transport was unavailable.",
			ConstLabels: labels,
		}),
		lifecycleState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "redisconn_lifecycle_state",
			Help:        "Current LifecycleState ordinal of the handler.",
			ConstLabels: labels,
		}),
		commandsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "redisconn_commands_written_total",
			Help:        "Commands handed to the transport for writing.",
			ConstLabels: labels,
		}),
		commandsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "redisconn_commands_completed_total",
			Help:        "Commands completed, labelled by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		writeLockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "redisconn_write_lock_wait_seconds",
			Help:        "Time producers spend waiting to enter the write critical section.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.dispatchQueueLen,
			m.holdingBufferLen,
			m.lifecycleState,
			m.commandsWritten,
			m.commandsCompleted,
			m.writeLockWait,
		)
	}
	return m
}

func (m *Metrics) setQueueLengths(dispatch, holding int) {
	if m == nil {
		return
	}
	m.dispatchQueueLen.Set(float64(dispatch))
	m.holdingBufferLen.Set(float64(holding))
}

func (m *Metrics) setState(s LifecycleState) {
	if m == nil {
		return
	}
	m.lifecycleState.Set(float64(s))
}

func (m *Metrics) incWritten() {
	if m == nil {
		return
	}
	m.commandsWritten.Inc()
}

func (m *Metrics) incCompleted(outcome string) {
	if m == nil {
		return
	}
	m.commandsCompleted.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeWriteLockWait(seconds float64) {
	if m == nil {
		return
	}
	m.writeLockWait.Observe(seconds)
}
