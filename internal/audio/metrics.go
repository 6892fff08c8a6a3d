package audio

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "syzaudio"

// Metrics holds the collectors a Context reports to. The counters touched
// from the real-time thread are resolved up front so that updating them is a
// single atomic add.
type Metrics struct {
	callbacks      prometheus.Counter
	frames         prometheus.Counter
	registryMisses prometheus.Counter
	enumerations   prometheus.Counter
	partialEnums   prometheus.Counter
	openDevices    prometheus.Gauge
	logEvents      [SeverityError + 1]prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	logEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "backend_log_events_total",
		Help:      "Backend log lines routed through the log bridge, by severity.",
	}, []string{"severity"})

	m := &Metrics{
		callbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "data_callbacks_total",
			Help:      "Data callbacks forwarded to playback device owners.",
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_requested_total",
			Help:      "Frames requested by backends across all devices.",
		}),
		registryMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "registry_misses_total",
			Help:      "Data callbacks whose device handle no longer resolved.",
		}),
		enumerations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "enumerations_total",
			Help:      "Output device enumerations performed.",
		}),
		partialEnums: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "enumerations_partial_total",
			Help:      "Enumerations that stopped early after a device query failed.",
		}),
		openDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "open_devices",
			Help:      "Playback devices currently open.",
		}),
	}
	for sev := SeverityDebug; sev <= SeverityError; sev++ {
		m.logEvents[sev] = logEvents.WithLabelValues(sev.String())
	}

	if reg == nil {
		return m, nil
	}

	collectors := []prometheus.Collector{
		m.callbacks, m.frames, m.registryMisses,
		m.enumerations, m.partialEnums, m.openDevices, logEvents,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// All helpers below accept a nil receiver so callers never branch on it.

func (m *Metrics) callback(frames uint32) {
	if m == nil {
		return
	}
	m.callbacks.Inc()
	m.frames.Add(float64(frames))
}

func (m *Metrics) registryMiss() {
	if m != nil {
		m.registryMisses.Inc()
	}
}

func (m *Metrics) enumeration(partial bool) {
	if m == nil {
		return
	}
	m.enumerations.Inc()
	if partial {
		m.partialEnums.Inc()
	}
}

func (m *Metrics) deviceOpened() {
	if m != nil {
		m.openDevices.Inc()
	}
}

func (m *Metrics) deviceDestroyed() {
	if m != nil {
		m.openDevices.Dec()
	}
}

func (m *Metrics) logEvent(severity LogSeverity) {
	if m == nil || severity < SeverityDebug || severity > SeverityError {
		return
	}
	m.logEvents[severity].Inc()
}
