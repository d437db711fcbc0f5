package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// LLMCallEvent records metadata about a single LLM invocation.
type LLMCallEvent struct {
	Task      TaskType
	Model     string
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about LLM calls for logging and metrics.
type Observer interface {
	OnCallComplete(event LLMCallEvent)
}

// LogObserver writes LLM call events to a zap logger.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver creates an Observer that logs events to l.
func NewLogObserver(l *zap.Logger) *LogObserver {
	return &LogObserver{log: l}
}

func (o *LogObserver) OnCallComplete(event LLMCallEvent) {
	fields := []zap.Field{
		zap.String("task", string(event.Task)),
		zap.String("model", event.Model),
		zap.Int64("latency_ms", event.LatencyMs),
	}
	if event.Success {
		o.log.Info("llm_call", fields...)
		return
	}
	o.log.Warn("llm_call", append(fields, zap.String("error_code", event.ErrorCode))...)
}

// PrometheusObserver counts LLM calls and records their latency.
type PrometheusObserver struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewPrometheusObserver registers the LLM collectors on reg.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coachlab_llm_calls_total",
				Help: "Total number of LLM calls",
			},
			[]string{"task", "model", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coachlab_llm_call_duration_seconds",
				Help:    "Duration of LLM calls including retries",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"task"},
		),
	}
	reg.MustRegister(o.calls, o.latency)
	return o
}

func (o *PrometheusObserver) OnCallComplete(event LLMCallEvent) {
	status := "ok"
	if !event.Success {
		status = event.ErrorCode
	}
	o.calls.WithLabelValues(string(event.Task), event.Model, status).Inc()
	o.latency.WithLabelValues(string(event.Task)).Observe(float64(event.LatencyMs) / 1000)
}

// MultiObserver fans an event out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnCallComplete(event LLMCallEvent) {
	for _, o := range m {
		o.OnCallComplete(event)
	}
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(LLMCallEvent) {}
