package surface

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	MessagesTotal     *prometheus.CounterVec
	DroppedLinesTotal prometheus.Counter
	RendersTotal      prometheus.Counter
	RenderErrorsTotal prometheus.Counter
	InteractionsTotal prometheus.Counter
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			MessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "loom_messages_total",
				Help: "Total number of wire messages applied, by kind",
			}, []string{"kind"}),
			DroppedLinesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "loom_dropped_lines_total",
				Help: "Total number of malformed or unrecognized stream lines dropped",
			}),
			RendersTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "loom_renders_total",
				Help: "Total number of successful surface renders",
			}),
			RenderErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "loom_render_errors_total",
				Help: "Total number of surface render failures",
			}),
			InteractionsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "loom_interactions_total",
				Help: "Total number of user interactions dispatched",
			}),
		}
	})
	return metricsInstance
}

func (m *Metrics) RecordMessage(kind MessageKind) {
	if m == nil || m.MessagesTotal == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RecordDroppedLine() {
	if m == nil || m.DroppedLinesTotal == nil {
		return
	}
	m.DroppedLinesTotal.Inc()
}

func (m *Metrics) RecordRender() {
	if m == nil || m.RendersTotal == nil {
		return
	}
	m.RendersTotal.Inc()
}

func (m *Metrics) RecordRenderError() {
	if m == nil || m.RenderErrorsTotal == nil {
		return
	}
	m.RenderErrorsTotal.Inc()
}

func (m *Metrics) RecordInteraction() {
	if m == nil || m.InteractionsTotal == nil {
		return
	}
	m.InteractionsTotal.Inc()
}
