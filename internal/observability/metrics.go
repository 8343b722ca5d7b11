// Package observability expone métricas Prometheus del motor analítico.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa las métricas del motor: pases por vista, duraciones y
// tamaño de las vistas.
type Metrics struct {
	RefreshesTotal   *prometheus.CounterVec   // view, status (ok|error)
	RefreshesSkipped *prometheus.CounterVec   // view, tick con refresh aún en curso
	PassDuration     *prometheus.HistogramVec // view, pass (segments|lots)
	LastSuccess      *prometheus.GaugeVec     // view, unix timestamp
	ViewLots         *prometheus.GaugeVec     // view, filas actuales
	SegmentsScored   prometheus.Gauge
	CompQueries      prometheus.Counter
}

// NewMetrics registra todas las métricas bajo el namespace dado.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "lotwatch"
	}

	return &Metrics{
		RefreshesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "refreshes_total",
			Help:      "Refreshes de vista ejecutados, por resultado",
		}, []string{"view", "status"}),
		RefreshesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "refreshes_skipped_total",
			Help:      "Ticks saltados porque la vista seguía refrescando",
		}, []string{"view"}),
		PassDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "pass_duration_seconds",
			Help:      "Duración de cada pase analítico",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"view", "pass"}),
		LastSuccess: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "last_success_timestamp_seconds",
			Help:      "Timestamp unix del último refresh exitoso",
		}, []string{"view"}),
		ViewLots: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "view_lots",
			Help:      "Lotes actualmente en cada vista",
		}, []string{"view"}),
		SegmentsScored: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "segments_scored",
			Help:      "Segmentos puntuados en el último pase",
		}),
		CompQueries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "comp_queries_total",
			Help:      "Búsquedas de ventas comparables ejecutadas",
		}),
	}
}

// Handler devuelve el handler HTTP del endpoint /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
