package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	aws_pkg "github.com/yashrajoria/restaurant-backend/pkg/aws"
)

var businessEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "restaurant_business_events_total",
		Help: "Business events by metric name",
	},
	[]string{"metric"},
)

func init() {
	prometheus.MustRegister(businessEvents)
}

// Metrics records business events to Prometheus and, when enabled, to
// CloudWatch.
type Metrics struct {
	cloud aws_pkg.MetricsRecorder
}

func NewMetrics(cloud aws_pkg.MetricsRecorder) *Metrics {
	return &Metrics{cloud: cloud}
}

func (m *Metrics) Count(ctx context.Context, name string, dims map[string]string) {
	businessEvents.WithLabelValues(name).Inc()
	if m == nil || m.cloud == nil || !m.cloud.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = m.cloud.RecordCount(ctx, name, dims)
	}()
}

func (m *Metrics) Value(ctx context.Context, name string, value float64, dims map[string]string) {
	if m == nil || m.cloud == nil || !m.cloud.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = m.cloud.RecordValue(ctx, name, value, dims)
	}()
}
