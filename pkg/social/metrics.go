package social

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics Helper 指标
type Metrics struct {
	RequestTotal       *prometheus.CounterVec   // 平台请求总数（按类型、结果）
	RequestDuration    *prometheus.HistogramVec // 平台请求耗时
	RequestDropped     *prometheus.CounterVec   // 排队已满被丢弃的请求
	RequestSkipped     *prometheus.CounterVec   // 未认证被忽略的请求
	LaneQueueDepth     *prometheus.GaugeVec     // 各类型排队数量
	NotificationsTotal *prometheus.CounterVec   // 已分发通知（按类型）
	ListenerPanics     prometheus.Counter       // 监听者 panic 次数
}

func newMetrics(namespace string) *Metrics {
	return &Metrics{
		RequestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "平台请求总数",
			},
			[]string{"kind", "result"}, // result: success/failed/timeout
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "平台请求耗时（秒）",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),
		RequestDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_dropped_total",
				Help:      "排队已满被丢弃的请求数",
			},
			[]string{"kind"},
		),
		RequestSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_skipped_total",
				Help:      "未认证时被忽略的请求数",
			},
			[]string{"kind"},
		),
		LaneQueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "lane_queue_depth",
				Help:      "等待中的同类请求数",
			},
			[]string{"kind"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "已分发的通知数",
			},
			[]string{"kind"},
		),
		ListenerPanics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "listener_panics_total",
				Help:      "监听者回调 panic 次数",
			},
		),
	}
}

// Register 注册指标到 Prometheus Registry
func (m *Metrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.RequestTotal,
		m.RequestDuration,
		m.RequestDropped,
		m.RequestSkipped,
		m.LaneQueueDepth,
		m.NotificationsTotal,
		m.ListenerPanics,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// recordRequest 记录一次平台请求
func (m *Metrics) recordRequest(kind RequestKind, result string, elapsed time.Duration) {
	m.RequestTotal.WithLabelValues(kind.String(), result).Inc()
	m.RequestDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}
