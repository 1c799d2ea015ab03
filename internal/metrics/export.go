package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "showcase"

var (
	exportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "PDF 导出耗时分布（秒）。",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
		},
		[]string{"result"},
	)

	exportPages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "pages",
			Help:      "成功导出的 PDF 页数。",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
		},
	)

	exportFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "failures_total",
			Help:      "按错误码统计的导出失败次数。",
		},
		[]string{"code"},
	)

	resumeViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "public",
			Name:      "resume_views_total",
			Help:      "计入统计的公开简历浏览次数。",
		},
	)
)

// ObserveExport 记录一次导出的结果；code 为空表示成功。
func ObserveExport(elapsed time.Duration, pages int, code string) {
	if code == "" {
		exportDuration.WithLabelValues("success").Observe(elapsed.Seconds())
		exportPages.Observe(float64(pages))
		return
	}
	exportDuration.WithLabelValues("failure").Observe(elapsed.Seconds())
	exportFailures.WithLabelValues(code).Inc()
}

// CountResumeView 在一次浏览被计入时调用。
func CountResumeView() {
	resumeViews.Inc()
}
