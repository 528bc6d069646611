package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000}

var (
	OperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landplot_operations_total",
		Help: "Total plot operations by result kind",
	}, []string{"op", "result"})
	OperationDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "landplot_operation_duration_ms",
		Help:    "Plot operation duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"op"})
	MeasureDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "landplot_measure_duration_ms",
		Help:    "Measurement duration in milliseconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"model"})
	ImportFeaturesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landplot_import_features_total",
		Help: "Imported features by status",
	}, []string{"result"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landplot_cache_hits_total",
		Help: "Total plot cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landplot_cache_misses_total",
		Help: "Total plot cache misses",
	})
)

func init() {
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(OperationDurationMs)
	prometheus.MustRegister(MeasureDurationMs)
	prometheus.MustRegister(ImportFeaturesTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// ObserveOperation：记录一次操作的结果分类与耗时；result 为空表示成功
func ObserveOperation(op, result string, start time.Time) {
	if result == "" {
		result = "ok"
	}
	OperationsTotal.WithLabelValues(op, result).Inc()
	OperationDurationMs.WithLabelValues(op).Observe(sinceMs(start))
}

func ObserveMeasure(model string, start time.Time) {
	MeasureDurationMs.WithLabelValues(model).Observe(sinceMs(start))
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；由命令行入口按需挂载。
func Handler() http.Handler { return promhttp.Handler() }
