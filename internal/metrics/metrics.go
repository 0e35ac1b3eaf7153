package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ImportRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roadapi_import_requests_total",
		Help: "Total import upload requests by family",
	}, []string{"family"})
	ImportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roadapi_import_rows_total",
		Help: "Total import rows by family and result",
	}, []string{"family", "result"})
	ImportDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roadapi_import_duration_ms",
		Help:    "Import processing duration in milliseconds",
		Buckets: []float64{100, 500, 1000, 5000, 10000, 30000, 60000, 300000},
	}, []string{"family"})
	RoadCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roadapi_road_created_total",
		Help: "Total roads created through the admin API by hierarchy",
	}, []string{"hierarchy"})
	RoadRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roadapi_road_requests_total",
		Help: "Total admin API REST requests",
	})
	RoadFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roadapi_road_fail_total",
		Help: "Total admin API REST failures",
	})
	RoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roadapi_road_duration_ms",
		Help:    "Admin API REST call duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	GeoconvRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roadapi_geoconv_requests_total",
		Help: "Total Baidu geoconv REST requests",
	})
	GeoconvFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roadapi_geoconv_fail_total",
		Help: "Total Baidu geoconv REST failures",
	})
	GeoconvDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roadapi_geoconv_duration_ms",
		Help:    "Baidu geoconv REST call duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	LookupCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roadapi_lookup_cache_hits_total",
		Help: "Total redis lookup cache hits",
	})
	LookupCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roadapi_lookup_cache_misses_total",
		Help: "Total redis lookup cache misses",
	})
)

func init() {
	prometheus.MustRegister(ImportRequestsTotal)
	prometheus.MustRegister(ImportRowsTotal)
	prometheus.MustRegister(ImportDurationMs)
	prometheus.MustRegister(RoadCreatedTotal)
	prometheus.MustRegister(RoadRequestsTotal)
	prometheus.MustRegister(RoadFailTotal)
	prometheus.MustRegister(RoadDurationMs)
	prometheus.MustRegister(GeoconvRequestsTotal)
	prometheus.MustRegister(GeoconvFailTotal)
	prometheus.MustRegister(GeoconvDurationMs)
	prometheus.MustRegister(LookupCacheHitsTotal)
	prometheus.MustRegister(LookupCacheMissesTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
