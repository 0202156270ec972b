package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000}

var (
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocontacts_cache_hits_total",
		Help: "Full contact list served from the result cache",
	})
	// CacheMissesTotal 按 reason 区分：miss 为快照不可用，forced 为调用方强制刷新
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocontacts_cache_misses_total",
		Help: "Full contact list fetched from the store, by reason",
	}, []string{"reason"})
	CacheStaleServedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocontacts_cache_stale_served_total",
		Help: "Stale snapshot served after a failed refresh",
	})
	OfflineReadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocontacts_offline_reads_total",
		Help: "Reads evaluated while the connectivity probe reported offline",
	})
	StoreQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocontacts_store_queries_total",
		Help: "Contact store queries by operation",
	}, []string{"op"})
	StoreFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocontacts_store_failures_total",
		Help: "Contact store query failures by operation",
	}, []string{"op"})
	StoreDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geocontacts_store_duration_ms",
		Help:    "Contact store query duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"op"})
	NearbyRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocontacts_nearby_requests_total",
		Help: "Nearby resolutions",
	})
	NearbyDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geocontacts_nearby_duration_ms",
		Help:    "Nearby resolution duration in milliseconds",
		Buckets: durationBuckets,
	})
	NearbyGroupSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geocontacts_nearby_group_size",
		Help:    "Contacts per emitted nearby group",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"group"})
	PushRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocontacts_push_requests_total",
		Help: "Location submissions sent",
	})
	PushFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocontacts_push_failures_total",
		Help: "Location submissions that failed",
	})
	PushDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geocontacts_push_duration_ms",
		Help:    "Location submission duration in milliseconds",
		Buckets: durationBuckets,
	})
)

func init() {
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheStaleServedTotal)
	prometheus.MustRegister(OfflineReadsTotal)
	prometheus.MustRegister(StoreQueriesTotal)
	prometheus.MustRegister(StoreFailuresTotal)
	prometheus.MustRegister(StoreDurationMs)
	prometheus.MustRegister(NearbyRequestsTotal)
	prometheus.MustRegister(NearbyDurationMs)
	prometheus.MustRegister(NearbyGroupSize)
	prometheus.MustRegister(PushRequestsTotal)
	prometheus.MustRegister(PushFailuresTotal)
	prometheus.MustRegister(PushDurationMs)
}

// ObserveStore 记录一次存储查询的次数、耗时与失败
func ObserveStore(op string, start time.Time, err error) {
	StoreQueriesTotal.WithLabelValues(op).Inc()
	StoreDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		StoreFailuresTotal.WithLabelValues(op).Inc()
	}
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标，供 Prometheus 抓取；在主入口挂载到 {API_BASE}/metrics。
func Handler() http.Handler { return promhttp.Handler() }
