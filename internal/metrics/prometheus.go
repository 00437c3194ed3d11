package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	evaluationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "togglehub_evaluations_total",
		Help: "Total number of feature evaluations by outcome",
	}, []string{"result"})
	usageWriteCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "togglehub_usage_writes_total",
		Help: "Total number of usage records persisted",
	})
	usageFailureCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "togglehub_usage_write_failures_total",
		Help: "Total number of usage records that failed to persist",
	})
	usageDropCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "togglehub_usage_drops_total",
		Help: "Total number of usage records dropped due to a full buffer",
	})
	reportCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "togglehub_report_cache_hits_total",
		Help: "Total number of usage-report cache hits",
	})
	reportCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "togglehub_report_cache_misses_total",
		Help: "Total number of usage-report cache misses",
	})
)

type prometheusObserver struct{}

func NewPrometheusObserver() EvalObserver {
	return &prometheusObserver{}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (p *prometheusObserver) RecordEvaluation(enabled bool) {
	if enabled {
		evaluationCounter.WithLabelValues("enabled").Inc()
	} else {
		evaluationCounter.WithLabelValues("disabled").Inc()
	}
}

func (p *prometheusObserver) RecordUsageWrite() {
	usageWriteCounter.Inc()
}

func (p *prometheusObserver) RecordUsageFailure() {
	usageFailureCounter.Inc()
}

func (p *prometheusObserver) RecordUsageDrop() {
	usageDropCounter.Inc()
}

func (p *prometheusObserver) RecordReportCacheHit() {
	reportCacheHits.Inc()
}

func (p *prometheusObserver) RecordReportCacheMiss() {
	reportCacheMisses.Inc()
}
