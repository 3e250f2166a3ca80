package prom

import (
	"sync"

	xhttp "github.com/nimasrn/backoffice-ledger/pkg/http"
	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemQuery     = "query"
	SystemOrders    = "orders"
	SystemInvoices  = "invoices"
	SystemBalances  = "balances"
	SystemReconcile = "reconcile"
)

const (
	MetricIndexFallbackTotal          = "index_fallback_total"
	MetricReservationTotal            = "reservation_total"
	MetricBridgeTotal                 = "bridge_total"
	MetricRecomputeDurationSeconds    = "recompute_duration_seconds"
	MetricReconcileJobsTotal          = "jobs_total"
	MetricReconcileJobDurationSeconds = "job_duration_seconds"
)

var lock = &sync.RWMutex{}
var namespace = "none"

var MetricSystemEnabled = false

var counterVecs = make(map[string]*prometheus.CounterVec)
var histograms = make(map[string]prometheus.Histogram)
var histogramVecs = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers every metric of the service. Until it is called the
// recording helpers are no-ops, which keeps tests free of global registry state.
func Create(host string, env string, nameSpace string) error {
	lock.Lock()
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	lock.Unlock()

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounterVec(SystemQuery, MetricIndexFallbackTotal, "compound queries served through the unordered fallback", []string{"table"}))
	hasError(createCounterVec(SystemOrders, MetricReservationTotal, "order reservation attempts by outcome", []string{"op", "outcome"}))
	hasError(createCounterVec(SystemInvoices, MetricBridgeTotal, "invoice to ledger bridge outcomes", []string{"outcome"}))
	hasError(createHistogram(SystemBalances, MetricRecomputeDurationSeconds, "party balance recompute latency"))
	hasError(createCounterVec(SystemReconcile, MetricReconcileJobsTotal, "reconciliation jobs by kind and outcome", []string{"kind", "outcome"}))
	hasError(createHistogramVec(SystemReconcile, MetricReconcileJobDurationSeconds, "reconciliation job latency", []string{"kind"}))

	lock.Lock()
	MetricSystemEnabled = err == nil
	lock.Unlock()
	return err
}

func ListenAndServer(addr string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Error("[metrics-server] http listen error", "error", err)
	}
}

func createCounterVec(subsystem, name, help string, labels []string) error {
	lock.Lock()
	defer lock.Unlock()
	counterVecs[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(counterVecs[subsystem+name])
}

func createHistogram(subsystem, name, help string) error {
	lock.Lock()
	defer lock.Unlock()
	histograms[subsystem+name] = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	})
	return prometheus.Register(histograms[subsystem+name])
}

func createHistogramVec(subsystem, name, help string, labels []string) error {
	lock.Lock()
	defer lock.Unlock()
	histogramVecs[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)
	return prometheus.Register(histogramVecs[subsystem+name])
}

func enabled() bool {
	lock.RLock()
	defer lock.RUnlock()
	return MetricSystemEnabled
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	if !enabled() {
		return
	}
	lock.RLock()
	v, ok := counterVecs[subsystem+name]
	lock.RUnlock()
	if !ok {
		logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
		return
	}
	v.WithLabelValues(labelValues...).Inc()
}

func AddHistogram(subsystem, name string, number float64) {
	if !enabled() {
		return
	}
	lock.RLock()
	v, ok := histograms[subsystem+name]
	lock.RUnlock()
	if !ok {
		logger.Warn("[metrics-server] histogram not found", "subsystem", subsystem, "name", name)
		return
	}
	v.Observe(number)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !enabled() {
		return
	}
	lock.RLock()
	v, ok := histogramVecs[subsystem+name]
	lock.RUnlock()
	if !ok {
		logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
		return
	}
	v.WithLabelValues(labelValues...).Observe(number)
}

func IncIndexFallback(table string) {
	IncCounterVec(SystemQuery, MetricIndexFallbackTotal, table)
}

func IncReservation(op, outcome string) {
	IncCounterVec(SystemOrders, MetricReservationTotal, op, outcome)
}

func IncBridge(outcome string) {
	IncCounterVec(SystemInvoices, MetricBridgeTotal, outcome)
}

func ObserveRecompute(seconds float64) {
	AddHistogram(SystemBalances, MetricRecomputeDurationSeconds, seconds)
}

func IncReconcileJob(kind, outcome string) {
	IncCounterVec(SystemReconcile, MetricReconcileJobsTotal, kind, outcome)
}

func ObserveReconcileJob(kind string, seconds float64) {
	AddHistogramVec(SystemReconcile, MetricReconcileJobDurationSeconds, seconds, kind)
}
