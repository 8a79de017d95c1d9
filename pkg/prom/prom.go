package prom

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	xhttp "github.com/givecycle/marketplace/pkg/http"
	"github.com/givecycle/marketplace/pkg/logger"
)

const (
	SystemStore = "store"
)

const (
	MetricPurchaseSettledDuration = "purchase_settled_duration_seconds"
	MetricDonationsReviewed       = "donations_reviewed_total"
	MetricEventsProcessed         = "events_processed_total"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers the marketplace metric set. Instance-wide labels carry the
// environment and host so dashboards can split deployments.
func Create(host string, env string, nameSpace string) error {
	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	// kind is "collection" or "sale"
	hasError(createHistogramVec(SystemStore, MetricPurchaseSettledDuration, []string{"kind"}))
	// decision is "approve" or "reject"
	hasError(createCounterVec(SystemStore, MetricDonationsReviewed, []string{"decision"}))
	// outcome is "ok" or "failed"
	hasError(createCounterVec(SystemStore, MetricEventsProcessed, []string{"type", "outcome"}))

	return err
}

func ListenAndServer(port string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "url", url)
	if err := s.ListenAndServe(port); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)
	return prometheus.Register(MetricCollectionHistogramVec[subsystem+name])
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

// AddPurchaseSettledDuration records time from purchase request to ledger
// commit, split by settlement kind.
func AddPurchaseSettledDuration(duration float64, kind string) {
	AddHistogramVec(SystemStore, MetricPurchaseSettledDuration, duration, kind)
}

// IncDonationReviewed counts verification verdicts.
func IncDonationReviewed(decision string) {
	IncCounterVec(SystemStore, MetricDonationsReviewed, decision)
}

// IncEventProcessed counts notifier outcomes per event type.
func IncEventProcessed(eventType, outcome string) {
	IncCounterVec(SystemStore, MetricEventsProcessed, eventType, outcome)
}
