package dumps

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	meiliutil "github.com/Amiequan/meilisearch/util"
)

const (
	metricsNamespace = "meilisearch"
	metricsSubsystem = "dump"
)

// Metrics of the dump actor.
type actorMetrics struct {
	Created    prometheus.Counter
	Rejected   prometheus.Counter
	Finished   *prometheus.CounterVec
	InProgress prometheus.Gauge
	Duration   prometheus.Histogram
}

// Registers the collector unless the registerer is nil. If an equal
// collector is already registered, e.g. by another actor sharing the
// registerer, the existing one is returned and both actors update it.
func registerCollector[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if registerer == nil {
		return collector
	}
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}
	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		if existing, ok := alreadyRegistered.ExistingCollector.(T); ok {
			return existing
		}
	}
	log.WithError(err).Warn("Cannot register the dump metric")
	return collector
}

// Creates the metrics and registers them in the registerer. The metrics
// are not registered anywhere if the registerer is nil. The busy function
// reports the number of the running request handlers. The gauge functions
// of the first actor registered in a registerer are kept.
func newActorMetrics(registerer prometheus.Registerer, dumpPath string, busy func() int) *actorMetrics {
	registerCollector(registerer, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "inflight_handlers",
		Help:      "Dump requests being handled",
	}, func() float64 {
		return float64(busy())
	}))
	registerCollector(registerer, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "directory_free_bytes",
		Help:      "Free space on the disk holding the dumps",
	}, func() float64 {
		free, err := meiliutil.GetFreeDiskSpace(dumpPath)
		if err != nil {
			log.WithError(err).WithField("path", dumpPath).Debug("Cannot read the free disk space")
			return 0
		}
		return float64(free)
	}))

	return &actorMetrics{
		Created: registerCollector(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "created_total",
			Help:      "Accepted dump requests",
		})),
		Rejected: registerCollector(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rejected_total",
			Help:      "Dump requests rejected because another dump was running",
		})),
		Finished: registerCollector(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "finished_total",
			Help:      "Finished dumps by status",
		}, []string{"status"})),
		InProgress: registerCollector(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "in_progress",
			Help:      "Dumps being produced",
		})),
		Duration: registerCollector(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "duration_seconds",
			Help:      "Time spent producing a dump",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		})),
	}
}
