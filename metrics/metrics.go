package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ReportsTotal counts report submissions by outcome.
	ReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drainer",
		Subsystem: "registry",
		Name:      "reports_total",
		Help:      "Total number of drainer report submissions, labeled by result.",
	}, []string{"result"})

	ClassificationUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drainer",
		Subsystem: "registry",
		Name:      "classification_updates_total",
		Help:      "Total number of classification updates, labeled by result.",
	}, []string{"result"})

	RecordsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "drainer",
		Subsystem: "registry",
		Name:      "records_created_total",
		Help:      "Total number of drainer addresses reported for the first time.",
	})

	FeesCollectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "drainer",
		Subsystem: "registry",
		Name:      "fees_collected_base_units_total",
		Help:      "Total anti-spam fees collected, in base units.",
	})

	// ScreensTotal counts screen lookups; "filter_miss" never reached the store.
	ScreensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drainer",
		Subsystem: "registry",
		Name:      "screens_total",
		Help:      "Total number of address screens, labeled by result.",
	}, []string{"result"})

	PublishErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "drainer",
		Subsystem: "registry",
		Name:      "event_publish_error_total",
		Help:      "Total number of events that could not be published after commit.",
	})
)

// Register registers registry metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ReportsTotal,
			ClassificationUpdatesTotal,
			RecordsCreatedTotal,
			FeesCollectedTotal,
			ScreensTotal,
			PublishErrorTotal,
		)
	})
}
