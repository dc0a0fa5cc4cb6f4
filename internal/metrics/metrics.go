package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "alarm_engine_"

	// OutcomeDismissed labels sessions ended by a correct mission answer.
	OutcomeDismissed = "dismissed"
	// OutcomeCancelled labels sessions ended by user cancellation.
	OutcomeCancelled = "cancelled"
)

var (
	//nolint:gochecknoglobals // Metrics are process-wide by design of the client library.
	registerOnce sync.Once

	//nolint:gochecknoglobals
	ticksTotal prometheus.Counter
	//nolint:gochecknoglobals
	tickDropsTotal prometheus.Counter
	//nolint:gochecknoglobals
	matchesTotal prometheus.Counter
	//nolint:gochecknoglobals
	sessionsTotal *prometheus.CounterVec
	//nolint:gochecknoglobals
	wrongAnswersTotal prometheus.Counter
	//nolint:gochecknoglobals
	missionFallbacksTotal prometheus.Counter
	//nolint:gochecknoglobals
	alertResourceFailures *prometheus.CounterVec
)

// Init registers the engine metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "ticks_total",
			Help: "Total scheduler evaluation cycles",
		})
		tickDropsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "tick_drops_total",
			Help: "Ticks dropped because the previous tick overran its period",
		})
		matchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "matches_total",
			Help: "Total alarm matches emitted by the scheduler",
		})
		sessionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_sessions_total",
				Help: "Completed alert sessions by outcome",
			},
			[]string{"outcome"},
		)
		wrongAnswersTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "mission_wrong_answers_total",
			Help: "Mission answers rejected while alerting",
		})
		missionFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "mission_fallbacks_total",
			Help: "Missions served from the static fallback because the question bank was unreachable",
		})
		alertResourceFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_resource_failures_total",
				Help: "Alert primitive acquisition failures by resource",
			},
			[]string{"resource"},
		)

		prometheus.MustRegister(
			ticksTotal,
			tickDropsTotal,
			matchesTotal,
			sessionsTotal,
			wrongAnswersTotal,
			missionFallbacksTotal,
			alertResourceFailures,
		)
	})
}

// IncTick counts one scheduler evaluation cycle.
func IncTick() {
	if ticksTotal != nil {
		ticksTotal.Inc()
	}
}

// IncTickDrop counts a tick dropped due to overrun.
func IncTickDrop() {
	if tickDropsTotal != nil {
		tickDropsTotal.Inc()
	}
}

// AddMatches counts emitted matches.
func AddMatches(count int) {
	if count > 0 && matchesTotal != nil {
		matchesTotal.Add(float64(count))
	}
}

// IncSession counts a completed alert session by outcome.
func IncSession(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	if sessionsTotal != nil {
		sessionsTotal.WithLabelValues(outcome).Inc()
	}
}

// IncWrongAnswer counts a rejected mission answer.
func IncWrongAnswer() {
	if wrongAnswersTotal != nil {
		wrongAnswersTotal.Inc()
	}
}

// IncMissionFallback counts a mission served from the static fallback.
func IncMissionFallback() {
	if missionFallbacksTotal != nil {
		missionFallbacksTotal.Inc()
	}
}

// IncAlertResourceFailure counts an alert primitive acquisition failure.
func IncAlertResourceFailure(resource string) {
	if resource == "" {
		resource = "unknown"
	}

	if alertResourceFailures != nil {
		alertResourceFailures.WithLabelValues(resource).Inc()
	}
}
