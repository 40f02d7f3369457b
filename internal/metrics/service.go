package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		OutcomesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streakbot_outcomes_recorded_total",
			Help: "The total number of match outcomes durably appended to the ledger.",
		}),
		StateConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streakbot_state_conflicts_total",
			Help: "The total number of compare-and-set conflicts hit while updating streak state.",
		}),
		ContentionExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streakbot_contention_exhausted_total",
			Help: "The total number of outcome reports that exhausted their state-update retries.",
		}),
		DigestsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streakbot_digests_served_total",
			Help: "The total number of time-windowed digests computed.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streakbot_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streakbot_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streakbot_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.OutcomesRecorded,
		s.StateConflicts,
		s.ContentionExhausted,
		s.DigestsServed,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncOutcomesRecorded() {
	s.OutcomesRecorded.Inc()
}

func (s *Service) IncStateConflicts() {
	s.StateConflicts.Inc()
}

func (s *Service) IncContentionExhausted() {
	s.ContentionExhausted.Inc()
}

func (s *Service) IncDigestsServed() {
	s.DigestsServed.Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
