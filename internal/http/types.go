package http

import (
	"net/http"

	"github.com/oddmundk/streakbot/internal/config"
	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/metrics"
	"github.com/oddmundk/streakbot/internal/notifier"
	"github.com/oddmundk/streakbot/internal/pubsub"
	"github.com/oddmundk/streakbot/internal/query"
)

type Server struct {
	Store          ledger.LedgerStore
	Writer         *ledger.Writer
	Facade         *query.Facade
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}
