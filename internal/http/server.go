package http

import (
	"net/http"

	"github.com/oddmundk/streakbot/internal/config"
	"github.com/oddmundk/streakbot/internal/http/handlers"
	"github.com/oddmundk/streakbot/internal/ledger"
	"github.com/oddmundk/streakbot/internal/metrics"
	"github.com/oddmundk/streakbot/internal/notifier"
	"github.com/oddmundk/streakbot/internal/pubsub"
	"github.com/oddmundk/streakbot/internal/query"
)

func NewServer(store ledger.LedgerStore, writer *ledger.Writer, facade *query.Facade, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Store:          store,
		Writer:         writer,
		Facade:         facade,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(handlers.HealthCheckHandler(s.Store), paramsMiddleware))
	s.Router.Handle("/clear", Chain(handlers.ClearStoreHandler(s.Store), paramsMiddleware))
	s.Router.Handle("/records", Chain(handlers.RecordsHandler(s.Facade), paramsMiddleware))
	s.Router.Handle("/weekly", Chain(handlers.WeeklyHandler(s.Facade, s.Cfg), paramsMiddleware))
	s.Router.Handle("/rebuild", Chain(handlers.RebuildHandler(s.Writer), paramsMiddleware))
	s.Router.Handle("/notify-outcome", Chain(handlers.OutcomeRecordedHandler(s.Store, s.Notifier, s.pubsub), paramsMiddleware))
	s.Router.Handle("/slack/command/result", Chain(handlers.ResultCommandHandler(s.Store, s.Writer, s.Notifier, s.Cfg), paramsMiddleware))
	s.Router.Handle("/slack/command/records", Chain(handlers.RecordsCommandHandler(s.Store, s.Facade, s.Notifier, s.Cfg), paramsMiddleware))
	s.Router.Handle("/slack/command/weekly", Chain(handlers.WeeklyCommandHandler(s.Store, s.Facade, s.Notifier, s.Cfg), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
