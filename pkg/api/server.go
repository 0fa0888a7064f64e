// Package api exposes the engine over HTTP. Every endpoint operates on
// snapshots persisted in the store; analysis endpoints recompute from
// the stored snapshot so results always reflect the current rule set.
package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raumwerk/raumwerk/pkg/analysis"
	"github.com/raumwerk/raumwerk/pkg/api/middleware"
	"github.com/raumwerk/raumwerk/pkg/check"
	"github.com/raumwerk/raumwerk/pkg/classify"
	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/importer"
	"github.com/raumwerk/raumwerk/pkg/logging"
	"github.com/raumwerk/raumwerk/pkg/metrics"
	"github.com/raumwerk/raumwerk/pkg/quantity"
	"github.com/raumwerk/raumwerk/pkg/schedule"
	"github.com/raumwerk/raumwerk/pkg/store"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// maxImportBytes caps the request body of the import endpoint.
const maxImportBytes = 32 << 20

// ruleComponents bundles everything derived from one rule set. The
// server swaps the whole bundle on reload so a request never sees a
// half-updated configuration.
type ruleComponents struct {
	cfg        config.Config
	engine     *analysis.Engine
	calc       *quantity.Calculator
	classifier *classify.Classifier
	checker    *check.Checker
	builder    *schedule.Builder
}

func newRuleComponents(cfg config.Config, logger logging.Logger, reg *metrics.Registry) *ruleComponents {
	calc := quantity.NewCalculator(cfg.Rules)
	return &ruleComponents{
		cfg:        cfg,
		engine:     analysis.NewEngine(cfg.Rules, logger, reg),
		calc:       calc,
		classifier: classify.NewClassifier(cfg.Rules),
		checker:    check.NewChecker(cfg.Rules),
		builder:    schedule.NewBuilder(calc),
	}
}

// Server wires the importer, store and analysis packages to HTTP
// handlers. Construct it with NewServer and mount Handler().
type Server struct {
	rules    atomic.Pointer[ruleComponents]
	store    *store.Store
	importer *importer.Importer
	logger   logging.Logger
	metrics  *metrics.Registry
	started  time.Time
}

// NewServer returns a server bound to the given store and rule set. A
// nil logger or registry falls back to the package defaults.
func NewServer(cfg config.Config, st *store.Store, logger logging.Logger, reg *metrics.Registry) *Server {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	s := &Server{
		store:    st,
		importer: importer.New(logger, reg),
		logger:   logger.With(logging.Component("api")),
		metrics:  reg,
		started:  time.Now(),
	}
	s.rules.Store(newRuleComponents(cfg, logger, reg))
	return s
}

// Reload swaps in a new rule set. In-flight requests finish on the
// configuration they started with.
func (s *Server) Reload(cfg config.Config) {
	s.rules.Store(newRuleComponents(cfg, s.logger, s.metrics))
	s.logger.Info("rule set swapped",
		logging.String("din277", cfg.Rules.DIN277.Version),
		logging.String("woflv", cfg.Rules.WoFlV.Version),
	)
}

func (s *Server) components() *ruleComponents {
	return s.rules.Load()
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(
		s.metrics.GetPrometheusRegistry(),
		promhttp.HandlerOpts{},
	))

	mux.HandleFunc("POST /projects", s.handleImport)
	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("GET /projects/{id}", s.handleGetProject)
	mux.HandleFunc("DELETE /projects/{id}", s.handleDeleteProject)

	mux.HandleFunc("GET /projects/{id}/report", s.handleReport)
	mux.HandleFunc("GET /projects/{id}/areas", s.handleAreas)
	mux.HandleFunc("GET /projects/{id}/volumes", s.handleVolumes)
	mux.HandleFunc("GET /projects/{id}/ex-zones", s.handleExZones)
	mux.HandleFunc("GET /projects/{id}/fire-compartments", s.handleFireCompartments)
	mux.HandleFunc("GET /projects/{id}/check", s.handleCheck)
	mux.HandleFunc("GET /projects/{id}/schedules/{kind}", s.handleSchedule)

	mux.HandleFunc("GET /projects/{id}/export/excel", s.handleExportExcel)
	mux.HandleFunc("GET /projects/{id}/export/gaeb", s.handleExportGAEB)

	var handler http.Handler = mux
	handler = middleware.Metrics(s.metrics)(handler)
	handler = middleware.Logging(s.logger, middleware.GetRequestID)(handler)
	handler = middleware.CORS(middleware.DefaultCORSConfig())(handler)
	handler = middleware.BodySizeLimit(maxImportBytes)(handler)
	handler = middleware.SecurityHeaders(nil)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.PanicRecovery(s.logger)(handler)
	return handler
}
