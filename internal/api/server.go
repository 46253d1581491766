package api

import (
	"log/slog"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/engine"
	"github.com/rhythm-workflows/rhythm-go/internal/ratelimit"
)

// Options configures a Server. Zero values disable the optional layers.
type Options struct {
	CORSOrigins []string
	// Verifier checks bearer tokens. Nil disables authentication.
	Verifier *oidc.IDTokenVerifier
	// Limiter throttles each caller. Nil disables rate limiting.
	Limiter *ratelimit.KeyedLimiter
	Logger  *slog.Logger
}

// Server is the HTTP API of the workflow catalog.
type Server struct {
	catalog    catalog.Catalog
	controller engine.Controller
	logger     *slog.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// New creates a Server over the catalog and the workflow controller.
func New(cat catalog.Catalog, ctl engine.Controller, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{catalog: cat, controller: ctl, logger: logger, mux: http.NewServeMux()}
	s.routes()

	var h http.Handler = s.mux
	if opts.Limiter != nil {
		h = rateLimit(opts.Limiter, h)
	}
	if opts.Verifier != nil {
		h = bearerAuth(opts.Verifier)(h)
	}
	h = requestID(s.logging(cors(opts.CORSOrigins, h)))
	s.handler = otelhttp.NewHandler(h, "rhythm-api")
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET "+healthPath, s.handleHealth)
	s.mux.HandleFunc("GET /workflows", s.handleListWorkflows)
	s.mux.HandleFunc("POST /workflows", s.handleCreateWorkflow)
	s.mux.HandleFunc("GET /workflows/counts_by_status", s.handleCountsByStatus)
	s.mux.HandleFunc("GET /workflows/{id}", s.handleGetWorkflow)
	s.mux.HandleFunc("DELETE /workflows/{id}", s.handleDeleteWorkflow)
	s.mux.HandleFunc("POST /workflows/{id}/pause", s.handlePauseWorkflow)
	s.mux.HandleFunc("POST /workflows/{id}/resume", s.handleResumeWorkflow)
	s.mux.HandleFunc("GET /tasks/unique", s.handleUniqueSteps)
}
