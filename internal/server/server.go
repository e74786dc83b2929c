// Package server provides the HTTP REST API for the matching engine.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwhitfield/carematch/internal/config"
	"github.com/mwhitfield/carematch/internal/db"
	"github.com/mwhitfield/carematch/internal/engine"
	"github.com/mwhitfield/carematch/internal/fusion"
	"github.com/mwhitfield/carematch/internal/loader"
	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/server/middleware"
	"github.com/mwhitfield/carematch/internal/server/ratelimit"
	"github.com/mwhitfield/carematch/internal/types"
)

// Server represents the HTTP server. The candidate pool is fused once at
// startup and shared read-only across requests.
type Server struct {
	httpServer  *http.Server
	engine      *engine.Engine
	candidates  []*types.CandidateRecord
	db          *db.DB // nil when run persistence is not configured
	workers     int
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
	authWrap    func(http.Handler) http.Handler
}

// Config carries everything New needs to assemble the server.
type Config struct {
	Port        int
	DatabaseURL string // optional; enables run history endpoints

	RulesetPath       string
	PrimaryPath       string
	SecondaryPath     string // optional directory dataset
	KeepSecondaryOnly bool

	// Workers bounds concurrent scoring per request. Zero means one per CPU.
	Workers int

	// RequireAuth protects the /api/v1 routes with bearer tokens
	// (JWT_SECRET) and/or static API keys (API_KEY_HASHES).
	RequireAuth bool
}

// New creates a new server instance. The ruleset and datasets are loaded
// and fused here so a malformed configuration refuses to start instead of
// failing per request.
func New(cfg Config) (*Server, error) {
	rs := rules.Default()
	if cfg.RulesetPath != "" {
		loaded, err := rules.Load(cfg.RulesetPath)
		if err != nil {
			return nil, fmt.Errorf("loading ruleset: %w", err)
		}
		rs = loaded
	}

	primary, preport, err := loader.Load(cfg.PrimaryPath, loader.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("loading primary dataset: %w", err)
	}
	log.Printf("Loaded primary dataset: %d rows, %d skipped", preport.Rows, preport.Skipped)

	var secondary []types.RawRecord
	if cfg.SecondaryPath != "" {
		var sreport *loader.Report
		secondary, sreport, err = loader.Load(cfg.SecondaryPath, loader.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("loading secondary dataset: %w", err)
		}
		log.Printf("Loaded secondary dataset: %d rows, %d skipped", sreport.Rows, sreport.Skipped)
	}

	fuseOpts := fusion.DefaultOptions()
	fuseOpts.KeepSecondaryOnly = cfg.KeepSecondaryOnly
	candidates, freport, err := fusion.Fuse(primary, secondary, fuseOpts)
	if err != nil {
		return nil, fmt.Errorf("fusing datasets: %w", err)
	}
	log.Printf("Fused candidate pool: %d candidates (%d matched by ID, %d soft-matched, %d conflicts)",
		len(candidates), freport.MatchedByID, freport.SoftMatched, len(freport.Conflicts))

	s := &Server{
		engine:     engine.New(rs),
		candidates: candidates,
		workers:    cfg.Workers,
		validate:   validator.New(),
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = database
	} else {
		log.Println("No database URL configured; run history endpoints are disabled")
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	if err := s.setupAuth(cfg.RequireAuth); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("POST /api/v1/match", s.authWrap(http.HandlerFunc(s.handleMatch)))
	mux.Handle("GET /api/v1/runs", s.authWrap(http.HandlerFunc(s.handleListRuns)))
	mux.Handle("GET /api/v1/runs/{id}", s.authWrap(http.HandlerFunc(s.handleGetRun)))
	mux.Handle("GET /api/v1/runs/{id}/diagnostics", s.authWrap(http.HandlerFunc(s.handleRunDiagnostics)))
	mux.Handle("GET /api/v1/runs/{id}/shortlist", s.authWrap(http.HandlerFunc(s.handleRunShortlist)))
	mux.Handle("GET /api/v1/runs/{id}/artifacts", s.authWrap(http.HandlerFunc(s.handleRunArtifacts)))
	mux.Handle("DELETE /api/v1/runs/{id}", s.authWrap(http.HandlerFunc(s.handleDeleteRun)))
	mux.Handle("GET /api/v1/artifacts/{id}", s.authWrap(http.HandlerFunc(s.handleGetArtifact)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupAuth configures the /api/v1 auth wrapper. Without RequireAuth it is
// a passthrough; with it, at least one of JWT_SECRET or API_KEY_HASHES
// must be configured.
func (s *Server) setupAuth(required bool) error {
	if !required {
		s.authWrap = func(next http.Handler) http.Handler { return next }
		return nil
	}

	var tokens middleware.TokenValidator
	if os.Getenv("JWT_SECRET") != "" {
		jwtConfig, err := config.NewJWTConfig()
		if err != nil {
			return fmt.Errorf("failed to create JWT config: %w", err)
		}
		tokens = NewJWTService(jwtConfig).AsTokenValidator()
	}

	keys, err := LoadAPIKeyVerifier()
	if err != nil {
		return fmt.Errorf("failed to load API keys: %w", err)
	}

	if tokens == nil && keys == nil {
		return fmt.Errorf("auth required but neither JWT_SECRET nor API_KEY_HASHES is set")
	}

	// KeyVerifier is an interface; a typed nil must not reach the
	// middleware as a non-nil interface value.
	if keys != nil {
		s.authWrap = middleware.AuthMiddleware(tokens, keys)
	} else {
		s.authWrap = middleware.AuthMiddleware(tokens, nil)
	}
	return nil
}

// Start serves requests until SIGINT/SIGTERM, then drains in-flight
// requests before returning. A listen failure is returned rather than
// fatal-logged so the caller can clean up.
func (s *Server) Start() error {
	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	log.Println("Draining in-flight requests")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.db != nil {
		s.db.Close()
	}
	log.Println("Shutdown complete")
	return nil
}

// withCORS answers preflight requests and marks responses for
// cross-origin use.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit enforces per-client request budgets. Limit headers go on
// every response so well-behaved clients can pace themselves.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status a handler wrote so the request log
// can include it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging writes one line per request with method, path, status and
// elapsed time.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// handleHealth reports liveness plus the pool size, so a probe doubles as
// a smoke check that the datasets loaded.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"candidates": len(s.candidates),
		"persisted":  s.db != nil,
	})
}

// jsonResponse encodes data as the response body with the given status.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response body: %v", err)
	}
}

// errorResponse writes {"error": message} with the given status.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID identifies a client for rate limiting. RemoteAddr is
// good enough here; a deployment behind a trusted proxy would read
// X-Forwarded-For instead.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders exposes the client's current budget on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
}

// rateLimitResponse writes the 429 body, including when the client may
// try again.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	body := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Request budget exhausted; retry after the reset time.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		body["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	log.Printf("Throttled client: limit=%d reset=%s",
		info.Limit, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, body)
}
