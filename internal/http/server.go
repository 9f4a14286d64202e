package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinic/internal/log"
	"clinic/internal/middleware/security"
	"clinic/internal/middleware/trace"
	"clinic/internal/services"
)

// Options tunes the server's outer surface.
type Options struct {
	// RateLimitRPM caps requests per client IP per minute; 0 disables it.
	RateLimitRPM int
	// CORSOrigins lists allowed origins; empty disables CORS handling.
	CORSOrigins []string
	// TrustedProxies adds CIDRs whose forwarded headers are believed, on top
	// of loopback and private ranges.
	TrustedProxies []string
	// Registry receives the HTTP collectors and is served on /metrics.
	// A fresh registry is created when nil.
	Registry *prometheus.Registry
	// Ready reports whether dependencies are usable; nil means always ready.
	Ready func(ctx context.Context) error
	// Logger is attached to every request context.
	Logger *log.Logger
}

type Server struct {
	http.Server
	svc      *services.ClinicService
	ready    func(ctx context.Context) error
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.ClinicService, opts Options) *Server {
	s := &Server{
		svc:      svc,
		ready:    opts.Ready,
		detector: security.NewDetector(),
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(trace.NewMiddleware(s.detector.ExtractClientIP, trace.NewMetrics(reg)).Middleware)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestIDMiddleware(trace.RequestID))
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", trace.HeaderRequestID},
			ExposedHeaders: []string{trace.HeaderRequestID},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitRPM > 0 {
			r.Use(httprate.Limit(opts.RateLimitRPM, time.Minute,
				httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
					return s.detector.ExtractClientIP(r), nil
				}),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				}),
			))
		}

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/export.xlsx", s.handleExportXLSX)
		r.Get("/export/payments.csv", s.handleExportPaymentsCSV)

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", s.handleListClients)
			r.Post("/", s.handleCreateClient)
			r.Get("/{id}", s.handleGetClient)
			r.Put("/{id}", s.handleUpdateClient)
			r.Delete("/{id}", s.handleDeleteClient)
			r.Post("/{id}/quick-payment", s.handleQuickPayment)
		})
		r.Route("/staff", func(r chi.Router) {
			r.Get("/", s.handleListStaff)
			r.Post("/", s.handleCreateStaff)
			r.Get("/summary", s.handleStaffSummary)
			r.Get("/{id}", s.handleGetStaff)
			r.Put("/{id}", s.handleUpdateStaff)
			r.Delete("/{id}", s.handleDeleteStaff)
		})
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Put("/{id}", s.handleUpdateSession)
			r.Patch("/{id}/status", s.handleSetSessionStatus)
			r.Delete("/{id}", s.handleDeleteSession)
		})
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", s.handleListPayments)
			r.Post("/", s.handleRecordPayment)
			r.Get("/outstanding", s.handleOutstanding)
			r.Get("/monthly", s.handleMonthlyRevenue)
			r.Get("/{id}", s.handleGetPayment)
			r.Put("/{id}", s.handleUpdatePayment)
			r.Delete("/{id}", s.handleDeletePayment)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
