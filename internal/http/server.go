package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"trackit/internal/auth"
	"trackit/internal/log"
	"trackit/internal/middleware/trace"
	"trackit/internal/services"
)

// authRateLimit caps auth attempts per client IP per minute.
const authRateLimit = 10

// Options configures the HTTP server.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
}

// Server wires the API handlers onto a chi router.
type Server struct {
	http.Server

	auth     *auth.Service
	sessions *auth.Sessions
	tracker  *services.Tracker
	logger   *log.Logger

	authLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(opts Options, authSvc *auth.Service, sessions *auth.Sessions, tracker *services.Tracker, logger *log.Logger) *Server {
	s := &Server{
		auth:        authSvc,
		sessions:    sessions,
		tracker:     tracker,
		logger:      logger.WithComponent(log.ComponentHTTP),
		authLimiter: newRateLimiter(authRateLimit, time.Minute),
		metrics:     &securityMetrics{},
	}

	r := chi.NewRouter()

	tracer := trace.NewMiddleware(extractClientIP)
	r.Use(tracer.Handler)
	r.Use(log.Middleware(s.logger))
	r.Use(s.withSecurityHeaders)

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Use(s.withRateLimit(s.authLimiter))
			ar.Post("/signup", s.handleSignUp)
			ar.Post("/login", s.handleLogIn)
			ar.Post("/login/external", s.handleLogInExternal)
			ar.Post("/logout", s.handleLogOut)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(s.requireSession)
			pr.Get("/session", s.handleGetSession)
			pr.Put("/session/tab", s.handleSwitchTab)
			pr.Put("/session/theme", s.handleToggleTheme)
			pr.Get("/dashboard", s.handleDashboard)
			pr.Get("/expenses", s.handleListExpenses)
			pr.Post("/expenses", s.handleAddExpense)
			pr.Delete("/expenses/{id}", s.handleDeleteExpense)
			pr.Get("/categories", s.handleListCategories)
			pr.Post("/categories", s.handleAddCategory)
			pr.Put("/categories/{id}/budget", s.handleUpdateBudget)
			pr.Post("/advice", s.handleAdvice)
		})
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.authLimiter != nil {
			s.authLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers to every response and logs
// suspicious request patterns.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(r.Context(), "Suspicious request pattern",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", extractClientIP(r))
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects requests once the per-IP limit is exceeded.
func (s *Server) withRateLimit(rl *rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractClientIP(r)
			if !rl.allow(clientIP, s.metrics) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP,
					"path", r.URL.Path)
				TooManyRequestsError("too many requests, slow down").Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
