package handler

import (
	"context"
	"net/http"
	"time"

	"daily-habits-tracker/internal/middleware"
)

// HealthChecker reports whether the habit store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Router sets up HTTP routes
type Router struct {
	slackHandler *SlackHandler
	health       HealthChecker
	limiter      *middleware.RateLimiter
	mux          *http.ServeMux
}

// NewRouter creates a new router
func NewRouter(slackHandler *SlackHandler, health HealthChecker, limiter *middleware.RateLimiter) *Router {
	return &Router{
		slackHandler: slackHandler,
		health:       health,
		limiter:      limiter,
		mux:          http.NewServeMux(),
	}
}

// Setup configures all routes
func (r *Router) Setup() http.Handler {
	r.mux.HandleFunc("/slack/actions", r.slackHandler.Actions)
	r.mux.HandleFunc("/slack/commands", r.slackHandler.Commands)

	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := r.health.Ping(ctx); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = r.mux

	handler = middleware.Logging(handler)

	if r.limiter != nil {
		handler = r.limiter.Middleware(handler)
	}

	return handler
}
