package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// MiddlewareOptions toggles the parts of the stack that vary by deployment.
type MiddlewareOptions struct {
	CORSEnabled    bool
	RequestTimeout time.Duration
}

func SetupMiddleware(opts MiddlewareOptions) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		// Request ID for tracing
		middleware.RequestID,

		// Logging middleware
		middleware.Logger,

		// Recovery middleware
		middleware.Recoverer,
	}

	if opts.CORSEnabled {
		stack = append(stack, cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Content type middleware
	stack = append(stack, middleware.SetHeader("Content-Type", "application/json"))

	if opts.RequestTimeout > 0 {
		// Searches poll the request context, so the deadline bounds them too.
		stack = append(stack, middleware.Timeout(opts.RequestTimeout))
	}

	return stack
}
