/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: zap access log with a request-scoped logger in the context
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/schedules/*   Rotation generation
  /api/shifts/*      Shift lifecycle
  /api/timesheets/*  Monthly view, approval, XLSX export
  /api/payroll/*     Calculation and payment marking
  /api/ledger/*      Financial transactions
  /api/expenses/*    Expense request workflow
  /api/reports/*     P&L
  /api/employees, /api/pvzs  Directory mirror
  /api/scenarios/*   Demo scenarios (dev only)

SECURITY NOTE:
  No authentication middleware. Identity and role checks belong to the
  platform gateway in front of this service.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pvzops/workforce-engine/logger"
	"go.uber.org/zap"
)

// DefaultAllowedOrigins are used when no CORS origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured. allowedOrigins
// may be nil.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Post("/schedules/generate", h.GenerateSchedule)

		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.CreateShift)
			r.Post("/{id}/open", h.OpenShift)
			r.Post("/{id}/close", h.CloseShift)
		})

		r.Route("/timesheets", func(r chi.Router) {
			r.Get("/", h.GetTimesheet)
			r.Get("/export", h.ExportTimesheet)
			r.Post("/approve", h.ApproveTimesheet)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.ListPayroll)
			r.Post("/calculate", h.CalculatePayroll)
			r.Post("/pay", h.PayPayroll)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/transactions", h.ListTransactions)
			r.Post("/transactions", h.RecordTransaction)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Get("/{id}", h.GetExpense)
			r.Post("/{id}/transition", h.TransitionExpense)
		})

		r.Get("/reports/pnl", h.GetPnL)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.SaveEmployee)
		})
		r.Post("/pvzs", h.SavePVZ)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// RequestLogger logs one line per request and stores a request-scoped
// logger in the context. Must run after middleware.RequestID.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	base = logger.OrNop(base)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx, reqLogger := logger.WithRequestID(r.Context(), base, middleware.GetReqID(r.Context()))
			reqLogger = reqLogger.With(
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			ctx = logger.WithContext(ctx, reqLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.Int("body_size", ww.BytesWritten()),
			}
			if r.URL.RawQuery != "" {
				fields = append(fields, zap.String("query", r.URL.RawQuery))
			}

			switch {
			case status >= 500:
				reqLogger.Error("HTTP request", fields...)
			case status >= 400:
				reqLogger.Warn("HTTP request", fields...)
			default:
				reqLogger.Info("HTTP request", fields...)
			}
		})
	}
}
