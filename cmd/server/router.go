package main

import (
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/auth"
	"github.com/mmynk/expensemate/internal/config"
	"github.com/mmynk/expensemate/internal/currency"
	"github.com/mmynk/expensemate/internal/middleware"
	"github.com/mmynk/expensemate/internal/notify"
	"github.com/mmynk/expensemate/internal/service"
	"github.com/mmynk/expensemate/internal/storage"
)

// app is the wired HTTP surface.
type app struct {
	router      http.Handler
	hub         *notify.Hub
	invitations *service.InvitationService
}

func newApp(cfg *config.Config, store storage.Store, logger *slog.Logger) *app {
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	passwords := auth.NewPasswordAuthenticator(store, cfg.Auth.Issuer)
	converter := currency.NewConverter(store)
	hub := notify.NewHub(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	invitations := service.NewInvitationService(store, cfg.Server.BaseURL, cfg.Invitations.TTL, logger)

	common := []connect.Interceptor{middleware.LoggingInterceptor(logger), metrics.Interceptor()}
	required := connect.WithInterceptors(append(common, middleware.RequireAuth(jwtManager))...)
	// Register and Login are public; the other user calls check the identity
	// themselves.
	optional := connect.WithInterceptors(append(common, middleware.OptionalAuth(jwtManager))...)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(loggingMiddleware(logger))
	r.Use(corsMiddleware)

	r.Mount(api.NewUserServiceHandler(service.NewUserService(store, passwords, jwtManager, logger), optional))
	r.Mount(api.NewInvitationServiceHandler(invitations, required))
	r.Mount(api.NewConnectionServiceHandler(service.NewConnectionService(store, logger), required))
	r.Mount(api.NewExpenseServiceHandler(service.NewExpenseService(store, converter, hub, logger), required))
	r.Mount(api.NewActivityServiceHandler(service.NewActivityService(store, logger), required))
	r.Mount(api.NewCurrencyServiceHandler(service.NewCurrencyService(converter, logger), required))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Handle("/ws", notify.NewHandler(hub, jwtManager, store, logger))
	r.Get("/invite/{token}", func(w http.ResponseWriter, r *http.Request) {
		target := cfg.Server.BaseURL + service.InvitationPath(chi.URLParam(r, "token"))
		http.Redirect(w, r, target, http.StatusFound)
	})

	return &app{router: r, hub: hub, invitations: invitations}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", chiMiddleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
