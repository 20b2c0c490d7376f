package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/emrepbu/loginflow/internal/app"
	"github.com/emrepbu/loginflow/internal/config"
	"github.com/emrepbu/loginflow/internal/handlers"
	"github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/metrics"
	"github.com/emrepbu/loginflow/internal/middleware"
	"github.com/emrepbu/loginflow/internal/telemetry"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const serviceName = "loginflow"

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("events_enabled", cfg.EventsEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	tracingEnabled := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracingEnabled = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container, err := app.NewContainer(ctx, cfg, zapLogger, app.Options{RunMigrations: true})
	if err != nil {
		zapLogger.Fatal("failed_to_initialize_dependencies", zap.Error(err))
	}
	defer container.Close()

	if err := container.Start(ctx); err != nil {
		zapLogger.Fatal("failed_to_start_session", zap.Error(err))
	}

	router, err := newRouter(cfg, container, zapLogger, tracingEnabled)
	if err != nil {
		zapLogger.Fatal("failed_to_set_up_routes", zap.Error(err))
	}

	// Session streams are long-lived, so there is no write timeout here;
	// other handlers are bounded by the timeout middleware
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("server_failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// newRouter builds the middleware stack and registers every route.
// gorilla/mux runs middleware in registration order, outermost first.
func newRouter(cfg *config.Config, c *app.Container, zapLogger *zap.Logger, tracingEnabled bool) (*mux.Router, error) {
	r := mux.NewRouter()

	if tracingEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL, zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout, "/api/v1/session/stream"))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger, c.Metrics))

	checks := make(map[string]handlers.CheckFunc)
	for name, check := range c.HealthChecks() {
		checks[name] = check
	}
	healthChecker := handlers.NewHealthChecker(checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")
	r.Handle("/metrics", metrics.Handler(c.Registry)).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	// Sign-in attempts are rate limited per client
	rateLimitMW, err := middleware.RateLimit(c.RedisClient, cfg.LoginRateLimit, cfg.RedisKeyPrefix, zapLogger)
	if err != nil {
		return nil, err
	}

	var urls handlers.AuthURLBuilder
	if c.SignIn != nil {
		urls = c.SignIn
	}
	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	authRouter.Use(rateLimitMW)
	handlers.NewAuthHandler(c.Gateway, urls, c.Session).RegisterRoutes(authRouter)

	handlers.NewSessionHandler(c.Session, c.Navigator, c.Languages, zapLogger).RegisterRoutes(apiRouter)
	handlers.NewNavigationHandler(c.Navigator).RegisterRoutes(apiRouter)
	handlers.NewLocaleHandler(c.Languages, zapLogger).RegisterRoutes(apiRouter)

	profileRouter := apiRouter.PathPrefix("").Subrouter()
	profileRouter.Use(middleware.RequireSession(c.Session, zapLogger))
	handlers.NewProfileHandler(c.Gateway, c.Session, c.Navigator, zapLogger).RegisterRoutes(profileRouter)

	// Preflight requests are answered by the CORS middleware
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
