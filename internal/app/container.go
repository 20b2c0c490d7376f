// Package app wires the sign-in flow from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/emrepbu/loginflow/internal/auth"
	"github.com/emrepbu/loginflow/internal/cache"
	"github.com/emrepbu/loginflow/internal/config"
	"github.com/emrepbu/loginflow/internal/database"
	"github.com/emrepbu/loginflow/internal/identity"
	"github.com/emrepbu/loginflow/internal/locale"
	"github.com/emrepbu/loginflow/internal/metrics"
	"github.com/emrepbu/loginflow/internal/navigation"
	"github.com/emrepbu/loginflow/internal/queue"
	"github.com/emrepbu/loginflow/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultQueueAttempts = 10
	queueInitialDelay    = 2 * time.Second
	queueMaxDelay        = 30 * time.Second
)

// Options tune how the container connects
type Options struct {
	// RunMigrations applies the schema before use
	RunMigrations bool
	// QueueAttempts bounds RabbitMQ connection attempts; zero means the default
	QueueAttempts int
	// Registerer receives the metrics collectors; nil uses a private registry
	Registerer prometheus.Registerer
}

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB          *database.DB
	RedisClient *redis.Client
	Queue       queue.EventQueue

	// Stores
	Documents   database.DocumentStore
	Activity    *database.UserActivityRepository
	Preferences cache.PreferenceStore
	Principals  *identity.RedisPrincipalStore

	// Services
	Registry  *prometheus.Registry
	Metrics   *metrics.Collector
	Provider  *identity.GoogleProvider
	SignIn    *identity.GoogleSignInClient
	Session   *session.Source
	Gateway   *auth.Gateway
	Navigator *navigation.Navigator
	Languages *locale.Manager

	cancel context.CancelFunc
}

// NewContainer creates and initializes all dependencies. The queue is only
// connected when events are enabled.
func NewContainer(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}

	if err := c.initDatabase(opts.RunMigrations); err != nil {
		return nil, err
	}
	if err := c.initRedis(); err != nil {
		c.Close()
		return nil, err
	}
	if cfg.EventsEnabled() {
		if err := c.initQueue(ctx, opts.QueueAttempts); err != nil {
			c.Close()
			return nil, err
		}
	}

	c.initRepositories()
	c.initMetrics(opts.Registerer)

	if err := c.initServices(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) initDatabase(migrate bool) error {
	if migrate {
		if err := database.RunMigrations(c.Config.DatabaseURL); err != nil {
			return err
		}
		c.Logger.Info("database_migrations_applied")
	}

	db, err := database.New(c.Config.DatabaseURL)
	if err != nil {
		return err
	}
	c.DB = db
	c.Logger.Info("connected_to_database")
	return nil
}

func (c *Container) initRedis() error {
	client, err := cache.NewRedisClient(c.Config.RedisURL)
	if err != nil {
		return err
	}
	c.RedisClient = client
	c.Logger.Info("connected_to_redis")
	return nil
}

// initQueue retries with exponential backoff to ride out broker startup
func (c *Container) initQueue(ctx context.Context, attempts int) error {
	if attempts <= 0 {
		attempts = defaultQueueAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		q, err := queue.NewRabbitMQQueue(c.Config.RabbitMQURL)
		if err == nil {
			c.Queue = q
			c.Logger.Info("connected_to_rabbitmq")
			return nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		delay := queueInitialDelay * time.Duration(1<<uint(attempt))
		if delay > queueMaxDelay {
			delay = queueMaxDelay
		}
		c.Logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", attempts),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

func (c *Container) initRepositories() {
	c.Documents = database.NewDocumentRepository(c.DB)
	c.Activity = database.NewUserActivityRepository(c.DB)
	c.Preferences = cache.NewRedisPreferenceStore(c.RedisClient, c.Config.RedisKeyPrefix)
	c.Principals = identity.NewRedisPrincipalStore(c.RedisClient, c.Config.RedisKeyPrefix)
}

func (c *Container) initMetrics(reg prometheus.Registerer) {
	if reg == nil {
		c.Registry = prometheus.NewRegistry()
		reg = c.Registry
	}
	c.Metrics = metrics.NewCollector(reg)
}

func (c *Container) initServices(ctx context.Context) error {
	verifier := identity.NewVerifier(identity.NewJWKSManager(), c.Config.GoogleJWKSURL, c.Config.GoogleClientID, c.Config.GoogleIssuer)
	c.Provider = identity.NewGoogleProvider(verifier, c.Principals, c.Logger)

	enricher := session.NewEnricher(c.Documents, c.Logger).WithMetrics(c.Metrics)
	c.Session = session.NewSource(c.Provider, enricher, c.Logger)

	c.Gateway = auth.NewGateway(c.Provider, c.Documents, c.Session, c.Logger).WithMetrics(c.Metrics)
	if c.Queue != nil {
		c.Gateway.WithPublisher(c.Queue)
	}
	if c.Config.GoogleClientSecret != "" && c.Config.GoogleRedirectURL != "" {
		c.SignIn = identity.NewGoogleSignInClient(c.Config.GoogleClientID, c.Config.GoogleClientSecret, c.Config.GoogleRedirectURL, identity.GoogleEndpoint)
		c.Gateway.WithCodeExchanger(c.SignIn)
	}

	c.Navigator = navigation.NewNavigator(c.Logger)

	languages, err := locale.NewManager(ctx, c.Preferences, c.Config.DefaultLanguage, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize languages: %w", err)
	}
	c.Languages = languages

	return nil
}

// Start restores the persisted session, starts the session source and
// keeps the navigator and the cross-process session watch running until
// ctx is done or Close is called
func (c *Container) Start(ctx context.Context) error {
	if err := c.Provider.Restore(ctx); err != nil {
		return err
	}
	c.Session.Start()

	ctx, c.cancel = context.WithCancel(ctx)
	go func() {
		if err := c.Provider.Watch(ctx); err != nil && ctx.Err() == nil {
			c.Logger.Warn("session_watch_stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := c.Navigator.Run(ctx, c.Session.IsLoggedIn(), c.Session.IsProfileComplete()); err != nil && ctx.Err() == nil {
			c.Logger.Warn("navigator_stopped", zap.Error(err))
		}
	}()
	return nil
}

// Close releases every dependency in reverse order of creation
func (c *Container) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.Languages != nil {
		c.Languages.Close()
	}
	if c.Navigator != nil {
		c.Navigator.Close()
	}
	if c.Session != nil {
		c.Session.Close()
	}
	if c.Provider != nil {
		c.Provider.Close()
	}
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			c.Logger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}
}

// HealthChecks returns the dependency probes for the health endpoint
func (c *Container) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"database": c.DB.Health,
		"redis": func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		},
	}
	if c.Queue != nil {
		checks["queue"] = c.Queue.HealthCheck
	}
	return checks
}
