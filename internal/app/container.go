// Package app wires the allocation services to their infrastructure.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/allot/internal/allocation/application/commands"
	"github.com/felixgeelhaar/allot/internal/allocation/application/queries"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/allocation/infrastructure/fixtures"
	"github.com/felixgeelhaar/allot/internal/allocation/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/allot/internal/shared/application"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/allot/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/allot/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/allot/pkg/config"
	"github.com/felixgeelhaar/allot/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	DB          database.Connection
	RedisClient *redis.Client
	Clock       domain.Clock
	UnitOfWork  sharedApplication.UnitOfWork
	Locker      sharedApplication.Locker
	Health      *observability.HealthRegistry

	// Repositories
	SkillRepo      domain.SkillRepository
	ResourceRepo   domain.ResourceRepository
	ProjectRepo    domain.ProjectRepository
	TaskRepo       domain.TaskRepository
	AssignmentRepo domain.AssignmentRepository
	OutboxRepo     outbox.Repository

	// Command handlers
	BatchHandler            *commands.BatchHandler
	UpdateAssignmentHandler *commands.UpdateAssignmentHandler
	CompleteTaskHandler     *commands.CompleteTaskHandler
	DeleteHandler           *commands.DeleteHandler

	// Query handlers
	ResourceScheduleHandler *queries.ResourceScheduleHandler
	TaskAssignmentHandler   *queries.TaskAssignmentHandler

	FixtureLoader *fixtures.Loader
}

// NewContainer connects to storage and builds every handler. SQLite
// databases are migrated on open.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config: cfg,
		Logger: logger,
		Health: observability.NewHealthRegistry(),
	}

	clock, err := newClock(cfg.Today)
	if err != nil {
		return nil, err
	}
	c.Clock = clock

	sqlitePath := cfg.SQLitePath
	if sqlitePath == "" {
		sqlitePath = database.DefaultSQLitePath()
	}
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: sqlitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = conn
	logger.Info("connected to database", "driver", conn.Driver())
	c.Health.Register("database", observability.PingChecker("database", true, conn.Ping))

	if conn.Driver() == database.DriverSQLite {
		applied, err := migrations.Run(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", "files", applied)
		}
	}

	c.Locker, err = c.newLocker(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}

	c.SkillRepo = persistence.NewSkillRepository(conn)
	c.ResourceRepo = persistence.NewResourceRepository(conn)
	c.ProjectRepo = persistence.NewProjectRepository(conn)
	c.TaskRepo = persistence.NewTaskRepository(conn)
	c.AssignmentRepo = persistence.NewAssignmentRepository(conn)
	c.OutboxRepo = outbox.NewSQLRepository(conn)
	c.UnitOfWork = database.NewUnitOfWork(conn)

	c.BatchHandler = commands.NewBatchHandler(
		c.ResourceRepo, c.ProjectRepo, c.TaskRepo, c.AssignmentRepo,
		c.OutboxRepo, c.UnitOfWork, c.Locker, c.Clock, logger,
	)
	c.UpdateAssignmentHandler = commands.NewUpdateAssignmentHandler(c.ResourceRepo, c.TaskRepo, c.AssignmentRepo, c.OutboxRepo, c.UnitOfWork, c.Clock)
	c.CompleteTaskHandler = commands.NewCompleteTaskHandler(c.TaskRepo, c.AssignmentRepo, c.OutboxRepo, c.UnitOfWork, c.Clock)
	c.DeleteHandler = commands.NewDeleteHandler(c.ProjectRepo, c.TaskRepo, c.AssignmentRepo, c.OutboxRepo, c.UnitOfWork)

	c.ResourceScheduleHandler = queries.NewResourceScheduleHandler(c.ResourceRepo, c.AssignmentRepo)
	c.TaskAssignmentHandler = queries.NewTaskAssignmentHandler(c.AssignmentRepo)

	c.FixtureLoader = fixtures.NewLoader(c.SkillRepo, c.ResourceRepo, c.ProjectRepo, c.TaskRepo, c.AssignmentRepo, c.UnitOfWork, logger)

	return c, nil
}

// newLocker uses Redis when configured. Outside production an unreachable
// Redis falls back to the in-process locker.
func (c *Container) newLocker(ctx context.Context) (sharedApplication.Locker, error) {
	cfg := c.Config
	if cfg.RedisURL == "" {
		return lock.NewLocalLocker(), nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if cfg.IsProduction() {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using in-process batch lock", "error", err)
		return lock.NewLocalLocker(), nil
	}

	c.RedisClient = client
	c.Logger.Info("connected to Redis")
	c.Health.Register("redis", observability.PingChecker("redis", false, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	lockCfg := lock.DefaultRedisConfig()
	if cfg.LockTTL > 0 {
		lockCfg.TTL = cfg.LockTTL
	}
	if cfg.LockRetryGap > 0 {
		lockCfg.RetryBackoff = cfg.LockRetryGap
	}
	if cfg.LockMaxWait > 0 {
		lockCfg.MaxWait = cfg.LockMaxWait
	}
	return lock.NewRedisLocker(client, lockCfg, c.Logger), nil
}

// NewPublisher returns the broker publisher behind a circuit breaker, or a
// no-op publisher when RabbitMQ is not configured.
func (c *Container) NewPublisher() (eventbus.Publisher, error) {
	if c.Config.RabbitMQURL == "" {
		c.Logger.Warn("RABBITMQ_URL not set, events are logged instead of published")
		return eventbus.NewNoopPublisher(c.Logger), nil
	}

	rabbit, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	breakerCfg := eventbus.DefaultBreakerConfig()
	if c.Config.BreakerMaxFailures > 0 {
		breakerCfg.FailureThreshold = c.Config.BreakerMaxFailures
	}
	if c.Config.BreakerOpenTimeout > 0 {
		breakerCfg.Timeout = c.Config.BreakerOpenTimeout
	}
	breaker := eventbus.NewBreakerPublisher(rabbit, breakerCfg, c.Logger)
	c.Health.Register("broker", func(ctx context.Context) observability.HealthCheckResult {
		if state := breaker.State(); state != "closed" {
			return observability.HealthCheckResult{
				Status:  observability.HealthStatusDegraded,
				Message: "circuit breaker " + state,
			}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})
	return breaker, nil
}

// NewOutboxProcessor builds the relay from the outbox to publisher.
func (c *Container) NewOutboxProcessor(publisher eventbus.Publisher) *outbox.Processor {
	cfg := outbox.DefaultProcessorConfig()
	if c.Config.OutboxPollInterval > 0 {
		cfg.PollInterval = c.Config.OutboxPollInterval
	}
	if c.Config.OutboxBatchSize > 0 {
		cfg.BatchSize = c.Config.OutboxBatchSize
	}
	if c.Config.OutboxMaxRetries > 0 {
		cfg.MaxRetries = c.Config.OutboxMaxRetries
	}
	if retention := c.Config.OutboxRetention(); retention > 0 {
		cfg.Retention = retention
	}
	return outbox.NewProcessor(c.OutboxRepo, publisher, cfg, c.Logger)
}

// Close releases all connections.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("failed to close Redis client", "error", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("failed to close database", "error", err)
		}
	}
}

func newClock(today string) (domain.Clock, error) {
	if today == "" {
		return domain.SystemClock{Location: time.Local}, nil
	}
	date, err := domain.ParseDate(today)
	if err != nil {
		return nil, fmt.Errorf("ALLOT_TODAY: %w", err)
	}
	return domain.FixedClock{Date: date}, nil
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config, service string) *slog.Logger {
	logCfg := observability.DefaultLogConfig()
	logCfg.ServiceName = service
	if cfg.LogLevel != "" {
		logCfg.Level = observability.LogLevel(cfg.LogLevel)
	}
	if cfg.LogFormat != "" {
		logCfg.Format = observability.LogFormat(cfg.LogFormat)
	}
	logCfg.File = cfg.LogFile
	return observability.NewLogger(logCfg)
}
