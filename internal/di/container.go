package di

import (
	"github.com/prohmpiriya/seat-reservation/internal/handler"
	"github.com/prohmpiriya/seat-reservation/internal/metrics"
	"github.com/prohmpiriya/seat-reservation/internal/repository"
	"github.com/prohmpiriya/seat-reservation/internal/service"
	"github.com/prohmpiriya/seat-reservation/pkg/database"
	"github.com/prohmpiriya/seat-reservation/pkg/logger"
	"github.com/prohmpiriya/seat-reservation/pkg/redis"
)

// Container holds all dependencies for the reservation service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	ReservationRepo repository.ReservationRepository
	OutboxRepo      repository.OutboxRepository

	// Services
	Validator        service.ExistenceValidator
	AllocationEngine service.AllocationEngine
	QueryService     service.ReservationQueryService

	// Handlers
	HealthHandler      *handler.HealthHandler
	ReservationHandler *handler.ReservationHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB *database.PostgresDB
	// Redis is nil when idempotency keys are disabled
	Redis            *redis.Client
	ReservationTopic string
	Validator        service.ValidatorConfig
	Metrics          metrics.Recorder
	Logger           *logger.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	c := &Container{
		DB:    cfg.DB,
		Redis: cfg.Redis,
	}

	outboxRepo := repository.NewPostgresOutboxRepository(c.DB)
	c.OutboxRepo = outboxRepo
	c.ReservationRepo = repository.NewPostgresReservationRepository(c.DB, outboxRepo, cfg.ReservationTopic)

	// Initialize services
	c.Validator = service.NewHTTPExistenceValidator(cfg.Validator, rec, log)
	c.AllocationEngine = service.NewAllocationEngine(c.Validator, c.ReservationRepo, rec, log)
	c.QueryService = service.NewReservationQueryService(c.ReservationRepo, rec, log)

	// Initialize handlers
	var redisCheck handler.HealthChecker
	if c.Redis != nil {
		redisCheck = c.Redis
	}
	c.HealthHandler = handler.NewHealthHandler(c.DB, redisCheck, c.DB, c.OutboxRepo)
	c.ReservationHandler = handler.NewReservationHandler(c.AllocationEngine, c.QueryService, log)

	return c
}
