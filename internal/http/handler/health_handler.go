package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	infraPostgres "github.com/sifan077/PortalLink/internal/infra/postgres"
)

const (
	checkOK            = "ok"
	checkDown          = "down"
	checkNotConfigured = "not_configured"
)

// HealthDeps lists the backends reported by /health. Nil means not configured.
type HealthDeps struct {
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	NATS     *nats.Conn
}

// HealthHandler reports liveness and backend reachability.
type HealthHandler struct {
	deps HealthDeps
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(deps HealthDeps) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Register wires health routes onto the provided router.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
}

// Health always answers 200 while the process serves; "degraded" means a
// configured backend did not respond.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()
	checks := fiber.Map{}
	status := "ok"

	switch {
	case h.deps.Postgres == nil:
		checks["postgres"] = checkNotConfigured
	case infraPostgres.Ping(ctx, h.deps.Postgres) != nil:
		checks["postgres"] = checkDown
		status = "degraded"
	default:
		checks["postgres"] = checkOK
	}

	switch {
	case h.deps.Redis == nil:
		checks["redis"] = checkNotConfigured
	case h.deps.Redis.Ping(ctx).Err() != nil:
		checks["redis"] = checkDown
		status = "degraded"
	default:
		checks["redis"] = checkOK
	}

	switch {
	case h.deps.NATS == nil:
		checks["nats"] = checkNotConfigured
	case !h.deps.NATS.IsConnected():
		checks["nats"] = checkDown
		status = "degraded"
	default:
		checks["nats"] = checkOK
	}

	return c.JSON(fiber.Map{
		"service": "PortalLink",
		"status":  status,
		"checks":  checks,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
