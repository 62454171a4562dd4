package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything readiness can probe (the pgx pool, the redis client).
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	redis Pinger
}

func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports not-ready while the database is unreachable. Redis is
// optional infrastructure, so its state is reported but never fails the check.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	status := http.StatusOK

	if h.db != nil {
		if err := h.db.Ping(cctx); err != nil {
			checks["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	if h.redis != nil {
		checks["redis"] = "ok"

		if err := h.redis.Ping(cctx); err != nil {
			checks["redis"] = "unreachable"
		}
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}

	ctx.JSON(status, gin.H{"status": state, "checks": checks})
}
