package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

type HealthController struct {
	db Probe
}

func NewHealthController(db Probe) *HealthController {
	return &HealthController{db: db}
}

// Show answers GET /health. The process being up is enough for 200; the
// database field reports connectivity separately.
func (c *HealthController) Show(x *ctx.Context) {
	database := "connected"
	if c.db != nil {
		pctx, cancel := context.WithTimeout(x.Context(), 2*time.Second)
		defer cancel()
		if err := c.db(pctx); err != nil {
			database = "unreachable"
		}
	}
	x.JSON(http.StatusOK, map[string]string{
		"status":   "OK",
		"message":  "Server is running",
		"database": database,
	})
}
