package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/hoops-valuation/internal/compensation"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	index   *compensation.Index
	checks  map[string]Pinger
	started time.Time
}

// NewHealthHandler reports on the compensation index and each named
// dependency. Nil dependencies are skipped.
func NewHealthHandler(index *compensation.Index, checks map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{
		index:   index,
		checks:  active,
		started: time.Now(),
	}
}

// GetHealth always returns 200 while the server is running; a failing
// dependency marks the service degraded.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	components := gin.H{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			components[name] = err.Error()
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}
	if h.index.Loaded() {
		components["compensation_index"] = "loaded"
	} else {
		components["compensation_index"] = "not_loaded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"service":    "hoops-valuation",
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"components": components,
	})
}
