package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/pkg/db"
)

// HealthHandler reports the state of the storage backends.
type HealthHandler struct {
	checker *db.HealthChecker
	version string
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(checker *db.HealthChecker, version string) *HealthHandler {
	return &HealthHandler{checker: checker, version: version}
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status       string                      `json:"status"` // healthy, unhealthy
	Version      string                      `json:"version"`
	Timestamp    int64                       `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
}

// DependencyStatus is the state of one backend.
type DependencyStatus struct {
	Status  string `json:"status"` // up, down
	Latency int64  `json:"latency"`
	Error   string `json:"error,omitempty"`
}

// Check pings every registered backend; 503 when any is down.
func (h *HealthHandler) Check(c *gin.Context) {
	healthy, results := h.checker.Check(c.Request.Context())

	resp := HealthResponse{
		Status:       "healthy",
		Version:      h.version,
		Timestamp:    time.Now().Unix(),
		Dependencies: make(map[string]DependencyStatus, len(results)),
	}
	for _, r := range results {
		dep := DependencyStatus{Status: "up", Latency: r.ResponseTime.Milliseconds()}
		if !r.Healthy {
			dep.Status = "down"
			dep.Error = r.Error
		}
		resp.Dependencies[r.Name] = dep
	}

	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
