package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the body served on the health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HealthCheckWithDeps builds a health handler that runs each dependency check
// on every request. Any failing check turns the response into a 503 with the
// failure detail alongside the passing checks.
func HealthCheckWithDeps(serviceName, version string, checks map[string]func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		overall := statusHealthy
		results := make(map[string]string, len(checks))

		for name, check := range checks {
			if err := check(); err != nil {
				results[name] = statusUnhealthy + ": " + err.Error()
				overall = statusUnhealthy
				continue
			}
			results[name] = statusHealthy
		}

		code := http.StatusOK
		if overall == statusUnhealthy {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, HealthResponse{
			Status:  overall,
			Service: serviceName,
			Version: version,
			Checks:  results,
		})
	}
}
