package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the payload returned by the health endpoint
type Response struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Handler reports overall service health from the named dependency checkers.
// Any failing checker turns the response into a 503.
func Handler(serviceName, version string, checks map[string]Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		results := make(map[string]string, len(checks))

		for name, check := range checks {
			if err := check(); err != nil {
				results[name] = "unhealthy: " + err.Error()
				status = "unhealthy"
			} else {
				results[name] = "healthy"
			}
		}

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, Response{
			Status:  status,
			Service: serviceName,
			Version: version,
			Checks:  results,
		})
	}
}
