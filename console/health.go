package console

import (
	"net/http"
	"time"

	"github.com/erikmagkekse/craftui/controller"

	"github.com/labstack/echo/v5"
)

// Healthz reports the console itself as ok; device reachability is in
// "connected".
func Healthz(version, commit, device string, ctrl *controller.Controller) echo.HandlerFunc {
	startTime := time.Now()

	return func(c *echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:        "ok",
			Version:       version,
			Commit:        commit,
			UptimeSeconds: int(time.Since(startTime).Seconds()),
			Device:        device,
			Connected:     ctrl.Status().Connected,
		})
	}
}
