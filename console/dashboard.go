package console

import (
	_ "embed"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"
)

//go:embed dashboard.html
var dashboardHTML string

// ServeDashboard serves the single page console. It follows websocket
// updates and falls back to polling /state every refreshMillis.
func ServeDashboard(device string, refreshMillis int64) echo.HandlerFunc {
	r := strings.NewReplacer(
		"{{DEVICE}}", html.EscapeString(device),
		"{{REFRESH}}", strconv.FormatInt(refreshMillis, 10),
	)
	page := r.Replace(dashboardHTML)
	return func(c *echo.Context) error {
		return c.HTML(http.StatusOK, page)
	}
}
