package console

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// route label for requests that matched no route, so scans of random
// paths do not grow the series count
const unmatchedRoute = "unmatched"

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "craftui",
		Subsystem: "console",
		Name:      "http_requests_total",
		Help:      "Console requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "craftui",
		Subsystem: "console",
		Name:      "http_request_duration_seconds",
		Help:      "Console request latency. /submit and /refresh?wait include the device round trip.",
		Buckets:   []float64{.005, .025, .1, .25, .5, 1, 2, 5, 10},
	}, []string{"method", "route"})

	authFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "craftui",
		Subsystem: "console",
		Name:      "auth_failures_total",
		Help:      "Console requests rejected by token auth, by reason.",
	}, []string{"reason"})

	wsViewers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "craftui",
		Subsystem: "console",
		Name:      "ws_viewers",
		Help:      "Connected websocket viewers.",
	})

	wsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "craftui",
		Subsystem: "console",
		Name:      "ws_dropped_messages_total",
		Help:      "Websocket messages dropped because the broadcast queue was full.",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		authFailuresTotal,
		wsViewers,
		wsDroppedTotal,
	)
}

func MetricsHandler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c *echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			route := c.RouteInfo().Path
			if route == "" {
				route = unmatchedRoute
			}
			code := 0
			if resp, ok := c.Response().(*echo.Response); ok {
				code = resp.Status
			}
			// handler errors are written by echo after the middleware returns
			if err != nil && code < 400 {
				code = http.StatusInternalServerError
				if sc := echo.StatusCode(err); sc != 0 {
					code = sc
				}
			}

			method := c.Request().Method
			httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
			httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

			ev := log.Debug()
			if code >= http.StatusInternalServerError {
				ev = log.Warn()
			}
			ev.Str("method", method).
				Str("route", route).
				Int("code", code).
				Str("client", c.RealIP()).
				Dur("duration", elapsed).
				Msg("console request")

			return err
		}
	}
}
