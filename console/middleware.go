package console

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
)

// AuthMiddleware accepts the console token as a Bearer token or as the
// password of Basic auth. The user name is ignored.
func AuthMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				authFailuresTotal.WithLabelValues("missing").Inc()
				return unauthorized(c, "missing authorization header")
			}

			scheme, cred, ok := strings.Cut(auth, " ")
			if !ok {
				authFailuresTotal.WithLabelValues("malformed").Inc()
				return unauthorized(c, "invalid auth token")
			}

			var provided string
			switch scheme {
			case "Bearer":
				provided = cred
			case "Basic":
				decoded, err := base64.StdEncoding.DecodeString(cred)
				if err != nil {
					authFailuresTotal.WithLabelValues("malformed").Inc()
					return unauthorized(c, "invalid auth token")
				}
				_, pass, ok := strings.Cut(string(decoded), ":")
				if !ok {
					authFailuresTotal.WithLabelValues("malformed").Inc()
					return unauthorized(c, "invalid auth token")
				}
				provided = pass
			default:
				authFailuresTotal.WithLabelValues("malformed").Inc()
				return unauthorized(c, "invalid auth token")
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				authFailuresTotal.WithLabelValues("invalid").Inc()
				return unauthorized(c, "invalid auth token")
			}
			return next(c)
		}
	}
}

func unauthorized(c *echo.Context, msg string) error {
	c.Response().Header().Set("WWW-Authenticate", `Basic realm="craftui"`)
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error: msg,
		Code:  "UNAUTHORIZED",
	})
}
