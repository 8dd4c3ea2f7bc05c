package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/deferscky/stringeditor/internal/common"
	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/deferscky/stringeditor/internal/server/metrics"
	"github.com/deferscky/stringeditor/internal/server/services"
	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

// bearerAuth resolves "Authorization: Bearer <token>" to a user id stored
// under userIDKey. Every failure gets the same 401.
func bearerAuth(accounts *services.AccountService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(common.AuthorizationHeader))
			if !ok {
				return unauthorized(c)
			}

			userID, err := accounts.Authenticate(token)
			if err != nil {
				return unauthorized(c)
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func currentUser(c echo.Context) int64 {
	id, _ := c.Get(userIDKey).(int64)
	return id
}

// accessLog logs one line per request and feeds the request metrics. Bodies
// are never logged.
func accessLog(logger logging.Logger, mx *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			elapsed := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			mx.ObserveRequest(req.Method, route, status, elapsed)

			args := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"latency", elapsed.String(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			}
			if status >= http.StatusInternalServerError {
				logger.Warn(req.Context(), "request failed", args...)
			} else {
				logger.Info(req.Context(), "request", args...)
			}

			return nil
		}
	}
}
