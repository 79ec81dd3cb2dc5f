package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// probePaths are polled by orchestrators and scrapers. Logging every probe
// would drown the request log, so successes are logged once per healthy
// streak and failures always.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
	"/metrics": {},
}

// RequestLog returns Echo middleware that logs requests with structured
// fields. It generates a request ID if none is provided and propagates it
// through the response header and echo context. Probe paths log a success
// only when it starts a healthy streak; probe failures are logged at WARN
// every time.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var mu sync.Mutex
	healthyLogged := make(map[string]bool)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status
			fields := []any{
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}

			if _, probe := probePaths[path]; probe {
				healthy := status >= 200 && status < 300

				mu.Lock()
				suppress := healthy && healthyLogged[path]
				healthyLogged[path] = healthy
				mu.Unlock()

				switch {
				case suppress:
				case healthy:
					log.Info("request", fields...)
				default:
					log.Warn("request", fields...)
				}
				return err
			}

			log.Info("request", fields...)
			return err
		}
	}
}
