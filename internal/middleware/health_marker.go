package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"metallix-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthMarker records request stats in Redis (skips /health* and favicon).
// Failed (5xx) requests are also pushed onto a bounded error log.
// A nil client disables it.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if rdb == nil || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		ctx := context.Background()
		lastReq, _ := json.Marshal(map[string]interface{}{
			"time":   start,
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		})
		pipe := rdb.Pipeline()
		pipe.Set(ctx, constants.KeyLastReq, lastReq, 0)
		pipe.Incr(ctx, constants.KeyReqTotal)
		_, _ = pipe.Exec(ctx)

		err := c.Next()
		if err != nil {
			// Let the error handler set the final status before it is counted.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				return herr
			}
			err = nil
		}

		status := c.Response().StatusCode()
		pipe = rdb.Pipeline()
		pipe.Incr(ctx, constants.KeyResCount)
		pipe.IncrByFloat(ctx, constants.KeyResTime, float64(time.Since(start).Milliseconds()))
		if status >= fiber.StatusInternalServerError {
			entry, _ := json.Marshal(map[string]interface{}{
				"time":     time.Now(),
				"method":   c.Method(),
				"path":     c.OriginalURL(),
				"status":   status,
				"trace_id": GetTraceID(c),
			})
			pipe.Incr(ctx, constants.KeyReqErrors)
			pipe.LPush(ctx, constants.KeyErrorLog, entry)
			pipe.LTrim(ctx, constants.KeyErrorLog, 0, constants.ErrorLogSize-1)
		}
		_, _ = pipe.Exec(ctx)
		return err
	}
}
