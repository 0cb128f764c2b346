package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"staysync-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHealthKey = "health-admin-key"

func setupHealthApp(rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	h := &Handlers{Rdb: rdb, HealthAdminKey: testHealthKey}
	app.Get("/health/json", h.JSON)
	app.Get("/health/reset", h.Reset)
	return app
}

func TestResetWithoutKeyForbidden(t *testing.T) {
	app := setupHealthApp(nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/reset", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestResetWithoutRedisDoesNotPanic(t *testing.T) {
	app := setupHealthApp(nil)

	// Redis is optional; a valid key against a redis-less deployment must
	// answer with an error response, not crash the process.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/reset?key="+testHealthKey, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestResetClearsCounters(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := setupHealthApp(rdb)
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, middleware.KeyReqTotal, "42", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.KeyReqErrors, "7", 0).Err())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/reset?key="+testHealthKey, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	total, err := rdb.Get(ctx, middleware.KeyReqTotal).Result()
	assert.ErrorIs(t, err, redis.Nil)
	assert.Empty(t, total)
	// Start time is re-seeded so uptime restarts.
	assert.NoError(t, rdb.Get(ctx, middleware.KeyStartTime).Err())
}

func TestJSONWithoutRedis(t *testing.T) {
	app := setupHealthApp(nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "staysync-api", body["service"])
	assert.Equal(t, "issue", body["status"])
}
