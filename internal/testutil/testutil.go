// Package testutil opens throwaway stores for package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"metallix-backend/internal/auth"
	"metallix-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory SQLite DB. The pool is pinned to one
// connection so every query (and every goroutine) sees the same database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	return db
}

// OpenRedis starts a miniredis server and returns a client for it.
func OpenRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

// SeedMetal inserts an active metal with the given rate.
func SeedMetal(t *testing.T, db *gorm.DB, name, symbol string, rate int64) domain.Metal {
	t.Helper()
	m := domain.Metal{
		Name:        name,
		Symbol:      symbol,
		CurrentRate: decimal.NewFromInt(rate),
		Unit:        "kg",
		IsActive:    true,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

// Deactivate flips a metal to inactive.
func Deactivate(t *testing.T, db *gorm.DB, metalID uuid.UUID) {
	t.Helper()
	require.NoError(t, db.Model(&domain.Metal{}).Where("id = ?", metalID).Update("is_active", false).Error)
}

// SeedUser inserts an active user with the given role.
func SeedUser(t *testing.T, db *gorm.DB, role string) domain.User {
	t.Helper()
	u := domain.User{
		Name:         "Test " + role,
		CNIC:         uuid.NewString()[:13],
		Phone:        "03000000000",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// Tick sleeps long enough for consecutive timestamps to differ.
func Tick() {
	time.Sleep(2 * time.Millisecond)
}

// AsCaller returns a Fiber middleware that authenticates every request as u,
// storing the caller under the same Locals key middleware.GetCaller reads.
func AsCaller(u domain.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := auth.Caller{UserID: u.ID, Role: u.Role}
		c.Locals("caller", caller)
		c.SetUserContext(auth.WithCaller(c.UserContext(), caller))
		return c.Next()
	}
}

// JSONRequest builds a request with a JSON body (nil for none).
func JSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Envelope is the decoded response body.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Do runs req against app and decodes the envelope.
func Do(t *testing.T, app *fiber.App, req *http.Request) (int, Envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}
