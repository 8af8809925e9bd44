package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error { return nil }

func TestRun(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("engine", true, up)
	report := c.Run(context.Background())
	assert.Equal(t, StatusUp, report.Status)

	c.Register("redis", false, func(context.Context) error { return errors.New("connection refused") })
	report = c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "connection refused", report.Components["redis"].Message)

	c.Register("engine", true, func(context.Context) error { return errors.New("closed") })
	report = c.Run(context.Background())
	assert.Equal(t, StatusDown, report.Status)
}

func TestRunTimesOut(t *testing.T) {
	c := NewChecker(10 * time.Millisecond)
	c.Register("slow", true, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	report := c.Run(context.Background())
	assert.Equal(t, StatusDown, report.Status)
}

func TestHandlers(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("redis", false, func(context.Context) error { return errors.New("unreachable") })

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDegraded, report.Status)

	c.Register("engine", true, func(context.Context) error { return errors.New("closed") })
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	c.LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
