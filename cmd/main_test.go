package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renTrentoBack/internal/config"
	"renTrentoBack/internal/handlers"
	"renTrentoBack/internal/models"
)

func newTestApp(t *testing.T) *application {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.Secret = "test-secret"
	logger, _ := test.NewNullLogger()
	app, err := initializeApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	return app
}

func TestCheckToken(t *testing.T) {
	app := newTestApp(t)
	var seen models.Principal
	h := app.checkToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = handlers.PrincipalFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var failure models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failure))
	assert.Equal(t, models.AuthResponse{Success: false, Message: "No token provided."}, failure)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-access-token", "garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to authenticate token.")

	token, err := app.tokens.NewJWT(models.Principal{ID: "u1", Role: models.RoleUser}, time.Hour)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token="+token, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", seen.ID)
}

func TestRoutes(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/renTrentoAPI/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp, err = http.Get(srv.URL + "/nowhere")
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", body["error"])

	resp, err = http.Get(srv.URL + "/renTrentoAPI/rentals")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := app.tokens.NewJWT(models.Principal{ID: "u1", Role: models.RoleUser}, time.Hour)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/renTrentoAPI/categories", nil)
	req.Header.Set("x-access-token", token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRecoverPanic(t *testing.T) {
	app := newTestApp(t)
	h := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Something did not work"}`, rec.Body.String())
}

type countingJobs struct {
	finished atomic.Int32
	synced   atomic.Int32
}

func (c *countingJobs) FinishExpired(context.Context) (int, error) {
	c.finished.Add(1)
	return 0, nil
}

func (c *countingJobs) SyncProductStatuses(context.Context) error {
	c.synced.Add(1)
	return nil
}

func TestRentalFinisherRunsUntilCancelled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	jobs := &countingJobs{}
	ctx, cancel := context.WithCancel(context.Background())
	done := startRentalFinisher(ctx, jobs, 10*time.Millisecond, logger)

	assert.Eventually(t, func() bool { return jobs.finished.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("finisher did not stop")
	}
	assert.GreaterOrEqual(t, jobs.synced.Load(), int32(2))
}
