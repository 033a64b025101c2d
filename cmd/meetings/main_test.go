package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meeting-rooms/internal/config"
	"github.com/example/meeting-rooms/internal/persistence/sqlite"
)

var fixedNow = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Environment: "test",
		LogLevel:    "error",
		HTTPPort:    8080,
		DisplayZone: "Asia/Tokyo",
		Database: config.DatabaseConfig{
			Driver:    config.DriverSQLite,
			SQLiteDSN: "file:" + filepath.Join(dir, "meetings.db"),
		},
		Auth: config.AuthConfig{
			SessionTTL: 24 * time.Hour,
			JWTSecret:  "test-secret",
			JWTTTL:     time.Hour,
		},
		Media:  config.MediaConfig{Root: filepath.Join(dir, "media"), MaxUploadBytes: 1 << 20},
		Notify: config.NotifyConfig{Provider: config.NotifyNoop},
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := buildApp(context.Background(), testConfig(t), func() time.Time { return fixedNow }, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestBookingWorkflowEndToEnd(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := createAdmin(ctx, a.store.Users, adminOptions{username: "root", email: "root@example.com", password: "s3cret-pass"}, func() time.Time { return fixedNow })
	require.NoError(t, err)

	rec := call(t, a.handler, http.MethodPost, "/accounts/login", "", map[string]string{"username": "root", "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	adminToken := rec.Header().Get("X-Session-Token")
	require.NotEmpty(t, adminToken)

	rec = call(t, a.handler, http.MethodPost, "/admin/rooms", adminToken, map[string]any{"name": "Atrium", "location": "Floor 2", "capacity": 8})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	roomID := fmt.Sprint(int64(decodeBody(t, rec)["id"].(float64)))

	rec = call(t, a.handler, http.MethodPost, "/signup", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password1": "correct-horse", "password2": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alice := rec.Header().Get("X-Session-Token")
	require.NotEmpty(t, alice)

	rec = call(t, a.handler, http.MethodPost, "/admin/rooms", alice, map[string]any{"name": "Annex"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	booking := func(title, start, end string) map[string]string {
		return map[string]string{"title": title, "room": roomID, "start_time": start, "end_time": end}
	}

	rec = call(t, a.handler, http.MethodPost, "/create", alice, booking("Standup", "2024-06-10T10:00", "2024-06-10T11:00"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, "2024-06-10T10:00:00+09:00", created["start_time"])
	assert.Equal(t, "upcoming", created["status"])

	rec = call(t, a.handler, http.MethodPost, "/create", alice, booking("Clash", "2024-06-10T10:30", "2024-06-10T11:30"))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "BOOKING_CONFLICT", decodeBody(t, rec)["error_code"])

	rec = call(t, a.handler, http.MethodPost, "/create", alice, booking("Retro", "2024-06-10T11:00", "2024-06-10T12:00"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, a.handler, http.MethodGet, "/meetings", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["count"])

	rec = call(t, a.handler, http.MethodGet, "/meetings", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decodeBody(t, rec)["count"])

	rec = call(t, a.handler, http.MethodGet, "/", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["upcoming"])

	t.Run("machine api", func(t *testing.T) {
		rec := call(t, a.handler, http.MethodGet, "/api/meetings", alice, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "session tokens are not API tokens")

		rec = call(t, a.handler, http.MethodPost, "/api/token", "", map[string]string{"username": "root", "password": "s3cret-pass"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		access := decodeBody(t, rec)["access"].(string)

		rec = call(t, a.handler, http.MethodGet, "/api/meetings", access, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 2, decodeBody(t, rec)["count"])

		rec = call(t, a.handler, http.MethodGet, "/api/meetingrooms", access, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	rec = call(t, a.handler, http.MethodPost, "/accounts/logout", alice, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, a.handler, http.MethodGet, "/meetings", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConcurrentCreatesOnSQLite(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := createAdmin(ctx, a.store.Users, adminOptions{username: "root", password: "s3cret-pass"}, func() time.Time { return fixedNow })
	require.NoError(t, err)
	rec := call(t, a.handler, http.MethodPost, "/accounts/login", "", map[string]string{"username": "root", "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token := rec.Header().Get("X-Session-Token")

	rec = call(t, a.handler, http.MethodPost, "/admin/rooms", token, map[string]any{"name": "Atrium"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	roomID := fmt.Sprint(int64(decodeBody(t, rec)["id"].(float64)))

	const workers = 10
	bodies := make([][]byte, workers)
	for i := range bodies {
		raw, err := json.Marshal(map[string]string{
			"title": fmt.Sprintf("race %d", i), "room": roomID,
			"start_time": "2024-06-10T10:00", "end_time": "2024-06-10T11:00",
		})
		require.NoError(t, err)
		bodies[i] = raw
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for _, body := range bodies {
		wg.Add(1)
		go func(body []byte) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/create", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			a.handler.ServeHTTP(rec, req)
			mu.Lock()
			codes[rec.Code]++
			mu.Unlock()
		}(body)
	}
	wg.Wait()

	assert.Equal(t, map[int]int{http.StatusCreated: 1, http.StatusConflict: workers - 1}, codes)

	rec = call(t, a.handler, http.MethodGet, "/meetings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decodeBody(t, rec)["count"])
}

func TestCreateAdminRejectsDuplicates(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	opts := adminOptions{username: "root", password: "pw"}

	user, err := createAdmin(ctx, a.store.Users, opts, time.Now)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	_, err = createAdmin(ctx, a.store.Users, opts, time.Now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestParseAdminOptions(t *testing.T) {
	t.Parallel()

	opts, err := parseAdminOptions([]string{"-username", " root ", "-password", "pw"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "root", opts.username)

	_, err = parseAdminOptions([]string{"-username", "root"}, io.Discard)
	assert.Error(t, err)

	_, err = parseAdminOptions([]string{"-unknown"}, io.Discard)
	assert.Error(t, err)
}

func TestRunCreateAdmin(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "meetings.db")
	t.Setenv("GO_ENV", "production")
	t.Setenv("MEETINGS_JWT_SECRET", "secret")
	t.Setenv("MEETINGS_SQLITE_DSN", dsn)
	t.Setenv("MEETINGS_DB_DRIVER", "sqlite")

	var out bytes.Buffer
	err := run(context.Background(), []string{"createadmin", "-username", "ops", "-password", "pw"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "administrator created")

	storage, err := sqlite.Open(dsn, nil, nil)
	require.NoError(t, err)
	defer storage.Close()

	user, err := storage.Users.GetUserByUsername(context.Background(), "ops")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
}

func TestBuildAppRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"
	_, err := buildApp(context.Background(), cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
