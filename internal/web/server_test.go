package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echo-labs/echo-service/internal/store"
	"github.com/echo-labs/echo-service/internal/testutil"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s := store.NewSQLiteStore()
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

// Routes stored in the database come back to life when the server starts,
// matching the original startup behavior of activating routes from the DB.
func TestServer_HydratesStoredRoutes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateEndpoint(ctx, store.Attributes{
		Verb:    "GET",
		Path:    "/persisted",
		Code:    200,
		Headers: map[string]string{"X-Origin": "db"},
		Body:    "still here",
	})
	require.NoError(t, err)

	server := NewServer(Config{
		Store:   s,
		Logger:  testutil.NewTestLogger(t),
		Host:    "127.0.0.1",
		Port:    0,
		Version: "test",
	})
	require.NoError(t, server.Hydrate(ctx))

	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/persisted")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "db", resp.Header.Get("X-Origin"))
}

func TestServer_HealthAndFallback(t *testing.T) {
	s := newTestStore(t)

	server := NewServer(Config{
		Store:   s,
		Logger:  testutil.NewTestLogger(t),
		Host:    "127.0.0.1",
		Port:    0,
		Version: "1.2.3",
	})
	require.NoError(t, server.Hydrate(context.Background()))

	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "1.2.3", body["version"])

	// Unregistered routes fall through to the table and 404 with the same
	// error envelope the management API uses.
	missing, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.Equal(t, "application/vnd.api+json", missing.Header.Get("Content-Type"))

	var errDoc struct {
		Errors []struct {
			Code   int    `json:"code"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(missing.Body).Decode(&errDoc))
	require.Len(t, errDoc.Errors, 1)
	assert.Equal(t, http.StatusNotFound, errDoc.Errors[0].Code)
}

func TestServer_ServeShutdown(t *testing.T) {
	s := newTestStore(t)

	server := NewServer(Config{
		Store:   s,
		Logger:  testutil.NewTestLogger(t),
		Host:    "127.0.0.1",
		Port:    0, // ephemeral
		Version: "test",
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve() after cancel returned error: %v", err)
	}
}
