package foundry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barysiuk/agentsync/internal/core"
	"github.com/barysiuk/agentsync/internal/foundry/foundrytest"
)

func testClient(t *testing.T) (*Client, *foundrytest.Server) {
	t.Helper()
	srv := foundrytest.NewServer()
	t.Cleanup(srv.Close)
	client, err := New(Options{Endpoint: srv.URL()})
	require.NoError(t, err)
	return client, srv
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	srv := foundrytest.NewServer()
	t.Cleanup(srv.Close)
	client, err := New(Options{Endpoint: srv.URL() + "//"})
	require.NoError(t, err)

	_, err = client.ListAgents(context.Background())
	require.NoError(t, err)
}

func TestCreateGetUpdateDelete(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	created, err := client.CreateAgent(ctx, map[string]any{
		"name":  "helper",
		"model": "test-model",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "helper", created.Name)

	got, err := client.GetAgent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "test-model", got.Fields["model"])

	updated, err := client.UpdateAgent(ctx, created.ID, map[string]any{
		"name":  "helper",
		"model": "newer-model",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "newer-model", updated.Fields["model"])

	require.NoError(t, client.DeleteAgent(ctx, created.ID))
	_, err = client.GetAgent(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListAgentsPaging(t *testing.T) {
	client, srv := testClient(t)

	// More agents than one page holds.
	const n = 230
	for i := 0; i < n; i++ {
		srv.Seed(map[string]any{"name": fmt.Sprintf("agent-%03d", i)})
	}

	agents, err := client.ListAgents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, n)

	// Creation order survives paging.
	for i, a := range agents {
		assert.Equal(t, fmt.Sprintf("agent-%03d", i), a.Name)
	}
}

func TestNotFoundMapsToErrNotFound(t *testing.T) {
	client, _ := testClient(t)
	_, err := client.GetAgent(context.Background(), "agent_missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.False(t, core.IsTransient(err))
}

func TestAPIErrorClassification(t *testing.T) {
	client, srv := testClient(t)

	srv.FailNext(1)
	_, err := client.ListAgents(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "service temporarily unavailable", apiErr.Message)
	assert.True(t, core.IsTransient(err))

	// Client errors are permanent.
	_, err = client.CreateAgent(context.Background(), map[string]any{"model": "x"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.False(t, core.IsTransient(err))
}

func TestTransportErrorIsTransient(t *testing.T) {
	// A server that closes immediately produces a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client, err := New(Options{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.ListAgents(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsTransient(err))
}

func TestContextCancellation(t *testing.T) {
	client, _ := testClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListAgents(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, core.IsTransient(err))
}

func TestErrorMessageFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("plain text failure"))
	}))
	t.Cleanup(srv.Close)

	client, err := New(Options{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.ListAgents(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "plain text failure", apiErr.Message)
}

func TestBearerAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[],"has_more":false}`))
	}))
	t.Cleanup(srv.Close)

	client, err := New(Options{Endpoint: srv.URL, Token: "sekrit"})
	require.NoError(t, err)

	_, err = client.ListAgents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer sekrit", gotAuth)
}
