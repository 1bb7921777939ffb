package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test", server.URL+"/", time.Second)
}

func TestClient_Do(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	}).WithHeader("X-Key", "secret")

	var out map[string]string
	err := c.Do(context.Background(), "echo", http.MethodPost, "/v1/echo", map[string]string{"say": "hi"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestClient_DoWithoutBodies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"ignored":true}`))
	})

	assert.NoError(t, c.Do(context.Background(), "ping", http.MethodGet, "/", nil, nil))
}

func TestClient_StatusErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	})

	err := c.Do(context.Background(), "chat", http.MethodPost, "/", struct{}{}, nil)
	assert.ErrorIs(t, err, domain.ErrProviderError)
	assert.Contains(t, err.Error(), `test chat: status 429: {"error":"slow down"}`)

	c.WithErrorBody(func(body []byte) string { return "described" })
	err = c.Do(context.Background(), "chat", http.MethodPost, "/", struct{}{}, nil)
	assert.Contains(t, err.Error(), "status 429: described")
}

func TestClient_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{`))
	})

	var out struct{}
	err := c.Do(context.Background(), "chat", http.MethodGet, "/", nil, &out)
	assert.ErrorIs(t, err, domain.ErrProviderError)
}

func TestClient_Timeout(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Do(ctx, "chat", http.MethodGet, "/", nil, nil)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

type fakeGenerator struct {
	prompt string
	opts   driven.GenerateOptions
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	g.prompt = prompt
	g.opts = opts
	return "  Short summary.\n", nil
}

func TestSummarise(t *testing.T) {
	gen := &fakeGenerator{}

	out, err := Summarise(context.Background(), gen, nil, "board minutes", 400)

	require.NoError(t, err)
	assert.Equal(t, "Short summary.", out)
	assert.Contains(t, gen.prompt, "400 characters")
	assert.Contains(t, gen.prompt, "board minutes")
	assert.Equal(t, 100, gen.opts.MaxTokens)
}
