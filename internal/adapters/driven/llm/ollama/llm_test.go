package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		require.NotNil(t, req.Options)
		assert.Equal(t, 200, req.Options.NumPredict)

		json.NewEncoder(w).Encode(generateResponse{Response: "Employees must clock in by 9am.", Done: true})
	}))
	defer srv.Close()

	s := NewLLMService(Config{BaseURL: srv.URL})
	out, err := s.Generate(context.Background(), "prompt", driven.GenerateOptions{MaxTokens: 200})
	require.NoError(t, err)
	assert.Equal(t, "Employees must clock in by 9am.", out)
	assert.Equal(t, DefaultModel, s.ModelName())
}

func TestGenerate_NoOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.NotContains(t, raw, "options")
		json.NewEncoder(w).Encode(generateResponse{Response: "ok"})
	}))
	defer srv.Close()

	_, err := NewLLMService(Config{BaseURL: srv.URL}).Generate(context.Background(), "p", driven.GenerateOptions{})
	require.NoError(t, err)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"model \"llama3\" not found"}`, http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewLLMService(Config{BaseURL: srv.URL}).Generate(context.Background(), "p", driven.GenerateOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("error body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(generateResponse{Error: "out of memory"})
		}))
		defer srv.Close()

		_, err := NewLLMService(Config{BaseURL: srv.URL}).Generate(context.Background(), "p", driven.GenerateOptions{})
		assert.ErrorContains(t, err, "out of memory")
	})

	t.Run("context deadline", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := NewLLMService(Config{BaseURL: srv.URL}).Generate(ctx, "p", driven.GenerateOptions{})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewLLMService(Config{BaseURL: srv.URL}).Ping(context.Background()))
}
