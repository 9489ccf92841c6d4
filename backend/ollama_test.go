package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajack/xlcomplete"
)

func TestOllamaClient_Complete(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(generateResponse{Response: "=SUM(A1:A10)\nextra ignored", Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(WithBaseURL(srv.URL), WithModel("test-model"))
	out, err := c.CompleteTabCompletion(context.Background(), xlcomplete.CompletionRequest{
		Input:  "=SUM(",
		Cursor: 5,
		CellA1: "B2",
	})
	require.NoError(t, err)
	assert.Equal(t, "=SUM(A1:A10)", out) // trimmed to the first line

	assert.Equal(t, "test-model", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.Contains(t, gotReq.Prompt, "=SUM(")
	assert.Contains(t, gotReq.Prompt, "B2")
}

func TestOllamaClient_CursorClamped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "=SU")
		json.NewEncoder(w).Encode(generateResponse{Response: "M(", Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(WithBaseURL(srv.URL))
	out, err := c.CompleteTabCompletion(context.Background(), xlcomplete.CompletionRequest{Input: "=SU", Cursor: 99})
	require.NoError(t, err)
	assert.Equal(t, "M(", out)
}

func TestOllamaClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(generateResponse{Error: "model not found"})
	}))
	defer srv.Close()

	c := NewOllamaClient(WithBaseURL(srv.URL))
	_, err := c.CompleteTabCompletion(context.Background(), xlcomplete.CompletionRequest{Input: "=", Cursor: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaClient_APIErrorIn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Error: "overloaded"})
	}))
	defer srv.Close()

	c := NewOllamaClient(WithBaseURL(srv.URL))
	_, err := c.CompleteTabCompletion(context.Background(), xlcomplete.CompletionRequest{Input: "=", Cursor: 1})
	assert.Error(t, err)
}

func TestOllamaClient_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "   \n", Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(WithBaseURL(srv.URL))
	_, err := c.CompleteTabCompletion(context.Background(), xlcomplete.CompletionRequest{Input: "=", Cursor: 1})
	assert.Error(t, err)
}

func TestOllamaClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewOllamaClient(WithBaseURL(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.CompleteTabCompletion(ctx, xlcomplete.CompletionRequest{Input: "=", Cursor: 1})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
