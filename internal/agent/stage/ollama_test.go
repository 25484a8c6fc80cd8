package stage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOllamaCompleter(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","response":"Validation status: Valid","done":true}`))
	}))
	defer srv.Close()

	c := NewOllamaCompleter(srv.URL+"/", "llama3", 256)
	defer c.Close()

	out, err := c.Complete(context.Background(), "you verify reports", "check this")
	require.NoError(t, err)
	require.Equal(t, "Validation status: Valid", out)
	require.Equal(t, "llama3", got.Model)
	require.Equal(t, "you verify reports", got.System)
	require.Equal(t, "check this", got.Prompt)
	require.False(t, got.Stream)
	require.Equal(t, 256, got.Options.NumPredict)
}

func TestOllamaCompleterErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"model \"missing\" not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaCompleter(srv.URL, "missing", 0).Complete(context.Background(), "", "hi")
	require.ErrorContains(t, err, "not found")

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	_, err = NewOllamaCompleter(down.URL, "llama3", 0).Complete(context.Background(), "", "hi")
	require.ErrorContains(t, err, "503")
}
