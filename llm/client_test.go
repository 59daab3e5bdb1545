package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpmforge/bpmgen/llm"
)

func TestClientComplete(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[{\"id\":\"A\"}]"}}]}`))
	}))
	defer server.Close()

	client := llm.NewClientWithURL("test-key", server.URL)
	text, err := client.Complete(context.Background(), "generate things", llm.Options{
		Model:         "test-model",
		SystemMessage: "You are a BPMN expert.",
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"A"}]`, text)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestClientCompleteFlatTextChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"text":"plain completion"}]}`))
	}))
	defer server.Close()

	client := llm.NewClientWithURL("test-key", server.URL)
	text, err := client.Complete(context.Background(), "prompt", llm.Options{})
	require.NoError(t, err)
	assert.Equal(t, "plain completion", text)
}

func TestClientCompleteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := llm.NewClientWithURL("test-key", server.URL)
	_, err := client.Complete(context.Background(), "prompt", llm.Options{})

	var reqErr *llm.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusTooManyRequests, reqErr.Status)
	assert.Contains(t, reqErr.Body, "rate limited")
}

func TestClientCompleteNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // refuse connections

	client := llm.NewClientWithURL("test-key", server.URL)
	_, err := client.Complete(context.Background(), "prompt", llm.Options{})

	var reqErr *llm.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Error(t, reqErr.Err)
}

func TestOptionsDefaults(t *testing.T) {
	opts := llm.DefaultOptions()
	assert.Equal(t, llm.DefaultModel, opts.Model)
	require.NotNil(t, opts.Temperature)
	assert.Equal(t, llm.DefaultTemperature, *opts.Temperature)
	assert.Equal(t, llm.DefaultMaxTokens, opts.MaxTokens)
}

func TestClientCompleteZeroTemperature(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[]"}}]}`))
	}))
	defer server.Close()

	client := llm.NewClientWithURL("test-key", server.URL)
	_, err := client.Complete(context.Background(), "prompt", llm.Options{Temperature: llm.Temp(0)})
	require.NoError(t, err)

	// An explicit 0.0 must reach the wire instead of being coerced to
	// the default.
	assert.Equal(t, float64(0), gotBody["temperature"])
}
