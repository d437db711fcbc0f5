package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAIConfig(endpoint string) LLMConfig {
	cfg := testConfig(endpoint)
	cfg.Provider = ProviderOpenAI
	cfg.Model = "gpt-4o-mini"
	cfg.APIKey = "sk-test"
	return cfg
}

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": "Let's start with week one."}
  }]
}`

func TestOpenAIClient_Chat_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "user", body.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	client := NewOpenAIClient(openAIConfig(srv.URL), NoopObserver{})
	resp, err := client.Chat(context.Background(), chatRequest("Plan a sleep course"))

	require.NoError(t, err)
	assert.Equal(t, "Let's start with week one.", resp.Text)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
}

func TestOpenAIClient_Chat_ServerErrorNotRetriedBySDK(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	var captured LLMCallEvent
	obs := &captureObserver{fn: func(e LLMCallEvent) { captured = e }}
	client := NewOpenAIClient(openAIConfig(srv.URL), obs)
	_, err := client.Chat(context.Background(), chatRequest("hi"))

	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, int32(1), attempts.Load())
	assert.False(t, captured.Success)
	assert.Equal(t, "UNKNOWN", captured.ErrorCode)
}

func TestOpenAIClient_Available(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	cfg.Endpoint = ""
	assert.False(t, NewOpenAIClient(cfg, nil).Available(context.Background()))

	cfg.APIKey = "sk-test"
	assert.True(t, NewOpenAIClient(cfg, nil).Available(context.Background()))
}

func TestToOpenAIMessages_MapsRoles(t *testing.T) {
	msgs := toOpenAIMessages([]Message{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleAssistant, Content: "a"},
	})
	require.Len(t, msgs, 3)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
}
