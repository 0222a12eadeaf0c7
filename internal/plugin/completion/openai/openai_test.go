package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chirino/gina-service/internal/model"
	registrycompletion "github.com/chirino/gina-service/internal/registry/completion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_SendsSamplingParameters(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
	}))
	defer srv.Close()

	p := New(srv.URL+"/v1/", "sk-test", "gpt-4o", "gpt-4o-mini-tts", srv.Client())
	out, err := p.Complete(context.Background(), registrycompletion.Request{
		Messages:         []registrycompletion.Message{{Role: model.RoleUser, Content: "hi"}},
		Temperature:      0.7,
		MaxTokens:        500,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, model.RoleUser, got.Messages[0].Role)
}

func TestComplete_SurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	p := New(srv.URL, "sk-test", "gpt-4o", "tts", srv.Client())
	_, err := p.Complete(context.Background(), registrycompletion.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := New(srv.URL, "sk-test", "gpt-4o", "tts", srv.Client())
	_, err := p.Complete(context.Background(), registrycompletion.Request{})
	require.Error(t, err)
}

func TestSynthesize(t *testing.T) {
	var got speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	defer srv.Close()

	p := New(srv.URL, "sk-test", "gpt-4o", "gpt-4o-mini-tts", srv.Client())
	speech, err := p.Synthesize(context.Background(), "hello", "coral")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-audio"), speech.Audio)
	assert.Equal(t, "audio/mpeg", speech.ContentType)
	assert.Equal(t, "coral", got.Voice)
	assert.Equal(t, "gpt-4o-mini-tts", got.Model)
	assert.Equal(t, "mp3", got.ResponseFormat)
}
