package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chirino/gina-service/internal/config"
	registrycompletion "github.com/chirino/gina-service/internal/registry/completion"
)

func init() {
	registrycompletion.Register(registrycompletion.Plugin{
		Name:   "openai",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycompletion.Provider, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai completion: GINA_OPENAI_API_KEY is required")
	}
	return New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIChatModel, cfg.OpenAITTSModel, &http.Client{Timeout: cfg.CompletionTimeout}), nil
}

// New creates a provider for an OpenAI-compatible API.
func New(baseURL, apiKey, chatModel, ttsModel string, client *http.Client) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		chatModel: chatModel,
		ttsModel:  ttsModel,
		client:    client,
	}
}

// Provider talks to the chat completions and speech endpoints.
type Provider struct {
	apiKey    string
	baseURL   string
	chatModel string
	ttsModel  string
	client    *http.Client
}

type chatRequest struct {
	Model            string                       `json:"model"`
	Messages         []registrycompletion.Message `json:"messages"`
	Temperature      float64                      `json:"temperature"`
	MaxTokens        int                          `json:"max_tokens,omitempty"`
	PresencePenalty  float64                      `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64                      `json:"frequency_penalty,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (p *Provider) Complete(ctx context.Context, r registrycompletion.Request) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:            p.chatModel,
		Messages:         r.Messages,
		Temperature:      r.Temperature,
		MaxTokens:        r.MaxTokens,
		PresencePenalty:  r.PresencePenalty,
		FrequencyPenalty: r.FrequencyPenalty,
	})
	if err != nil {
		return "", err
	}

	body, err := p.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("openai chat: parse response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("openai chat error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai chat: response has no choices")
	}
	return result.Choices[0].Message.Content, nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

func (p *Provider) Synthesize(ctx context.Context, text string, voice string) (*registrycompletion.Speech, error) {
	reqBody, err := json.Marshal(speechRequest{
		Model:          p.ttsModel,
		Voice:          voice,
		Input:          text,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, err
	}
	audio, err := p.post(ctx, "/audio/speech", reqBody)
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	return &registrycompletion.Speech{Audio: audio, ContentType: "audio/mpeg"}, nil
}

func (p *Provider) post(ctx context.Context, path string, reqBody []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		var wrapped struct {
			Error *apiError `json:"error"`
		}
		if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, wrapped.Error.Message)
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}

var _ registrycompletion.Provider = (*Provider)(nil)
