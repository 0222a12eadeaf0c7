package completion

import (
	"context"
	"fmt"

	"github.com/chirino/gina-service/internal/model"
)

// Message is one role-tagged prompt message.
type Message struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// Request is a single chat completion call.
type Request struct {
	Messages         []Message
	Temperature      float64
	MaxTokens        int
	PresencePenalty  float64
	FrequencyPenalty float64
}

// Completer generates text from a list of role-tagged messages.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Speech is synthesized audio.
type Speech struct {
	Audio       []byte
	ContentType string
}

// Speaker turns text into audio with a named voice.
type Speaker interface {
	Synthesize(ctx context.Context, text string, voice string) (*Speech, error)
}

// Provider is a completion backend that can both complete and speak.
type Provider interface {
	Completer
	Speaker
}

// Loader creates a Provider from config.
type Loader func(ctx context.Context) (Provider, error)

// Plugin represents a completion provider plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a completion provider plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered completion provider plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named completion provider plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown completion provider %q; valid: %v", name, Names())
}
