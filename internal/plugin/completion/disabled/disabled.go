package disabled

import (
	"context"
	"errors"

	"github.com/chirino/gina-service/internal/registry/completion"
)

func init() {
	completion.Register(completion.Plugin{
		Name: "disabled",
		Loader: func(ctx context.Context) (completion.Provider, error) {
			return &disabledProvider{}, nil
		},
	})
}

// ErrDisabled is returned by every call when no provider is configured.
var ErrDisabled = errors.New("completion provider is disabled")

type disabledProvider struct{}

func (d *disabledProvider) Complete(_ context.Context, _ completion.Request) (string, error) {
	return "", ErrDisabled
}

func (d *disabledProvider) Synthesize(_ context.Context, _ string, _ string) (*completion.Speech, error) {
	return nil, ErrDisabled
}

var _ completion.Provider = (*disabledProvider)(nil)
