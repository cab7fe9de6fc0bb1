package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/chefmate/tastehub/internal/googleai"
	"github.com/chefmate/tastehub/internal/openai"
)

// Supported embedding provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "googleai"
	ProviderMock   = "mock"
)

var ErrUnsupportedProvider = errors.New("unsupported embedding provider")

// ProviderConfig selects and configures an embedding provider.
type ProviderConfig struct {
	Provider   string
	APIKey     string
	Model      string
	Dimensions int
}

// NewProviderClient builds the embedding client for the configured provider.
func NewProviderClient(ctx context.Context, cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		opts := []openai.ClientOption{openai.WithModel(cfg.Model)}
		if cfg.Dimensions > 0 {
			opts = append(opts, openai.WithDimensions(cfg.Dimensions))
		}

		return openai.NewClient(cfg.APIKey, opts...), nil
	case ProviderGoogle:
		opts := []googleai.ClientOption{googleai.WithModel(cfg.Model)}
		if cfg.Dimensions > 0 {
			opts = append(opts, googleai.WithDimensions(cfg.Dimensions))
		}

		client, err := googleai.NewClient(ctx, cfg.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("create google embedding client: %w", err)
		}

		return client, nil
	case ProviderMock:
		if cfg.Dimensions > 0 {
			return NewMockClientWithDimensions(cfg.Dimensions), nil
		}

		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}
