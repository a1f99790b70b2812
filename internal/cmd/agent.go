package cmd

import (
	"context"
	"fmt"

	"github.com/3leaps/bucketagent/internal/config"
	"github.com/3leaps/bucketagent/internal/observability"
	"github.com/3leaps/bucketagent/pkg/provider"
	"github.com/3leaps/bucketagent/pkg/provider/file"
	"github.com/3leaps/bucketagent/pkg/provider/s3"
	"github.com/3leaps/bucketagent/pkg/transport"
)

// newStore builds the storage client for a command. Tests replace it.
var newStore = newAgent

// newAgent builds the store for cfg.Backend. The s3 backend wires
// credential resolution, the HTTP transport and the signing agent.
func newAgent(ctx context.Context, cfg config.StorageConfig) (provider.Provider, error) {
	logger := observability.CLILogger

	if cfg.Backend == config.BackendFile {
		store, err := file.New(file.Config{Root: cfg.Root, Logger: logger})
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	resolved, err := s3.ResolveCredentials(ctx, agentConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("resolve credentials: %w", err)
	}

	t, err := transport.NewHTTP(transport.HTTPConfig{
		Timeout:   cfg.Timeout,
		Endpoint:  cfg.Endpoint,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	agent, err := s3.New(resolved, t, s3.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func agentConfig(cfg config.StorageConfig) s3.Config {
	return s3.Config{
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKey,
		SecretAccessKey: cfg.SecretKey,
		Profile:         cfg.Profile,
		APISuffix:       cfg.APISuffix,
		Scheme:          cfg.Scheme,
	}
}

// storeFromConfig returns a store for the loaded configuration.
func storeFromConfig(ctx context.Context) (provider.Provider, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return newStore(ctx, appConfig.Storage)
}
