package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"
)

// ResolveCredentials returns cfg with keys and region filled in.
//
// Explicit keys win and no lookup is made. Otherwise the AWS SDK default
// chain is consulted once (honouring cfg.Profile). A session token returned
// by the chain is dropped with a warning; requests signed without it will
// be rejected by the provider.
func ResolveCredentials(ctx context.Context, cfg Config, logger *zap.Logger) (Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		cfg.Region = resolveRegion(cfg.Region, "")
		return cfg, nil
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return cfg, fmt.Errorf("load aws config: %w", err)
	}

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		return cfg, fmt.Errorf("retrieve credentials: %w", err)
	}

	if creds.SessionToken != "" {
		logger.Warn("Ignoring session token from credential chain; legacy signing cannot send it",
			zap.String("source", creds.Source))
	}

	cfg.AccessKeyID = creds.AccessKeyID
	cfg.SecretAccessKey = creds.SecretAccessKey
	cfg.Region = resolveRegion(cfg.Region, awsCfg.Region)

	logger.Debug("Resolved credentials from default chain",
		zap.String("source", creds.Source),
		zap.String("region", cfg.Region))

	return cfg, nil
}

// loadAWSConfig builds the AWS configuration used for credential lookup.
func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	// Only apply explicit region if user set one in config.
	// Let SDK resolve from env/profile first.
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	return config.LoadDefaultConfig(ctx, opts...)
}

// resolveRegion picks the configured region, then the SDK-resolved one,
// then DefaultRegion.
func resolveRegion(cfgRegion, sdkRegion string) string {
	if cfgRegion != "" {
		return cfgRegion
	}
	if sdkRegion != "" {
		return sdkRegion
	}
	return DefaultRegion
}
