// Package cmd implements the bucketagent command line.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/bucketagent/internal/config"
	"github.com/3leaps/bucketagent/internal/observability"
)

const (
	binaryName = "bucketagent"

	// exitFailure is used for errors that carry no specific exit code.
	exitFailure = 1
)

// versionInfo is set at build time through SetVersionInfo.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "unknown",
	BuildDate: "unknown",
}

// Persistent flags.
var (
	flagRegion    string
	flagProfile   string
	flagEndpoint  string
	flagScheme    string
	flagLogLevel  string
	flagLogFormat string
	flagVerbose   bool
)

// appConfig is loaded once per invocation by the root pre-run hook.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   binaryName,
	Short: "Object storage client with legacy AWS request signing",
	Long: `bucketagent talks to S3-style object storage using legacy "AWS"
HMAC-SHA1 request signing and virtual-hosted bucket addressing.

It performs exactly one request per operation: put, get (cat), head,
list (ls) and delete (rm). It never retries and never follows pagination.

Configuration comes from flags, BUCKETAGENT_* environment variables,
an optional .env file and an optional bucketagent.yaml.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initRuntime,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagRegion, "region", "r", "", "Bucket region (default from AWS config, then us-east-1)")
	pf.StringVarP(&flagProfile, "profile", "p", "", "AWS profile used to resolve credentials")
	pf.StringVar(&flagEndpoint, "endpoint", "", "Send requests to this base URL, keeping virtual-hosted Host headers")
	pf.StringVar(&flagScheme, "scheme", "", "URL scheme: https or http")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: console or json")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Shorthand for --log-level debug")
}

// SetVersionInfo records build metadata.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func initRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context(), flagOverrides(cmd))
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	level := cfg.Logging.Level
	if flagVerbose {
		level = "debug"
	}
	if err := observability.ConfigureCLILogger(observability.LoggerConfig{
		Service: binaryName,
		Level:   level,
		Format:  cfg.Logging.Format,
		Output:  cmd.ErrOrStderr(),
	}); err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid logging configuration", err)
	}

	appConfig = cfg
	observability.CLILogger.Debug("Configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("region", cfg.Storage.Region),
		zap.String("endpoint", cfg.Storage.Endpoint),
		zap.String("scheme", cfg.Storage.Scheme))
	return nil
}

// flagOverrides returns the persistent flags the user set, as a nested
// config override.
func flagOverrides(cmd *cobra.Command) map[string]any {
	storage := map[string]any{}
	logging := map[string]any{}

	flags := cmd.Flags()
	set := func(dst map[string]any, flag, key, value string) {
		if flags.Changed(flag) {
			dst[key] = value
		}
	}
	set(storage, "region", "region", flagRegion)
	set(storage, "profile", "profile", flagProfile)
	set(storage, "endpoint", "endpoint", flagEndpoint)
	set(storage, "scheme", "scheme", flagScheme)
	set(logging, "log-level", "level", flagLogLevel)
	set(logging, "log-format", "format", flagLogFormat)

	out := map[string]any{}
	if len(storage) > 0 {
		out["storage"] = storage
	}
	if len(logging) > 0 {
		out["logging"] = logging
	}
	return out
}

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %v (exit code %d)", e.Message, e.Err, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return &ExitError{Code: code, Message: message, Err: err}
}

// ExitCode returns the exit code for an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitFailure
}
