package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/bucketagent/internal/config"
	"github.com/3leaps/bucketagent/internal/observability"
	"github.com/3leaps/bucketagent/pkg/provider"
	"github.com/3leaps/bucketagent/pkg/provider/s3"
	"github.com/3leaps/bucketagent/pkg/request"
)

var doctorBucket string

var errDoctorChecksFailed = errors.New("one or more diagnostic checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on the environment, configuration and credentials.

Examples:
  bucketagent doctor                    # Environment and credential checks
  bucketagent doctor --bucket my-bucket # Also list one key from my-bucket`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringVar(&doctorBucket, "bucket", "", "Probe this bucket with a one-key listing")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	log := observability.CLILogger
	log.Info("=== " + binaryName + " doctor ===")
	log.Info("")
	log.Info("Running diagnostic checks...")
	log.Info("")

	allChecks := true
	checkNum := 1
	totalChecks := 6
	if doctorBucket != "" {
		totalChecks = 7
	}

	// Check 1: Go version
	goVersion := runtime.Version()
	if goVersion >= "go1.23" {
		log.Info(fmt.Sprintf("[%d/%d] Checking Go version... ✅ %s", checkNum, totalChecks, goVersion),
			zap.String("go_version", goVersion))
	} else {
		log.Warn(fmt.Sprintf("[%d/%d] Checking Go version... ⚠️  %s (recommended: go1.23+)", checkNum, totalChecks, goVersion),
			zap.String("go_version", goVersion))
		allChecks = false
	}
	checkNum++

	// Check 2: Gofulmen access
	version := crucible.GetVersion()
	if version.Gofulmen != "" {
		log.Info(fmt.Sprintf("[%d/%d] Checking Gofulmen access... ✅ v%s", checkNum, totalChecks, version.Gofulmen),
			zap.String("gofulmen_version", version.Gofulmen),
			zap.String("crucible_version", version.Crucible))
	} else {
		log.Error(fmt.Sprintf("[%d/%d] Checking Gofulmen access... ❌ Cannot access Gofulmen", checkNum, totalChecks))
		allChecks = false
	}
	checkNum++

	// Check 3: Config directory
	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Error(fmt.Sprintf("[%d/%d] Checking config directory... ❌ Cannot find config directory", checkNum, totalChecks),
			zap.Error(err))
		allChecks = false
	} else {
		log.Info(fmt.Sprintf("[%d/%d] Checking config directory... ✅ %s", checkNum, totalChecks, configDir),
			zap.String("config_dir", configDir))
	}
	checkNum++

	// Check 4: Environment
	log.Info(fmt.Sprintf("[%d/%d] Checking environment... ✅ %s/%s", checkNum, totalChecks, runtime.GOOS, runtime.GOARCH),
		zap.String("os", runtime.GOOS),
		zap.String("arch", runtime.GOARCH))
	checkNum++

	if appConfig == nil {
		return exitError(foundry.ExitInvalidArgument, "Configuration not loaded", errDoctorChecksFailed)
	}

	if appConfig.Storage.Backend == config.BackendFile {
		// Check 5: Storage root
		root := appConfig.Storage.Root
		if st, err := os.Stat(root); err != nil || !st.IsDir() {
			log.Error(fmt.Sprintf("[%d/%d] Checking storage root... ❌ %s is not a directory", checkNum, totalChecks, root),
				zap.Error(err))
			allChecks = false
		} else {
			log.Info(fmt.Sprintf("[%d/%d] Checking storage root... ✅ %s", checkNum, totalChecks, root))
		}
		checkNum++
		log.Info(fmt.Sprintf("[%d/%d] Checking addressing... ✅ file backend, no signing", checkNum, totalChecks))
	} else {
		if err := checkSignedBackend(cmd.Context(), checkNum, totalChecks); err != nil {
			return err
		}
		checkNum++
	}
	checkNum++

	// Check 7: Bucket probe
	if doctorBucket != "" {
		if err := probeBucket(cmd.Context(), doctorBucket); err != nil {
			log.Error(fmt.Sprintf("[%d/%d] Probing bucket... ❌ %s", checkNum, totalChecks, doctorBucket),
				zap.Error(err))
			allChecks = false
		} else {
			log.Info(fmt.Sprintf("[%d/%d] Probing bucket... ✅ %s", checkNum, totalChecks, doctorBucket))
		}
	}

	log.Info("")
	if !allChecks {
		log.Warn("⚠️  Some checks failed. Review the output above for details.")
		log.Info("")
		log.Info("=== End Diagnostics ===")
		return exitError(foundry.ExitExternalServiceUnavailable, "Diagnostics failed", errDoctorChecksFailed)
	}
	log.Info("✅ All checks passed! Your " + binaryName + " installation is healthy.")
	log.Info("")
	log.Info("=== End Diagnostics ===")
	return nil
}

// checkSignedBackend reports credential resolution and virtual-host
// addressing for the s3 backend.
func checkSignedBackend(ctx context.Context, checkNum, totalChecks int) error {
	log := observability.CLILogger

	// Check 5: Credentials
	resolved, err := s3.ResolveCredentials(ctx, agentConfig(appConfig.Storage), log)
	if err != nil {
		log.Error(fmt.Sprintf("[%d/%d] Checking credentials... ❌ Cannot resolve credentials", checkNum, totalChecks),
			zap.Error(err))
		printAWSCredentialsHelp()
		return exitError(foundry.ExitInvalidArgument, "Credential check failed", err)
	}
	log.Info(fmt.Sprintf("[%d/%d] Checking credentials... ✅ Found credentials", checkNum, totalChecks),
		zap.String("access_key", maskAccessKey(resolved.AccessKeyID)))
	checkNum++

	// Check 6: Addressing
	bucket := doctorBucket
	if bucket == "" {
		bucket = "<bucket>"
	}
	host := request.NewBuilder(request.WithAPISuffix(resolved.APISuffix)).Host(bucket, resolved.Region)
	log.Info(fmt.Sprintf("[%d/%d] Checking addressing... ✅ %s", checkNum, totalChecks, host),
		zap.String("region", resolved.Region),
		zap.String("endpoint", appConfig.Storage.Endpoint))
	return nil
}

func probeBucket(ctx context.Context, bucket string) error {
	store, err := storeFromConfig(ctx)
	if err != nil {
		return err
	}
	_, err = store.List(ctx, bucket, provider.ListOptions{MaxKeys: 1})
	return err
}

// maskAccessKey masks all but the last 4 characters of an access key.
func maskAccessKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// printAWSCredentialsHelp prints help for configuring credentials.
func printAWSCredentialsHelp() {
	log := observability.CLILogger
	log.Info("")
	log.Info("To configure credentials:")
	log.Info("  1. Set BUCKETAGENT_ACCESS_KEY and BUCKETAGENT_SECRET_KEY, or")
	log.Info("  2. Set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY, or")
	log.Info("  3. Run 'aws configure' and pass --profile")
	log.Info("")
	log.Info("Session tokens are not supported by legacy signing; use long-lived keys.")
	log.Info("For S3-compatible storage (MinIO, Wasabi, etc.), also set --endpoint.")
	log.Info("")
}
