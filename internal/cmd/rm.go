package cmd

import (
	"errors"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/3leaps/bucketagent/pkg/output"
	"github.com/3leaps/bucketagent/pkg/provider"
)

var errDeleteNotAcknowledged = errors.New("delete not acknowledged by provider")

var rmCmd = &cobra.Command{
	Use:   "rm <uri>",
	Short: "Delete one object",
	Long: `Delete one object with a single DELETE request.

The provider's success flag is reported as-is in a bucketagent.result.v1
record. Deleting a key that does not exist usually succeeds.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	uri, err := parseObjectURI(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid URI", err)
	}

	store, err := storeFromConfig(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to create storage agent", err)
	}

	w := output.NewJSONLWriter(cmd.OutOrStdout(), uuid.New().String(), string(provider.ProviderS3))
	defer func() { _ = w.Close() }()

	deleted, err := store.Delete(ctx, uri.Bucket, uri.Key)
	if err != nil {
		_ = w.WriteError(ctx, output.NewErrorRecord(err, uri.Bucket, uri.Key))
		return storageExitError("Delete failed", err)
	}

	if err := w.WriteResult(ctx, &output.ResultRecord{
		Op:      "delete",
		Bucket:  uri.Bucket,
		Key:     uri.Key,
		Success: deleted,
	}); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
	}

	if !deleted {
		return exitError(foundry.ExitExternalServiceUnavailable, "Delete failed", errDeleteNotAcknowledged)
	}
	return nil
}
