package cmd

import (
	"fmt"
	"io"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/bucketagent/pkg/content"
	"github.com/3leaps/bucketagent/pkg/provider"
)

var catCmd = &cobra.Command{
	Use:   "cat <uri>",
	Short: "Write object content to stdout",
	Long: `Download one object and write its content to stdout.

An absent object and an empty object are indistinguishable; both exit
with the file-not-found code.

Examples:
  bucketagent cat s3://bucket/notes.txt
  bucketagent cat s3://bucket/big.bin --bytes 512 | xxd`,
	Args: cobra.ExactArgs(1),
	RunE: runCat,
}

var catBytes int64

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().Int64Var(&catBytes, "bytes", 0, "Write only the first N bytes (0 = whole object)")
}

func runCat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if catBytes < 0 {
		return exitError(foundry.ExitInvalidArgument, "Invalid --bytes value", fmt.Errorf("bytes must be >= 0"))
	}

	uri, err := parseObjectURI(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid URI", err)
	}

	store, err := storeFromConfig(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to create storage agent", err)
	}

	if catBytes > 0 {
		data, err := content.HeadBytes(ctx, store, uri.Bucket, uri.Key, catBytes)
		if err != nil {
			return storageExitError("Get failed", err)
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
		return nil
	}

	obj, err := store.Get(ctx, uri.Bucket, uri.Key)
	if err != nil {
		return storageExitError("Get failed", err)
	}
	if obj == nil {
		return storageExitError("Get failed", fmt.Errorf("%s: %w", uri, provider.ErrNotFound))
	}
	defer func() { _ = obj.Close() }()

	if _, err := io.Copy(cmd.OutOrStdout(), obj.Content); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
	}
	return nil
}

// storageExitError picks the exit code for a storage failure.
func storageExitError(message string, err error) error {
	if provider.IsNotFound(err) || provider.IsBucketNotFound(err) {
		return exitError(foundry.ExitFileNotFound, message, err)
	}
	return exitError(foundry.ExitExternalServiceUnavailable, message, err)
}
