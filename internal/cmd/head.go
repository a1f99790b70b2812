package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/3leaps/bucketagent/pkg/output"
	"github.com/3leaps/bucketagent/pkg/provider"
)

var headCmd = &cobra.Command{
	Use:   "head <uri>",
	Short: "Show object metadata",
	Long: `Fetch object metadata with a single HEAD request.

Output formats:
  json   indented JSON (default)
  yaml   YAML
  jsonl  one bucketagent.metadata.v1 record

Examples:
  bucketagent head s3://bucket/data/file.parquet
  bucketagent head s3://bucket/data/file.parquet --output yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runHead,
}

var headOutput string

func init() {
	rootCmd.AddCommand(headCmd)
	headCmd.Flags().StringVarP(&headOutput, "output", "o", "json", "Output format: json, yaml or jsonl")
}

func runHead(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	switch headOutput {
	case "json", "yaml", "jsonl":
	default:
		return exitError(foundry.ExitInvalidArgument, "Invalid --output value", fmt.Errorf("unknown format %q", headOutput))
	}

	uri, err := parseObjectURI(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid URI", err)
	}

	store, err := storeFromConfig(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to create storage agent", err)
	}

	meta, err := store.Head(ctx, uri.Bucket, uri.Key)
	if err != nil {
		return storageExitError("Head failed", err)
	}
	if meta == nil {
		return storageExitError("Head failed", fmt.Errorf("%s: %w", uri, provider.ErrNotFound))
	}

	rec := output.NewMetadataRecord(meta)
	out := cmd.OutOrStdout()

	switch headOutput {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
		err = enc.Close()
	case "jsonl":
		w := output.NewJSONLWriter(out, uuid.New().String(), string(provider.ProviderS3))
		err = w.WriteMetadata(ctx, rec)
		_ = w.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(rec)
	}
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
	}
	return nil
}
