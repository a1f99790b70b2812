package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/bucketagent/internal/observability"
	"github.com/3leaps/bucketagent/pkg/content"
	"github.com/3leaps/bucketagent/pkg/output"
	"github.com/3leaps/bucketagent/pkg/provider"
)

var peekCmd = &cobra.Command{
	Use:   "peek <uri>...",
	Short: "Read the first N bytes of many objects (JSONL)",
	Long: `Read the first N bytes of one or more objects in parallel.

Each object is fetched with one GET; the rest of the stream is discarded.
Results are bucketagent.content.v1 records (data is base64) in completion
order. Failures are bucketagent.error.v1 records and do not stop the run.

Examples:
  bucketagent peek s3://bucket/a.parquet s3://bucket/b.parquet --bytes 4
  bucketagent ls s3://bucket/data/ | jq -r '"s3://\(.data.bucket)/\(.data.key)"' | bucketagent peek --stdin`,
	Args: validatePeekArgs,
	RunE: runPeek,
}

var (
	peekBytes       int64
	peekStdin       bool
	peekConcurrency int
)

const peekMaxBytes = 10 * 1024 * 1024

func init() {
	rootCmd.AddCommand(peekCmd)
	peekCmd.Flags().Int64Var(&peekBytes, "bytes", 4096, fmt.Sprintf("Number of bytes to read (max %d)", peekMaxBytes))
	peekCmd.Flags().BoolVar(&peekStdin, "stdin", false, "Read URIs from stdin (one per line)")
	peekCmd.Flags().IntVar(&peekConcurrency, "concurrency", 8, "Max concurrent reads per bucket")
}

func validatePeekArgs(cmd *cobra.Command, args []string) error {
	stdin, _ := cmd.Flags().GetBool("stdin")
	if stdin {
		if len(args) != 0 {
			return fmt.Errorf("when using --stdin, do not provide <uri> arguments")
		}
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("requires at least 1 argument: <uri> (or use --stdin)")
	}
	return nil
}

func runPeek(cmd *cobra.Command, args []string) error {
	// Cancelling releases the readers if output fails mid-stream.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if peekBytes < 0 || peekBytes > peekMaxBytes {
		return exitError(foundry.ExitInvalidArgument, "Invalid --bytes value", fmt.Errorf("bytes must be between 0 and %d", peekMaxBytes))
	}
	if peekConcurrency < 1 {
		return exitError(foundry.ExitInvalidArgument, "Invalid --concurrency value", fmt.Errorf("concurrency must be >= 1"))
	}

	inputs := args
	if peekStdin {
		lines, err := readURILines(cmd.InOrStdin())
		if err != nil {
			return exitError(foundry.ExitInvalidArgument, "Failed to read stdin", err)
		}
		inputs = lines
	}

	// Group keys by bucket, keeping first-seen bucket order.
	var buckets []string
	keys := map[string][]string{}
	for _, in := range inputs {
		uri, err := parseObjectURI(in)
		if err != nil {
			return exitError(foundry.ExitInvalidArgument, "Invalid URI", fmt.Errorf("%s: %w", in, err))
		}
		if _, ok := keys[uri.Bucket]; !ok {
			buckets = append(buckets, uri.Bucket)
		}
		keys[uri.Bucket] = append(keys[uri.Bucket], uri.Key)
	}
	if len(buckets) == 0 {
		return nil
	}

	store, err := storeFromConfig(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to create storage agent", err)
	}

	w := output.NewJSONLWriter(cmd.OutOrStdout(), uuid.New().String(), string(provider.ProviderS3))
	defer func() { _ = w.Close() }()

	failed := 0
	for _, bucket := range buckets {
		for res := range content.HeadBytesMulti(ctx, store, bucket, keys[bucket], peekBytes, peekConcurrency) {
			if res.Err != nil {
				failed++
				observability.CLILogger.Debug("Peek failed",
					zap.String("bucket", bucket),
					zap.String("key", res.Key),
					zap.Error(res.Err))
				if err := w.WriteError(ctx, output.NewErrorRecord(res.Err, bucket, res.Key)); err != nil {
					return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
				}
				continue
			}
			if err := w.WriteContent(ctx, &output.ContentRecord{
				Bucket: bucket,
				Key:    res.Key,
				Bytes:  int64(len(res.Data)),
				Data:   res.Data,
			}); err != nil {
				return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
			}
		}
	}

	if err := cmd.Context().Err(); err != nil {
		return exitError(foundry.ExitSignalInt, "Interrupted", err)
	}
	if failed > 0 {
		return exitError(foundry.ExitExternalServiceUnavailable, "Some reads failed", fmt.Errorf("%d of %d objects failed", failed, len(inputs)))
	}
	return nil
}

// readURILines reads one URI per line, skipping blanks and # comments.
func readURILines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
