package cmd

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/bucketagent/internal/observability"
	"github.com/3leaps/bucketagent/pkg/output"
	"github.com/3leaps/bucketagent/pkg/provider"
)

var putCmd = &cobra.Command{
	Use:   "put <uri> <file|->",
	Short: "Upload a file (or stdin) as one object",
	Long: `Upload a local file, or stdin when the source is "-", as a single object.

The whole body is sent in one request with its exact length. Stdin is
buffered in memory to learn that length.

Examples:
  bucketagent put s3://bucket/reports/q1.csv ./q1.csv --content-type text/csv
  echo hello | bucketagent put s3://bucket/greeting.txt -`,
	Args: cobra.ExactArgs(2),
	RunE: runPut,
}

var (
	putContentType  string
	putCacheControl string
	putContentMD5   bool
)

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().StringVar(&putContentType, "content-type", "", "Content-Type (default application/octet-stream)")
	putCmd.Flags().StringVar(&putCacheControl, "cache-control", "", "Cache-Control (default no-cache)")
	putCmd.Flags().BoolVar(&putContentMD5, "content-md5", false, "Compute and send Content-MD5")
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	uri, err := parseObjectURI(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid URI", err)
	}

	body, size, closeBody, err := openPutSource(cmd.InOrStdin(), args[1])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(foundry.ExitFileNotFound, "Source not found", err)
		}
		return exitError(foundry.ExitFileReadError, "Failed to read source", err)
	}
	defer func() { _ = closeBody() }()

	opts := provider.PutOptions{
		ContentType:  putContentType,
		CacheControl: putCacheControl,
	}
	if putContentMD5 {
		sum, err := contentMD5(body)
		if err != nil {
			return exitError(foundry.ExitFileReadError, "Failed to hash source", err)
		}
		opts.ContentMD5 = sum
	}

	store, err := storeFromConfig(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to create storage agent", err)
	}

	w := output.NewJSONLWriter(cmd.OutOrStdout(), uuid.New().String(), string(provider.ProviderS3))
	defer func() { _ = w.Close() }()

	observability.CLILogger.Debug("Uploading object",
		zap.String("bucket", uri.Bucket),
		zap.String("key", uri.Key),
		zap.Int64("bytes", size))

	if err := store.Put(ctx, uri.Bucket, uri.Key, body, size, opts); err != nil {
		_ = w.WriteError(ctx, output.NewErrorRecord(err, uri.Bucket, uri.Key))
		return exitError(foundry.ExitExternalServiceUnavailable, "Put failed", err)
	}

	if err := w.WriteResult(ctx, &output.ResultRecord{
		Op:      "put",
		Bucket:  uri.Bucket,
		Key:     uri.Key,
		Success: true,
		Bytes:   size,
	}); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
	}
	return nil
}

// openPutSource opens path, or buffers stdin when path is "-".
func openPutSource(stdin io.Reader, path string) (io.ReadSeeker, int64, func() error, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("read stdin: %w", err)
		}
		return bytes.NewReader(data), int64(len(data)), func() error { return nil }, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, 0, nil, fmt.Errorf("%s is a directory", path)
	}
	return f, info.Size(), f.Close, nil
}

// contentMD5 returns the base64 MD5 of rs and rewinds it.
func contentMD5(rs io.ReadSeeker) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, rs); err != nil {
		return "", err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
