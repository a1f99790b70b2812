package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/bucketagent/internal/observability"
	"github.com/3leaps/bucketagent/pkg/match"
	"github.com/3leaps/bucketagent/pkg/output"
	"github.com/3leaps/bucketagent/pkg/provider"
)

var lsCmd = &cobra.Command{
	Use:   "ls <uri>",
	Short: "List one page of a bucket (JSONL)",
	Long: `List a single page of objects under a bucket or prefix.

A glob in the URI, or --match patterns, filter the page client-side; the
literal part of the pattern is sent as the listing prefix. Pagination is
never followed: the summary record reports is_truncated and next_marker,
which can be passed back with --marker.

Output is JSONL on stdout: one bucketagent.object.v1 record per matching
entry, then a bucketagent.summary.v1 record.

Examples:
  bucketagent ls s3://bucket/
  bucketagent ls s3://bucket/logs/2024/ --max-keys 100
  bucketagent ls 's3://bucket/data/**/*.parquet' --min-size 1MB
  bucketagent ls s3://bucket/ --delimiter / --marker logs/2024/12/`,
	Args: cobra.ExactArgs(1),
	RunE: runLs,
}

var (
	lsMarker        string
	lsDelimiter     string
	lsMaxKeys       int
	lsMatch         []string
	lsExclude       []string
	lsIncludeHidden bool
	lsMinSize       string
	lsMaxSize       string
)

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().StringVar(&lsMarker, "marker", "", "Start listing after this key")
	lsCmd.Flags().StringVar(&lsDelimiter, "delimiter", "", "Group keys by this delimiter (e.g. /)")
	lsCmd.Flags().IntVar(&lsMaxKeys, "max-keys", 0, "Maximum entries in the page (0 = provider default)")
	lsCmd.Flags().StringArrayVar(&lsMatch, "match", nil, "Glob pattern keys must match (repeatable)")
	lsCmd.Flags().StringArrayVar(&lsExclude, "exclude", nil, "Glob pattern keys must not match (repeatable)")
	lsCmd.Flags().BoolVar(&lsIncludeHidden, "include-hidden", false, "Let patterns match keys with dot segments")
	lsCmd.Flags().StringVar(&lsMinSize, "min-size", "", "Minimum object size (e.g. 1KB, 10MiB)")
	lsCmd.Flags().StringVar(&lsMaxSize, "max-size", "", "Maximum object size (e.g. 1GB)")
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	if lsMaxKeys < 0 {
		return exitError(foundry.ExitInvalidArgument, "Invalid --max-keys value", fmt.Errorf("max-keys must be >= 0"))
	}

	uri, err := ParseURI(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid URI", err)
	}

	filters, prefix, err := buildListFilters(uri)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid filter", err)
	}

	opts := provider.ListOptions{
		Prefix:    prefix,
		Marker:    lsMarker,
		Delimiter: lsDelimiter,
		MaxKeys:   lsMaxKeys,
	}
	for name, v := range map[string]string{"prefix": opts.Prefix, "marker": opts.Marker, "delimiter": opts.Delimiter} {
		if strings.ContainsAny(v, "&=#") {
			return exitError(foundry.ExitInvalidArgument, "Invalid listing parameter",
				fmt.Errorf("%s %q must not contain '&', '=' or '#'", name, v))
		}
	}

	observability.CLILogger.Debug("Listing",
		zap.String("bucket", uri.Bucket),
		zap.String("prefix", opts.Prefix),
		zap.String("marker", opts.Marker),
		zap.String("filters", filters.String()))

	store, err := storeFromConfig(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to create storage agent", err)
	}

	w := output.NewJSONLWriter(cmd.OutOrStdout(), uuid.New().String(), string(provider.ProviderS3))
	defer func() { _ = w.Close() }()

	listing, err := store.List(ctx, uri.Bucket, opts)
	if err != nil {
		_ = w.WriteError(ctx, output.NewErrorRecord(err, uri.Bucket, ""))
		return storageExitError("List failed", err)
	}

	matched := filters.Apply(listing.Entries)
	var total int64
	for _, e := range matched {
		total += e.SizeBytes
		if err := w.WriteObject(ctx, &output.ObjectRecord{Bucket: e.Bucket, Key: e.Key, Size: e.SizeBytes}); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
	}

	for _, p := range listing.CommonPrefixes {
		if err := w.WritePrefix(ctx, &output.PrefixRecord{Bucket: uri.Bucket, Prefix: p}); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
	}

	elapsed := time.Since(start)
	if err := w.WriteSummary(ctx, &output.SummaryRecord{
		Bucket:         listing.BucketName,
		ObjectsFound:   int64(len(listing.Entries)),
		ObjectsMatched: int64(len(matched)),
		BytesTotal:     total,
		PrefixesFound:  int64(len(listing.CommonPrefixes)),
		IsTruncated:    listing.IsTruncated,
		NextMarker:     listing.NextMarker,
		Duration:       elapsed,
		DurationHuman:  elapsed.Round(time.Millisecond).String(),
	}); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
	}
	return nil
}

// buildListFilters combines the URI pattern and filter flags. It returns
// the filter chain and the listing prefix.
//
// A plain URI key scopes the listing and --match may only narrow it. A URI
// pattern is one include among the --match patterns, so the prefix is the
// literal prefix all includes share, even when that is shorter than the
// URI key.
func buildListFilters(uri *ObjectURI) (match.Chain, string, error) {
	prefix := uri.Key

	includes := append([]string(nil), lsMatch...)
	if uri.IsPattern() {
		includes = append(includes, uri.Pattern)
	}
	if len(includes) == 0 && len(lsExclude) > 0 {
		includes = []string{"**"}
	}

	var keyFilter *match.KeyFilter
	if len(includes) > 0 {
		m, err := match.New(match.Config{
			Includes:      includes,
			Excludes:      lsExclude,
			IncludeHidden: lsIncludeHidden,
		})
		if err != nil {
			return nil, "", err
		}
		keyFilter = match.NewKeyFilter(m)

		p := m.ListPrefix()
		switch {
		case uri.IsPattern():
			prefix = p
		case len(p) > len(prefix) && strings.HasPrefix(p, prefix):
			prefix = p
		}
	}

	sizeFilter, err := match.NewSizeFilter(lsMinSize, lsMaxSize)
	if err != nil {
		return nil, "", err
	}

	return match.NewChain(keyFilter, sizeFilter), prefix, nil
}
