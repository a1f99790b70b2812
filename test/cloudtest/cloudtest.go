// Package cloudtest runs the storage agent against a local moto server.
//
// Fixtures are seeded and read back through the AWS SDK so the agent under
// test is never its own oracle. Tests using this package are tagged
// //go:build cloudintegration.
//
//	func TestX(t *testing.T) {
//	    cloudtest.SkipIfUnavailable(t)
//	    bucket := cloudtest.CreateBucket(t, ctx)
//	    cloudtest.Seed(t, ctx, bucket, map[string]string{"k": "v"})
//	    agent := cloudtest.NewAgent(t)
//	}
package cloudtest

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	agents3 "github.com/3leaps/bucketagent/pkg/provider/s3"
	"github.com/3leaps/bucketagent/pkg/transport"
)

// Moto accepts any credentials.
const (
	accessKeyID     = "testing"
	secretAccessKey = "testing"
)

var (
	// Endpoint is the moto server, overridable with MOTO_ENDPOINT.
	Endpoint = envOr("MOTO_ENDPOINT", "http://localhost:5555")

	// Region is the signing region, overridable with MOTO_REGION.
	Region = envOr("MOTO_REGION", "us-east-1")

	sdkClient = sync.OnceValues(func() (*s3.Client, error) {
		cfg, err := config.LoadDefaultConfig(context.Background(),
			config.WithRegion(Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
		)
		if err != nil {
			return nil, fmt.Errorf("cloudtest: load sdk config: %w", err)
		}
		return s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(Endpoint)
			o.UsePathStyle = true
		}), nil
	})

	bucketUnsafe = regexp.MustCompile(`[^a-z0-9-]+`)
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// SkipIfUnavailable skips t unless the moto control API answers 200.
// The probe goes through the agent's own transport.
func SkipIfUnavailable(t *testing.T) {
	t.Helper()

	tr, err := transport.NewHTTP(transport.HTTPConfig{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("cloudtest: transport: %v", err)
	}
	resp, err := tr.Get(context.Background(), Endpoint+"/moto-api/", transport.Options{})
	if err != nil || !resp.Success() {
		t.Skipf("moto not reachable at %s", Endpoint)
	}
	_ = resp.Close()
}

func client(t *testing.T) *s3.Client {
	t.Helper()
	c, err := sdkClient()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// CreateBucket creates a DNS-compatible bucket named after the test and
// empties and removes it on cleanup.
func CreateBucket(t *testing.T, ctx context.Context) string {
	t.Helper()

	name := strings.Trim(bucketUnsafe.ReplaceAllString(strings.ToLower(t.Name()), "-"), "-")
	if len(name) > 48 {
		name = name[:48]
	}
	name = fmt.Sprintf("%s-%d", name, time.Now().UnixNano()%1_000_000)

	c := client(t)
	if _, err := c.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)}); err != nil {
		t.Fatalf("cloudtest: create bucket %s: %v", name, err)
	}
	t.Cleanup(func() { removeBucket(t, c, name) })
	return name
}

func removeBucket(t *testing.T, c *s3.Client, bucket string) {
	ctx := context.Background()
	var marker *string
	for {
		page, err := c.ListObjects(ctx, &s3.ListObjectsInput{Bucket: aws.String(bucket), Marker: marker})
		if err != nil {
			t.Logf("cloudtest: list %s for cleanup: %v", bucket, err)
			return
		}
		for _, obj := range page.Contents {
			if _, err := c.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: obj.Key}); err != nil {
				t.Logf("cloudtest: delete %s/%s: %v", bucket, aws.ToString(obj.Key), err)
			}
		}
		if !aws.ToBool(page.IsTruncated) || len(page.Contents) == 0 {
			break
		}
		marker = page.Contents[len(page.Contents)-1].Key
	}
	if _, err := c.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Logf("cloudtest: delete bucket %s: %v", bucket, err)
	}
}

// Seed writes objects (key to content) into bucket through the SDK.
func Seed(t *testing.T, ctx context.Context, bucket string, objects map[string]string) {
	t.Helper()

	c := client(t)
	for key, content := range objects {
		_, err := c.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   strings.NewReader(content),
		})
		if err != nil {
			t.Fatalf("cloudtest: seed %s/%s: %v", bucket, key, err)
		}
	}
}

// ReadBack returns the stored bytes of bucket/key as the SDK sees them.
func ReadBack(t *testing.T, ctx context.Context, bucket, key string) []byte {
	t.Helper()

	out, err := client(t).GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		t.Fatalf("cloudtest: read back %s/%s: %v", bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		t.Fatalf("cloudtest: read back %s/%s: %v", bucket, key, err)
	}
	return data
}

// NewAgent returns a signing agent whose virtual-hosted requests are
// redirected to Endpoint.
func NewAgent(t *testing.T) *agents3.Agent {
	t.Helper()

	tr, err := transport.NewHTTP(transport.HTTPConfig{Endpoint: Endpoint, Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("cloudtest: transport: %v", err)
	}
	agent, err := agents3.New(agents3.Config{
		Region:          Region,
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
	}, tr)
	if err != nil {
		t.Fatalf("cloudtest: agent: %v", err)
	}
	return agent
}
