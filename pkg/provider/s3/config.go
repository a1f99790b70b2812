// Package s3 implements the storage agent for S3 style object storage using
// legacy "AWS" HMAC-SHA1 request signing and virtual-hosted addressing.
package s3

// Config configures a storage agent.
//
// The agent needs explicit long-term keys. Use ResolveCredentials to fill
// them from the AWS SDK default credential chain:
//  1. Explicit AccessKeyID/SecretAccessKey (if provided)
//  2. Environment variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY)
//  3. Shared credentials file (~/.aws/credentials)
//  4. Shared config file (~/.aws/config) with profile
//  5. EC2 instance metadata / ECS task role / EKS IRSA
//
// Temporary credentials from the chain are usable only without their
// session token, which this signing scheme cannot carry.
type Config struct {
	// Region is the bucket region, used in the virtual host name.
	// Defaults to us-east-1.
	Region string

	// AccessKeyID is the access key (required by New).
	AccessKeyID string

	// SecretAccessKey is the secret key (required by New).
	SecretAccessKey string

	// Profile is the AWS profile name consulted by ResolveCredentials.
	// Leave empty to use the default profile or environment credentials.
	Profile string

	// APISuffix overrides the provider API domain.
	// Defaults to "amazonaws.com".
	APISuffix string

	// Scheme is "https" (default) or "http".
	Scheme string
}

// DefaultRegion is the fallback region when none is configured.
const DefaultRegion = "us-east-1"

// DefaultScheme is the URL scheme used when Config.Scheme is empty.
const DefaultScheme = "https"

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	// If one explicit credential is set, both must be set
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return &ConfigError{
			Field:   "AccessKeyID/SecretAccessKey",
			Message: "both access key ID and secret access key must be provided together",
		}
	}

	if c.AccessKeyID == "" {
		return &ConfigError{
			Field:   "AccessKeyID/SecretAccessKey",
			Message: "credentials are required (set keys or call ResolveCredentials)",
		}
	}

	switch c.Scheme {
	case "", "http", "https":
	default:
		return &ConfigError{Field: "Scheme", Message: "must be http or https, got " + c.Scheme}
	}

	return nil
}

func (c Config) withDefaults() Config {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	return c
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "s3 config: " + e.Field + ": " + e.Message
}
