package kevalsctl

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ukwa/kevals.go/pkg/constants"
	"github.com/ukwa/kevals.go/pkg/source"
)

// Environment variables read by LoadEnv.
const (
	EnvSolrURL     = "KEVALS_SOLR_URL"
	EnvBatchSize   = "KEVALS_BATCH_SIZE"
	EnvS3Endpoint  = "KEVALS_S3_ENDPOINT"
	EnvS3AccessKey = "KEVALS_S3_ACCESS_KEY"
	EnvS3SecretKey = "KEVALS_S3_SECRET_KEY"
	EnvS3Region    = "KEVALS_S3_REGION"
	EnvS3Secure    = "KEVALS_S3_SECURE"
)

// Config holds all configuration options for kevalsctl
type Config struct {
	// Solr collection URL, e.g. http://localhost:8983/solr/tracking
	SolrURL string
	// Records per update request
	BatchSize int
	// Per-request timeout
	Timeout time.Duration
	// Input files imported at the same time
	Parallel int
	// Update requests per second per client, 0 for unlimited
	BatchRate float64

	// Log level name (debug, info, warn, error)
	LogLevel string
	// Log file path, stderr when empty
	LogFile string
	// Log JSON instead of console output
	LogJSON bool

	// Object storage for s3:// inputs
	S3 source.S3Options
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		BatchSize: constants.DefaultBatchSize,
		Timeout:   constants.DefaultHTTPTimeout,
		Parallel:  1,
		LogLevel:  "info",
	}
}

func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

// LoadEnv overrides the current values with those set in the environment.
func (c *Config) LoadEnv() error {
	c.SolrURL = GetEnvOrDefault(EnvSolrURL, c.SolrURL)

	if v := os.Getenv(EnvBatchSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBatchSize, err)
		}
		c.BatchSize = n
	}

	c.S3.Endpoint = GetEnvOrDefault(EnvS3Endpoint, c.S3.Endpoint)
	c.S3.AccessKey = GetEnvOrDefault(EnvS3AccessKey, c.S3.AccessKey)
	c.S3.SecretKey = GetEnvOrDefault(EnvS3SecretKey, c.S3.SecretKey)
	c.S3.Region = GetEnvOrDefault(EnvS3Region, c.S3.Region)
	if v := os.Getenv(EnvS3Secure); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvS3Secure, err)
		}
		c.S3.Secure = secure
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SolrURL) == "" {
		return fmt.Errorf("solr url is required (-solr-url or %s)", EnvSolrURL)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.Parallel <= 0 {
		return fmt.Errorf("parallel must be positive, got %d", c.Parallel)
	}
	if c.BatchRate < 0 {
		return fmt.Errorf("batch rate must not be negative, got %v", c.BatchRate)
	}
	return nil
}
