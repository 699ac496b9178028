package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/aharikum/forensicx/pkg/models"
)

// Config represents the engine configuration.
type Config struct {
	// Scan settings
	Workers     int      `mapstructure:"workers"`      // number of worker goroutines
	DigestPair  string   `mapstructure:"digests"`      // "fast,strong" algorithm pair
	IgnorePaths []string `mapstructure:"ignore_paths"` // glob patterns excluded from scan and diff
	HashTimeout int      `mapstructure:"hash_timeout"` // per-file hash timeout (seconds), 0 = none

	// Store settings
	StoreDir string `mapstructure:"store_dir"` // snapshot store directory

	// Classifier settings
	PolicyPath string `mapstructure:"policy_path"` // optional YAML policy file

	// Report settings
	ReportFormat string `mapstructure:"report_format"` // json, text, markdown; empty = console
	OutputFile   string `mapstructure:"output_file"`   // report output path
}

// fastDigests and strongDigests are the recognized algorithm names for each
// half of the digest pair.
var (
	fastDigests   = []string{"crc32", "md5", "sha1"}
	strongDigests = []string{"sha256", "sha512", "blake3"}
)

// LoadConfig loads configuration from environment variables and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("workers", runtime.NumCPU()*2)
	v.SetDefault("digests", "md5,sha256")
	v.SetDefault("ignore_paths", []string{})
	v.SetDefault("hash_timeout", 60)
	v.SetDefault("store_dir", "forensicx_output/snapshots")
	v.SetDefault("policy_path", "")
	v.SetDefault("report_format", "")
	v.SetDefault("output_file", "")

	// Read environment variables
	v.SetEnvPrefix("FORENSICX")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ParseDigestPair validates the configured digest pair and returns it.
func (c *Config) ParseDigestPair() (models.DigestPair, error) {
	return ParseDigestPair(c.DigestPair)
}

// ParseDigestPair parses a "fast,strong" algorithm pair string.
func ParseDigestPair(s string) (models.DigestPair, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return models.DigestPair{}, fmt.Errorf("digest pair must be \"fast,strong\", got %q", s)
	}

	pair := models.DigestPair{
		Fast:   strings.TrimSpace(strings.ToLower(parts[0])),
		Strong: strings.TrimSpace(strings.ToLower(parts[1])),
	}

	if !contains(fastDigests, pair.Fast) {
		return models.DigestPair{}, fmt.Errorf("unknown fast digest %q (supported: %s)",
			pair.Fast, strings.Join(fastDigests, ", "))
	}
	if !contains(strongDigests, pair.Strong) {
		return models.DigestPair{}, fmt.Errorf("unknown strong digest %q (supported: %s)",
			pair.Strong, strings.Join(strongDigests, ", "))
	}

	return pair, nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
