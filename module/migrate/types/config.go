package types

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/harness/harbor-migrator/util/common/errors"
)

type RegistryType string

var (
	HARBOR RegistryType = "HARBOR"
	ECR    RegistryType = "ECR"
)

// Mode selects which pipeline a run executes.
type Mode string

const (
	ModeDiscovery Mode = "discovery"
	ModeMigration Mode = "migration"
)

type FailureMode string

const (
	FailureModeStop     FailureMode = "stop"
	FailureModeContinue FailureMode = "continue"
)

type CopierType string

const (
	CopierCrane CopierType = "crane"
	CopierORAS  CopierType = "oras"
)

const (
	DefaultArtifacts = 5
	DefaultPageSize  = 100
	DefaultOutDir    = "./harbor-reports"
)

// Config represents the top-level configuration structure
type Config struct {
	Version   string          `yaml:"version" toml:"version"`
	Harbor    RegistryConfig  `yaml:"harbor" toml:"harbor"`
	ECR       RegistryConfig  `yaml:"ecr" toml:"ecr"`
	Discovery DiscoveryConfig `yaml:"discovery" toml:"discovery"`
	Migration MigrationConfig `yaml:"migration" toml:"migration"`
}

// RegistryConfig describes one side of a run. For Harbor, Endpoint is the API base
// (https://harbor.example.com/api/v2.0); for ECR it is the registry prefix.
type RegistryConfig struct {
	Endpoint    string            `yaml:"endpoint" toml:"endpoint"`
	Type        RegistryType      `yaml:"type" toml:"type"`
	Credentials CredentialsConfig `yaml:"credentials" toml:"credentials"`
	Insecure    bool              `yaml:"insecure" toml:"insecure"`
	Retries     int               `yaml:"retries" toml:"retries"`
	Timeout     time.Duration     `yaml:"timeout" toml:"timeout"`
}

// CredentialsConfig defines the credential configuration. Token is a precomputed
// base64 "user:password" value used for Basic auth against the Harbor API.
type CredentialsConfig struct {
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password,omitempty" toml:"password"`
	Token    string `yaml:"token,omitempty" toml:"token"`
}

type DiscoveryConfig struct {
	Project     string   `yaml:"project" toml:"project"`
	Artifacts   int      `yaml:"artifacts" toml:"artifacts"`
	PageSize    int      `yaml:"pageSize" toml:"pageSize"`
	OutDir      string   `yaml:"out" toml:"out"`
	Concurrency int      `yaml:"concurrency" toml:"concurrency"`
	Include     []string `yaml:"include" toml:"include"`
	Exclude     []string `yaml:"exclude" toml:"exclude"`
}

type MigrationConfig struct {
	From        string      `yaml:"from" toml:"from"`
	Concurrency int         `yaml:"concurrency" toml:"concurrency"`
	FailureMode FailureMode `yaml:"failureMode" toml:"failureMode"`
	DryRun      bool        `yaml:"dryRun" toml:"dryRun"`
	Copier      CopierType  `yaml:"copier" toml:"copier"`
}

// DefaultConfig returns the configuration used when no file and no flags are given.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Harbor:  RegistryConfig{Type: HARBOR},
		ECR:     RegistryConfig{Type: ECR},
		Discovery: DiscoveryConfig{
			Artifacts:   DefaultArtifacts,
			PageSize:    DefaultPageSize,
			OutDir:      DefaultOutDir,
			Concurrency: 1,
		},
		Migration: MigrationConfig{
			Concurrency: 1,
			FailureMode: FailureModeStop,
			Copier:      CopierCrane,
		},
	}
}

// LoadConfig loads the configuration from a YAML or TOML file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError(path, "read", err)
	}

	// Expand environment variables in the file
	expanded := expandEnv(string(data))

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	config.Harbor.Type = HARBOR
	config.ECR.Type = ECR
	return config, nil
}

// expandEnv expands ${VAR} style environment variables
func expandEnv(content string) string {
	return os.Expand(content, func(key string) string {
		return os.Getenv(key)
	})
}

// BasicToken returns the explicit token, or base64("username:password") when either
// part is set. Empty means anonymous.
func (c CredentialsConfig) BasicToken() string {
	if c.Token != "" {
		return c.Token
	}
	if c.Username == "" && c.Password == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
}

// BasicToken returns the Harbor API token.
func (c *Config) BasicToken() string {
	return c.Harbor.Credentials.BasicToken()
}

// HarborHost returns host[:port] of the Harbor endpoint, used to address images.
func (c *Config) HarborHost() (string, error) {
	u, err := url.Parse(c.Harbor.Endpoint)
	if err != nil {
		return "", errors.NewValidationError("harbor-url", err.Error())
	}
	if u.Host == "" {
		return "", errors.NewValidationError("harbor-url", fmt.Sprintf("%q has no host", c.Harbor.Endpoint))
	}
	return u.Host, nil
}

// Validate checks the required argument set of the given mode.
func (c *Config) Validate(mode Mode) error {
	if c.Harbor.Endpoint == "" {
		return errors.NewValidationError("harbor-url", "harbor API url is required")
	}
	if _, err := c.HarborHost(); err != nil {
		return err
	}

	switch mode {
	case ModeDiscovery:
		return c.validateDiscovery()
	case ModeMigration:
		return c.validateMigration()
	default:
		return errors.NewValidationError("mode", fmt.Sprintf("unknown mode %q", mode))
	}
}

func (c *Config) validateDiscovery() error {
	d := c.Discovery
	if d.Project == "" {
		return errors.NewValidationError("project", "project is required")
	}
	if c.BasicToken() == "" {
		return errors.NewValidationError("token", "token (or harbor username and password) is required")
	}
	if d.Artifacts <= 0 {
		return errors.NewValidationError("artifacts", "must be greater than 0")
	}
	if d.PageSize <= 0 {
		return errors.NewValidationError("page-size", "must be greater than 0")
	}
	if d.OutDir == "" {
		return errors.NewValidationError("out", "output directory cannot be empty")
	}
	if d.Concurrency <= 0 {
		return errors.NewValidationError("concurrency", "must be greater than 0")
	}
	return nil
}

func (c *Config) validateMigration() error {
	m := c.Migration
	if m.From == "" {
		return errors.NewValidationError("migrate-from", "report csv path is required")
	}
	if c.ECR.Endpoint == "" {
		return errors.NewValidationError("ecr", "ECR registry prefix is required")
	}
	if m.Concurrency <= 0 {
		return errors.NewValidationError("concurrency", "must be greater than 0")
	}

	mode := FailureMode(strings.ToLower(string(m.FailureMode)))
	switch mode {
	case FailureModeStop, FailureModeContinue:
		c.Migration.FailureMode = mode
	default:
		return errors.NewValidationError("failure-mode",
			fmt.Sprintf("invalid failure mode: %s, must be 'continue' or 'stop'", m.FailureMode))
	}

	switch m.Copier {
	case CopierCrane, CopierORAS:
	default:
		return errors.NewValidationError("copier", fmt.Sprintf("unsupported copier %q", m.Copier))
	}

	// If using username auth, password should also be provided
	creds := c.Harbor.Credentials
	if creds.Username != "" && creds.Password == "" {
		return errors.NewValidationError("harbor-pass", "password must be provided when using username authentication")
	}
	return nil
}
