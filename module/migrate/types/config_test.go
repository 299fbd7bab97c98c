package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harness/harbor-migrator/util/common/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("HBM_TEST_PASS", "s3cr3t")

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "hbm.yaml",
			content: `
harbor:
  endpoint: https://harbor.example.com/api/v2.0
  credentials:
    username: robot
    password: ${HBM_TEST_PASS}
  timeout: 30s
ecr:
  endpoint: 123456789012.dkr.ecr.eu-west-1.amazonaws.com
migration:
  from: report.csv
  failureMode: continue
`,
		},
		{
			name: "toml",
			file: "hbm.toml",
			content: `
[harbor]
endpoint = "https://harbor.example.com/api/v2.0"
timeout = "30s"
[harbor.credentials]
username = "robot"
password = "${HBM_TEST_PASS}"
[ecr]
endpoint = "123456789012.dkr.ecr.eu-west-1.amazonaws.com"
[migration]
from = "report.csv"
failureMode = "continue"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, HARBOR, cfg.Harbor.Type)
			assert.Equal(t, ECR, cfg.ECR.Type)
			assert.Equal(t, "s3cr3t", cfg.Harbor.Credentials.Password)
			assert.Equal(t, 30*time.Second, cfg.Harbor.Timeout)
			assert.Equal(t, FailureModeContinue, cfg.Migration.FailureMode)
			assert.Equal(t, CopierCrane, cfg.Migration.Copier)
			assert.Equal(t, DefaultArtifacts, cfg.Discovery.Artifacts)
			require.NoError(t, cfg.Validate(ModeMigration))
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	var fileErr *errors.FileError
	require.ErrorAs(t, err, &fileErr)
}

func TestBasicToken(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.BasicToken())

	cfg.Harbor.Credentials = CredentialsConfig{Username: "u", Password: "p"}
	assert.Equal(t, "dTpw", cfg.BasicToken())

	cfg.Harbor.Credentials = CredentialsConfig{Password: "p"}
	assert.Equal(t, "OnA=", cfg.BasicToken())

	cfg.Harbor.Credentials.Token = "explicit"
	assert.Equal(t, "explicit", cfg.BasicToken())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.Harbor.Endpoint = "https://harbor.example.com/api/v2.0"
		cfg.Harbor.Credentials.Token = "dTpw"
		cfg.Discovery.Project = "library"
		cfg.Migration.From = "report.csv"
		cfg.ECR.Endpoint = "123456789012.dkr.ecr.eu-west-1.amazonaws.com"
		return cfg
	}

	tests := []struct {
		name      string
		mode      Mode
		mutate    func(c *Config)
		wantField string
	}{
		{name: "discovery ok", mode: ModeDiscovery, mutate: func(c *Config) {}},
		{name: "migration ok", mode: ModeMigration, mutate: func(c *Config) {}},
		{name: "no harbor url", mode: ModeDiscovery, mutate: func(c *Config) { c.Harbor.Endpoint = "" },
			wantField: "harbor-url"},
		{name: "harbor url without host", mode: ModeDiscovery,
			mutate: func(c *Config) { c.Harbor.Endpoint = "/api/v2.0" }, wantField: "harbor-url"},
		{name: "no project", mode: ModeDiscovery, mutate: func(c *Config) { c.Discovery.Project = "" },
			wantField: "project"},
		{name: "no token", mode: ModeDiscovery,
			mutate: func(c *Config) { c.Harbor.Credentials = CredentialsConfig{} }, wantField: "token"},
		{name: "zero artifacts", mode: ModeDiscovery, mutate: func(c *Config) { c.Discovery.Artifacts = 0 },
			wantField: "artifacts"},
		{name: "zero page size", mode: ModeDiscovery, mutate: func(c *Config) { c.Discovery.PageSize = 0 },
			wantField: "page-size"},
		{name: "no report", mode: ModeMigration, mutate: func(c *Config) { c.Migration.From = "" },
			wantField: "migrate-from"},
		{name: "no ecr", mode: ModeMigration, mutate: func(c *Config) { c.ECR.Endpoint = "" }, wantField: "ecr"},
		{name: "bad failure mode", mode: ModeMigration,
			mutate: func(c *Config) { c.Migration.FailureMode = "retry" }, wantField: "failure-mode"},
		{name: "bad copier", mode: ModeMigration, mutate: func(c *Config) { c.Migration.Copier = "skopeo" },
			wantField: "copier"},
		{name: "user without password", mode: ModeMigration,
			mutate: func(c *Config) { c.Harbor.Credentials = CredentialsConfig{Username: "u"} }, wantField: "harbor-pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var vErr *errors.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestValidate_NormalizesFailureMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Harbor.Endpoint = "https://harbor.example.com/api/v2.0"
	cfg.Migration.From = "report.csv"
	cfg.ECR.Endpoint = "123456789012.dkr.ecr.eu-west-1.amazonaws.com"
	cfg.Migration.FailureMode = "CONTINUE"

	require.NoError(t, cfg.Validate(ModeMigration))
	assert.Equal(t, FailureModeContinue, cfg.Migration.FailureMode)
}
