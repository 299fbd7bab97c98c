package config

import (
	"os"
	"time"

	"github.com/harness/harbor-migrator/module/migrate/types"
	"github.com/harness/harbor-migrator/util/common/errors"
)

// Flag names shared by the commands and the mode resolution.
const (
	FlagConfig      = "config"
	FlagHarborURL   = "harbor-url"
	FlagProject     = "project"
	FlagToken       = "token"
	FlagArtifacts   = "artifacts"
	FlagPageSize    = "page-size"
	FlagOut         = "out"
	FlagInsecure    = "insecure"
	FlagRetries     = "retries"
	FlagTimeout     = "timeout"
	FlagConcurrency = "concurrency"
	FlagInclude     = "include"
	FlagExclude     = "exclude"
	FlagMigrateFrom = "migrate-from"
	FlagECR         = "ecr"
	FlagECRPassword = "ecr-password"
	FlagHarborUser  = "harbor-user"
	FlagHarborPass  = "harbor-pass"
	FlagFailureMode = "failure-mode"
	FlagDryRun      = "dry-run"
	FlagCopier      = "copier"
)

// Environment variables that fill values left unset by flags and the config file.
const (
	EnvHarborURL   = "HARBOR_URL"
	EnvHarborToken = "HARBOR_TOKEN"
	EnvHarborUser  = "HARBOR_USER"
	EnvHarborPass  = "HARBOR_PASS"
	EnvECRPassword = "ECR_PASSWORD"
)

// GlobalFlags contains common flags used across commands
type GlobalFlags struct {
	ConfigPath  string
	Format      string
	Verbose     bool
	NoColor     bool
	LogFile     string
	Concurrency int

	Harbor    HarborFlags
	Discovery DiscoveryFlags
	Migrate   MigrateFlags
}

// HarborFlags holds the Harbor API connection flags
type HarborFlags struct {
	URL      string
	Token    string
	User     string
	Pass     string
	Insecure bool
	Retries  int
	Timeout  time.Duration
}

type DiscoveryFlags struct {
	Project   string
	Artifacts int
	PageSize  int
	Out       string
	Include   []string
	Exclude   []string
}

// MigrateFlags holds migrate command specific configurations
type MigrateFlags struct {
	From        string
	ECR         string
	ECRPassword string
	FailureMode string
	DryRun      bool
	Copier      string
}

// Global is the shared instance of GlobalFlags
var Global = GlobalFlags{}

// ResolveMode picks the pipeline from the flags that were set. A pinned mode, set by the
// discover and migrate subcommands, always wins. Otherwise any migration flag selects
// migration, and discovery flags mixed with migration flags are rejected.
func ResolveMode(pinned types.Mode, changed func(string) bool) (types.Mode, error) {
	if pinned != "" {
		return pinned, nil
	}

	migration := anyChanged(changed, FlagMigrateFrom, FlagHarborUser, FlagHarborPass)
	discovery := anyChanged(changed, FlagProject, FlagToken)
	switch {
	case migration && discovery:
		return "", errors.NewValidationError("mode",
			"--project/--token (discovery) cannot be combined with --migrate-from/--harbor-user/--harbor-pass (migration)")
	case migration:
		return types.ModeMigration, nil
	default:
		return types.ModeDiscovery, nil
	}
}

func anyChanged(changed func(string) bool, names ...string) bool {
	for _, n := range names {
		if changed(n) {
			return true
		}
	}
	return false
}

// Load builds the run configuration: defaults, then the config file, then flags that
// were set, then environment variables for values still empty. The result is validated
// for mode.
func Load(mode types.Mode, changed func(string) bool) (*types.Config, error) {
	cfg := types.DefaultConfig()
	if Global.ConfigPath != "" {
		loaded, err := types.LoadConfig(Global.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	Global.ApplyTo(cfg, changed)
	ApplyEnv(cfg, os.LookupEnv)

	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyTo copies every flag that was set on the command line into cfg.
func (g *GlobalFlags) ApplyTo(cfg *types.Config, changed func(string) bool) {
	set := func(name string, apply func()) {
		if changed(name) {
			apply()
		}
	}

	set(FlagHarborURL, func() { cfg.Harbor.Endpoint = g.Harbor.URL })
	set(FlagToken, func() { cfg.Harbor.Credentials.Token = g.Harbor.Token })
	set(FlagHarborUser, func() { cfg.Harbor.Credentials.Username = g.Harbor.User })
	set(FlagHarborPass, func() { cfg.Harbor.Credentials.Password = g.Harbor.Pass })
	set(FlagInsecure, func() { cfg.Harbor.Insecure = g.Harbor.Insecure })
	set(FlagRetries, func() {
		cfg.Harbor.Retries = g.Harbor.Retries
		cfg.ECR.Retries = g.Harbor.Retries
	})
	set(FlagTimeout, func() {
		cfg.Harbor.Timeout = g.Harbor.Timeout
		cfg.ECR.Timeout = g.Harbor.Timeout
	})
	set(FlagConcurrency, func() {
		cfg.Discovery.Concurrency = g.Concurrency
		cfg.Migration.Concurrency = g.Concurrency
	})

	set(FlagProject, func() { cfg.Discovery.Project = g.Discovery.Project })
	set(FlagArtifacts, func() { cfg.Discovery.Artifacts = g.Discovery.Artifacts })
	set(FlagPageSize, func() { cfg.Discovery.PageSize = g.Discovery.PageSize })
	set(FlagOut, func() { cfg.Discovery.OutDir = g.Discovery.Out })
	set(FlagInclude, func() { cfg.Discovery.Include = g.Discovery.Include })
	set(FlagExclude, func() { cfg.Discovery.Exclude = g.Discovery.Exclude })

	set(FlagMigrateFrom, func() { cfg.Migration.From = g.Migrate.From })
	set(FlagECR, func() { cfg.ECR.Endpoint = g.Migrate.ECR })
	set(FlagECRPassword, func() { cfg.ECR.Credentials.Password = g.Migrate.ECRPassword })
	set(FlagFailureMode, func() { cfg.Migration.FailureMode = types.FailureMode(g.Migrate.FailureMode) })
	set(FlagDryRun, func() { cfg.Migration.DryRun = g.Migrate.DryRun })
	set(FlagCopier, func() { cfg.Migration.Copier = types.CopierType(g.Migrate.Copier) })
}

// ApplyEnv fills empty connection settings from the environment.
func ApplyEnv(cfg *types.Config, lookup func(string) (string, bool)) {
	fill := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	fill(&cfg.Harbor.Endpoint, EnvHarborURL)
	fill(&cfg.Harbor.Credentials.Token, EnvHarborToken)
	fill(&cfg.Harbor.Credentials.Username, EnvHarborUser)
	fill(&cfg.Harbor.Credentials.Password, EnvHarborPass)
	fill(&cfg.ECR.Credentials.Password, EnvECRPassword)
}
