package harbor

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harness/harbor-migrator/config"
	"github.com/harness/harbor-migrator/module/migrate/types"
	"github.com/harness/harbor-migrator/util/common/printer"
)

// GetRootCmd returns the hbm command. Without a subcommand the mode is resolved from the
// flags that were set.
func GetRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hbm",
		Short:         "Discover Harbor artifacts and migrate them to AWS ECR",
		SilenceUsage:  true,
		SilenceErrors: true, //prevent duplicate printing of errors
		Version:       version,
		Long: heredoc.Doc(`
			hbm inventories the newest artifacts of every repository in a Harbor project and
			copies them, tag by tag, to an AWS ECR registry.

			Discovery writes two reports to --out:
			  harbor_artifacts_<project>.ndjson   one JSON record per artifact
			  harbor_artifacts_<project>.csv      the same records, tags and platforms joined by '|'

			Migration reads such a CSV and copies <harbor>/<project>/<repository>@<digest> to
			<ecr>/<repository>:<tag> for every tag, keeping multi-platform indexes intact.

			Without a subcommand, --migrate-from, --harbor-user or --harbor-pass select
			migration; otherwise discovery runs. To run discovery with a username and
			password instead of --token, use "hbm discover --harbor-user ... --harbor-pass ..."
			or set HARBOR_USER and HARBOR_PASS.
		`),
		Example: heredoc.Doc(`
			# discovery
			hbm --harbor-url https://harbor.example.com/api/v2.0 --project library --token "$TOKEN"

			# discovery with username and password
			hbm discover --harbor-url https://harbor.example.com/api/v2.0 --project library \
			  --harbor-user robot --harbor-pass "$PASS"

			# migration
			hbm --harbor-url https://harbor.example.com/api/v2.0 \
			  --migrate-from ./harbor-reports/harbor_artifacts_library.csv \
			  --ecr 123456789012.dkr.ecr.eu-west-1.amazonaws.com \
			  --harbor-user robot --harbor-pass "$PASS"
		`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "")
		},
	}

	addFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(getDiscoverCmd())
	rootCmd.AddCommand(getMigrateCmd())

	return rootCmd
}

// addFlags binds the persistent flags directly to the global config.
func addFlags(flags *pflag.FlagSet) {
	g := &config.Global

	flags.StringVarP(&g.ConfigPath, config.FlagConfig, "c", "", "Path to a YAML or TOML configuration file")
	flags.StringVar(&g.Format, "format", printer.FormatTable, "Format of the migration summary (table or json)")
	flags.BoolVarP(&g.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&g.NoColor, "no-color", false, "Disable colour output (also respects NO_COLOR env)")
	flags.StringVar(&g.LogFile, "log-file", "", "Write logs to this file; errors are still shown on the console")
	flags.IntVar(&g.Concurrency, config.FlagConcurrency, 1, "Number of repositories or copies processed in parallel")

	flags.StringVar(&g.Harbor.URL, config.FlagHarborURL, "",
		"Harbor API base URL, e.g. https://harbor.example.com/api/v2.0 (env "+config.EnvHarborURL+")")
	flags.StringVar(&g.Harbor.Token, config.FlagToken, "",
		"Base64 encoded user:password for the Harbor API (env "+config.EnvHarborToken+")")
	flags.StringVar(&g.Harbor.User, config.FlagHarborUser, "", "Harbor username (env "+config.EnvHarborUser+")")
	flags.StringVar(&g.Harbor.Pass, config.FlagHarborPass, "", "Harbor password (env "+config.EnvHarborPass+")")
	flags.BoolVar(&g.Harbor.Insecure, config.FlagInsecure, false, "Skip TLS certificate verification")
	flags.IntVar(&g.Harbor.Retries, config.FlagRetries, 0, "Retries for failed Harbor API requests")
	flags.DurationVar(&g.Harbor.Timeout, config.FlagTimeout, 0, "Timeout per Harbor API request (0 for none)")

	flags.StringVar(&g.Discovery.Project, config.FlagProject, "", "Harbor project to inventory")
	flags.IntVar(&g.Discovery.Artifacts, config.FlagArtifacts, types.DefaultArtifacts,
		"Newest artifacts collected per repository")
	flags.IntVar(&g.Discovery.PageSize, config.FlagPageSize, types.DefaultPageSize, "Repositories per listing page")
	flags.StringVar(&g.Discovery.Out, config.FlagOut, types.DefaultOutDir, "Report output directory")
	flags.StringSliceVar(&g.Discovery.Include, config.FlagInclude, nil, "Only repositories matching these globs")
	flags.StringSliceVar(&g.Discovery.Exclude, config.FlagExclude, nil, "Skip repositories matching these globs")

	flags.StringVar(&g.Migrate.From, config.FlagMigrateFrom, "", "Discovery CSV report to migrate")
	flags.StringVar(&g.Migrate.ECR, config.FlagECR, "",
		"ECR registry prefix, e.g. 123456789012.dkr.ecr.eu-west-1.amazonaws.com")
	flags.StringVar(&g.Migrate.ECRPassword, config.FlagECRPassword, "",
		"ECR password; skips the AWS login (env "+config.EnvECRPassword+")")
	flags.StringVar(&g.Migrate.FailureMode, config.FlagFailureMode, string(types.FailureModeStop),
		"On a report row without tags: stop or continue")
	flags.BoolVar(&g.Migrate.DryRun, config.FlagDryRun, false, "Plan and list the copies without running them")
	flags.StringVar(&g.Migrate.Copier, config.FlagCopier, string(types.CopierCrane), "Copy engine: crane or oras")
}
