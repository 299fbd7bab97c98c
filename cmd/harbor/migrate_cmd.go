package harbor

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/harness/harbor-migrator/module/migrate/types"
)

func getMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Copy the artifacts of a discovery report to ECR",
		Long: heredoc.Doc(`
			Reads the CSV given by --migrate-from and copies every (artifact, tag) pair:

			  <harbor-host>/<project>/<repository>@<digest>  ->  <ecr>/<repository>:<tag>

			The ECR password is requested from AWS for the region named in the registry host
			unless --ecr-password is given. A row without tags stops the run
			(--failure-mode stop) or is reported and skipped (--failure-mode continue).
			Failed copies are reported in the summary and make the command exit non-zero.

			Example configuration file (hbm.yaml):

			  harbor:
			    endpoint: https://harbor.example.com/api/v2.0
			    credentials:
			      username: robot
			      password: ${HARBOR_PASS}
			  ecr:
			    endpoint: 123456789012.dkr.ecr.eu-west-1.amazonaws.com
			  migration:
			    from: ./harbor-reports/harbor_artifacts_library.csv
			    concurrency: 4
			    failureMode: continue
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, types.ModeMigration)
		},
	}
}
