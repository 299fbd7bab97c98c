package harbor

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/harness/harbor-migrator/module/migrate/types"
)

func getDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Inventory a Harbor project into NDJSON and CSV reports",
		Long: heredoc.Doc(`
			Lists every repository of --project, fetches the newest --artifacts artifacts of each
			(newest push first) and writes the reports to --out. Existing reports for the project
			are overwritten.

			Requires --harbor-url, --project and --token (or --harbor-user/--harbor-pass).
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, types.ModeDiscovery)
		},
	}
}
