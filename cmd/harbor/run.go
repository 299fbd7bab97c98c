package harbor

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/harness/harbor-migrator/config"
	"github.com/harness/harbor-migrator/module/migrate"
	"github.com/harness/harbor-migrator/module/migrate/types"
)

// run resolves the mode, builds and validates the configuration and executes the
// pipeline. Configuration errors are returned before any request is made.
func run(cmd *cobra.Command, pinned types.Mode) error {
	changed := cmd.Flags().Changed

	mode, err := config.ResolveMode(pinned, changed)
	if err != nil {
		return err
	}
	cfg, err := config.Load(mode, changed)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	fs := afero.NewOsFs()
	log.Debug().Str("mode", string(mode)).Msg("Resolved run mode")

	switch mode {
	case types.ModeDiscovery:
		svc, err := migrate.NewDiscoveryService(ctx, cfg, fs)
		if err != nil {
			return err
		}
		_, err = svc.Run(ctx)
		return err
	case types.ModeMigration:
		svc, err := migrate.NewMigrationService(ctx, cfg, fs)
		if err != nil {
			return err
		}
		_, err = svc.Run(ctx)
		return err
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}
