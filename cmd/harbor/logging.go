package harbor

import (
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harness/harbor-migrator/config"
	"github.com/harness/harbor-migrator/internal/terminal"
	"github.com/harness/harbor-migrator/module/migrate/types"
	"github.com/harness/harbor-migrator/util/common/errors"
)

// setupLogging points the global logger at stderr, or at --log-file with errors mirrored
// to the console.
func setupLogging() error {
	termInfo := terminal.Detect(config.Global.NoColor)
	if !termInfo.ColorEnabled {
		pterm.DisableColor()
	}

	level := zerolog.InfoLevel
	if config.Global.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.Global.LogFile != "" {
		f, err := os.OpenFile(config.Global.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.NewFileError(config.Global.LogFile, "open", err)
		}
		log.Logger = zerolog.New(f).With().Timestamp().Logger().Hook(types.ErrorHook{})
		return nil
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !termInfo.LogColorEnabled,
	})
	return nil
}
