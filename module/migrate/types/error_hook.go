package types

import (
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// ErrorHook mirrors error-level log lines to the terminal through pterm. It is attached
// when logs are redirected to a file so failures stay visible to the operator.
type ErrorHook struct{}

// Run implements the zerolog.Hook interface
func (h ErrorHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level >= zerolog.ErrorLevel && level < zerolog.NoLevel {
		pterm.Error.Println(msg)
	}
}
