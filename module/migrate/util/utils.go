package util

import (
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// GenOCIImagePath joins a registry host and path segments, skipping empty segments.
func GenOCIImagePath(host string, pathParams ...string) string {
	parts := []string{strings.TrimSuffix(host, "/")}
	for _, p := range pathParams {
		p = strings.Trim(p, "/")
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

func GetSkipPrinter() *pterm.PrefixPrinter {
	return &pterm.PrefixPrinter{
		MessageStyle: &pterm.ThemeDefault.WarningMessageStyle,
		Prefix: pterm.Prefix{
			Style: &pterm.ThemeDefault.WarningPrefixStyle,
			Text:  "SKIPPED",
		},
		Writer: os.Stdout,
	}
}
