// Package printer provides output formatting utilities for the CLI
package printer

import (
	"io"
	"os"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ColumnMapping defines a mapping between original field names and display names
// Format: [["originalField", "Display Name"], ...]
type ColumnMapping [][]string

// PrintOptions combines options for both JSON and table output
type PrintOptions struct {
	// Format specifies the output format ("json" or "table")
	Format string
	// Writer is the output destination (defaults to os.Stdout if nil)
	Writer io.Writer
	// JsonIndent specifies if JSON should be pretty-printed
	JsonIndent bool
	// ColumnMapping defines custom column ordering and display names for table format
	ColumnMapping ColumnMapping
}

// DefaultPrintOptions returns table output on stdout.
func DefaultPrintOptions() PrintOptions {
	return PrintOptions{
		Format:     FormatTable,
		Writer:     os.Stdout,
		JsonIndent: true,
	}
}

// Print formats and outputs data in the given format with the column mapping applied to
// table output.
func Print(res any, format string, mappings ColumnMapping) error {
	options := DefaultPrintOptions()
	if format != "" {
		options.Format = format
	}
	options.ColumnMapping = mappings
	return PrintWithOptions(res, options)
}

// PrintWithOptions formats and outputs data using the provided options
func PrintWithOptions(res any, options PrintOptions) error {
	if options.Writer == nil {
		options.Writer = os.Stdout
	}
	if options.Format == FormatJSON {
		return PrintJson(options.Writer, res, options.JsonIndent)
	}
	return PrintTable(options.Writer, res, options.ColumnMapping)
}
