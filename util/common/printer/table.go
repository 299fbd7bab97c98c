package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
)

// parseTableData converts a JSON string + column mapping into headers and string rows.
func parseTableData(jsonStr string, mapping ColumnMapping) ([]string, [][]string, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &rows); err != nil {
		return nil, nil, fmt.Errorf("parse json: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	// Prepare header and field mapping
	var header []string
	var fields []string

	if len(mapping) > 0 {
		for _, m := range mapping {
			if len(m) >= 2 {
				fields = append(fields, m[0])
				header = append(header, m[1])
			}
		}
	} else {
		for k := range rows[0] {
			header = append(header, k)
		}
		sort.Strings(header)
		fields = header
	}

	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := make([]string, len(fields))
		for i, col := range fields {
			val, ok := r[col]
			if !ok || val == nil || val == "" {
				row[i] = "-"
				continue
			}
			row[i] = fmt.Sprint(val)
		}
		tableRows = append(tableRows, row)
	}

	return header, tableRows, nil
}

// PrintTable renders res, which must marshal to a JSON array of objects, as a boxed
// pterm table. Empty input prints nothing.
func PrintTable(w io.Writer, res any, mapping ColumnMapping) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	headers, rows, err := parseTableData(string(raw), mapping)
	if err != nil {
		log.Error().Msgf("failed to parse table data: %v", err)
		return err
	}
	if headers == nil {
		return nil
	}

	data := pterm.TableData{headers}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed(true).
		WithData(data).
		Srender()
	if err != nil {
		log.Error().Msgf("failed to render table: %v", err)
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
