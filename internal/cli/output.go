package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
)

// OutputFormat is how list commands render their results.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatYAML  OutputFormat = "yaml"
	FormatJSON  OutputFormat = "json"
)

// ParseOutputFormat accepts table, yaml, or json (case-insensitive).
func ParseOutputFormat(value string) (OutputFormat, error) {
	switch format := OutputFormat(strings.ToLower(strings.TrimSpace(value))); format {
	case "", FormatTable:
		return FormatTable, nil
	case FormatYAML, FormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// Table is the row form of a result, used by FormatTable.
type Table struct {
	Header []string
	Rows   [][]string
}

// Output writes result in the requested format. table is consulted only for
// FormatTable.
func Output(w io.Writer, format OutputFormat, result any, table Table) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatTable, "":
		return outputTable(w, table)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputTable(w io.Writer, table Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(table.Header) > 0 {
		fmt.Fprintln(tw, strings.Join(table.Header, "\t"))
	}
	for _, row := range table.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
