package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type entry struct {
	ID    string   `json:"id" yaml:"id"`
	Words []string `json:"words" yaml:"words"`
}

func TestOutputFormats(t *testing.T) {
	result := []entry{{ID: "ae", Words: []string{"bat", "pack"}}}
	table := Table{Header: []string{"ID", "WORDS"}, Rows: [][]string{{"ae", "bat, pack"}}}

	var out bytes.Buffer
	require.NoError(t, Output(&out, FormatJSON, result, table))
	require.JSONEq(t, `[{"id":"ae","words":["bat","pack"]}]`, out.String())

	out.Reset()
	require.NoError(t, Output(&out, FormatYAML, result, table))
	require.Contains(t, out.String(), "- id: ae")
	require.Contains(t, out.String(), "- bat")

	out.Reset()
	require.NoError(t, Output(&out, FormatTable, result, table))
	require.Equal(t, "ID  WORDS\nae  bat, pack\n", out.String())
}

func TestOutputRejectsUnknownFormat(t *testing.T) {
	require.Error(t, Output(&bytes.Buffer{}, OutputFormat("xml"), nil, Table{}))
}

func TestParseOutputFormat(t *testing.T) {
	format, err := ParseOutputFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseOutputFormat(" Yaml ")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)

	_, err = ParseOutputFormat("xml")
	require.Error(t, err)
}
