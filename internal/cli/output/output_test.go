package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  yaml  ", want: FormatYAML},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableData("NAME", "SIZE")
	table.AddRow("docs", "1.0KiB")
	table.AddRow("report.pdf", "100B")

	require.NoError(t, NewPrinter(&buf, FormatTable).Print(table))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "1.0KiB")
}

func TestPrinterTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(map[string]int{"used": 3}))
	assert.JSONEq(t, `{"used": 3}`, buf.String())
}

func TestPrinterJSONAndYAML(t *testing.T) {
	data := struct {
		Used  int64 `json:"used" yaml:"used"`
		Limit int64 `json:"limit" yaml:"limit"`
	}{Used: 1, Limit: 2}

	var js bytes.Buffer
	require.NoError(t, NewPrinter(&js, FormatJSON).Print(data))
	assert.JSONEq(t, `{"used": 1, "limit": 2}`, js.String())

	var ym bytes.Buffer
	require.NoError(t, NewPrinter(&ym, FormatYAML).Print(data))
	assert.Equal(t, "used: 1\nlimit: 2\n", ym.String())
}

func TestPrinterStatusWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)
	p.Success("done")
	p.Warning("careful")
	assert.Equal(t, "done\ncareful\n", buf.String())
}

func TestPrintKeyValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintKeyValues(&buf, [][2]string{{"Used", "100B"}, {"Limit", "1.0KiB"}}))
	assert.Contains(t, buf.String(), "Used")
	assert.Contains(t, buf.String(), "1.0KiB")
}
