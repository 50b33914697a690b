package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/motherdb/internal/cmd/table"
)

type row struct {
	ParameterName string `json:"parameter_name"`
	Value         string `json:"value,omitempty"`
	Hidden        string `json:"-"`
}

func TestTableFormatterData(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(FormatTable).Format(&buf, table.Data{
		Headers:         []string{"Parameter", "Value"},
		Rows:            [][]string{{"Temp", "25"}, {"Power", "1200"}},
		ColumnAlignment: []table.Align{table.AlignLeft, table.AlignRight},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "PARAMETER")
	assert.Contains(t, out, "Temp")
	assert.Contains(t, out, "1200")
}

func TestTableFormatterReflection(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(FormatTable).Format(&buf, []row{{ParameterName: "Temp", Value: "25", Hidden: "secret"}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Temp")
	assert.NotContains(t, out, "secret")
}

func TestStructToTableData(t *testing.T) {
	f := &TableFormatter{}
	data := f.convertToTableData(row{ParameterName: "Temp", Value: "25"})
	require.NotNil(t, data)
	assert.Equal(t, []string{"Property", "Value"}, data.Headers)
	assert.Equal(t, [][]string{{"Parameter Name", "Temp"}, {"Value", "25"}}, data.Rows)

	assert.Nil(t, f.convertToTableData(42))
}

func TestJSONAndYAMLFormatters(t *testing.T) {
	data := []row{{ParameterName: "Temp", Value: "25"}}

	var js bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&js, data))
	assert.Contains(t, js.String(), `"parameter_name": "Temp"`)

	var ym bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&ym, map[string]string{"parameter": "Temp"}))
	assert.Equal(t, "parameter: Temp\n", ym.String())
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "JSON", "yaml", "wide", ""} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}
