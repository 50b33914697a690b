package records_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/records"
)

func TestDatasetCheckSchema(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		wantErr bool
	}{
		{name: "no declared columns", columns: nil},
		{name: "required columns", columns: []string{"parameter_name", "value", "min_spec"}},
		{name: "case insensitive", columns: []string{"Parameter_Name", " VALUE "}},
		{name: "missing value", columns: []string{"parameter_name", "min_spec"}, wantErr: true},
		{name: "missing name", columns: []string{"value"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := records.Dataset{SourceID: "unit-a", Columns: tt.columns}.CheckSchema()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsSchemaError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDatasetNormalize(t *testing.T) {
	ds := records.Dataset{
		SourceID: "unit-a",
		Records: []records.ParameterRecord{
			{ParameterName: " Temp ", Value: " 10 "},
			{ParameterName: "", Value: "5"},
			{ParameterName: "Gas", Value: "NULL"},
		},
	}

	out, errs := ds.Normalize()
	require.Len(t, out.Records, 2)
	require.Len(t, errs, 1)
	assert.True(t, errors.IsSchemaError(errs[0]))

	assert.Equal(t, "Temp", out.Records[0].ParameterName)
	assert.Equal(t, "10", out.Records[0].Value)
	assert.Equal(t, "unit-a", out.Records[0].SourceID)
	assert.Equal(t, "", out.Records[1].Value)
}

func TestParseBound(t *testing.T) {
	v, err := records.ParseBound("Temp", "max_spec", "100")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 100.0, *v)

	v, err = records.ParseBound("Temp", "max_spec", " ")
	assert.NoError(t, err)
	assert.Nil(t, v)

	_, err = records.ParseBound("Temp", "max_spec", "abc")
	assert.True(t, errors.IsNumericParseError(err))
}

func TestParseNumber(t *testing.T) {
	f, ok := records.ParseNumber("1,250.5")
	assert.True(t, ok)
	assert.Equal(t, 1250.5, f)

	_, ok = records.ParseNumber("ON")
	assert.False(t, ok)
}

func TestEstimatedSize(t *testing.T) {
	ds := records.Dataset{Records: make([]records.ParameterRecord, 4)}
	assert.Equal(t, int64(4*256), ds.EstimatedSize())

	ds.SizeBytes = 10
	assert.Equal(t, int64(10), ds.EstimatedSize())
}

func TestParameterNames(t *testing.T) {
	recs := []records.ParameterRecord{
		{ParameterName: "B"}, {ParameterName: "A"}, {ParameterName: "B"}, {ParameterName: ""},
	}
	assert.Equal(t, []string{"B", "A"}, records.ParameterNames(recs))
}
