package baseline

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/motherdb"
	"github.com/agentstation/motherdb/internal/appcontext"
	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/records"
)

const equipmentType = "ETCH-300"

func execute(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	logging.DisableLoggingForTest(t)

	store := baseline.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), equipmentType, []baseline.Entry{
		{ParameterName: "Temp", Value: "25", Confidence: 1},
		{ParameterName: "Power", Value: "1200", Confidence: 0.64, MaxSpec: records.Float(1500)},
	}))
	app := appcontext.NewMock(format, motherdb.WithStore(store))

	var buf bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestShowJSON(t *testing.T) {
	out, err := execute(t, "json", "show", equipmentType)
	require.NoError(t, err)

	var entries []baseline.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Power", entries[0].ParameterName)
	assert.Equal(t, "Temp", entries[1].ParameterName)
	require.NotNil(t, entries[0].MaxSpec)
	assert.InDelta(t, 1500, *entries[0].MaxSpec, 1e-9)
}

func TestShowParameter(t *testing.T) {
	out, err := execute(t, "yaml", "show", equipmentType, "-p", "Temp")
	require.NoError(t, err)
	assert.Contains(t, out, "parameter_name: Temp")
	assert.NotContains(t, out, "Power")
}

func TestShowTable(t *testing.T) {
	out, err := execute(t, "table", "show", equipmentType)
	require.NoError(t, err)
	assert.Contains(t, out, "1500")
	assert.Contains(t, out, "0.640")
}

func TestShowNotFound(t *testing.T) {
	_, err := execute(t, "json", "show", "UNKNOWN")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = execute(t, "json", "show", equipmentType, "-p", "Flow")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestShowMatch(t *testing.T) {
	out, err := execute(t, "json", "show", equipmentType, "--match", "^P\\w+$")
	require.NoError(t, err)

	var entries []baseline.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Power", entries[0].ParameterName)

	_, err = execute(t, "json", "show", equipmentType, "--match", "Temp", "-p", "Temp")
	assert.Error(t, err)
}
