package candidates

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/motherdb"
	"github.com/agentstation/motherdb/internal/appcontext"
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/records"
	"github.com/agentstation/motherdb/pkg/sources"
)

// Temp agrees across all three units; Power is split 2/1.
func provider() *sources.MemoryProvider {
	unit := func(id, power string) records.Dataset {
		return records.Dataset{SourceID: id, Records: []records.ParameterRecord{
			{ParameterName: "Temp", Value: "25"},
			{ParameterName: "Power", Value: power},
		}}
	}
	return sources.NewMemoryProvider(unit("a", "1200"), unit("b", "1200"), unit("c", "1250"))
}

func execute(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	logging.DisableLoggingForTest(t)
	app := appcontext.NewMock(format, motherdb.WithProvider(provider()))

	var buf bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func decode(t *testing.T, out string) consensus.Analysis {
	t.Helper()
	var analysis consensus.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	return analysis
}

func TestCandidatesDefaults(t *testing.T) {
	out, err := execute(t, "json", "a", "b", "c")
	require.NoError(t, err)

	analysis := decode(t, out)
	require.Len(t, analysis.Candidates, 1)
	assert.Equal(t, "Temp", analysis.Candidates[0].ParameterName)
	assert.InDelta(t, 1.0, analysis.Candidates[0].ConfidenceScore, 1e-9)
	assert.Empty(t, analysis.Rejected)
}

func TestCandidatesRejected(t *testing.T) {
	out, err := execute(t, "json", "a", "b", "c", "--rejected")
	require.NoError(t, err)

	analysis := decode(t, out)
	require.Len(t, analysis.Rejected, 1)
	assert.Equal(t, "Power", analysis.Rejected[0].ParameterName)
	assert.Equal(t, consensus.RejectLowOccurrence, analysis.Rejected[0].Reason)
	assert.Equal(t, []string{"a", "b"}, analysis.Rejected[0].SourceIDs)
}

func TestCandidatesThresholdFlags(t *testing.T) {
	out, err := execute(t, "json", "a", "b", "c", "--min-occurrence", "0.5", "--min-confidence", "0.4")
	require.NoError(t, err)

	analysis := decode(t, out)
	require.Len(t, analysis.Candidates, 2)
	assert.Equal(t, "Temp", analysis.Candidates[0].ParameterName)
	assert.Equal(t, "Power", analysis.Candidates[1].ParameterName)
	assert.Equal(t, "1200", analysis.Candidates[1].CandidateValue)
}

func TestCandidatesInvalidThreshold(t *testing.T) {
	_, err := execute(t, "json", "a", "b", "--min-confidence", "1.5")
	assert.Error(t, err)
}

func TestCandidatesTable(t *testing.T) {
	out, err := execute(t, "table", "a", "b", "c", "--rejected")
	require.NoError(t, err)
	assert.Contains(t, out, "Temp")
	assert.Contains(t, out, "Rejected:")
	assert.Contains(t, out, "low_occurrence")
}
