package differ_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/differ"
	"github.com/agentstation/motherdb/pkg/records"
)

func TestEntries(t *testing.T) {
	existing := []baseline.Entry{
		{ParameterName: "Temp", Value: "10", Confidence: 0.5},
		{ParameterName: "Power", Value: "1200", Confidence: 0.9, MaxSpec: records.Float(1500)},
		{ParameterName: "Legacy", Value: "on", Confidence: 1},
	}
	updated := []baseline.Entry{
		{ParameterName: "Temp", Value: "11", Confidence: 0.9},
		{ParameterName: "Power", Value: "1200", Confidence: 0.9, MaxSpec: records.Float(1500)},
		{ParameterName: "Gas", Value: "20", Confidence: 0.8},
	}

	cs := differ.New().Entries(existing, updated)

	require.Len(t, cs.Added, 1)
	assert.Equal(t, "Gas", cs.Added[0].ParameterName)

	require.Len(t, cs.Updated, 1)
	u := cs.Updated[0]
	assert.Equal(t, "Temp", u.ParameterName)
	require.Len(t, u.Changes, 2)
	assert.Equal(t, "value", u.Changes[0].Path)
	assert.Equal(t, "10", u.Changes[0].OldValue)
	assert.Equal(t, "11", u.Changes[0].NewValue)
	assert.Equal(t, "confidence", u.Changes[1].Path)

	require.Len(t, cs.Removed, 1)
	assert.Equal(t, "Legacy", cs.Removed[0].ParameterName)

	assert.Equal(t, 3, cs.Summary.TotalChanges)
	assert.True(t, cs.HasChanges())
	assert.Equal(t, "Changeset: 1 added, 1 updated, 1 removed (Total: 3 changes)", cs.String())
}

func TestEntriesOptions(t *testing.T) {
	existing := []baseline.Entry{{ParameterName: "Temp", Value: "10", Confidence: 0.5, MinSpec: records.Float(0)}}
	updated := []baseline.Entry{{ParameterName: "Temp", Value: "10", Confidence: 0.52}}

	cs := differ.New(differ.WithConfidenceTolerance(0.05), differ.WithIgnoredFields("min_spec")).Entries(existing, updated)
	assert.True(t, cs.IsEmpty())
	assert.Equal(t, "No changes detected", cs.String())

	cs = differ.New().Entries(existing, updated)
	require.Len(t, cs.Updated, 1)
	paths := []string{}
	for _, c := range cs.Updated[0].Changes {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{"confidence", "min_spec"}, paths)
	assert.Equal(t, differ.ChangeTypeRemove, cs.Updated[0].Changes[1].Type)

	cs = differ.New(differ.WithRemovals(false)).Entries(existing, nil)
	assert.Empty(t, cs.Removed)
}

func TestBaselinesAndPrint(t *testing.T) {
	cs := differ.New().Baselines(
		map[string]baseline.Entry{},
		map[string]baseline.Entry{"B": {ParameterName: "B", Value: "1"}, "A": {ParameterName: "A", Value: "2"}},
	)
	require.Len(t, cs.Added, 2)
	assert.Equal(t, "A", cs.Added[0].ParameterName)

	var buf bytes.Buffer
	cs.Print(&buf)
	assert.Contains(t, buf.String(), "Added Parameters (2)")
	assert.Contains(t, buf.String(), "A = 2")
}
