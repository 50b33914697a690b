package consensus_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/motherdb/pkg/compare"
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/records"
)

// tableOf builds a comparison table where source i reports values[param][i].
func tableOf(t *testing.T, sources int, values map[string][]string, order ...string) *compare.Table {
	t.Helper()
	logging.DisableLoggingForTest(t)

	datasets := make([]records.Dataset, sources)
	for i := range datasets {
		datasets[i].SourceID = fmt.Sprintf("unit-%d", i+1)
		for _, name := range order {
			datasets[i].Records = append(datasets[i].Records, records.ParameterRecord{
				ParameterName: name,
				Value:         values[name][i],
			})
		}
	}
	return compare.New().Compare(context.Background(), datasets, false)
}

func find(list []consensus.Candidate, name string) (consensus.Candidate, bool) {
	for _, c := range list {
		if c.ParameterName == name {
			return c, true
		}
	}
	return consensus.Candidate{}, false
}

func TestFourOfFiveAgreement(t *testing.T) {
	table := tableOf(t, 5, map[string][]string{
		"X": {"10", "10", "11", "10", "10"},
	}, "X")

	all := consensus.Analyze(table, consensus.Thresholds{MinOccurrenceRate: 0.8, ConfidenceThreshold: 0})
	c, ok := find(all.Candidates, "X")
	require.True(t, ok)
	assert.Equal(t, "10", c.CandidateValue)
	assert.Equal(t, 4, c.OccurrenceCount)
	assert.Equal(t, 5, c.TotalSources)
	assert.InDelta(t, 0.8, c.OccurrenceRate(), 1e-12)
	assert.Equal(t, []string{"unit-1", "unit-2", "unit-4", "unit-5"}, c.SourceIDs)

	// 0.7*0.8 + 0.3*(1 - H(0.8, 0.2))
	h := -(0.8*math.Log2(0.8) + 0.2*math.Log2(0.2))
	assert.InDelta(t, 0.7*0.8+0.3*(1-h), c.ConfidenceScore, 1e-9)

	// the blended score sits below the default confidence threshold
	def := consensus.Analyze(table, consensus.DefaultThresholds())
	rejected, ok := find(def.Rejected, "X")
	require.True(t, ok)
	assert.Equal(t, consensus.RejectLowConfidence, rejected.Reason)

	// a 0.6 confidence threshold admits it with the default occurrence rate
	relaxed := consensus.Analyze(table, consensus.Thresholds{
		MinOccurrenceRate:   consensus.DefaultThresholds().MinOccurrenceRate,
		ConfidenceThreshold: 0.6,
	})
	accepted, ok := find(relaxed.Candidates, "X")
	require.True(t, ok)
	assert.Equal(t, "10", accepted.CandidateValue)
	assert.InDelta(t, 0.6434, accepted.ConfidenceScore, 1e-4)
	_, ok = find(relaxed.Rejected, "X")
	assert.False(t, ok)
}

func TestFullyDistinctValuesRejected(t *testing.T) {
	table := tableOf(t, 5, map[string][]string{
		"Y": {"1", "2", "3", "4", "5"},
	}, "Y")

	a := consensus.Analyze(table, consensus.DefaultThresholds())
	assert.Empty(t, a.Candidates)

	c, ok := find(a.Rejected, "Y")
	require.True(t, ok)
	assert.InDelta(t, 1.0, c.NormalizedEntropy, 1e-9)
	assert.InDelta(t, 0.14, c.ConfidenceScore, 1e-9)
}

func TestOccurrenceBoundaryIsInclusive(t *testing.T) {
	table := tableOf(t, 5, map[string][]string{
		"Z": {"7", "7", "7", "7", ""},
	}, "Z")

	a := consensus.Analyze(table, consensus.DefaultThresholds())
	c, ok := find(a.Candidates, "Z")
	require.True(t, ok)
	assert.InDelta(t, 0.8, c.OccurrenceRate(), 1e-12)
	assert.InDelta(t, 1.0, c.ConfidenceScore, 1e-12)

	a = consensus.Analyze(table, consensus.Thresholds{MinOccurrenceRate: 0.81, ConfidenceThreshold: 0.7})
	c, ok = find(a.Rejected, "Z")
	require.True(t, ok)
	assert.Equal(t, consensus.RejectLowOccurrence, c.Reason)
}

func TestAnalyzeSortedAndIdempotent(t *testing.T) {
	table := tableOf(t, 4, map[string][]string{
		"A": {"1", "1", "1", "2"},
		"B": {"5", "5", "5", "5"},
		"C": {"x", "x", "y", "y"},
		"D": {"9", "9", "9", "9"},
	}, "A", "B", "C", "D")

	th := consensus.Thresholds{MinOccurrenceRate: 0, ConfidenceThreshold: 0}
	first := consensus.Analyze(table, th)
	second := consensus.Analyze(table, th)
	assert.Equal(t, first, second)

	var names []string
	for _, c := range first.Candidates {
		names = append(names, c.ParameterName)
	}
	// ties keep parameter order
	assert.Equal(t, []string{"B", "D", "A", "C"}, names)
	for i := 1; i < len(first.Candidates); i++ {
		assert.GreaterOrEqual(t, first.Candidates[i-1].ConfidenceScore, first.Candidates[i].ConfidenceScore)
	}
}

func TestDominanceMonotonic(t *testing.T) {
	prev := -1.0
	for count := 1; count <= 5; count++ {
		values := make([]string, 5)
		for i := range values {
			if i < count {
				values[i] = "v"
			} else {
				values[i] = fmt.Sprint(i)
			}
		}
		table := tableOf(t, 5, map[string][]string{"P": values}, "P")
		a := consensus.Analyze(table, consensus.Thresholds{})
		c, ok := find(a.Candidates, "P")
		require.True(t, ok)
		assert.GreaterOrEqual(t, c.DominanceRatio, prev)
		prev = c.DominanceRatio
	}
}

func TestAnalyzeEmptyTable(t *testing.T) {
	assert.Empty(t, consensus.Analyze(nil, consensus.DefaultThresholds()).Candidates)
	assert.Empty(t, consensus.Analyze(&compare.Table{}, consensus.DefaultThresholds()).Candidates)
}

func TestEntropyHelpers(t *testing.T) {
	assert.InDelta(t, 1.0, consensus.Entropy([]int{1, 1}), 1e-12)
	assert.InDelta(t, 2.0, consensus.Entropy([]int{3, 3, 3, 3}), 1e-12)
	assert.Zero(t, consensus.NormalizedEntropy([]int{4}))
	assert.Equal(t, 1.0, consensus.Confidence(1, 0))
	assert.Equal(t, 0.0, consensus.Confidence(-5, 2))
}
