// Package consensus derives baseline candidates from a comparison table.
//
// For every parameter the value distribution across sources is scored with a
// confidence that blends how dominant the most common value is with how
// concentrated the whole distribution is (inverse normalized Shannon
// entropy). Parameters that are present in enough sources and score high
// enough become candidates for the baseline.
package consensus

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/agentstation/motherdb/pkg/compare"
	"github.com/agentstation/motherdb/pkg/constants"
)

// tolerance absorbs float rounding when comparing against thresholds.
const tolerance = 1e-9

// Thresholds gates which candidates are accepted.
type Thresholds struct {
	MinOccurrenceRate   float64 `json:"min_occurrence_rate" yaml:"min_occurrence_rate"`
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
}

// DefaultThresholds returns the standard acceptance thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinOccurrenceRate:   constants.DefaultMinOccurrenceRate,
		ConfidenceThreshold: constants.DefaultConfidenceThreshold,
	}
}

// RejectReason explains why a candidate was not accepted.
type RejectReason string

const (
	// RejectLowOccurrence means too few sources carry the candidate value.
	RejectLowOccurrence RejectReason = "low_occurrence"
	// RejectLowConfidence means the sources disagree too much.
	RejectLowConfidence RejectReason = "low_confidence"
)

// Candidate is a proposed baseline value for one parameter.
type Candidate struct {
	ParameterName     string       `json:"parameter_name" yaml:"parameter_name"`
	CandidateValue    string       `json:"candidate_value" yaml:"candidate_value"`
	OccurrenceCount   int          `json:"occurrence_count" yaml:"occurrence_count"`
	TotalSources      int          `json:"total_sources" yaml:"total_sources"`
	ConfidenceScore   float64      `json:"confidence_score" yaml:"confidence_score"`
	DominanceRatio    float64      `json:"dominance_ratio" yaml:"dominance_ratio"`
	NormalizedEntropy float64      `json:"normalized_entropy" yaml:"normalized_entropy"`
	SourceIDs         []string     `json:"source_ids" yaml:"source_ids"`
	MinSpec           *float64     `json:"min_spec,omitempty" yaml:"min_spec,omitempty"`
	MaxSpec           *float64     `json:"max_spec,omitempty" yaml:"max_spec,omitempty"`
	Reason            RejectReason `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// OccurrenceRate is the fraction of sources carrying the candidate value.
func (c Candidate) OccurrenceRate() float64 {
	if c.TotalSources == 0 {
		return 0
	}
	return float64(c.OccurrenceCount) / float64(c.TotalSources)
}

// Analysis holds accepted candidates and, for diagnostics, rejected ones.
// Both lists are sorted by confidence, highest first.
type Analysis struct {
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
	Rejected   []Candidate `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

// Analyze scores every parameter of the table. The number of sources in the
// table is the occurrence denominator, so a source without a value for a
// parameter counts against it. An empty table yields an empty analysis.
func Analyze(table *compare.Table, th Thresholds) Analysis {
	var out Analysis
	if table == nil || len(table.Sources) == 0 {
		return out
	}
	totalSources := len(table.Sources)

	byParam := table.ByParameter()
	for _, name := range table.Parameters() {
		c, ok := score(name, firstPerSource(byParam[name]), table.Sources, totalSources)
		if !ok {
			continue
		}
		switch {
		case c.OccurrenceRate()+tolerance < th.MinOccurrenceRate:
			c.Reason = RejectLowOccurrence
			out.Rejected = append(out.Rejected, c)
		case c.ConfidenceScore+tolerance < th.ConfidenceThreshold:
			c.Reason = RejectLowConfidence
			out.Rejected = append(out.Rejected, c)
		default:
			out.Candidates = append(out.Candidates, c)
		}
	}

	byConfidence := func(list []Candidate) func(i, j int) bool {
		return func(i, j int) bool {
			return list[i].ConfidenceScore > list[j].ConfidenceScore
		}
	}
	sort.SliceStable(out.Candidates, byConfidence(out.Candidates))
	sort.SliceStable(out.Rejected, byConfidence(out.Rejected))
	return out
}

// firstPerSource keeps one row per source so no source is counted twice.
func firstPerSource(rows []compare.Row) []compare.Row {
	seen := make(map[string]bool, len(rows))
	out := make([]compare.Row, 0, len(rows))
	for _, r := range rows {
		if seen[r.SourceID] {
			continue
		}
		seen[r.SourceID] = true
		out = append(out, r)
	}
	return out
}

func score(name string, rows []compare.Row, sourceOrder []string, totalSources int) (Candidate, bool) {
	dist := compare.NewDistribution(rows)
	if dist.Total == 0 {
		return Candidate{}, false
	}

	value, count := dist.Mode()
	counts := make([]int, 0, dist.Distinct())
	for _, v := range dist.Values {
		counts = append(counts, dist.Counts[v])
	}

	c := Candidate{
		ParameterName:     name,
		CandidateValue:    value,
		OccurrenceCount:   count,
		TotalSources:      totalSources,
		DominanceRatio:    float64(count) / float64(dist.Total),
		NormalizedEntropy: NormalizedEntropy(counts),
	}
	c.ConfidenceScore = Confidence(c.DominanceRatio, c.NormalizedEntropy)

	for _, r := range rows {
		if r.Value == value {
			c.SourceIDs = append(c.SourceIDs, r.SourceID)
		}
		if c.MinSpec == nil && r.MinSpec != nil {
			v := *r.MinSpec
			c.MinSpec = &v
		}
		if c.MaxSpec == nil && r.MaxSpec != nil {
			v := *r.MaxSpec
			c.MaxSpec = &v
		}
	}
	sortBySourceOrder(c.SourceIDs, sourceOrder)
	return c, true
}

func sortBySourceOrder(ids, order []string) {
	slices.SortStableFunc(ids, func(a, b string) int {
		return slices.Index(order, a) - slices.Index(order, b)
	})
}

// Entropy returns the Shannon entropy, in bits, of a frequency distribution.
func Entropy(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	p := make([]float64, 0, len(counts))
	for _, c := range counts {
		if c > 0 {
			p = append(p, float64(c)/float64(total))
		}
	}
	return stat.Entropy(p) / math.Ln2
}

// NormalizedEntropy divides the entropy by its maximum, log2 of the number of
// distinct values. It is 0 when there is at most one distinct value.
func NormalizedEntropy(counts []int) float64 {
	k := 0
	for _, c := range counts {
		if c > 0 {
			k++
		}
	}
	if k <= 1 {
		return 0
	}
	return Entropy(counts) / math.Log2(float64(k))
}

// Confidence blends the dominance ratio with inverse normalized entropy and
// clamps the result to [0, 1].
func Confidence(dominance, normalizedEntropy float64) float64 {
	score := constants.DominanceWeight*dominance + constants.ConsistencyWeight*(1-normalizedEntropy)
	return math.Max(0, math.Min(1, score))
}
