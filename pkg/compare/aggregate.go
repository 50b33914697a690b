package compare

import (
	"sort"

	"github.com/agentstation/motherdb/pkg/records"
)

// Distribution counts the non-empty values of one parameter in first-seen order.
type Distribution struct {
	Values []string
	Counts map[string]int
	Total  int
}

// NewDistribution builds the value distribution of the given rows.
func NewDistribution(rows []Row) Distribution {
	d := Distribution{Counts: make(map[string]int)}
	for _, r := range rows {
		if r.Value == "" {
			continue
		}
		if _, ok := d.Counts[r.Value]; !ok {
			d.Values = append(d.Values, r.Value)
		}
		d.Counts[r.Value]++
		d.Total++
	}
	return d
}

// Mode returns the most frequent value; ties go to the first seen.
func (d Distribution) Mode() (string, int) {
	var best string
	var bestCount int
	for _, v := range d.Values {
		if c := d.Counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best, bestCount
}

// Distinct returns the number of distinct non-empty values.
func (d Distribution) Distinct() int {
	return len(d.Values)
}

// rowsFrom turns normalized records into unannotated rows.
func rowsFrom(recs []records.ParameterRecord) []Row {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, Row{
			ParameterName: rec.ParameterName,
			SourceID:      rec.SourceID,
			Value:         rec.Value,
			MinSpec:       cloneFloat(rec.MinSpec),
			MaxSpec:       cloneFloat(rec.MaxSpec),
		})
	}
	return rows
}

// aggregate groups rows by parameter, annotates every row with the
// parameter-level difference figures and orders rows by parameter first-seen
// order. It is safe to run again over its own output. Missing spec bounds are
// filled from the first row of the parameter carrying one when fillBounds is set.
func aggregate(rows []Row, fillBounds bool) []Row {
	order := make(map[string]int)
	groups := make(map[string][]int)
	for i, r := range rows {
		if _, ok := order[r.ParameterName]; !ok {
			order[r.ParameterName] = len(order)
		}
		groups[r.ParameterName] = append(groups[r.ParameterName], i)
	}

	out := make([]Row, len(rows))
	copy(out, rows)

	for _, idx := range groups {
		group := make([]Row, len(idx))
		for k, i := range idx {
			group[k] = out[i]
		}
		dist := NewDistribution(group)
		common, _ := dist.Mode()
		distinct := dist.Distinct()

		var minSpec, maxSpec *float64
		for _, r := range group {
			if minSpec == nil && r.MinSpec != nil {
				minSpec = r.MinSpec
			}
			if maxSpec == nil && r.MaxSpec != nil {
				maxSpec = r.MaxSpec
			}
		}

		for _, i := range idx {
			out[i].IsDifferent = distinct > 1
			out[i].DifferenceCount = max(distinct-1, 0)
			out[i].CommonValue = common
			if !fillBounds {
				continue
			}
			if out[i].MinSpec == nil {
				out[i].MinSpec = cloneFloat(minSpec)
			}
			if out[i].MaxSpec == nil {
				out[i].MaxSpec = cloneFloat(maxSpec)
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return order[out[a].ParameterName] < order[out[b].ParameterName]
	})
	return out
}
