// Package table converts motherdb results into rows for CLI tables.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/compare"
	"github.com/agentstation/motherdb/pkg/consensus"
	"github.com/agentstation/motherdb/pkg/differ"
	"github.com/agentstation/motherdb/pkg/qc"
	"github.com/agentstation/motherdb/pkg/reconcile"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// differentMark flags differing parameters in comparison tables.
const differentMark = "*"

// PivotToTableData renders a comparison as one row per parameter and one
// column per source. Differing parameters are marked in the first column.
func PivotToTableData(t *compare.Table) Data {
	p := t.Pivot()
	headers := append([]string{"", "Parameter"}, p.Sources...)
	headers = append(headers, "Common")

	rows := make([][]string, 0, len(p.Parameters))
	for i, name := range p.Parameters {
		mark := ""
		if p.Different[i] {
			mark = differentMark
		}
		row := append([]string{mark, name}, orDash(p.Values[i])...)
		row = append(row, dash(p.Common[i]))
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// RowsToTableData renders a comparison one row per (parameter, source).
func RowsToTableData(t *compare.Table) Data {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, []string{
			r.ParameterName,
			r.SourceID,
			dash(r.Value),
			strconv.FormatBool(r.IsDifferent),
			strconv.Itoa(r.DifferenceCount),
			dash(r.CommonValue),
			FormatBound(r.MinSpec),
			FormatBound(r.MaxSpec),
		})
	}
	return Data{
		Headers:         []string{"Parameter", "Source", "Value", "Different", "Diff Count", "Common", "Min", "Max"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignCenter, AlignRight, AlignLeft, AlignRight, AlignRight},
	}
}

// SummaryToTableData renders a difference summary as key-value rows.
func SummaryToTableData(s compare.Summary) Data {
	return Data{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Parameters", strconv.Itoa(s.Total)},
			{"Different", strconv.Itoa(s.Different)},
			{"Identical", strconv.Itoa(s.Identical)},
			{"Difference Rate", FormatPercent(s.DifferenceRate)},
		},
	}
}

// CandidatesToTableData renders consensus candidates. Rejected candidates get
// a reason column.
func CandidatesToTableData(candidates []consensus.Candidate, withReason bool) Data {
	headers := []string{"Parameter", "Value", "Occurrence", "Confidence", "Dominance", "Entropy", "Min", "Max"}
	if withReason {
		headers = append(headers, "Reason")
	}
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		row := []string{
			c.ParameterName,
			dash(c.CandidateValue),
			fmt.Sprintf("%d/%d", c.OccurrenceCount, c.TotalSources),
			fmt.Sprintf("%.3f", c.ConfidenceScore),
			fmt.Sprintf("%.3f", c.DominanceRatio),
			fmt.Sprintf("%.3f", c.NormalizedEntropy),
			FormatBound(c.MinSpec),
			FormatBound(c.MaxSpec),
		}
		if withReason {
			row = append(row, string(c.Reason))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// ConflictsToTableData renders resolved conflicts.
func ConflictsToTableData(conflicts []reconcile.Conflict) Data {
	rows := make([][]string, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, []string{
			c.ParameterName,
			fmt.Sprintf("%s (%.2f)", dash(c.ExistingValue), c.ExistingConfidence),
			fmt.Sprintf("%s (%.2f)", dash(c.NewValue), c.NewConfidence),
			string(c.Resolution),
			string(c.Action),
			dash(c.FinalValue),
		})
	}
	return Data{
		Headers: []string{"Parameter", "Existing", "New", "Resolution", "Action", "Final"},
		Rows:    rows,
	}
}

// ChangesetToTableData renders a baseline changeset one row per change.
func ChangesetToTableData(cs *differ.Changeset) Data {
	data := Data{Headers: []string{"Change", "Parameter", "Details"}}
	if cs == nil {
		return data
	}
	for _, e := range cs.Added {
		data.Rows = append(data.Rows, []string{"+", e.ParameterName, "value=" + e.Value})
	}
	for _, u := range cs.Updated {
		details := make([]string, 0, len(u.Changes))
		for _, ch := range u.Changes {
			details = append(details, fmt.Sprintf("%s: %s -> %s", ch.Path, ch.OldValue, ch.NewValue))
		}
		data.Rows = append(data.Rows, []string{"~", u.ParameterName, strings.Join(details, "; ")})
	}
	for _, e := range cs.Removed {
		data.Rows = append(data.Rows, []string{"-", e.ParameterName, "value=" + e.Value})
	}
	return data
}

// BaselineToTableData renders stored baseline entries.
func BaselineToTableData(entries []baseline.Entry) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		updated := "-"
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			e.ParameterName,
			dash(e.Value),
			fmt.Sprintf("%.3f", e.Confidence),
			FormatBound(e.MinSpec),
			FormatBound(e.MaxSpec),
			updated,
		})
	}
	return Data{
		Headers: []string{"Parameter", "Value", "Confidence", "Min", "Max", "Updated"},
		Rows:    rows,
	}
}

// IssuesToTableData renders QC issues. The wide view adds the current and
// expected values and the recommendation.
func IssuesToTableData(issues []qc.Issue, wide bool) Data {
	headers := []string{"Severity", "Parameter", "Issue", "Description"}
	if wide {
		headers = append(headers, "Current", "Expected", "Recommendation")
	}
	rows := make([][]string, 0, len(issues))
	for _, i := range issues {
		row := []string{string(i.Severity), i.ParameterName, string(i.IssueType), i.Description}
		if wide {
			row = append(row, dash(i.CurrentValue), dash(i.ExpectedValue), dash(i.Recommendation))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// QCSummaryToTableData renders the counts of a QC result.
func QCSummaryToTableData(r *qc.Result) Data {
	rows := [][]string{
		{"Mode", string(r.Mode)},
		{"Parameters", strconv.Itoa(r.TotalParameters)},
		{"Passed", strconv.Itoa(r.PassedCount)},
		{"Failed", strconv.Itoa(r.FailedCount)},
		{"Warnings", strconv.Itoa(r.WarningCount)},
		{"Pass Rate", FormatPercent(r.PassRate())},
	}
	for _, s := range qc.Severities {
		if n := r.SeverityBreakdown[s]; n > 0 {
			rows = append(rows, []string{string(s), strconv.Itoa(n)})
		}
	}
	return Data{Headers: []string{"Metric", "Value"}, Rows: rows}
}

// FormatBound formats an optional spec bound.
func FormatBound(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

// FormatPercent formats a ratio as a percentage.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orDash(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = dash(v)
	}
	return out
}
