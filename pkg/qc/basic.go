package qc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/constants"
	"github.com/agentstation/motherdb/pkg/records"
)

// validName matches parameter names made of the allowed characters.
var validName = regexp.MustCompile(`^[A-Za-z0-9_\-.:/ ]+$`)

// ValidateBasic applies the rule-based checks to every record. Spec bounds
// come from the baseline entry of the parameter when one exists, otherwise
// from the record itself.
func ValidateBasic(recs []records.ParameterRecord, base map[string]baseline.Entry) []Issue {
	var issues []Issue
	var mismatched []string
	seenMismatch := make(map[string]bool)

	addMismatch := func(name string) {
		if !seenMismatch[name] {
			seenMismatch[name] = true
			mismatched = append(mismatched, name)
		}
	}

	for i, rec := range recs {
		name := strings.TrimSpace(rec.ParameterName)
		label := name
		if label == "" {
			label = fmt.Sprintf("record %d", i+1)
		}

		issues = append(issues, missingValues(rec, name, label)...)

		if name != "" && !validName.MatchString(name) {
			issues = append(issues, Issue{
				ParameterName:  name,
				IssueType:      IssueInvalidFormat,
				Description:    "Parameter name contains characters outside letters, digits, space and _ - . : /",
				Severity:       SeverityLow,
				CurrentValue:   name,
				Recommendation: "Rename the parameter using only the allowed characters",
				SourceID:       rec.SourceID,
			})
		}

		if rec.RawMinSpec != "" || rec.RawMaxSpec != "" {
			addMismatch(label)
		}

		minSpec, maxSpec := rec.MinSpec, rec.MaxSpec
		if entry, ok := base[name]; ok && (entry.MinSpec != nil || entry.MaxSpec != nil) {
			minSpec, maxSpec = entry.MinSpec, entry.MaxSpec
		}
		if minSpec == nil && maxSpec == nil {
			continue
		}
		value := records.NormalizeValue(rec.Value)
		if value == "" {
			continue
		}
		v, ok := records.ParseNumber(value)
		if !ok {
			addMismatch(label)
			continue
		}
		if minSpec != nil && v < *minSpec {
			issues = append(issues, Issue{
				ParameterName:  name,
				IssueType:      IssueBelowMin,
				Description:    fmt.Sprintf("Value %s is below the minimum spec %g", value, *minSpec),
				Severity:       SeverityHigh,
				CurrentValue:   value,
				ExpectedValue:  fmt.Sprintf(">= %g", *minSpec),
				Recommendation: "Raise the value into the spec range or review the spec",
				SourceID:       rec.SourceID,
			})
		}
		if maxSpec != nil && v > *maxSpec {
			issues = append(issues, Issue{
				ParameterName:  name,
				IssueType:      IssueAboveMax,
				Description:    fmt.Sprintf("Value %s is above the maximum spec %g", value, *maxSpec),
				Severity:       SeverityHigh,
				CurrentValue:   value,
				ExpectedValue:  fmt.Sprintf("<= %g", *maxSpec),
				Recommendation: "Lower the value into the spec range or review the spec",
				SourceID:       rec.SourceID,
			})
		}
	}

	if len(mismatched) > 0 {
		shown := mismatched[:min(len(mismatched), constants.MaxIssueExamples)]
		desc := fmt.Sprintf("%d parameter(s) have non-numeric values in numeric fields: %s",
			len(mismatched), strings.Join(shown, ", "))
		if extra := len(mismatched) - len(shown); extra > 0 {
			desc += fmt.Sprintf(" (and %d more)", extra)
		}
		issues = append(issues, Issue{
			ParameterName:  strings.Join(shown, ", "),
			IssueType:      IssueTypeMismatch,
			Description:    desc,
			Severity:       SeverityMedium,
			ExpectedValue:  "numeric",
			Recommendation: "Correct the values so spec bounds and bounded values parse as numbers",
		})
	}
	return issues
}

// missingValues reports empty required fields (HIGH) and, for checklist
// parameters, empty descriptive fields (MEDIUM).
func missingValues(rec records.ParameterRecord, name, label string) []Issue {
	var issues []Issue
	if name == "" {
		issues = append(issues, Issue{
			ParameterName:  label,
			IssueType:      IssueMissingValue,
			Description:    "Required field parameter_name is empty",
			Severity:       SeverityHigh,
			Recommendation: "Provide a parameter name",
			SourceID:       rec.SourceID,
		})
	}
	if records.NormalizeValue(rec.Value) == "" {
		issues = append(issues, Issue{
			ParameterName:  label,
			IssueType:      IssueMissingValue,
			Description:    "Required field value is empty",
			Severity:       SeverityHigh,
			Recommendation: "Provide a value for the parameter",
			SourceID:       rec.SourceID,
		})
	}
	if !rec.IsChecklist {
		return issues
	}

	var missing []string
	for _, f := range []struct{ field, value string }{
		{"module", rec.Module},
		{"part_id", rec.PartID},
		{"item_type", rec.ItemType},
		{"unit", rec.Unit},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.field)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, Issue{
			ParameterName:  label,
			IssueType:      IssueMissingValue,
			Description:    "Checklist parameter is missing " + strings.Join(missing, ", "),
			Severity:       SeverityMedium,
			Recommendation: "Complete the descriptive fields of checklist parameters",
			SourceID:       rec.SourceID,
		})
	}
	return issues
}
