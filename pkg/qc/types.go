// Package qc validates parameter sets. Basic validation applies fixed rules
// (missing values, non-numeric bounds, spec range, name format); advanced
// analysis adds statistical checks (outliers, sequence gaps, consistency
// against a reference and pairwise correlation). The Orchestrator picks the
// depth, runs the validators and aggregates a Result.
package qc

import (
	"strings"
	"time"

	"github.com/agentstation/motherdb/pkg/errors"
)

// Severity ranks an issue.
type Severity string

// Severity levels, most severe first.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// Severities lists all severities, most severe first.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Rank orders severities; lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// IssueType classifies an issue.
type IssueType string

// Issue types reported by the validators.
const (
	IssueMissingValue        IssueType = "missing_value"
	IssueTypeMismatch        IssueType = "type_mismatch"
	IssueBelowMin            IssueType = "below_min"
	IssueAboveMax            IssueType = "above_max"
	IssueInvalidFormat       IssueType = "invalid_format"
	IssueOutlier             IssueType = "outlier"
	IssueSequenceGap         IssueType = "sequence_gap"
	IssueMissingRequiredItem IssueType = "missing_required_item"
	IssueUnregisteredItem    IssueType = "unregistered_item"
	IssueCorrelation         IssueType = "correlation"
)

// Issue is one finding of a validator.
type Issue struct {
	ParameterName  string    `json:"parameter_name" yaml:"parameter_name"`
	IssueType      IssueType `json:"issue_type" yaml:"issue_type"`
	Description    string    `json:"description" yaml:"description"`
	Severity       Severity  `json:"severity" yaml:"severity"`
	CurrentValue   string    `json:"current_value,omitempty" yaml:"current_value,omitempty"`
	ExpectedValue  string    `json:"expected_value,omitempty" yaml:"expected_value,omitempty"`
	Recommendation string    `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	SourceID       string    `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	Confidence     float64   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Mode selects the validation depth.
type Mode string

// Validation modes.
const (
	ModeBasic    Mode = "BASIC"
	ModeAdvanced Mode = "ADVANCED"
	ModeAuto     Mode = "AUTO"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModeBasic, ModeAdvanced, ModeAuto:
		return m, nil
	case "":
		return ModeAuto, nil
	}
	return "", errors.NewValidationError("mode", s, "must be one of BASIC, ADVANCED, AUTO")
}

// Result aggregates one QC run.
type Result struct {
	ID                string           `json:"id" yaml:"id"`
	Timestamp         time.Time        `json:"timestamp" yaml:"timestamp"`
	Mode              Mode             `json:"mode" yaml:"mode"`
	TotalParameters   int              `json:"total_parameters" yaml:"total_parameters"`
	PassedCount       int              `json:"passed_count" yaml:"passed_count"`
	FailedCount       int              `json:"failed_count" yaml:"failed_count"`
	WarningCount      int              `json:"warning_count" yaml:"warning_count"`
	Issues            []Issue          `json:"issues" yaml:"issues"`
	SeverityBreakdown map[Severity]int `json:"severity_breakdown" yaml:"severity_breakdown"`
}

// PassRate is passed over total parameters, 0 when there are none.
func (r *Result) PassRate() float64 {
	if r == nil || r.TotalParameters == 0 {
		return 0
	}
	return float64(r.PassedCount) / float64(r.TotalParameters)
}

// IssuesOf returns the issues of one type.
func (r *Result) IssuesOf(t IssueType) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.IssueType == t {
			out = append(out, issue)
		}
	}
	return out
}
