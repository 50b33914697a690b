// Package records defines the normalized parameter record shared by the
// comparison, consensus and QC engines, along with the schema contract a
// dataset has to satisfy before it is merged.
package records

import (
	"strconv"
	"strings"

	"github.com/agentstation/motherdb/pkg/constants"
	"github.com/agentstation/motherdb/pkg/errors"
)

// Column names a dataset must expose.
const (
	ColumnParameterName = "parameter_name"
	ColumnValue         = "value"
	ColumnMinSpec       = "min_spec"
	ColumnMaxSpec       = "max_spec"
)

// ParameterRecord is one parameter value read from one source.
type ParameterRecord struct {
	SourceID      string   `json:"source_id" yaml:"source_id"`
	ParameterName string   `json:"parameter_name" yaml:"parameter_name"`
	Value         string   `json:"value" yaml:"value"`
	MinSpec       *float64 `json:"min_spec,omitempty" yaml:"min_spec,omitempty"`
	MaxSpec       *float64 `json:"max_spec,omitempty" yaml:"max_spec,omitempty"`

	// RawMinSpec and RawMaxSpec keep spec bounds that failed to parse so QC can
	// report them as type mismatches.
	RawMinSpec string `json:"raw_min_spec,omitempty" yaml:"raw_min_spec,omitempty"`
	RawMaxSpec string `json:"raw_max_spec,omitempty" yaml:"raw_max_spec,omitempty"`

	// Optional descriptive metadata.
	Module      string `json:"module,omitempty" yaml:"module,omitempty"`
	PartID      string `json:"part_id,omitempty" yaml:"part_id,omitempty"`
	ItemType    string `json:"item_type,omitempty" yaml:"item_type,omitempty"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`
	IsChecklist bool   `json:"is_checklist,omitempty" yaml:"is_checklist,omitempty"`
}

// NumericValue parses the record value as a float.
func (r ParameterRecord) NumericValue() (float64, bool) {
	return ParseNumber(r.Value)
}

// HasBounds reports whether either spec bound is known.
func (r ParameterRecord) HasBounds() bool {
	return r.MinSpec != nil || r.MaxSpec != nil
}

// Dataset is the full set of records loaded from one source.
type Dataset struct {
	SourceID string            `json:"source_id" yaml:"source_id"`
	Columns  []string          `json:"columns,omitempty" yaml:"columns,omitempty"`
	Records  []ParameterRecord `json:"records" yaml:"records"`

	// SizeBytes is the on-disk size of the source, 0 when unknown.
	SizeBytes int64 `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
}

// EstimatedSize returns SizeBytes, or an estimate from the record count.
func (d Dataset) EstimatedSize() int64 {
	if d.SizeBytes > 0 {
		return d.SizeBytes
	}
	return int64(len(d.Records)) * constants.EstimatedRecordBytes
}

// HasColumn reports whether the dataset declares the named column. Datasets
// that declare no columns are treated as exposing the required ones.
func (d Dataset) HasColumn(name string) bool {
	if len(d.Columns) == 0 {
		return name == ColumnParameterName || name == ColumnValue
	}
	for _, c := range d.Columns {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return true
		}
	}
	return false
}

// CheckSchema verifies the dataset exposes a parameter name and a value column.
func (d Dataset) CheckSchema() error {
	for _, col := range []string{ColumnParameterName, ColumnValue} {
		if !d.HasColumn(col) {
			return errors.NewSchemaError(d.SourceID, col)
		}
	}
	return nil
}

// Normalize trims whitespace, stamps the source ID on every record and drops
// records without a parameter name. Dropped records are returned as errors.
func (d Dataset) Normalize() (Dataset, []error) {
	out := Dataset{
		SourceID:  d.SourceID,
		Columns:   d.Columns,
		SizeBytes: d.SizeBytes,
		Records:   make([]ParameterRecord, 0, len(d.Records)),
	}
	var errs []error
	for i, rec := range d.Records {
		rec.ParameterName = strings.TrimSpace(rec.ParameterName)
		rec.Value = NormalizeValue(rec.Value)
		if rec.SourceID == "" {
			rec.SourceID = d.SourceID
		}
		if rec.ParameterName == "" {
			errs = append(errs, &errors.SchemaError{Source: d.SourceID, Column: ColumnParameterName, Record: i + 1})
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, errs
}

// NormalizeValue trims a value and maps null markers to the empty string.
func NormalizeValue(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "null", "none", "nan", "n/a":
		return ""
	}
	return v
}

// ParseNumber parses a numeric string, tolerating surrounding whitespace and
// thousands separators.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBound parses an optional spec bound. An empty string yields (nil, nil);
// anything else that is not numeric yields a NumericParseError.
func ParseBound(parameter, field, raw string) (*float64, error) {
	raw = NormalizeValue(raw)
	if raw == "" {
		return nil, nil
	}
	f, ok := ParseNumber(raw)
	if !ok {
		return nil, errors.NewNumericParseError(parameter, field, raw, nil)
	}
	return &f, nil
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}

// ParameterNames returns distinct parameter names in first-seen order.
func ParameterNames(recs []ParameterRecord) []string {
	seen := make(map[string]bool, len(recs))
	names := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.ParameterName == "" || seen[r.ParameterName] {
			continue
		}
		seen[r.ParameterName] = true
		names = append(names, r.ParameterName)
	}
	return names
}
