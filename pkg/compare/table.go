package compare

import (
	"slices"
)

// Row is one parameter value from one source, annotated with how that
// parameter compares across all sources of the table.
type Row struct {
	ParameterName   string   `json:"parameter_name" yaml:"parameter_name"`
	SourceID        string   `json:"source_id" yaml:"source_id"`
	Value           string   `json:"value" yaml:"value"`
	IsDifferent     bool     `json:"is_different" yaml:"is_different"`
	DifferenceCount int      `json:"difference_count" yaml:"difference_count"`
	CommonValue     string   `json:"common_value" yaml:"common_value"`
	MinSpec         *float64 `json:"min_spec,omitempty" yaml:"min_spec,omitempty"`
	MaxSpec         *float64 `json:"max_spec,omitempty" yaml:"max_spec,omitempty"`
}

// Table is the merged comparison of several sources. Errors holds the
// recoverable problems met while building it (skipped sources and records).
type Table struct {
	Rows    []Row    `json:"rows" yaml:"rows"`
	Sources []string `json:"sources" yaml:"sources"`
	Errors  []error  `json:"-" yaml:"-"`
}

// Parameters returns the distinct parameter names in row order.
func (t *Table) Parameters() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, r := range t.Rows {
		if !seen[r.ParameterName] {
			seen[r.ParameterName] = true
			names = append(names, r.ParameterName)
		}
	}
	return names
}

// BySource groups rows by source ID.
func (t *Table) BySource() map[string][]Row {
	out := make(map[string][]Row)
	if t == nil {
		return out
	}
	for _, r := range t.Rows {
		out[r.SourceID] = append(out[r.SourceID], r)
	}
	return out
}

// ByParameter groups rows by parameter name.
func (t *Table) ByParameter() map[string][]Row {
	out := make(map[string][]Row)
	if t == nil {
		return out
	}
	for _, r := range t.Rows {
		out[r.ParameterName] = append(out[r.ParameterName], r)
	}
	return out
}

// Lookup returns the first row for a parameter in a source.
func (t *Table) Lookup(parameter, source string) (Row, bool) {
	if t == nil {
		return Row{}, false
	}
	for _, r := range t.Rows {
		if r.ParameterName == parameter && r.SourceID == source {
			return r, true
		}
	}
	return Row{}, false
}

// DifferentOnly returns a copy of the table keeping only diverging parameters.
func (t *Table) DifferentOnly() *Table {
	out := &Table{}
	if t == nil {
		return out
	}
	out.Sources = slices.Clone(t.Sources)
	out.Errors = slices.Clone(t.Errors)
	for _, r := range t.Rows {
		if r.IsDifferent {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Rows:    make([]Row, len(t.Rows)),
		Sources: slices.Clone(t.Sources),
		Errors:  slices.Clone(t.Errors),
	}
	for i, r := range t.Rows {
		r.MinSpec = cloneFloat(r.MinSpec)
		r.MaxSpec = cloneFloat(r.MaxSpec)
		out.Rows[i] = r
	}
	return out
}

// Pivot is a parameter by source matrix of values.
type Pivot struct {
	Parameters []string   `json:"parameters" yaml:"parameters"`
	Sources    []string   `json:"sources" yaml:"sources"`
	Values     [][]string `json:"values" yaml:"values"`
	Different  []bool     `json:"different" yaml:"different"`
	Common     []string   `json:"common" yaml:"common"`
}

// Pivot lays the table out with one line per parameter and one column per
// source. Missing cells are empty strings.
func (t *Table) Pivot() Pivot {
	p := Pivot{Parameters: t.Parameters()}
	if t == nil {
		return p
	}
	p.Sources = slices.Clone(t.Sources)

	paramIndex := make(map[string]int, len(p.Parameters))
	for i, name := range p.Parameters {
		paramIndex[name] = i
	}
	sourceIndex := make(map[string]int, len(p.Sources))
	for i, id := range p.Sources {
		sourceIndex[id] = i
	}

	p.Values = make([][]string, len(p.Parameters))
	for i := range p.Values {
		p.Values[i] = make([]string, len(p.Sources))
	}
	p.Different = make([]bool, len(p.Parameters))
	p.Common = make([]string, len(p.Parameters))

	for _, r := range t.Rows {
		i := paramIndex[r.ParameterName]
		p.Different[i] = r.IsDifferent
		p.Common[i] = r.CommonValue
		if j, ok := sourceIndex[r.SourceID]; ok && p.Values[i][j] == "" {
			p.Values[i][j] = r.Value
		}
	}
	return p
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
