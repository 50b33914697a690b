package qc

import (
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/agentstation/motherdb/pkg/constants"
	"github.com/agentstation/motherdb/pkg/records"
)

// OutlierMethod selects the outlier test.
type OutlierMethod string

// Outlier methods.
const (
	OutlierZScore OutlierMethod = "zscore"
	OutlierIQR    OutlierMethod = "iqr"
)

// tolerance absorbs float rounding at threshold boundaries.
const tolerance = 1e-9

// sequenceName splits a name around its last run of digits.
var sequenceName = regexp.MustCompile(`^(.*?)(\d+)(\D*)$`)

// Analyzer runs the statistical checks.
type Analyzer struct {
	method               OutlierMethod
	zThreshold           float64
	iqrMultiplier        float64
	correlationThreshold float64
	minCorrelation       int
	maxCorrelationParams int
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithOutlierMethod selects z-score or IQR outlier detection.
func WithOutlierMethod(m OutlierMethod) AnalyzerOption {
	return func(a *Analyzer) {
		if m == OutlierZScore || m == OutlierIQR {
			a.method = m
		}
	}
}

// WithZScoreThreshold sets the |z| at which values are flagged.
func WithZScoreThreshold(z float64) AnalyzerOption {
	return func(a *Analyzer) {
		if z > 0 {
			a.zThreshold = z
		}
	}
}

// WithIQRMultiplier sets the fence width in interquartile ranges.
func WithIQRMultiplier(k float64) AnalyzerOption {
	return func(a *Analyzer) {
		if k > 0 {
			a.iqrMultiplier = k
		}
	}
}

// WithCorrelationThreshold sets the |r| above which pairs are reported.
func WithCorrelationThreshold(r float64) AnalyzerOption {
	return func(a *Analyzer) {
		if r > 0 && r <= 1 {
			a.correlationThreshold = r
		}
	}
}

// NewAnalyzer creates an Analyzer with default thresholds.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		method:               OutlierZScore,
		zThreshold:           constants.DefaultZScoreThreshold,
		iqrMultiplier:        constants.IQRMultiplier,
		correlationThreshold: constants.DefaultCorrelationThreshold,
		minCorrelation:       constants.MinCorrelationSamples,
		maxCorrelationParams: constants.MaxCorrelationParameters,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Method returns the outlier method in use.
func (a *Analyzer) Method() OutlierMethod {
	return a.method
}

// Analyze runs every statistical check. The consistency check only runs when
// reference records are given.
func (a *Analyzer) Analyze(recs, reference []records.ParameterRecord) []Issue {
	var issues []Issue
	issues = append(issues, a.Outliers(recs)...)
	issues = append(issues, SequenceGaps(recs)...)
	if len(reference) > 0 {
		issues = append(issues, Consistency(recs, reference)...)
	}
	issues = append(issues, a.Correlations(recs)...)
	return issues
}

// sample is one numeric value of a parameter.
type sample struct {
	value  float64
	raw    string
	source string
}

// numericSamples groups numeric values by parameter in first-seen order.
func numericSamples(recs []records.ParameterRecord) ([]string, map[string][]sample) {
	var order []string
	groups := make(map[string][]sample)
	for _, rec := range recs {
		v, ok := rec.NumericValue()
		if !ok || rec.ParameterName == "" {
			continue
		}
		if _, seen := groups[rec.ParameterName]; !seen {
			order = append(order, rec.ParameterName)
		}
		groups[rec.ParameterName] = append(groups[rec.ParameterName], sample{value: v, raw: rec.Value, source: rec.SourceID})
	}
	return order, groups
}

// Outliers flags values far from the rest of their parameter's values.
func (a *Analyzer) Outliers(recs []records.ParameterRecord) []Issue {
	order, groups := numericSamples(recs)
	var issues []Issue
	for _, name := range order {
		samples := groups[name]
		if len(samples) < constants.MinZScoreSamples {
			continue
		}
		values := make([]float64, len(samples))
		for i, s := range samples {
			values[i] = s.value
		}
		if a.method == OutlierIQR {
			issues = append(issues, a.iqrOutliers(name, samples, values)...)
		} else {
			issues = append(issues, a.zScoreOutliers(name, samples, values)...)
		}
	}
	return issues
}

// zScoreOutliers uses the population standard deviation; |z| at or above
// the threshold is flagged.
func (a *Analyzer) zScoreOutliers(name string, samples []sample, values []float64) []Issue {
	mean, variance := stat.PopMeanVariance(values, nil)
	std := math.Sqrt(variance)
	if std == 0 || math.IsNaN(std) {
		return nil
	}
	var issues []Issue
	for _, s := range samples {
		z := math.Abs(s.value-mean) / std
		if z+tolerance < a.zThreshold {
			continue
		}
		issues = append(issues, Issue{
			ParameterName:  name,
			IssueType:      IssueOutlier,
			Description:    fmt.Sprintf("Value %s deviates from the mean %.4g by %.2f standard deviations (std %.4g)", s.raw, mean, z, std),
			Severity:       SeverityMedium,
			CurrentValue:   s.raw,
			ExpectedValue:  fmt.Sprintf("%.4g ± %.4g", mean, a.zThreshold*std),
			Recommendation: "Verify the value against the other units",
			SourceID:       s.source,
			Confidence:     math.Min(z/a.zThreshold, 1.0),
		})
	}
	return issues
}

// iqrOutliers flags values outside [Q1 - k*IQR, Q3 + k*IQR].
func (a *Analyzer) iqrOutliers(name string, samples []sample, values []float64) []Issue {
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1
	lower, upper := q1-a.iqrMultiplier*iqr, q3+a.iqrMultiplier*iqr

	var issues []Issue
	for _, s := range samples {
		var distance float64
		switch {
		case s.value < lower-tolerance:
			distance = lower - s.value
		case s.value > upper+tolerance:
			distance = s.value - upper
		default:
			continue
		}
		deviation := math.Inf(1)
		if iqr > 0 {
			deviation = distance / iqr
		}
		issues = append(issues, Issue{
			ParameterName:  name,
			IssueType:      IssueOutlier,
			Description:    fmt.Sprintf("Value %s lies outside the IQR fences [%.4g, %.4g] by %.2f IQR", s.raw, lower, upper, deviation),
			Severity:       SeverityMedium,
			CurrentValue:   s.raw,
			ExpectedValue:  fmt.Sprintf("[%.4g, %.4g]", lower, upper),
			Recommendation: "Verify the value against the other units",
			SourceID:       s.source,
			Confidence:     math.Min(deviation, 1.0),
		})
	}
	return issues
}

// SequenceGaps reports missing numbers in families of names that differ only
// by an embedded integer, such as Valve1, Valve2, Valve4.
func SequenceGaps(recs []records.ParameterRecord) []Issue {
	type family struct {
		prefix, suffix string
		numbers        map[int64]bool
	}
	var order []string
	families := make(map[string]*family)

	for _, name := range records.ParameterNames(recs) {
		m := sequenceName.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		key := m[1] + "\x00" + m[3]
		f, ok := families[key]
		if !ok {
			f = &family{prefix: m[1], suffix: m[3], numbers: make(map[int64]bool)}
			families[key] = f
			order = append(order, key)
		}
		f.numbers[n] = true
	}

	var issues []Issue
	for _, key := range order {
		f := families[key]
		if len(f.numbers) < 2 {
			continue
		}
		numbers := slices.Sorted(maps.Keys(f.numbers))
		lo, hi := numbers[0], numbers[len(numbers)-1]

		// Walk adjacent pairs so the cost follows the names present, not the span.
		var missing []string
		var count int64
		for i := 1; i < len(numbers); i++ {
			prev, next := numbers[i-1], numbers[i]
			gap := next - prev - 1
			if gap <= 0 {
				continue
			}
			count += gap
			for n := prev + 1; n < next && len(missing) < constants.MaxSequenceGapListing; n++ {
				missing = append(missing, strconv.FormatInt(n, 10))
			}
		}
		if count == 0 {
			continue
		}
		listing := strings.Join(missing, ", ")
		if count > int64(len(missing)) {
			listing += fmt.Sprintf(" (and %d more)", count-int64(len(missing)))
		}
		issues = append(issues, Issue{
			ParameterName:  f.prefix + "{n}" + f.suffix,
			IssueType:      IssueSequenceGap,
			Description:    fmt.Sprintf("Sequence %d..%d is missing %d number(s): %s", lo, hi, count, listing),
			Severity:       SeverityLow,
			ExpectedValue:  fmt.Sprintf("%s%d..%s%d%s", f.prefix, lo, f.prefix, hi, f.suffix),
			Recommendation: "Confirm the missing items are intentionally absent",
		})
	}
	return issues
}

// Consistency compares parameter presence against a reference set.
func Consistency(recs, reference []records.ParameterRecord) []Issue {
	current := records.ParameterNames(recs)
	expected := records.ParameterNames(reference)
	inCurrent := make(map[string]bool, len(current))
	for _, n := range current {
		inCurrent[n] = true
	}
	inReference := make(map[string]bool, len(expected))
	for _, n := range expected {
		inReference[n] = true
	}

	var issues []Issue
	for _, n := range expected {
		if !inCurrent[n] {
			issues = append(issues, Issue{
				ParameterName:  n,
				IssueType:      IssueMissingRequiredItem,
				Description:    "Required item from the reference is missing",
				Severity:       SeverityHigh,
				Recommendation: "Add the parameter or confirm it was retired",
			})
		}
	}
	for _, n := range current {
		if !inReference[n] {
			issues = append(issues, Issue{
				ParameterName:  n,
				IssueType:      IssueUnregisteredItem,
				Description:    "Item is not registered in the reference",
				Severity:       SeverityMedium,
				Recommendation: "Register the parameter in the reference or remove it",
			})
		}
	}
	return issues
}

// Correlations reports strongly correlated parameter pairs. Each parameter is
// a column with one value per source; pairs are aligned on shared sources.
func (a *Analyzer) Correlations(recs []records.ParameterRecord) []Issue {
	order, groups := numericSamples(recs)

	columns := make(map[string]map[string]float64)
	var names []string
	for _, name := range order {
		col := make(map[string]float64)
		for _, s := range groups[name] {
			if _, ok := col[s.source]; !ok {
				col[s.source] = s.value
			}
		}
		if len(col) >= a.minCorrelation {
			columns[name] = col
			names = append(names, name)
		}
		if len(names) == a.maxCorrelationParams {
			break
		}
	}

	var issues []Issue
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			x, y := aligned(columns[names[i]], columns[names[j]])
			if len(x) < a.minCorrelation {
				continue
			}
			r := stat.Correlation(x, y, nil)
			if math.IsNaN(r) || math.Abs(r) <= a.correlationThreshold {
				continue
			}
			issues = append(issues, Issue{
				ParameterName:  names[i] + " / " + names[j],
				IssueType:      IssueCorrelation,
				Description:    fmt.Sprintf("%s and %s are strongly correlated (r = %.3f, n = %d)", names[i], names[j], r, len(x)),
				Severity:       SeverityInfo,
				CurrentValue:   strconv.FormatFloat(r, 'f', 3, 64),
				Recommendation: "Check whether one parameter is derived from the other",
				Confidence:     math.Abs(r),
			})
		}
	}
	return issues
}

// aligned returns paired values for the sources both columns share.
func aligned(a, b map[string]float64) ([]float64, []float64) {
	sources := make([]string, 0, len(a))
	for s := range a {
		if _, ok := b[s]; ok {
			sources = append(sources, s)
		}
	}
	sort.Strings(sources)
	x := make([]float64, len(sources))
	y := make([]float64, len(sources))
	for i, s := range sources {
		x[i], y[i] = a[s], b[s]
	}
	return x, y
}
