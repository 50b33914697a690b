package qc_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/qc"
	"github.com/agentstation/motherdb/pkg/records"
)

func rec(name, value string) records.ParameterRecord {
	return records.ParameterRecord{ParameterName: name, Value: value}
}

func series(name string, values ...float64) []records.ParameterRecord {
	var out []records.ParameterRecord
	for i, v := range values {
		out = append(out, records.ParameterRecord{
			SourceID:      fmt.Sprintf("unit-%d", i),
			ParameterName: name,
			Value:         fmt.Sprint(v),
		})
	}
	return out
}

func ofType(issues []qc.Issue, t qc.IssueType) []qc.Issue {
	var out []qc.Issue
	for _, i := range issues {
		if i.IssueType == t {
			out = append(out, i)
		}
	}
	return out
}

func TestValidateBasicAboveMax(t *testing.T) {
	r := rec("Chamber.Temp", "150")
	r.MaxSpec = records.Float(100)

	issues := qc.ValidateBasic([]records.ParameterRecord{r}, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, qc.IssueAboveMax, issues[0].IssueType)
	assert.Equal(t, qc.SeverityHigh, issues[0].Severity)
	assert.Equal(t, "<= 100", issues[0].ExpectedValue)
	assert.Equal(t, "150", issues[0].CurrentValue)
}

func TestValidateBasicRules(t *testing.T) {
	gas := rec("Gas", "20")
	gas.RawMinSpec = "abc"
	valve := rec("Valve", "OPEN")
	valve.IsChecklist = true
	valve.Module = "PM1"
	flow := rec("Flow", "ten")
	flow.MinSpec = records.Float(0)
	low := rec("Pressure", "0.5")

	issues := qc.ValidateBasic([]records.ParameterRecord{
		rec("", "5"),
		rec("Power", ""),
		rec("Bad#Name", "1"),
		gas,
		valve,
		flow,
		low,
	}, map[string]baseline.Entry{
		"Pressure": {ParameterName: "Pressure", MinSpec: records.Float(1.5)},
	})

	missing := ofType(issues, qc.IssueMissingValue)
	require.Len(t, missing, 3)
	assert.Equal(t, "record 1", missing[0].ParameterName)
	assert.Equal(t, qc.SeverityHigh, missing[0].Severity)
	assert.Equal(t, "Power", missing[1].ParameterName)
	assert.Equal(t, qc.SeverityHigh, missing[1].Severity)
	assert.Equal(t, "Valve", missing[2].ParameterName)
	assert.Equal(t, qc.SeverityMedium, missing[2].Severity)
	assert.Contains(t, missing[2].Description, "part_id, item_type, unit")

	format := ofType(issues, qc.IssueInvalidFormat)
	require.Len(t, format, 1)
	assert.Equal(t, "Bad#Name", format[0].ParameterName)
	assert.Equal(t, qc.SeverityLow, format[0].Severity)

	mismatch := ofType(issues, qc.IssueTypeMismatch)
	require.Len(t, mismatch, 1)
	assert.Equal(t, qc.SeverityMedium, mismatch[0].Severity)
	assert.Contains(t, mismatch[0].Description, "Gas, Flow")

	below := ofType(issues, qc.IssueBelowMin)
	require.Len(t, below, 1)
	assert.Equal(t, ">= 1.5", below[0].ExpectedValue)
}

func TestValidateBasicCapsExamples(t *testing.T) {
	var recs []records.ParameterRecord
	for i := range 8 {
		r := rec(fmt.Sprintf("P%d", i), "1")
		r.RawMaxSpec = "n/a?"
		recs = append(recs, r)
	}
	issues := ofType(qc.ValidateBasic(recs, nil), qc.IssueTypeMismatch)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Description, "P0, P1, P2, P3, P4 (and 3 more)")
}

func TestValidateBasicAllowedNames(t *testing.T) {
	issues := qc.ValidateBasic([]records.ParameterRecord{
		rec("PM1:Chamber/Temp_set-point.v2 A", "1"),
	}, nil)
	assert.Empty(t, issues)
}

func TestZScoreOutlier(t *testing.T) {
	a := qc.NewAnalyzer()
	issues := a.Outliers(series("P", 10, 10, 10, 10, 100))

	require.Len(t, issues, 1)
	assert.Equal(t, "100", issues[0].CurrentValue)
	assert.Equal(t, qc.IssueOutlier, issues[0].IssueType)
	assert.InDelta(t, 1.0, issues[0].Confidence, 1e-9)
	assert.Contains(t, issues[0].Description, "mean 28")
}

func TestZScoreNeedsSamplesAndSpread(t *testing.T) {
	a := qc.NewAnalyzer()
	assert.Empty(t, a.Outliers(series("P", 10, 10, 100)))
	assert.Empty(t, a.Outliers(series("P", 5, 5, 5, 5, 5)))
}

func TestIQROutlier(t *testing.T) {
	a := qc.NewAnalyzer(qc.WithOutlierMethod(qc.OutlierIQR))
	assert.Equal(t, qc.OutlierIQR, a.Method())

	issues := a.Outliers(series("P", 10, 11, 12, 13, 14, 15, 16, 100))
	require.Len(t, issues, 1)
	assert.Equal(t, "100", issues[0].CurrentValue)
	assert.Equal(t, "unit-7", issues[0].SourceID)
}

func TestSequenceGaps(t *testing.T) {
	issues := qc.SequenceGaps([]records.ParameterRecord{
		rec("Valve1.Open", "1"),
		rec("Valve2.Open", "1"),
		rec("Valve4.Open", "1"),
		rec("Valve7.Open", "1"),
		rec("Temp", "1"),
		rec("Heater1", "1"),
	})

	require.Len(t, issues, 1)
	assert.Equal(t, "Valve{n}.Open", issues[0].ParameterName)
	assert.Equal(t, qc.SeverityLow, issues[0].Severity)
	assert.Contains(t, issues[0].Description, "3, 5, 6")
}

func TestSequenceGapsWideSpan(t *testing.T) {
	issues := qc.SequenceGaps([]records.ParameterRecord{
		rec("Lot1", "1"),
		rec("Lot3000000000", "1"),
	})

	require.Len(t, issues, 1)
	desc := issues[0].Description
	assert.Contains(t, desc, "missing 2999999998 number(s)")
	assert.Contains(t, desc, "2, 3, 4, 5, 6, 7, 8, 9, 10, 11 (and 2999999988 more)")
	assert.Equal(t, "Lot1..Lot3000000000", issues[0].ExpectedValue)
}

func TestConsistency(t *testing.T) {
	issues := qc.Consistency(
		[]records.ParameterRecord{rec("A", "1"), rec("B", "1")},
		[]records.ParameterRecord{rec("A", "1"), rec("C", "1")},
	)

	require.Len(t, issues, 2)
	assert.Equal(t, "C", issues[0].ParameterName)
	assert.Equal(t, qc.IssueMissingRequiredItem, issues[0].IssueType)
	assert.Equal(t, qc.SeverityHigh, issues[0].Severity)
	assert.Equal(t, "B", issues[1].ParameterName)
	assert.Equal(t, qc.IssueUnregisteredItem, issues[1].IssueType)
	assert.Equal(t, qc.SeverityMedium, issues[1].Severity)
}

func TestCorrelations(t *testing.T) {
	var recs []records.ParameterRecord
	recs = append(recs, series("X", 1, 2, 3, 4)...)
	recs = append(recs, series("Y", 2, 4, 6, 8.1)...)
	recs = append(recs, series("Z", 5, 1, 4, 2)...)
	recs = append(recs, series("Short", 1, 2)...)

	issues := qc.NewAnalyzer().Correlations(recs)
	require.Len(t, issues, 1)
	assert.Equal(t, "X / Y", issues[0].ParameterName)
	assert.Equal(t, qc.SeverityInfo, issues[0].Severity)
	assert.Greater(t, issues[0].Confidence, 0.99)
}

func TestParseMode(t *testing.T) {
	m, err := qc.ParseMode("advanced")
	require.NoError(t, err)
	assert.Equal(t, qc.ModeAdvanced, m)

	m, err = qc.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, qc.ModeAuto, m)

	_, err = qc.ParseMode("deep")
	assert.Error(t, err)
}

func TestPerformCounts(t *testing.T) {
	logging.DisableLoggingForTest(t)

	temp := rec("Temp", "150")
	temp.MaxSpec = records.Float(100)
	valve := rec("Valve", "OPEN")
	valve.IsChecklist = true

	result := qc.New().Perform(context.Background(), []records.ParameterRecord{
		temp,
		rec("Power", ""),
		rec("Bad#", "1"),
		valve,
	}, qc.ModeBasic, nil)

	_, err := uuid.Parse(result.ID)
	assert.NoError(t, err)
	assert.False(t, result.Timestamp.IsZero())
	assert.Equal(t, qc.ModeBasic, result.Mode)

	assert.Equal(t, 4, result.TotalParameters)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, 2, result.WarningCount)
	assert.Equal(t, 2, result.PassedCount)
	assert.InDelta(t, 0.5, result.PassRate(), 1e-12)
	assert.Equal(t, 2, result.SeverityBreakdown[qc.SeverityHigh])
	assert.Equal(t, 1, result.SeverityBreakdown[qc.SeverityMedium])
	assert.Equal(t, 1, result.SeverityBreakdown[qc.SeverityLow])
	assert.Equal(t, 0, result.SeverityBreakdown[qc.SeverityCritical])

	// most severe first
	assert.Equal(t, qc.SeverityHigh, result.Issues[0].Severity)
	assert.Equal(t, qc.SeverityLow, result.Issues[len(result.Issues)-1].Severity)
}

func TestPerformEmpty(t *testing.T) {
	logging.DisableLoggingForTest(t)

	result := qc.New().Perform(context.Background(), nil, qc.ModeAuto, nil)
	assert.Zero(t, result.TotalParameters)
	assert.Zero(t, result.PassedCount)
	assert.Zero(t, result.PassRate())
	assert.Empty(t, result.Issues)
}

func TestPerformAutoMode(t *testing.T) {
	logging.DisableLoggingForTest(t)

	recs := func(n int) []records.ParameterRecord {
		out := make([]records.ParameterRecord, n)
		for i := range out {
			out[i] = rec(fmt.Sprintf("Item%d", i+1), "1")
		}
		return out
	}

	o := qc.New()
	assert.Equal(t, qc.ModeBasic, o.Perform(context.Background(), recs(100), qc.ModeAuto, nil).Mode)
	assert.Equal(t, qc.ModeAdvanced, o.Perform(context.Background(), recs(101), qc.ModeAuto, nil).Mode)

	o = qc.New(qc.WithAutoAdvancedThreshold(10))
	assert.Equal(t, qc.ModeAdvanced, o.ResolveMode(qc.ModeAuto, 11))
	assert.Equal(t, qc.ModeBasic, o.ResolveMode(qc.ModeBasic, 1000))
}

func TestPerformAdvancedWithReference(t *testing.T) {
	logging.DisableLoggingForTest(t)

	recs := series("P", 10, 10, 10, 10, 100)
	reference := []records.ParameterRecord{
		{ParameterName: "P", Value: "10", MaxSpec: records.Float(50)},
		{ParameterName: "Q", Value: "1"},
	}

	result := qc.New().Perform(context.Background(), recs, qc.ModeAdvanced, reference)

	assert.Len(t, result.IssuesOf(qc.IssueAboveMax), 1)
	assert.Len(t, result.IssuesOf(qc.IssueOutlier), 1)
	missing := result.IssuesOf(qc.IssueMissingRequiredItem)
	require.Len(t, missing, 1)
	assert.Equal(t, "Q", missing[0].ParameterName)

	// basic mode skips the statistical checks
	basic := qc.New().Perform(context.Background(), recs, qc.ModeBasic, reference)
	assert.Empty(t, basic.IssuesOf(qc.IssueOutlier))
	assert.Len(t, basic.IssuesOf(qc.IssueAboveMax), 1)
}

func TestPerformUsesBaselineBounds(t *testing.T) {
	logging.DisableLoggingForTest(t)

	o := qc.New(qc.WithBaseline(map[string]baseline.Entry{
		"Temp": {ParameterName: "Temp", MinSpec: records.Float(20)},
	}))
	result := o.Perform(context.Background(), []records.ParameterRecord{rec("Temp", "10")}, qc.ModeBasic, nil)
	require.Len(t, result.IssuesOf(qc.IssueBelowMin), 1)
	assert.Equal(t, 1, result.FailedCount)
	assert.Zero(t, result.PassedCount)
}
