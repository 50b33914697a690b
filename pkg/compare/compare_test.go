package compare_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/motherdb/pkg/cache"
	"github.com/agentstation/motherdb/pkg/compare"
	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/logging"
	"github.com/agentstation/motherdb/pkg/records"
	"github.com/agentstation/motherdb/pkg/sources"
)

func dataset(id string, kv ...string) records.Dataset {
	ds := records.Dataset{SourceID: id}
	for i := 0; i+1 < len(kv); i += 2 {
		ds.Records = append(ds.Records, records.ParameterRecord{ParameterName: kv[i], Value: kv[i+1]})
	}
	return ds
}

func TestCompareFlagsDifferences(t *testing.T) {
	logging.DisableLoggingForTest(t)

	table := compare.New().Compare(context.Background(), []records.Dataset{
		dataset("unit-a", "Temp", "10", "Power", "1200", "Mode", "AUTO"),
		dataset("unit-b", "Temp", "10", "Power", "1250", "Mode", ""),
		dataset("unit-c", "Temp", "10", "Power", "1250", "Mode", "AUTO"),
	}, false)

	require.Empty(t, table.Errors)
	assert.Equal(t, []string{"unit-a", "unit-b", "unit-c"}, table.Sources)
	assert.Equal(t, []string{"Temp", "Power", "Mode"}, table.Parameters())
	require.Len(t, table.Rows, 9)

	temp, ok := table.Lookup("Temp", "unit-b")
	require.True(t, ok)
	assert.False(t, temp.IsDifferent)
	assert.Equal(t, 0, temp.DifferenceCount)
	assert.Equal(t, "10", temp.CommonValue)

	power, _ := table.Lookup("Power", "unit-a")
	assert.True(t, power.IsDifferent)
	assert.Equal(t, 1, power.DifferenceCount)
	assert.Equal(t, "1250", power.CommonValue)

	// empty values do not count as a distinct value
	mode, _ := table.Lookup("Mode", "unit-b")
	assert.False(t, mode.IsDifferent)
	assert.Equal(t, "AUTO", mode.CommonValue)

	// is_different holds exactly when more than one distinct non-empty value exists
	for param, rows := range table.ByParameter() {
		dist := compare.NewDistribution(rows)
		for _, r := range rows {
			assert.Equal(t, dist.Distinct() > 1, r.IsDifferent, param)
		}
	}
}

func TestCompareCommonValueTieBreak(t *testing.T) {
	logging.DisableLoggingForTest(t)

	table := compare.New().Compare(context.Background(), []records.Dataset{
		dataset("a", "X", "2"),
		dataset("b", "X", "1"),
		dataset("c", "X", "1"),
		dataset("d", "X", "2"),
	}, false)

	row, _ := table.Lookup("X", "a")
	assert.Equal(t, "2", row.CommonValue)
	assert.Equal(t, 1, row.DifferenceCount)
}

func TestCompareSkipsInvalidSources(t *testing.T) {
	logging.DisableLoggingForTest(t)

	noValue := dataset("broken", "Temp", "10")
	noValue.Columns = []string{"parameter_name", "unit"}

	withBlank := dataset("unit-b", "Temp", "10", "", "5")

	table := compare.New().Compare(context.Background(), []records.Dataset{
		dataset("unit-a", "Temp", "10"),
		noValue,
		withBlank,
	}, false)

	assert.Equal(t, []string{"unit-a", "unit-b"}, table.Sources)
	require.Len(t, table.Errors, 2)
	assert.True(t, errors.IsSchemaError(table.Errors[0]))
	assert.True(t, errors.IsSchemaError(table.Errors[1]))
	assert.Len(t, table.Rows, 2)
}

func TestCompareSpecBoundsPropagate(t *testing.T) {
	logging.DisableLoggingForTest(t)

	a := dataset("a", "Temp", "10")
	a.Records[0].MaxSpec = records.Float(100)
	b := dataset("b", "Temp", "20")

	table := compare.New().Compare(context.Background(), []records.Dataset{a, b}, false)
	row, _ := table.Lookup("Temp", "b")
	require.NotNil(t, row.MaxSpec)
	assert.Equal(t, 100.0, *row.MaxSpec)
	assert.Nil(t, row.MinSpec)
}

func TestCompareChunkedMatchesInMemory(t *testing.T) {
	logging.DisableLoggingForTest(t)

	var datasets []records.Dataset
	for i := range 7 {
		value := "10"
		if i == 6 {
			value = "11"
		}
		ds := dataset(fmt.Sprintf("unit-%d", i), "Temp", value, "Power", "1200")
		if i%2 == 0 {
			ds.Records = append(ds.Records, records.ParameterRecord{ParameterName: "Extra", Value: fmt.Sprint(i)})
		}
		ds.SizeBytes = 100
		datasets = append(datasets, ds)
	}

	inMemory := compare.New(compare.WithChunkThreshold(1 << 20))
	chunked := compare.New(compare.WithChunkThreshold(150), compare.WithChunkSize(3))
	assert.Equal(t, compare.StrategyInMemory, inMemory.StrategyFor(datasets))
	assert.Equal(t, compare.StrategyChunked, chunked.StrategyFor(datasets))

	want := inMemory.Compare(context.Background(), datasets, false)
	got := chunked.Compare(context.Background(), datasets, false)
	assert.Equal(t, want, got)

	// Temp differs only through the last chunk; re-aggregation must see it
	row, _ := got.Lookup("Temp", "unit-0")
	assert.True(t, row.IsDifferent)
	assert.Equal(t, "10", row.CommonValue)

	extra, _ := got.Lookup("Extra", "unit-0")
	assert.Equal(t, 3, extra.DifferenceCount)
}

func TestCompareUsesCache(t *testing.T) {
	logging.DisableLoggingForTest(t)

	c := cache.New(2)
	engine := compare.New(compare.WithCache(c))
	datasets := []records.Dataset{dataset("b", "X", "1"), dataset("a", "X", "2")}

	first := engine.Compare(context.Background(), datasets, true)
	assert.Equal(t, 1, c.Len())

	// the key ignores source order
	second := engine.Compare(context.Background(), []records.Dataset{datasets[1], datasets[0]}, true)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.GetStats().Hits)

	// a hit is a copy
	second.Rows[0].Value = "changed"
	third := engine.Compare(context.Background(), datasets, true)
	assert.NotEqual(t, "changed", third.Rows[0].Value)

	// opting out bypasses the cache
	engine.Compare(context.Background(), []records.Dataset{dataset("c", "X", "1")}, false)
	assert.Equal(t, 1, c.Len())
}

func TestDifferenceSummary(t *testing.T) {
	logging.DisableLoggingForTest(t)

	table := compare.New().Compare(context.Background(), []records.Dataset{
		dataset("a", "X", "1", "Y", "1", "Z", "1", "W", "1"),
		dataset("b", "X", "2", "Y", "1", "Z", "1", "W", "1"),
	}, false)

	s := compare.DifferenceSummary(table)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Different)
	assert.Equal(t, 3, s.Identical)
	assert.InDelta(t, 0.25, s.DifferenceRate, 1e-9)

	empty := compare.DifferenceSummary(&compare.Table{})
	assert.Zero(t, empty.DifferenceRate)
	assert.Zero(t, compare.DifferenceSummary(nil).Total)
}

func TestTablePivotAndFilter(t *testing.T) {
	logging.DisableLoggingForTest(t)

	table := compare.New().Compare(context.Background(), []records.Dataset{
		dataset("a", "X", "1", "Y", "1"),
		dataset("b", "X", "2"),
	}, false)

	p := table.Pivot()
	assert.Equal(t, []string{"X", "Y"}, p.Parameters)
	assert.Equal(t, []string{"a", "b"}, p.Sources)
	assert.Equal(t, [][]string{{"1", "2"}, {"1", ""}}, p.Values)
	assert.Equal(t, []bool{true, false}, p.Different)

	diff := table.DifferentOnly()
	assert.Equal(t, []string{"X"}, diff.Parameters())
	assert.Len(t, table.BySource()["a"], 2)
}

func TestEngineLoad(t *testing.T) {
	logging.DisableLoggingForTest(t)

	var calls atomic.Int32
	provider := sources.ProviderFunc(func(ctx context.Context, id string) (records.Dataset, error) {
		calls.Add(1)
		switch id {
		case "bad":
			return records.Dataset{}, fmt.Errorf("disk error")
		case "missing":
			return records.Dataset{}, errors.NewLoadError(id, "unsupported format", nil)
		}
		return dataset("", "X", id), nil
	})

	engine := compare.New(compare.WithWorkers(2))
	ids := []string{"u1", "bad", "u2", "missing", "u3"}
	datasets, errs := engine.Load(context.Background(), provider, ids)

	assert.EqualValues(t, 5, calls.Load())
	require.Len(t, datasets, 3)
	assert.Equal(t, "u1", datasets[0].SourceID)
	assert.Equal(t, "u2", datasets[1].SourceID)
	assert.Equal(t, "u3", datasets[2].SourceID)

	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.True(t, errors.IsLoadError(err))
	}
}
