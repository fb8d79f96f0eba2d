package reduce_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/domain"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/loader"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/reduce"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/tensor"
)

func tinyDataset() domain.Dataset {
	return domain.Dataset{
		Models: []domain.Model{
			{Name: "ref", Display: "Ref"},
			{Name: "other", Display: "Other"},
		},
		Reference: 0,
		Features: []domain.Feature{
			{Name: "t", Display: "Temp", Scale: 1},
			{Name: "w", Display: "Wind", Scale: 0.5},
		},
		Lat: 2, Lon: 3, Hours: 2,
		TruthName: "truth",
	}
}

// biasedPair builds a truth tensor of zeros and a prediction where model m is
// offset from truth by bias[m], uniformly over the grid and both hours.
func biasedPair(t *testing.T, ds domain.Dataset, bias []float64) loader.Pair {
	t.Helper()
	require.Len(t, bias, len(ds.Models))

	truth := tensor.New(ds.Lat, ds.Lon, ds.Hours, len(ds.Features))
	pred := tensor.New(len(ds.Models), ds.Lat, ds.Lon, ds.Hours, len(ds.Features))
	for m, b := range bias {
		for la := 0; la < ds.Lat; la++ {
			for lo := 0; lo < ds.Lon; lo++ {
				for h := 0; h < ds.Hours; h++ {
					for f := range ds.Features {
						pred.Set(b, m, la, lo, h, f)
					}
				}
			}
		}
	}
	return loader.Pair{Pred: pred, Truth: truth}
}

func TestHourGrid_PerfectForecastIsAllZero(t *testing.T) {
	ds := tinyDataset()
	g := reduce.HourGrid(ds, biasedPair(t, ds, []float64{0, 0}), 1)

	assert.Equal(t, 1, g.Hour)
	assert.Equal(t, []string{"Temp", "Wind"}, g.RowLabels)
	assert.Equal(t, []string{"Ref", "Other"}, g.ColLabels)
	assert.Equal(t, 0, g.RefCol)
	for _, row := range g.Values {
		for _, v := range row {
			assert.Zero(t, v)
		}
	}
}

func TestHourGrid_ConstantBias(t *testing.T) {
	ds := tinyDataset()
	// Reference off by 1, the other model off by 3. A uniform bias b gives
	// RMSE exactly |b|*scale.
	g := reduce.HourGrid(ds, biasedPair(t, ds, []float64{1, 3}), 1)

	// Feature 0: scale 1.
	assert.InDelta(t, 1.0, g.Values[0][0], 1e-12)
	assert.InDelta(t, 3.0-1.0, g.Values[0][1], 1e-12)
	// Feature 1: scale 0.5 halves both columns.
	assert.InDelta(t, 0.5, g.Values[1][0], 1e-12)
	assert.InDelta(t, 1.0, g.Values[1][1], 1e-12)
}

func TestHourGrid_ReferenceColumnAbsolute(t *testing.T) {
	ds := tinyDataset()
	ds.Reference = 1
	g := reduce.HourGrid(ds, biasedPair(t, ds, []float64{1, 3}), 1)

	assert.Equal(t, 1, g.RefCol)
	assert.InDelta(t, 3.0, g.Values[0][1], 1e-12, "reference column stays absolute")
	assert.InDelta(t, 1.0-3.0, g.Values[0][0], 1e-12, "better model goes negative")
}

func TestHourGrid_NaNPropagatesPerCell(t *testing.T) {
	ds := tinyDataset()
	pair := biasedPair(t, ds, []float64{1, 1})
	// Poison one sample of model 1, feature 0, hour 1.
	pair.Pred.Set(math.NaN(), 1, 0, 0, 0, 0)

	g := reduce.HourGrid(ds, pair, 1)
	assert.False(t, math.IsNaN(g.Values[0][0]), "reference untouched")
	assert.True(t, math.IsNaN(g.Values[0][1]))
	assert.False(t, math.IsNaN(g.Values[1][1]), "other feature untouched")

	// Hour 2 never sees the poisoned sample.
	g2 := reduce.HourGrid(ds, pair, 2)
	assert.False(t, math.IsNaN(g2.Values[0][1]))
}

func TestHourGrid_InfBecomesNaN(t *testing.T) {
	ds := tinyDataset()
	pair := biasedPair(t, ds, []float64{1, 1})
	pair.Truth.Set(math.Inf(1), 0, 0, 0, 0)

	g := reduce.HourGrid(ds, pair, 1)
	assert.True(t, math.IsNaN(g.Values[0][0]))
	assert.True(t, math.IsNaN(g.Values[0][1]), "truth poison hits every column")
}

func TestPooledGrid_AveragesSquaredErrorOverHours(t *testing.T) {
	ds := tinyDataset()
	pair := biasedPair(t, ds, []float64{0, 0})
	// Model 1, feature 0: bias 1 at hour 1 and bias 3 at hour 2.
	for la := 0; la < ds.Lat; la++ {
		for lo := 0; lo < ds.Lon; lo++ {
			pair.Pred.Set(1, 1, la, lo, 0, 0)
			pair.Pred.Set(3, 1, la, lo, 1, 0)
		}
	}

	g := reduce.PooledGrid(ds, pair)
	assert.Zero(t, g.Hour)

	want := math.Sqrt((1.0 + 9.0) / 2.0)
	assert.InDelta(t, want, g.Values[0][1], 1e-12)
}
