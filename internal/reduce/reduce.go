// Package reduce computes the RMSE error grids fed to the renderer. It is
// pure: a function of reconciled tensors and the dataset register, with no
// filesystem or archive dependencies.
package reduce

import (
	"math"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/domain"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/loader"
)

// HourGrid computes the error grid for one 1-based forecast hour: rows in
// feature order, columns in model order, the reference column absolute and
// every other column RMSE(model) - RMSE(reference). NaN or infinite inputs
// propagate as NaN in the affected cell.
func HourGrid(ds domain.Dataset, pair loader.Pair, hour int) domain.ErrorGrid {
	return grid(ds, pair, hour)
}

// PooledGrid computes a single all-hours grid by pooling squared errors over
// the spatial grid and every forecast hour. Used by single render mode.
func PooledGrid(ds domain.Dataset, pair loader.Pair) domain.ErrorGrid {
	return grid(ds, pair, 0)
}

// grid builds the error grid for hour (1-based), or pooled over all hours
// when hour is 0.
func grid(ds domain.Dataset, pair loader.Pair, hour int) domain.ErrorGrid {
	g := domain.ErrorGrid{
		Hour:      hour,
		RowLabels: make([]string, len(ds.Features)),
		ColLabels: make([]string, len(ds.Models)),
		RefCol:    ds.Reference,
		Values:    make([][]float64, len(ds.Features)),
	}
	for i, f := range ds.Features {
		g.RowLabels[i] = f.Display
	}
	for i, m := range ds.Models {
		g.ColLabels[i] = m.Display
	}

	for fi, feat := range ds.Features {
		row := make([]float64, len(ds.Models))
		ref := rmse(pair, ds.Reference, fi, hour, feat.Scale)
		for mi := range ds.Models {
			if mi == ds.Reference {
				row[mi] = ref
				continue
			}
			row[mi] = rmse(pair, mi, fi, hour, feat.Scale) - ref
		}
		g.Values[fi] = row
	}
	return g
}

// rmse computes sqrt(mean((scale*pred - scale*truth)^2)) over the full
// spatial grid for one model and feature, at one 1-based hour or pooled over
// all hours when hour is 0. Non-finite inputs poison the sum into NaN, which
// is the required propagation behavior.
func rmse(pair loader.Pair, model, feature, hour int, scale float64) float64 {
	shape := pair.Truth.Shape()
	lat, lon, hours, feats := shape[0], shape[1], shape[2], shape[3]
	pd, td := pair.Pred.Data(), pair.Truth.Data()

	h0, h1 := 0, hours
	if hour > 0 {
		h0, h1 = hour-1, hour
	}

	cells := lat * lon
	hourStride := feats // distance between consecutive hours at fixed feature
	cellStride := hours * feats
	pBase := model * lat * lon * cellStride

	var sum float64
	var n int
	for h := h0; h < h1; h++ {
		idx0 := h*hourStride + feature
		for c := 0; c < cells; c++ {
			off := idx0 + c*cellStride
			p := scale * pd[pBase+off]
			t := scale * td[off]
			if math.IsInf(p, 0) || math.IsInf(t, 0) {
				return math.NaN()
			}
			d := p - t
			sum += d * d
			n++
		}
	}
	return math.Sqrt(sum / float64(n))
}
