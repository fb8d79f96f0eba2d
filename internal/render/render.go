// Package render turns error grids into heatmap PNG files. It is the
// renderer collaborator: given a grid, a title, and the target path, it
// guarantees the image exists at that path on successful return, written
// atomically so an interrupted run never leaves a partial artifact that
// could be mistaken for a completion marker.
package render

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/domain"
)

// Cell geometry of the rendered grid, in points.
const (
	cellSize = 90
	margin   = 60
)

// HeatmapRenderer renders error grids with gonum/plot: a sequential colormap
// for the absolute reference column and a symmetric diverging colormap for
// the reference-relative columns. NaN cells are left unpainted.
type HeatmapRenderer struct {
	logger *slog.Logger
}

// New creates a HeatmapRenderer.
func New(logger *slog.Logger) *HeatmapRenderer {
	return &HeatmapRenderer{logger: logger}
}

// Render writes the grid as a PNG at path, creating parent directories as
// needed. The file appears atomically via a write-then-rename in the target
// directory.
func (r *HeatmapRenderer) Render(grid domain.ErrorGrid, title, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	absPlot, err := r.absolutePlot(grid)
	if err != nil {
		return err
	}

	width := vg.Points(float64(len(grid.ColLabels)*cellSize + 2*margin))
	height := vg.Points(float64(len(grid.RowLabels)*cellSize + 2*margin))
	img := vgimg.New(width, height)
	dc := draw.New(img)

	if len(grid.ColLabels) == 1 {
		// Reference-only register; nothing to compare against.
		absPlot.Draw(dc)
		return writeAtomic(path, img)
	}

	relPlot, err := r.relativePlot(grid, title)
	if err != nil {
		return err
	}

	plots := [][]*plot.Plot{{absPlot, relPlot}}
	tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Millimeter, PadY: vg.Millimeter}
	canvases := plot.Align(plots, tiles, dc)
	absPlot.Draw(canvases[0][0])
	relPlot.Draw(canvases[0][1])

	return writeAtomic(path, img)
}

// absolutePlot holds the single reference-model column on a sequential scale.
func (r *HeatmapRenderer) absolutePlot(grid domain.ErrorGrid) (*plot.Plot, error) {
	g := subGrid{grid: grid, cols: []int{grid.RefCol}}
	lo, hi := g.finiteRange()
	if lo < 0 {
		lo = 0
	}

	cm := moreland.Kindlmann()
	cm.SetMin(lo)
	cm.SetMax(hi)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s RMSE", grid.ColLabels[grid.RefCol])
	h := plotter.NewHeatMap(g, cm.Palette(255))
	h.Min, h.Max = lo, hi
	p.Add(h)
	styleAxes(p, grid, []int{grid.RefCol})
	return p, nil
}

// relativePlot holds every non-reference column on a diverging scale
// symmetric around zero, so improvement and regression read as opposite
// hues of equal weight.
func (r *HeatmapRenderer) relativePlot(grid domain.ErrorGrid, title string) (*plot.Plot, error) {
	cols := make([]int, 0, len(grid.ColLabels)-1)
	for c := range grid.ColLabels {
		if c != grid.RefCol {
			cols = append(cols, c)
		}
	}
	g := subGrid{grid: grid, cols: cols}
	lo, hi := g.finiteRange()
	limit := math.Max(math.Abs(lo), math.Abs(hi))
	if limit == 0 {
		limit = 1
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-limit)
	cm.SetMax(limit)

	p := plot.New()
	p.Title.Text = title
	h := plotter.NewHeatMap(g, cm.Palette(255))
	h.Min, h.Max = -limit, limit
	p.Add(h)
	styleAxes(p, grid, cols)
	return p, nil
}

func styleAxes(p *plot.Plot, grid domain.ErrorGrid, cols []int) {
	xticks := make([]plot.Tick, len(cols))
	for i, c := range cols {
		xticks[i] = plot.Tick{Value: float64(i), Label: grid.ColLabels[c]}
	}
	rows := len(grid.RowLabels)
	yticks := make([]plot.Tick, rows)
	for i, label := range grid.RowLabels {
		yticks[i] = plot.Tick{Value: float64(rows - 1 - i), Label: label}
	}

	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	p.Y.Tick.Marker = plot.ConstantTicks(yticks)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YTop
}

// subGrid adapts a column subset of an ErrorGrid to plotter.GridXYZ. Row 0
// of the grid is the first feature, drawn at the top.
type subGrid struct {
	grid domain.ErrorGrid
	cols []int
}

func (g subGrid) Dims() (c, r int) { return len(g.cols), len(g.grid.RowLabels) }
func (g subGrid) X(c int) float64  { return float64(c) }
func (g subGrid) Y(r int) float64  { return float64(len(g.grid.RowLabels) - 1 - r) }
func (g subGrid) Z(c, r int) float64 {
	return g.grid.Values[r][g.cols[c]]
}

// finiteRange returns the min and max over finite cells, or (0, 1) when no
// cell is finite.
func (g subGrid) finiteRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range g.cols {
		for r := range g.grid.Values {
			v := g.grid.Values[r][c]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 1
	}
	if lo == hi {
		// Degenerate range; widen so the palette lookup stays defined.
		return lo, lo + 1
	}
	return lo, hi
}

// writeAtomic encodes the canvas as PNG into a temp file beside path, then
// renames it into place.
func writeAtomic(path string, img *vgimg.Canvas) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode heatmap png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush heatmap png: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish artifact %s: %w", path, err)
	}
	return nil
}
