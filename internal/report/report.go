// Package report renders a stored run's measurements as PNG charts.
package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ayusman/rekha/internal/store"
)

var (
	leftColor      = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	rightColor     = color.RGBA{R: 178, G: 34, B: 34, A: 255}
	thresholdColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// Generator produces chart files from persisted run data.
type Generator struct {
	store *store.Store

	// threshold is the departure threshold drawn on the offset chart,
	// in meters. Zero disables the threshold lines.
	threshold float64
}

// New creates a Generator reading from the given store.
func New(s *store.Store, threshold float64) *Generator {
	return &Generator{store: s, threshold: threshold}
}

// Generate renders the run's charts into outDir and returns the paths of
// the files written.
func (g *Generator) Generate(runID, outDir string) ([]string, error) {
	run, err := g.store.Runs().GetByID(runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}

	frames, err := g.store.Frames().ListByRun(runID)
	if err != nil {
		return nil, fmt.Errorf("load frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("run %s has no frames", runID)
	}

	events, err := g.store.Events().ListByRun(runID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	charts := []struct {
		name   string
		render func(p *plot.Plot, frames []*store.Frame, events []*store.Event) error
	}{
		{"curvature.png", g.renderCurvature},
		{"offset.png", g.renderOffset},
		{"validity.png", g.renderValidity},
	}

	for _, c := range charts {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s - %s", chartTitle(c.name), run.Source)
		p.X.Label.Text = "Frame"

		if err := c.render(p, frames, events); err != nil {
			return written, fmt.Errorf("%s: %w", c.name, err)
		}

		file := filepath.Join(outDir, c.name)
		if err := p.Save(12*vg.Inch, 5*vg.Inch, file); err != nil {
			return written, fmt.Errorf("save %s: %w", c.name, err)
		}
		written = append(written, file)
	}

	return written, nil
}

func chartTitle(name string) string {
	switch name {
	case "curvature.png":
		return "Radius of Curvature"
	case "offset.png":
		return "Lane-Center Offset"
	default:
		return "Boundary Validity"
	}
}

// renderCurvature plots the measured radius over time, skipping frames with
// no measurement.
func (g *Generator) renderCurvature(p *plot.Plot, frames []*store.Frame, _ []*store.Event) error {
	p.Y.Label.Text = "Radius (m)"

	pts := make(plotter.XYs, 0, len(frames))
	for _, f := range frames {
		if f.Curvature == 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(f.Index), Y: f.Curvature})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = leftColor
	line.Width = vg.Points(1)
	p.Add(line)

	return nil
}

// renderOffset plots the lane-center offset with the departure threshold
// drawn as dashed lines, and marks departure events.
func (g *Generator) renderOffset(p *plot.Plot, frames []*store.Frame, events []*store.Event) error {
	p.Y.Label.Text = "Offset (m)"

	pts := make(plotter.XYs, 0, len(frames))
	for _, f := range frames {
		pts = append(pts, plotter.XY{X: float64(f.Index), Y: f.Offset})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = leftColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("offset", line)

	if g.threshold > 0 {
		first := float64(frames[0].Index)
		last := float64(frames[len(frames)-1].Index)
		for _, y := range []float64{g.threshold, -g.threshold} {
			thr, err := plotter.NewLine(plotter.XYs{{X: first, Y: y}, {X: last, Y: y}})
			if err != nil {
				return err
			}
			thr.Color = thresholdColor
			thr.Width = vg.Points(1)
			thr.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
			p.Add(thr)
		}
	}

	var departures plotter.XYs
	for _, e := range events {
		if e.Type != store.EventLaneDeparture {
			continue
		}
		if f := frameAt(frames, e.FrameIndex); f != nil {
			departures = append(departures, plotter.XY{X: float64(f.Index), Y: f.Offset})
		}
	}
	if len(departures) > 0 {
		scatter, err := plotter.NewScatter(departures)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = rightColor
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("departure", scatter)
	}

	p.Legend.Top = true
	return nil
}

// renderValidity plots each boundary's validity as a 0/1 series. The right
// series is nudged up slightly so overlapping segments stay visible.
func (g *Generator) renderValidity(p *plot.Plot, frames []*store.Frame, _ []*store.Event) error {
	p.Y.Label.Text = "Valid"
	p.Y.Min = -0.1
	p.Y.Max = 1.2

	left := make(plotter.XYs, 0, len(frames))
	right := make(plotter.XYs, 0, len(frames))
	for _, f := range frames {
		left = append(left, plotter.XY{X: float64(f.Index), Y: boolToFloat(f.LeftValid)})
		right = append(right, plotter.XY{X: float64(f.Index), Y: boolToFloat(f.RightValid) + 0.05})
	}

	leftLine, err := plotter.NewLine(left)
	if err != nil {
		return err
	}
	leftLine.Color = leftColor
	leftLine.Width = vg.Points(1)
	p.Add(leftLine)
	p.Legend.Add("left", leftLine)

	rightLine, err := plotter.NewLine(right)
	if err != nil {
		return err
	}
	rightLine.Color = rightColor
	rightLine.Width = vg.Points(1)
	p.Add(rightLine)
	p.Legend.Add("right", rightLine)

	p.Legend.Top = true
	return nil
}

func frameAt(frames []*store.Frame, index int) *store.Frame {
	for _, f := range frames {
		if f.Index == index {
			return f
		}
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
