package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ayusman/rekha/internal/store"
)

// ChartHandler renders a run's measurements as an HTML chart page.
type ChartHandler struct {
	store *store.Store
}

// NewChartHandler creates a new ChartHandler with the given store.
func NewChartHandler(s *store.Store) *ChartHandler {
	return &ChartHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/runs/{id}/chart
func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse run ID from path: /api/runs/{id}/chart
	path := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "chart" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	runID := parts[0]

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	run, err := h.store.Runs().GetByID(runID)
	if err != nil {
		if err == store.ErrNotFound {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	frames, err := h.store.Frames().ListByRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list frames")
		return
	}

	// Build the series from the frame rows
	xs := make([]string, 0, len(frames))
	curvature := make([]opts.LineData, 0, len(frames))
	offset := make([]opts.LineData, 0, len(frames))
	leftValid := make([]opts.LineData, 0, len(frames))
	rightValid := make([]opts.LineData, 0, len(frames))
	for _, f := range frames {
		xs = append(xs, strconv.Itoa(f.Index))
		curvature = append(curvature, opts.LineData{Value: f.Curvature})
		offset = append(offset, opts.LineData{Value: f.Offset})
		leftValid = append(leftValid, opts.LineData{Value: boolToInt(f.LeftValid)})
		rightValid = append(rightValid, opts.LineData{Value: boolToInt(f.RightValid)})
	}

	subtitle := fmt.Sprintf("run=%s source=%s frames=%d", run.ID, run.Source, len(frames))

	curvatureChart := newLineChart("Radius of Curvature", subtitle, "m")
	curvatureChart.SetXAxis(xs).
		AddSeries("curvature", curvature, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	offsetChart := newLineChart("Lane-Center Offset", subtitle, "m")
	offsetChart.SetXAxis(xs).
		AddSeries("offset", offset, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	validityChart := newLineChart("Boundary Validity", subtitle, "")
	validityChart.SetXAxis(xs).
		AddSeries("left", leftValid).
		AddSeries("right", rightValid)

	page := components.NewPage()
	page.AddCharts(curvatureChart, offsetChart, validityChart)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// newLineChart builds a line chart with the shared global options.
func newLineChart(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return line
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
