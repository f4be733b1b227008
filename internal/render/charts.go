package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/enrolpulse/internal/analysis"
	"github.com/KaramelBytes/enrolpulse/internal/utils"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Palettes cycled across bars and pie slices.
var (
	TopPalette    = []string{"#ce4040", "#6643e4", "#7bdf72"}
	BottomPalette = []string{"#2c2c9c", "#000000", "#7be26a"}
	PiePalette    = []string{"#3b7dd8", "#e44bd8", "#7be26a"}
)

// ChartOptions controls chart output.
type ChartOptions struct {
	// Format is any gonum/plot format: png, svg, pdf, jpg, eps, tif.
	Format string
	// Scale multiplies the default figure sizes; 0 means 1.
	Scale float64
}

// DefaultChartOptions renders PNG at the default sizes.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{Format: "png", Scale: 1}
}

// ErrNoData is returned when a chart has nothing to draw.
var ErrNoData = errors.New("no data to chart")

// Chart file stems written by Charts.
const (
	TopChart    = "top"
	BottomChart = "bottom"
	AgeChart    = "age_brackets"
)

// Charts draws the top, bottom and age bracket charts into dir and returns
// the written paths. Charts with no data are skipped.
func Charts(fs afero.Fs, dir string, s *analysis.Summary, opt ChartOptions) ([]string, error) {
	if opt.Format == "" {
		opt.Format = "png"
	}
	if opt.Scale <= 0 {
		opt.Scale = 1
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir output dir: %w", err)
	}
	type job struct {
		stem string
		w, h vg.Length
		mk   func() (*plot.Plot, error)
	}
	jobs := []job{
		{TopChart, 10 * vg.Inch, 5 * vg.Inch, func() (*plot.Plot, error) {
			return BarChart(fmt.Sprintf("Top %d States by Aadhaar Enrolment", s.TopN), s.Top, TopPalette)
		}},
		{BottomChart, 12 * vg.Inch, 5 * vg.Inch, func() (*plot.Plot, error) {
			return BarChart(fmt.Sprintf("Bottom %d States by Aadhaar Enrolment", s.TopN), s.Bottom, BottomPalette)
		}},
		{AgeChart, 7 * vg.Inch, 7 * vg.Inch, func() (*plot.Plot, error) {
			return PieChart("Demographic Pulse of Aadhaar Enrolment", bracketLabels, bracketValues(s), PiePalette)
		}},
	}
	var written []string
	for _, j := range jobs {
		p, err := j.mk()
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("%s chart: %w", j.stem, err)
		}
		path := filepath.Join(dir, j.stem+"."+opt.Format)
		if err := save(fs, p, vg.Length(opt.Scale)*j.w, vg.Length(opt.Scale)*j.h, opt.Format, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func save(fs afero.Fs, p *plot.Plot, w, h vg.Length, format, path string) error {
	wt, err := p.WriterTo(w, h, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return utils.SafeWriteFile(fs, path, buf.Bytes())
}

// BarChart draws one bar per entity with the palette cycled across bars
// and the exact total printed above each bar.
func BarChart(title string, view []analysis.RankedEntity, palette []string) (*plot.Plot, error) {
	if len(view) == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "State"
	p.Y.Label.Text = "Total New Aadhaar Enrolments"

	names := make([]string, len(view))
	xys := make(plotter.XYs, len(view))
	labels := make([]string, len(view))
	var top float64
	for i, e := range view {
		v := float64(e.Total)
		bars, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(28))
		if err != nil {
			return nil, err
		}
		bars.XMin = float64(i)
		bars.Color = hexColor(palette[i%len(palette)])
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)

		names[i] = e.Label
		xys[i] = plotter.XY{X: float64(i), Y: v}
		labels[i] = humanize.Comma(e.Total)
		top = math.Max(top, v)
	}
	vals, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, err
	}
	for i := range vals.TextStyle {
		vals.TextStyle[i].Font.Size = vg.Points(9)
		vals.TextStyle[i].XAlign = draw.XCenter
	}
	vals.Offset = vg.Point{Y: vg.Points(3)}
	p.Add(vals)

	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YTop
	p.Y.Min = 0
	if top > 0 {
		p.Y.Max = top * 1.1
	} else {
		p.Y.Max = 1
	}
	p.Y.Tick.Marker = plainTicks{}
	return p, nil
}

// plainTicks labels the y axis with full integers and thousands separators.
type plainTicks struct{}

func (plainTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label == "" {
			continue
		}
		ticks[i].Label = humanize.Comma(int64(math.Round(ticks[i].Value)))
	}
	return ticks
}

func hexColor(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
