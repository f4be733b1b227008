package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pie is a plot.Plotter drawing wedges counter-clockwise from StartAngle.
// Each wedge carries its name outside the rim and its share inside.
type pie struct {
	Names  []string
	Values []float64
	Colors []color.Color

	// StartAngle in radians; math.Pi/2 starts at twelve o'clock.
	StartAngle float64
	// Radius as a fraction of half the shorter canvas side.
	Radius float64

	TextStyle text.Style
}

// PieChart draws values as a pie with percentage labels formatted %.1f%%.
func PieChart(title string, names []string, values []int64, palette []string) (*plot.Plot, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("pie: %d names for %d values", len(names), len(values))
	}
	var total int64
	vals := make([]float64, len(values))
	cols := make([]color.Color, len(values))
	for i, v := range values {
		if v < 0 {
			return nil, fmt.Errorf("pie: negative value %d for %s", v, names[i])
		}
		total += v
		vals[i] = float64(v)
		cols[i] = hexColor(palette[i%len(palette)])
	}
	if total == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.HideAxes()

	sty := p.Legend.TextStyle
	sty.Font.Size = vg.Points(11)
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter
	p.Add(&pie{
		Names:      names,
		Values:     vals,
		Colors:     cols,
		StartAngle: math.Pi / 2,
		Radius:     0.75,
		TextStyle:  sty,
	})
	return p, nil
}

// Plot implements plot.Plotter.
func (pc *pie) Plot(c draw.Canvas, _ *plot.Plot) {
	var total float64
	for _, v := range pc.Values {
		total += v
	}
	if total <= 0 {
		return
	}
	lo, hi := c.Min, c.Max
	center := vg.Point{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}
	half := (hi.X - lo.X) / 2
	if h := (hi.Y - lo.Y) / 2; h < half {
		half = h
	}
	r := half * vg.Length(pc.Radius)

	angle := pc.StartAngle
	for i, v := range pc.Values {
		if v <= 0 {
			continue
		}
		sweep := 2 * math.Pi * v / total

		var wedge vg.Path
		wedge.Move(center)
		wedge.Arc(center, r, angle, sweep)
		wedge.Close()
		c.SetColor(pc.Colors[i])
		c.Fill(wedge)

		mid := angle + sweep/2
		c.FillText(pc.TextStyle, polar(center, r*1.15, mid), pc.Names[i])
		c.FillText(pc.TextStyle, polar(center, r*0.6, mid), fmt.Sprintf("%.1f%%", v*100/total))
		angle += sweep
	}
}

func polar(center vg.Point, r vg.Length, theta float64) vg.Point {
	return vg.Point{
		X: center.X + vg.Length(float64(r)*math.Cos(theta)),
		Y: center.Y + vg.Length(float64(r)*math.Sin(theta)),
	}
}
