package render

import (
	"errors"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotLevels writes a PNG bar chart of the number of leaves at each level,
// as returned by tetra.Hierarchy.LevelHistogram.
func PlotLevels(w io.Writer, hist []int, width, height vg.Length) error {
	if len(hist) == 0 {
		return errors.New("empty level histogram")
	}
	values := make(plotter.Values, len(hist))
	labels := make([]string, len(hist))
	for i, c := range hist {
		values[i] = float64(c)
		labels[i] = strconv.Itoa(i)
	}
	p := plot.New()
	p.Title.Text = "Leaves per level"
	p.X.Label.Text = "level"
	p.Y.Label.Text = "leaves"
	bars, err := plotter.NewBarChart(values, width/vg.Length(2*len(hist)+2))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
