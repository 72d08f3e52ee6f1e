// Package export renders force traces to image files.
package export

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ForcePlot writes a measured-vs-predicted force plot to path. The format
// follows the file extension (.png, .svg, .pdf). Measured may be nil for
// simulation-only traces.
func ForcePlot(path string, times, measured, predicted []float64) error {
	p := plot.New()
	p.Title.Text = "friction force"
	p.X.Label.Text = "time [s]"
	p.Y.Label.Text = "force [N]"

	if measured != nil {
		if err := plotutil.AddLinePoints(p, "measured", xys(times, measured), "predicted", xys(times, predicted)); err != nil {
			return err
		}
	} else {
		if err := plotutil.AddLinePoints(p, "predicted", xys(times, predicted)); err != nil {
			return err
		}
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

func xys(times, values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i].X = times[i]
		pts[i].Y = values[i]
	}
	return pts
}
