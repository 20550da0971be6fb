package export

import (
	"errors"
	"os"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"delisting-scanner/internal/collector"
)

// WriteCapChartPNG renders resolved market caps against filing dates.
// Events without a resolved cap are omitted. Rendering needs at least
// two points; fewer returns an error so callers can log and move on.
func WriteCapChartPNG(path string, events []collector.FilingEvent) error {
	unique := Dedupe(events)

	x := make([]time.Time, 0, len(unique))
	y := make([]float64, 0, len(unique))
	for i := len(unique) - 1; i >= 0; i-- {
		event := unique[i]
		if event.MarketCap == nil {
			continue
		}
		x = append(x, event.FilingDate)
		y = append(y, event.MarketCap.InexactFloat64()/1e6)
	}

	if len(x) < 2 {
		return errors.New("not enough resolved market caps to chart")
	}

	capFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0fM")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Market cap (USD, millions)",
			ValueFormatter: capFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Delisted market cap",
				XValues: x,
				YValues: y,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    3,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}
