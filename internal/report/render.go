package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "600px"
	chartHeight = "400px"
)

// RenderHTML writes every chart onto one HTML page.
func RenderHTML(w io.Writer, pageTitle string, list []Chart) error {
	page := components.NewPage()
	page.PageTitle = pageTitle

	for _, c := range list {
		switch c.Kind {
		case KindLine:
			page.AddCharts(buildLine(c))
		case KindBox:
			page.AddCharts(buildBox(c))
		default:
			return fmt.Errorf("%w: unknown chart kind %q", ErrRenderFailed, c.Kind)
		}
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return nil
}

func globalOptions(c Chart) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(c.Series) > 1), Top: "bottom"}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.YLabel, Min: c.YRange.Min, Max: c.YRange.Max}),
	}
}

func buildLine(c Chart) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(globalOptions(c),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.XLabel}),
	)...)

	var labels []string
	if len(c.Series) > 0 {
		labels = make([]string, len(c.Series[0].X))
		for i, x := range c.Series[0].X {
			labels[i] = strconv.FormatFloat(x, 'f', 2, 64)
		}
	}
	line.SetXAxis(labels)

	for _, s := range c.Series {
		data := make([]opts.LineData, len(s.Y))
		for i, v := range s.Y {
			if math.IsNaN(v) {
				data[i] = opts.LineData{Value: "-"}
				continue
			}
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Name, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

func buildBox(c Chart) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(append(globalOptions(c),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	)...)

	names := make([]string, len(c.Series))
	data := make([]opts.BoxPlotData, len(c.Series))
	for i, s := range c.Series {
		names[i] = s.Name
		if s.Box != nil {
			data[i] = opts.BoxPlotData{Name: s.Name, Value: s.Box.Five()}
		}
	}
	box.SetXAxis(names)
	box.AddSeries(c.Cluster, data)
	return box
}
