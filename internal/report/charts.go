package report

import (
	"fmt"
	"strings"

	"github.com/sanspareilsmyn/momentlens/internal/aggregate"
	"github.com/sanspareilsmyn/momentlens/internal/measure"
)

// whiskerSpan is the IQR multiple beyond the quartiles that whiskers reach.
const whiskerSpan = 1.5

// Kind is the chart type of a cluster.
type Kind string

const (
	KindLine Kind = "line"
	KindBox  Kind = "box"
)

// Chart is one display cluster ready for rendering. Every cluster is always
// present; Series holds only measures that have data.
type Chart struct {
	Kind    Kind         `json:"kind"`
	Cluster string       `json:"cluster"`
	Title   string       `json:"title"`
	XLabel  string       `json:"x_label,omitempty"`
	YLabel  string       `json:"y_label"`
	YRange  measure.Axis `json:"y_range"`
	XRange  measure.Axis `json:"x_range"`
	Row     int          `json:"row"`
	Col     int          `json:"col"`
	Series  []Series     `json:"series"`
}

// Series is one measure within a chart. Line series carry X/Y with NaN gaps,
// box series carry a five-number summary.
type Series struct {
	Measure measure.Measure `json:"measure"`
	Name    string          `json:"name"`
	X       []float64       `json:"-"`
	Y       []float64       `json:"-"`
	Box     *BoxSummary     `json:"box,omitempty"`
}

// BoxSummary describes a pooled sample the way a box plot draws it.
type BoxSummary struct {
	N            int       `json:"n"`
	LowerWhisker float64   `json:"lower_whisker"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	UpperWhisker float64   `json:"upper_whisker"`
	Outliers     []float64 `json:"outliers,omitempty"`
}

// Five returns the summary in box plot order.
func (b BoxSummary) Five() []float64 {
	return []float64{b.LowerWhisker, b.Q1, b.Median, b.Q3, b.UpperWhisker}
}

// Summarize computes a BoxSummary of an ascending sample. Whiskers reach the
// most extreme values within 1.5 IQR of the quartiles.
func Summarize(sorted []float64) BoxSummary {
	b := BoxSummary{N: len(sorted)}
	if len(sorted) == 0 {
		return b
	}
	b.Q1 = aggregate.Quantile(sorted, 0.25)
	b.Median = aggregate.Quantile(sorted, 0.5)
	b.Q3 = aggregate.Quantile(sorted, 0.75)

	iqr := b.Q3 - b.Q1
	lowFence := b.Q1 - whiskerSpan*iqr
	highFence := b.Q3 + whiskerSpan*iqr

	b.LowerWhisker = b.Q1
	b.UpperWhisker = b.Q3
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		if v < b.LowerWhisker {
			b.LowerWhisker = v
		}
		if v > b.UpperWhisker {
			b.UpperWhisker = v
		}
	}
	return b
}

// Charts groups res into the fixed display clusters.
func Charts(res aggregate.Result, query string) ([]Chart, error) {
	switch r := res.(type) {
	case *aggregate.PooledResult:
		return boxCharts(r), nil
	case *aggregate.AlignedResult:
		return lineCharts(r, query), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedResult, res)
	}
}

func boxCharts(r *aggregate.PooledResult) []Chart {
	clusters := measure.Clusters()
	out := make([]Chart, 0, len(clusters))
	for _, c := range clusters {
		chart := Chart{
			Kind:    KindBox,
			Cluster: c.Name,
			Title:   c.Name,
			YLabel:  "Value",
			YRange:  c.Axis,
			Row:     c.Row,
			Col:     c.Col,
		}
		for _, m := range c.Measures {
			values, ok := r.Values[m]
			if !ok || len(values) == 0 {
				continue
			}
			box := Summarize(values)
			chart.Series = append(chart.Series, Series{Measure: m, Name: legendName(c, m), Box: &box})
		}
		out = append(out, chart)
	}
	return out
}

func lineCharts(r *aggregate.AlignedResult, query string) []Chart {
	clusters := measure.Clusters()
	out := make([]Chart, 0, len(clusters))
	for _, c := range clusters {
		chart := Chart{
			Kind:    KindLine,
			Cluster: c.Name,
			Title:   fmt.Sprintf("%s - Query: %s", c.Name, query),
			XLabel:  "Time (s)",
			YLabel:  c.Name,
			YRange:  c.Axis,
			XRange:  measure.Axis{Min: -r.PreDuration, Max: r.EffectivePost()},
			Row:     c.Row,
			Col:     c.Col,
		}
		if r.PreDuration == 0 {
			chart.XRange.Min = 0
		}
		for _, m := range c.Measures {
			curve, ok := r.Curve(m)
			if !ok {
				continue
			}
			chart.Series = append(chart.Series, Series{
				Measure: m,
				Name:    legendName(c, m),
				X:       r.Grid,
				Y:       curve,
			})
		}
		out = append(out, chart)
	}
	return out
}

// legendName drops the cluster prefix from trio members.
func legendName(c measure.Cluster, m measure.Measure) string {
	if c.Solo() {
		return string(m)
	}
	return strings.TrimPrefix(string(m), c.Name+" - ")
}
