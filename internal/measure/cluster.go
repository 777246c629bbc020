package measure

// Axis is a fixed y-axis range for a chart.
type Axis struct {
	Min float64
	Max float64
}

// Cluster groups measures rendered together on one chart.
type Cluster struct {
	Name     string
	Measures []Measure
	Axis     Axis
	// Position in the 2x3 box-plot grid.
	Row, Col int
}

// Solo reports whether the cluster holds a single measure.
func (c Cluster) Solo() bool { return len(c.Measures) == 1 }

var (
	unitAxis    = Axis{Min: 0, Max: 1.0}
	balanceAxis = Axis{Min: -0.5, Max: 0.5}
)

// clusters is the display table. Axis ranges are domain constants and are not
// derived from data.
var clusters = []Cluster{
	{Name: "Approach / Withdraw", Measures: []Measure{ApproachWithdraw}, Axis: balanceAxis, Row: 0, Col: 0},
	{Name: "Engagement", Measures: []Measure{Engagement}, Axis: unitAxis, Row: 0, Col: 1},
	{Name: "Emotional Intensity", Measures: []Measure{EmotionalIntensity}, Axis: unitAxis, Row: 0, Col: 2},
	{
		Name:     "Memory Encoding",
		Measures: []Measure{MemoryEncodingDetail, MemoryEncodingGlobal, MemoryEncodingComposite},
		Axis:     unitAxis,
		Row:      1,
		Col:      0,
	},
	{
		Name:     "General Attention",
		Measures: []Measure{GeneralAttentionDetail, GeneralAttentionGlobal, GeneralAttentionComposite},
		Axis:     unitAxis,
		Row:      1,
		Col:      1,
	},
	{
		Name:     "Visual Attention",
		Measures: []Measure{VisualAttentionDetail, VisualAttentionGlobal, VisualAttentionComposite},
		Axis:     unitAxis,
		Row:      1,
		Col:      2,
	},
}

// Clusters returns the chart clusters in display order.
func Clusters() []Cluster {
	out := make([]Cluster, len(clusters))
	for i, c := range clusters {
		c.Measures = append([]Measure(nil), c.Measures...)
		out[i] = c
	}
	return out
}

// ClusterOf returns the cluster a measure is displayed in.
func ClusterOf(m Measure) (Cluster, bool) {
	for _, c := range clusters {
		for _, cm := range c.Measures {
			if cm == m {
				return c, true
			}
		}
	}
	return Cluster{}, false
}
