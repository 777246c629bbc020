// Package measure defines the canonical, ordered set of neuro measures tracked
// per timestamp and the fixed chart clusters they are displayed in.
package measure

// Measure is the column name of one numeric metric in a per-video dataset.
type Measure string

const (
	ApproachWithdraw          Measure = "Approach / Withdraw"
	Engagement                Measure = "Engagement"
	EmotionalIntensity        Measure = "Emotional Intensity"
	MemoryEncodingDetail      Measure = "Memory Encoding - Detail"
	MemoryEncodingGlobal      Measure = "Memory Encoding - Global"
	MemoryEncodingComposite   Measure = "Memory Encoding - Composite"
	GeneralAttentionDetail    Measure = "General Attention - Detail"
	GeneralAttentionGlobal    Measure = "General Attention - Global"
	GeneralAttentionComposite Measure = "General Attention - Composite"
	VisualAttentionDetail     Measure = "Visual Attention - Detail"
	VisualAttentionGlobal     Measure = "Visual Attention - Global"
	VisualAttentionComposite  Measure = "Visual Attention - Composite"
)

// all is the canonical order. It defines export column order everywhere.
var all = [...]Measure{
	ApproachWithdraw,
	Engagement,
	EmotionalIntensity,
	MemoryEncodingDetail,
	MemoryEncodingGlobal,
	MemoryEncodingComposite,
	GeneralAttentionDetail,
	GeneralAttentionGlobal,
	GeneralAttentionComposite,
	VisualAttentionDetail,
	VisualAttentionGlobal,
	VisualAttentionComposite,
}

var index = func() map[Measure]int {
	m := make(map[Measure]int, len(all))
	for i, name := range all {
		m[name] = i
	}
	return m
}()

// All returns a copy of the canonical measure list.
func All() []Measure {
	out := make([]Measure, len(all))
	copy(out, all[:])
	return out
}

// Count is the number of canonical measures.
func Count() int { return len(all) }

// Index returns the canonical position of m, or -1 if m is not canonical.
func Index(m Measure) int {
	if i, ok := index[m]; ok {
		return i
	}
	return -1
}

// Valid reports whether m belongs to the canonical list.
func Valid(m Measure) bool {
	_, ok := index[m]
	return ok
}

// Parse maps a raw column header to a canonical measure.
func Parse(name string) (Measure, bool) {
	m := Measure(name)
	return m, Valid(m)
}

// Strings returns the canonical names, used as CSV headers.
func Strings() []string {
	out := make([]string, len(all))
	for i, m := range all {
		out[i] = string(m)
	}
	return out
}

// Ordered filters present down to canonical measures and returns them in
// canonical order.
func Ordered(present map[Measure]bool) []Measure {
	out := make([]Measure, 0, len(present))
	for _, m := range all {
		if present[m] {
			out = append(out, m)
		}
	}
	return out
}
