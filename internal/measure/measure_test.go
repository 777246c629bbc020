package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_CanonicalOrder(t *testing.T) {
	got := All()
	require.Len(t, got, 12)
	assert.Equal(t, ApproachWithdraw, got[0])
	assert.Equal(t, Engagement, got[1])
	assert.Equal(t, VisualAttentionComposite, got[11])

	// Mutating the copy must not leak into the canonical list.
	got[0] = "bogus"
	assert.Equal(t, ApproachWithdraw, All()[0])
}

func TestIndexAndParse(t *testing.T) {
	assert.Equal(t, 3, Index(MemoryEncodingDetail))
	assert.Equal(t, -1, Index("Heart Rate"))

	m, ok := Parse("General Attention - Global")
	assert.True(t, ok)
	assert.Equal(t, GeneralAttentionGlobal, m)

	_, ok = Parse("general attention - global")
	assert.False(t, ok, "names are case-sensitive")
}

func TestOrdered(t *testing.T) {
	present := map[Measure]bool{
		VisualAttentionGlobal: true,
		ApproachWithdraw:      true,
		"Unknown":             true,
		Engagement:            true,
	}
	assert.Equal(t, []Measure{ApproachWithdraw, Engagement, VisualAttentionGlobal}, Ordered(present))
}

func TestClusters_CoverEveryMeasureOnce(t *testing.T) {
	seen := map[Measure]int{}
	for _, c := range Clusters() {
		for _, m := range c.Measures {
			seen[m]++
		}
	}
	for _, m := range All() {
		assert.Equal(t, 1, seen[m], "measure %q", m)
	}
}

func TestClusters_AxisRanges(t *testing.T) {
	c, ok := ClusterOf(ApproachWithdraw)
	require.True(t, ok)
	assert.True(t, c.Solo())
	assert.Equal(t, Axis{Min: -0.5, Max: 0.5}, c.Axis)

	c, ok = ClusterOf(MemoryEncodingComposite)
	require.True(t, ok)
	assert.False(t, c.Solo())
	assert.Equal(t, "Memory Encoding", c.Name)
	assert.Equal(t, Axis{Min: 0, Max: 1.0}, c.Axis)
	assert.Equal(t, 1, c.Row)
	assert.Equal(t, 0, c.Col)
}
