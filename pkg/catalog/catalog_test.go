package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreComplexity(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    Complexity
	}{
		{"empty", Signals{}, ComplexitySimple},
		{"one transform", Signals{DOMTransformations: 1}, ComplexitySimple},
		{"variants and async sit on the boundary", Signals{HasVariants: true, HasAsync: true}, ComplexitySimple},
		{"transform plus variants", Signals{DOMTransformations: 2, HasVariants: true}, ComplexityModerate},
		{"container and observer", Signals{IsContainer: true, RequiresObserver: true}, ComplexityModerate},
		{"just over two", Signals{IsContainer: true, RequiresObserver: true, HasAsync: true}, ComplexityComplex},
		{"everything", Signals{DOMTransformations: 3, IsContainer: true, RequiresObserver: true, HasVariants: true, HasAsync: true}, ComplexityComplex},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreComplexity(tc.signals))
		})
	}
}

func TestSignalsScore(t *testing.T) {
	s := Signals{DOMTransformations: 5, IsContainer: true, RequiresObserver: true, HasVariants: true, HasAsync: true}
	assert.Equal(t, 4.0, s.Score())
}

func TestTablesAreOrdered(t *testing.T) {
	dom := DOMTransformations()
	require.Len(t, dom, 6)
	assert.Equal(t, "div->details", dom[0].Transform)
	assert.Equal(t, "img->picture", dom[5].Transform)
	assert.False(t, dom[3].RequiresObserver, "blockquote does not need an observer")

	containers := ContainerPatterns()
	require.Len(t, containers, 3)
	assert.Equal(t, ConfidenceHigh, containers[0].Confidence)
	assert.False(t, containers[2].IsContainer, "indexed access is the last and non-container rule")

	for _, r := range ChildrenAccessPatterns() {
		assert.Equal(t, CategoryChildrenAccess, r.Category)
	}
}

func TestTablesAreCopies(t *testing.T) {
	dom := DOMTransformations()
	dom[0].Transform = "mutated"
	assert.Equal(t, "div->details", DOMTransformations()[0].Transform)
}

func TestRuleMatches(t *testing.T) {
	dom := DOMTransformations()
	assert.True(t, dom[0].Matches(`const d = document.createElement('details');`))
	assert.True(t, dom[0].Matches(`document.createElement("details")`))
	assert.False(t, dom[0].Matches(`document.createElement('div')`))
}

func TestIndices(t *testing.T) {
	src := `const a = row.children[0]; const b = block.children[2]; row.children[0].remove();`
	idx := ChildrenAccessPatterns()[0]
	assert.Equal(t, []int{0, 2, 0}, idx.Indices(src))

	spread := ChildrenAccessPatterns()[1]
	assert.Nil(t, spread.Indices(src))
	assert.True(t, spread.Matches(`[...block.children].forEach((row) => {})`))

	length := ChildrenAccessPatterns()[2]
	assert.Equal(t, AccessLength, length.Access)
	assert.True(t, length.Matches(`if (block.children.length > 2) return;`))
	assert.Nil(t, length.Indices(`block.children.length`))
}

func TestTiers(t *testing.T) {
	tiers := Tiers()
	require.Len(t, tiers, 3)
	for i := 1; i < len(tiers); i++ {
		assert.Greater(t, tiers[i].Score, tiers[i-1].Score)
	}
}
