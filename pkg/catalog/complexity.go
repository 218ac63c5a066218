package catalog

// Complexity buckets a block by how much work instrumenting it takes.
type Complexity string

const (
	ComplexitySimple   Complexity = "SIMPLE"
	ComplexityModerate Complexity = "MODERATE"
	ComplexityComplex  Complexity = "COMPLEX"
)

// Tier describes one complexity bucket for human-facing output.
type Tier struct {
	Complexity      Complexity `json:"complexity"`
	Score           float64    `json:"score"`
	Characteristics []string   `json:"characteristics"`
}

// Tiers lists the buckets in ascending order. Score is the inclusive upper
// bound used by ScoreComplexity.
func Tiers() []Tier {
	return []Tier{
		{
			Complexity:      ComplexitySimple,
			Score:           1,
			Characteristics: []string{"No DOM transformations", "Direct children access", "No container behavior"},
		},
		{
			Complexity:      ComplexityModerate,
			Score:           2,
			Characteristics: []string{"Minor DOM transformations", "Some iteration", "May have variants"},
		},
		{
			Complexity:      ComplexityComplex,
			Score:           3,
			Characteristics: []string{"Multiple DOM transformations", "Container block", "Dynamic content", "Requires observers"},
		},
	}
}

// Signals is the subset of an analysis that feeds the score.
type Signals struct {
	DOMTransformations int
	IsContainer        bool
	RequiresObserver   bool
	HasVariants        bool
	HasAsync           bool
}

// Score returns the raw weighted score for s.
func (s Signals) Score() float64 {
	score := 0.0
	if s.DOMTransformations > 0 {
		score += 1
	}
	if s.IsContainer {
		score += 1
	}
	if s.RequiresObserver {
		score += 1
	}
	if s.HasVariants {
		score += 0.5
	}
	if s.HasAsync {
		score += 0.5
	}
	return score
}

// ScoreComplexity maps signals onto a bucket. Bounds are inclusive, so a
// score sitting exactly on a boundary lands in the lower bucket.
func ScoreComplexity(s Signals) Complexity {
	score := s.Score()
	switch {
	case score <= 1:
		return ComplexitySimple
	case score <= 2:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}
