package graph

// Tier is the presentation bucket a node falls into.
type Tier int

const (
	TierUnscored Tier = iota // no correct answers yet
	TierPartial              // some mastery score, not yet mastered
	TierMastered             // mastered flag set
)

// Label returns the display label for a tier.
func (t Tier) Label() string {
	switch t {
	case TierMastered:
		return "Mastered"
	case TierPartial:
		return "In progress"
	case TierUnscored:
		return "Not started"
	default:
		return "Unknown"
	}
}

// Style is a node's computed presentation: ramp tier, base and highlight
// colors, and visual size.
type Style struct {
	Tier      Tier
	Color     string
	Highlight string
	Size      int
}

// Three-tier mastery ramp.
const (
	ColorMastered          = "#2ecc71"
	ColorMasteredHighlight = "#27ae60"
	ColorPartial           = "#f39c12"
	ColorPartialHighlight  = "#d35400"
	ColorUnscored          = "#e74c3c"
	ColorUnscoredHighlight = "#c0392b"
)

// Decorate maps a node's mastery state to its presentation style. It is pure:
// same node in, same style out, and it never touches the mirror. The mastered
// flag wins over the score, so a mastered node is green even if the score
// field disagrees.
func Decorate(n Node) Style {
	size := n.Value * 2
	if size < 10 {
		size = 10
	}

	switch {
	case n.Mastered:
		return Style{Tier: TierMastered, Color: ColorMastered, Highlight: ColorMasteredHighlight, Size: size}
	case n.MasteryScore > 0:
		return Style{Tier: TierPartial, Color: ColorPartial, Highlight: ColorPartialHighlight, Size: size}
	default:
		return Style{Tier: TierUnscored, Color: ColorUnscored, Highlight: ColorUnscoredHighlight, Size: size}
	}
}
