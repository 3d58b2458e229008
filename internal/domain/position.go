package domain

// Position places a node relative to a target node.
type Position string

// Position values.
const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
	PositionInside Position = "inside"
)

// IsValidPosition reports whether p is a supported placement.
func IsValidPosition(p Position) bool {
	switch p {
	case PositionBefore, PositionAfter, PositionInside:
		return true
	default:
		return false
	}
}
