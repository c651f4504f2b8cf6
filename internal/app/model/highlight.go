package model

// Highlight positions are named display slots; at most one article per
// portal holds each one.
const (
	PositionMain      = "Main"
	PositionPosition1 = "Position1"
	PositionPosition2 = "Position2"
	PositionPosition3 = "Position3"
	PositionPosition4 = "Position4"
	PositionPosition5 = "Position5"
)

var highlightPositions = []string{
	PositionMain,
	PositionPosition1,
	PositionPosition2,
	PositionPosition3,
	PositionPosition4,
	PositionPosition5,
}

// HighlightPositions returns the position vocabulary in display order.
func HighlightPositions() []string {
	out := make([]string, len(highlightPositions))
	copy(out, highlightPositions)
	return out
}

// ValidHighlightPosition reports whether p is part of the vocabulary. The
// empty string is not a position; it means "none".
func ValidHighlightPosition(p string) bool {
	return PositionRank(p) >= 0
}

// PositionRank is the display index of p, or -1 when p is unknown.
func PositionRank(p string) int {
	for i, pos := range highlightPositions {
		if pos == p {
			return i
		}
	}
	return -1
}

// Highlight is one occupied slot of a portal.
type Highlight struct {
	Position string `json:"position" gorm:"column:position"`
	EntityID string `json:"entity_id" gorm:"column:entity_id"`
	Title    string `json:"title" gorm:"column:title"`
	Image    string `json:"image" gorm:"column:image"`
}
