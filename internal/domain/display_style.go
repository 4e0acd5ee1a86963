package domain

// DisplayStyle selects how a book's progress is rendered.
// It is presentational only and never affects progress or completion.
type DisplayStyle string

// DisplayStyle values.
const (
	DisplayStylePercentage DisplayStyle = "percentage"
	DisplayStyleCircular   DisplayStyle = "circular"
	DisplayStyleBar        DisplayStyle = "bar"
)

// DefaultDisplayStyle is assigned to new books and to legacy records
// persisted before the field existed.
const DefaultDisplayStyle = DisplayStyleBar

// Valid returns true if the style is a recognized value.
func (s DisplayStyle) Valid() bool {
	switch s {
	case DisplayStylePercentage, DisplayStyleCircular, DisplayStyleBar:
		return true
	default:
		return false
	}
}

// Next returns the style that follows s in the tap-to-cycle order
// percentage -> circular -> bar -> percentage.
// Unrecognized values restart the cycle at percentage.
func (s DisplayStyle) Next() DisplayStyle {
	switch s {
	case DisplayStylePercentage:
		return DisplayStyleCircular
	case DisplayStyleCircular:
		return DisplayStyleBar
	default:
		return DisplayStylePercentage
	}
}

// DisplayStyles lists every style in cycle order.
func DisplayStyles() []DisplayStyle {
	return []DisplayStyle{DisplayStylePercentage, DisplayStyleCircular, DisplayStyleBar}
}
