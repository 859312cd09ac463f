package anneal

// Point is a label anchor on the canvas.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Handle indexes a label in the engine's arena. It equals the index of the
// owning point in the input slice.
type Handle int

// edge is one side of a symmetric neighbor pair.
type edge struct {
	other Handle
	force float64 // force on the owning label from other
	back  int     // position of the reverse edge in other's edge list
}

type label struct {
	x       int
	anchor  Point
	edges   []edge
	total   float64
	removed bool
}

// minX and maxX bound the label's left edge: the band always contains the anchor.
func (l *label) minX(width int) int { return l.anchor.X - width }
func (l *label) maxX() int          { return l.anchor.X }

func (l *label) clamp(width int) {
	if l.x < l.minX(width) {
		l.x = l.minX(width)
	} else if l.x > l.maxX() {
		l.x = l.maxX()
	}
}
