package domain

// Side is one of the four edges of a shape's bounding rectangle.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned bounding box with its origin at the top-left.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// AnchorPoint returns the position on the given side at fraction t (0..1)
// along it. Unknown sides anchor at the centre of the rectangle.
func (r Rect) AnchorPoint(side Side, t float64) Point {
	switch side {
	case SideTop:
		return Point{r.X + r.W*t, r.Y}
	case SideBottom:
		return Point{r.X + r.W*t, r.Y + r.H}
	case SideLeft:
		return Point{r.X, r.Y + r.H*t}
	case SideRight:
		return Point{r.X + r.W, r.Y + r.H*t}
	}
	return Point{r.X + r.W/2, r.Y + r.H/2}
}

// EdgeCenter returns the midpoint of the given side.
func (r Rect) EdgeCenter(side Side) Point {
	return r.AnchorPoint(side, 0.5)
}

// Geometry is a connector's anchor point and its signed extent to the end
// point: end = (X+Width, Y+Height).
type Geometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// End returns the connector's end point.
func (g Geometry) End() Point {
	return Point{g.X + g.Width, g.Y + g.Height}
}
