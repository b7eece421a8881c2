package drawing

import (
	"math"

	"edgealign/internal/domain"
)

// SelectSide picks the edge of subject a connector should attach to, judged
// by where other's top-left corner lies relative to subject's.
//
// Exact horizontal or vertical alignment wins first. Otherwise the dominant
// axis decides; a tie (|dx| == |dy|) goes to the top/bottom edge. fallback is
// returned only when both corners coincide.
func SelectSide(subject, other domain.Rect, fallback domain.Side) domain.Side {
	dx := subject.X - other.X
	dy := subject.Y - other.Y

	if dy == 0 {
		if dx < 0 {
			return domain.SideRight
		} else if dx > 0 {
			return domain.SideLeft
		}
	}

	if dx == 0 {
		if dy < 0 {
			return domain.SideBottom
		} else if dy > 0 {
			return domain.SideTop
		}
	}

	if dx != 0 && dy != 0 {
		if math.Abs(dx) > math.Abs(dy) {
			if dx < 0 {
				return domain.SideRight
			}
			return domain.SideLeft
		}
		if dy < 0 {
			return domain.SideBottom
		}
		return domain.SideTop
	}

	return fallback
}

// EdgeCenter returns the midpoint of the subject edge chosen by SelectSide.
func EdgeCenter(subject, other domain.Rect, fallback domain.Side) domain.Point {
	return subject.EdgeCenter(SelectSide(subject, other, fallback))
}

// Endpoints is where a connector between two shapes should start and end.
type Endpoints struct {
	StartSide domain.Side
	EndSide   domain.Side
	Start     domain.Point
	End       domain.Point
}

// Align computes the endpoints of a connector running from start to end.
// Each side is chosen independently with the roles swapped, so the two ends
// may land on unrelated edges.
func Align(start, end domain.Rect) Endpoints {
	ss := SelectSide(start, end, domain.SideRight)
	es := SelectSide(end, start, domain.SideLeft)
	return Endpoints{
		StartSide: ss,
		EndSide:   es,
		Start:     start.EdgeCenter(ss),
		End:       end.EdgeCenter(es),
	}
}

// Geometry converts the endpoints into connector anchor and extent.
func (e Endpoints) Geometry() domain.Geometry {
	return domain.Geometry{
		X:      e.Start.X,
		Y:      e.Start.Y,
		Width:  e.End.X - e.Start.X,
		Height: e.End.Y - e.Start.Y,
	}
}
