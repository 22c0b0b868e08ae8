package telemetry

import "sort"

const DefaultHistoryLimit = 500

// Point is a world position, T in Unix milliseconds of the server clock.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	T float64 `json:"t,omitempty"`
}

// History keeps the most recent samples of one driver ordered by T.
type History struct {
	points []Point
	limit  int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Add inserts p in timestamp order. Equal timestamps keep arrival order.
// When the limit is exceeded the oldest sample is dropped.
func (h *History) Add(p Point) {
	i := sort.Search(len(h.points), func(i int) bool { return h.points[i].T > p.T })
	h.points = append(h.points, Point{})
	copy(h.points[i+1:], h.points[i:])
	h.points[i] = p

	if len(h.points) > h.limit {
		h.points = h.points[len(h.points)-h.limit:]
	}
}

func (h *History) Len() int { return len(h.points) }

// Points returns the samples in order. The slice must not be modified.
func (h *History) Points() []Point { return h.points }

// Interpolate returns the position at time at. Outside the sampled range the
// nearest end sample is returned. Fewer than two samples yield ok=false.
func Interpolate(h []Point, at float64) (Point, bool) {
	if len(h) < 2 {
		return Point{}, false
	}

	for i := 0; i < len(h)-1; i++ {
		p1, p2 := h[i], h[i+1]
		if p1.T <= at && p2.T > at {
			ratio := (at - p1.T) / (p2.T - p1.T)
			return Point{
				X: p1.X + (p2.X-p1.X)*ratio,
				Y: p1.Y + (p2.Y-p1.Y)*ratio,
				T: at,
			}, true
		}
	}

	first, last := h[0], h[len(h)-1]
	if at >= last.T {
		return last, true
	}
	return first, true
}
