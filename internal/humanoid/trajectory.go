package humanoid

import (
	"math"
)

// jitterFraction bounds interior control point jitter as a fraction of the axis span.
const jitterFraction = 0.1

// Trajectory is a lazy, finite sequence of waypoints along a bezier curve.
// Points are evaluated on demand. Once exhausted it stays exhausted.
type Trajectory struct {
	control []Vector2D
	samples int // total samples in [0,1], the first (t=0) is never emitted
	next    int
}

// Next returns the next waypoint, or false once the trajectory is exhausted.
func (t *Trajectory) Next() (Vector2D, bool) {
	if t.next >= t.samples {
		return Vector2D{}, false
	}
	i := t.next
	t.next++
	// The last sample is the end point exactly, not an evaluation of it.
	if i == t.samples-1 {
		return t.control[len(t.control)-1], true
	}
	return bernstein(t.control, float64(i)/float64(t.samples-1)), true
}

// Remaining reports how many waypoints are left.
func (t *Trajectory) Remaining() int {
	return t.samples - t.next
}

// NewTrajectory builds the control polygon for a path from start to end and
// returns an iterator over numPoints-1 samples (the start itself is omitted,
// the mover is already there). With advanced movement disabled, or fewer than
// two samples requested, the trajectory yields end once.
func (h *Humanoid) NewTrajectory(start, end Vector2D, numPoints int) *Trajectory {
	cfg := h.config()
	if !cfg.AdvancedMovement || numPoints < 2 {
		return &Trajectory{control: []Vector2D{end}, samples: 1}
	}
	return &Trajectory{
		control: controlPoints(start, end, cfg.BezierPoints),
		samples: numPoints,
		next:    1,
	}
}

// BezierPath evaluates the whole trajectory eagerly.
func (h *Humanoid) BezierPath(start, end Vector2D, numPoints int) []Vector2D {
	traj := h.NewTrajectory(start, end, numPoints)
	path := make([]Vector2D, 0, traj.Remaining())
	for p, ok := traj.Next(); ok; p, ok = traj.Next() {
		path = append(path, p)
	}
	return path
}

// controlPoints returns start, n-2 jittered interior points on the segment, and end.
func controlPoints(start, end Vector2D, n int) []Vector2D {
	if n < 2 {
		n = 2
	}
	spanX := math.Abs(end.X-start.X) * jitterFraction
	spanY := math.Abs(end.Y-start.Y) * jitterFraction

	pts := make([]Vector2D, 0, n)
	pts = append(pts, start)
	for i := 1; i < n-1; i++ {
		mid := start.Lerp(end, float64(i)/float64(n-1))
		pts = append(pts, Vector2D{
			X: mid.X + uniform(-spanX, spanX),
			Y: mid.Y + uniform(-spanY, spanY),
		})
	}
	return append(pts, end)
}

// bernstein evaluates the bezier curve defined by the control points at t.
func bernstein(control []Vector2D, t float64) Vector2D {
	n := len(control) - 1
	var out Vector2D
	for i, p := range control {
		w := binomial(n, i) * math.Pow(t, float64(i)) * math.Pow(1-t, float64(n-i))
		out = out.Add(p.Mul(w))
	}
	return out
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}
