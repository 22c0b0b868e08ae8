package telemetry

import (
	"math"
	"testing"
	"time"

	"f1-pitwall/internal/f1"

	"github.com/stretchr/testify/require"
)

func TestInterpolateLinear(t *testing.T) {
	h := []Point{{X: 0, Y: 0, T: 1000}, {X: 100, Y: 50, T: 2000}, {X: 100, Y: 150, T: 3000}}

	p, ok := Interpolate(h, 1500)
	require.True(t, ok)
	require.InDelta(t, 50, p.X, 1e-9)
	require.InDelta(t, 25, p.Y, 1e-9)

	p, ok = Interpolate(h, 2000)
	require.True(t, ok)
	require.Equal(t, 100.0, p.X)
	require.Equal(t, 50.0, p.Y)

	p, _ = Interpolate(h, 2750)
	require.InDelta(t, 125, p.Y, 1e-9)

	p, _ = Interpolate(h, 500)
	require.Equal(t, Point{X: 0, Y: 0, T: 1000}, p)

	p, _ = Interpolate(h, 9000)
	require.Equal(t, Point{X: 100, Y: 150, T: 3000}, p)

	_, ok = Interpolate(h[:1], 1000)
	require.False(t, ok)
}

func TestHistoryKeepsOrderAndLimit(t *testing.T) {
	h := NewHistory(3)
	h.Add(Point{T: 10})
	h.Add(Point{T: 30})
	h.Add(Point{T: 20})
	require.Equal(t, []float64{10, 20, 30}, times(h.Points()))

	h.Add(Point{T: 5})
	require.Equal(t, []float64{10, 20, 30}, times(h.Points()))

	h.Add(Point{T: 40})
	require.Equal(t, []float64{20, 30, 40}, times(h.Points()))
}

func times(ps []Point) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.T
	}
	return out
}

func TestSkewConvergesToConstantOffset(t *testing.T) {
	var e SkewEstimator
	base := time.UnixMilli(1_700_000_000_000)

	require.Equal(t, 0.0, e.ServerNow(base))

	// first sample arrives with a 500ms offset, the true offset is 2s
	e.Observe(base, base.Add(500*time.Millisecond))
	skew, ok := e.Skew()
	require.True(t, ok)
	require.Equal(t, 500*time.Millisecond, skew)

	for i := 1; i <= 1000; i++ {
		server := base.Add(time.Duration(i) * 100 * time.Millisecond)
		e.Observe(server, server.Add(2*time.Second))
	}
	skew, _ = e.Skew()
	require.InDelta(t, float64(2*time.Second), float64(skew), float64(time.Millisecond))

	// stale samples do not move the estimate
	e.Observe(base, base.Add(time.Hour))
	again, _ := e.Skew()
	require.Equal(t, skew, again)

	local := base.Add(time.Minute)
	require.InDelta(t, float64(local.UnixMilli())-2000, e.ServerNow(local), 1)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func sample(driver int, at time.Time, x, y float64) f1.TelemetryLocation {
	return f1.TelemetryLocation{DriverNumber: driver, Date: at.UTC().Format(time.RFC3339Nano), X: x, Y: y}
}

func TestPlaybackAdvance(t *testing.T) {
	start := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	pb := NewPlayback(WithClock(clock.now), WithDelay(3*time.Second))
	pb.SetDrivers([]f1.Driver{{DriverNumber: 1, NameAcronym: "VER", TeamColour: "3671C6"}})

	// samples arrive exactly on time so the skew is zero
	for i := 0; i <= 10; i++ {
		at := start.Add(time.Duration(i) * time.Second)
		clock.t = at
		require.NoError(t, pb.Ingest(sample(1, at, float64(i)*100, 0)))
		require.NoError(t, pb.Ingest(sample(44, at, 0, float64(i)*10)))
	}

	clock.t = start.Add(10*time.Second + 500*time.Millisecond)
	frame := pb.Advance()
	require.Len(t, frame.Drivers, 2)
	require.InDelta(t, float64(start.Add(7500*time.Millisecond).UnixMilli()), frame.PlaybackTime, 1)

	ver := frame.Drivers[0]
	require.Equal(t, 1, ver.DriverNumber)
	require.Equal(t, "VER", ver.Name)
	require.Equal(t, "#3671C6", ver.Colour)
	require.InDelta(t, 750, ver.X, 1e-6)
	require.Len(t, ver.Trail, 1)

	ham := frame.Drivers[1]
	require.Equal(t, "44", ham.Name)
	require.Equal(t, "#FFFFFF", ham.Colour)
	require.InDelta(t, 75, ham.Y, 1e-6)

	// 5 units of movement stays under the trail threshold
	clock.t = clock.t.Add(500 * time.Millisecond)
	frame = pb.Advance()
	require.Len(t, frame.Drivers[0].Trail, 2)
	require.Len(t, frame.Drivers[1].Trail, 1)

	bounds := pb.Bounds()
	require.False(t, bounds.Empty)
	require.Equal(t, 0.0, bounds.MinX)
	require.Equal(t, 1000.0, bounds.MaxX)
	require.Equal(t, 100.0, bounds.MaxY)

	layers := pb.Layers()
	require.Len(t, layers[1], 11)
	// only moves beyond 20 units are kept: y = 0, 30, 60, 90
	require.Len(t, layers[44], 4)
}

func TestPlaybackRejectsBadDate(t *testing.T) {
	pb := NewPlayback()
	require.Error(t, pb.Ingest(f1.TelemetryLocation{DriverNumber: 1, Date: "yesterday"}))
	require.Equal(t, 0, pb.DriverCount())
}

func TestPlaybackTrailLimit(t *testing.T) {
	start := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	pb := NewPlayback(WithClock(clock.now), WithDelay(0), WithTrailLength(3))

	for i := 0; i <= 10; i++ {
		at := start.Add(time.Duration(i) * time.Second)
		clock.t = at
		require.NoError(t, pb.Ingest(sample(16, at, float64(i)*50, 0)))
	}
	for i := 0; i <= 10; i++ {
		clock.t = start.Add(time.Duration(i) * time.Second)
		pb.Advance()
	}
	frame := pb.Advance()
	require.Len(t, frame.Drivers[0].Trail, 3)
	require.Equal(t, 500.0, frame.Drivers[0].Trail[2].X)
}

func TestBoundsFit(t *testing.T) {
	b := NewBounds()
	tr := b.Fit(800, 600, 30, 0, true)
	require.Equal(t, Transform{Scale: 1, TX: 400, TY: 300, Height: 600, FlipY: true}, tr)

	require.True(t, b.Extend(-100, -50))
	require.True(t, b.Extend(100, 50))
	require.False(t, b.Extend(0, 0))
	require.Equal(t, 2, b.Version)

	tr = b.Fit(800, 600, 0, 0, false)
	require.InDelta(t, 4, tr.Scale, 1e-9)
	x, y := tr.Apply(100, 50)
	require.InDelta(t, 800, x, 1e-9)
	require.InDelta(t, 500, y, 1e-9)

	flipped := b.Fit(800, 600, 0, 0, true)
	_, y = flipped.Apply(100, 50)
	require.InDelta(t, 100, y, 1e-9)

	rotated := Transform{Scale: 1, Rotation: math.Pi / 2}
	x, y = rotated.Apply(1, 0)
	require.InDelta(t, 0, x, 1e-9)
	require.InDelta(t, 1, y, 1e-9)
}
