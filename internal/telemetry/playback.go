package telemetry

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"f1-pitwall/internal/f1"
)

const (
	DefaultPlaybackDelay = 3 * time.Second
	DefaultTrailLength   = 150

	trailMinSq = 100
	layerMinSq = 400
	layerLimit = 8000

	defaultColour = "#FFFFFF"
)

type playbackConfig struct {
	delay        time.Duration
	trailLength  int
	historyLimit int
	rotation     float64
	now          func() time.Time
}

type PlaybackOption func(*playbackConfig)

func WithDelay(d time.Duration) PlaybackOption {
	return func(c *playbackConfig) { c.delay = d }
}

func WithTrailLength(n int) PlaybackOption {
	return func(c *playbackConfig) {
		if n > 0 {
			c.trailLength = n
		}
	}
}

func WithHistoryLimit(n int) PlaybackOption {
	return func(c *playbackConfig) { c.historyLimit = n }
}

// WithRotation rotates the world by rad radians before bounds are computed.
func WithRotation(rad float64) PlaybackOption {
	return func(c *playbackConfig) { c.rotation = rad }
}

func WithClock(now func() time.Time) PlaybackOption {
	return func(c *playbackConfig) { c.now = now }
}

type driverState struct {
	number  int
	name    string
	colour  string
	history *History
	visual  Point
	trail   []Point
}

// DriverFrame is the rendered state of one car.
type DriverFrame struct {
	DriverNumber int     `json:"driver_number"`
	Name         string  `json:"name"`
	Colour       string  `json:"colour"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Trail        []Point `json:"trail"`
}

// Frame is one tick of the playback clock.
type Frame struct {
	ServerTime   float64       `json:"server_time"`
	PlaybackTime float64       `json:"playback_time"`
	Bounds       Bounds        `json:"bounds"`
	Drivers      []DriverFrame `json:"drivers"`
}

// Playback replays live samples a fixed delay behind the estimated server
// clock so every car is drawn between two known samples.
type Playback struct {
	mu      sync.Mutex
	cfg     playbackConfig
	skew    SkewEstimator
	drivers map[int]*driverState
	info    map[int]f1.Driver
	layers  map[int][]Point
	bounds  Bounds
}

func NewPlayback(opts ...PlaybackOption) *Playback {
	cfg := playbackConfig{
		delay:        DefaultPlaybackDelay,
		trailLength:  DefaultTrailLength,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Playback{
		cfg:     cfg,
		drivers: make(map[int]*driverState),
		info:    make(map[int]f1.Driver),
		layers:  make(map[int][]Point),
		bounds:  NewBounds(),
	}
}

// SetDrivers provides names and colours for drivers seen later.
func (p *Playback) SetDrivers(drivers []f1.Driver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range drivers {
		p.info[d.DriverNumber] = d
		if st, ok := p.drivers[d.DriverNumber]; ok {
			st.name, st.colour = labelFor(d)
		}
	}
}

func labelFor(d f1.Driver) (string, string) {
	name := d.NameAcronym
	if name == "" {
		name = strconv.Itoa(d.DriverNumber)
	}
	colour := defaultColour
	if d.TeamColour != "" {
		colour = "#" + d.TeamColour
	}
	return name, colour
}

// Ingest records one location sample.
func (p *Playback) Ingest(loc f1.TelemetryLocation) error {
	ts, err := f1.ParseDate(loc.Date)
	if err != nil {
		return fmt.Errorf("location sample: %w", err)
	}
	t := float64(ts.UnixMilli())

	p.mu.Lock()
	defer p.mu.Unlock()

	p.skew.Observe(ts, p.cfg.now())

	st, ok := p.drivers[loc.DriverNumber]
	if !ok {
		info, known := p.info[loc.DriverNumber]
		if !known {
			info = f1.Driver{DriverNumber: loc.DriverNumber}
		}
		name, colour := labelFor(info)
		st = &driverState{
			number:  loc.DriverNumber,
			name:    name,
			colour:  colour,
			history: NewHistory(p.cfg.historyLimit),
			visual:  Point{X: loc.X, Y: loc.Y},
		}
		p.drivers[loc.DriverNumber] = st
	}
	st.history.Add(Point{X: loc.X, Y: loc.Y, T: t})

	layer := p.layers[loc.DriverNumber]
	if len(layer) == 0 || distSq(layer[len(layer)-1], loc.X, loc.Y) > layerMinSq {
		layer = append(layer, Point{X: loc.X, Y: loc.Y})
		if len(layer) > layerLimit {
			layer = layer[1:]
		}
		p.layers[loc.DriverNumber] = layer
	}

	rx, ry := rotate(loc.X, loc.Y, p.cfg.rotation)
	p.bounds.Extend(rx, ry)
	return nil
}

func distSq(a Point, x, y float64) float64 {
	dx, dy := x-a.X, y-a.Y
	return dx*dx + dy*dy
}

// Advance moves every car to its interpolated position at the playback
// time and returns the resulting frame.
func (p *Playback) Advance() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	serverNow := p.skew.ServerNow(p.cfg.now())
	playbackT := serverNow - float64(p.cfg.delay.Milliseconds())

	frame := Frame{
		ServerTime:   serverNow,
		PlaybackTime: playbackT,
		Bounds:       p.bounds,
		Drivers:      make([]DriverFrame, 0, len(p.drivers)),
	}

	for _, st := range p.drivers {
		if pos, ok := Interpolate(st.history.Points(), playbackT); ok {
			st.visual = Point{X: pos.X, Y: pos.Y}

			if len(st.trail) == 0 || distSq(st.trail[len(st.trail)-1], pos.X, pos.Y) > trailMinSq {
				st.trail = append(st.trail, Point{X: pos.X, Y: pos.Y, T: playbackT})
				if len(st.trail) > p.cfg.trailLength {
					st.trail = st.trail[1:]
				}
			}
		}

		trail := make([]Point, len(st.trail))
		copy(trail, st.trail)
		frame.Drivers = append(frame.Drivers, DriverFrame{
			DriverNumber: st.number,
			Name:         st.name,
			Colour:       st.colour,
			X:            st.visual.X,
			Y:            st.visual.Y,
			Trail:        trail,
		})
	}
	sort.Slice(frame.Drivers, func(i, j int) bool {
		return frame.Drivers[i].DriverNumber < frame.Drivers[j].DriverNumber
	})
	return frame
}

// Layers returns a copy of the coarse track outline traced by each driver.
func (p *Playback) Layers() map[int][]Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[int][]Point, len(p.layers))
	for k, v := range p.layers {
		out[k] = append([]Point(nil), v...)
	}
	return out
}

func (p *Playback) Bounds() Bounds {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bounds
}

func (p *Playback) Skew() (time.Duration, bool) {
	return p.skew.Skew()
}

// DriverCount reports how many drivers have sent at least one sample.
func (p *Playback) DriverCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.drivers)
}
