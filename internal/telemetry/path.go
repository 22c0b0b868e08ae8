package telemetry

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const curveSegments = 24

// TrackPosition is a point on a track outline and the heading there in degrees.
type TrackPosition struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// Path is a track outline flattened to a polyline with cumulative lengths.
type Path struct {
	points []Point
	cum    []float64
}

// ParsePath reads SVG path data using the M, L, H, V, C and Z commands in
// absolute or relative form.
func ParsePath(d string) (*Path, error) {
	toks, err := tokenizePath(d)
	if err != nil {
		return nil, err
	}

	p := &Path{}
	var cx, cy, sx, sy float64
	var cmd byte
	i := 0

	num := func() (float64, error) {
		if i >= len(toks) || toks[i].cmd != 0 {
			return 0, fmt.Errorf("path: missing argument for %q", cmd)
		}
		v := toks[i].num
		i++
		return v, nil
	}
	hasNum := func() bool { return i < len(toks) && toks[i].cmd == 0 }

	for i < len(toks) {
		if toks[i].cmd != 0 {
			cmd = toks[i].cmd
			i++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path: data must start with a command")
		}

		rel := cmd >= 'a' && cmd <= 'z'
		switch cmd {
		case 'M', 'm':
			x, err := num()
			if err != nil {
				return nil, err
			}
			y, err := num()
			if err != nil {
				return nil, err
			}
			if rel {
				x, y = cx+x, cy+y
			}
			cx, cy, sx, sy = x, y, x, y
			p.moveTo(x, y)
			// further pairs are implicit lineto
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L', 'l':
			x, err := num()
			if err != nil {
				return nil, err
			}
			y, err := num()
			if err != nil {
				return nil, err
			}
			if rel {
				x, y = cx+x, cy+y
			}
			cx, cy = x, y
			p.lineTo(x, y)
		case 'H', 'h':
			x, err := num()
			if err != nil {
				return nil, err
			}
			if rel {
				x += cx
			}
			cx = x
			p.lineTo(cx, cy)
		case 'V', 'v':
			y, err := num()
			if err != nil {
				return nil, err
			}
			if rel {
				y += cy
			}
			cy = y
			p.lineTo(cx, cy)
		case 'C', 'c':
			var v [6]float64
			for k := range v {
				if v[k], err = num(); err != nil {
					return nil, err
				}
			}
			if rel {
				for k := 0; k < 6; k += 2 {
					v[k] += cx
					v[k+1] += cy
				}
			}
			p.cubicTo(cx, cy, v)
			cx, cy = v[4], v[5]
		case 'Z', 'z':
			p.lineTo(sx, sy)
			cx, cy = sx, sy
			if hasNum() {
				return nil, fmt.Errorf("path: unexpected number after %q", cmd)
			}
		default:
			return nil, fmt.Errorf("path: unsupported command %q", cmd)
		}
	}

	if len(p.points) == 0 {
		return nil, fmt.Errorf("path: no points")
	}
	return p, nil
}

func (p *Path) moveTo(x, y float64) {
	if len(p.points) == 0 {
		p.points = append(p.points, Point{X: x, Y: y})
		p.cum = append(p.cum, 0)
		return
	}
	// a later subpath continues the polyline; the jump counts towards length
	p.lineTo(x, y)
}

func (p *Path) lineTo(x, y float64) {
	if len(p.points) == 0 {
		p.moveTo(x, y)
		return
	}
	last := p.points[len(p.points)-1]
	p.points = append(p.points, Point{X: x, Y: y})
	p.cum = append(p.cum, p.cum[len(p.cum)-1]+math.Hypot(x-last.X, y-last.Y))
}

func (p *Path) cubicTo(x0, y0 float64, v [6]float64) {
	for s := 1; s <= curveSegments; s++ {
		t := float64(s) / curveSegments
		mt := 1 - t
		a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
		p.lineTo(
			a*x0+b*v[0]+c*v[2]+d*v[4],
			a*y0+b*v[1]+c*v[3]+d*v[5],
		)
	}
}

// Length is the total polyline length.
func (p *Path) Length() float64 {
	return p.cum[len(p.cum)-1]
}

// PointAt returns the point dist along the path, clamped to its ends.
func (p *Path) PointAt(dist float64) Point {
	if dist <= 0 {
		return p.points[0]
	}
	if dist >= p.Length() {
		return p.points[len(p.points)-1]
	}
	i := sort.SearchFloat64s(p.cum, dist)
	if p.cum[i] == dist {
		return p.points[i]
	}
	a, b := p.points[i-1], p.points[i]
	seg := p.cum[i] - p.cum[i-1]
	ratio := (dist - p.cum[i-1]) / seg
	return Point{X: a.X + (b.X-a.X)*ratio, Y: a.Y + (b.Y-a.Y)*ratio}
}

// PositionOnPath maps a lap fraction to a point and heading. pos wraps into [0, 1).
func (p *Path) PositionOnPath(pos float64) TrackPosition {
	pos = math.Mod(pos, 1)
	if pos < 0 {
		pos++
	}

	length := p.Length()
	at := pos * length
	point := p.PointAt(at)
	if length == 0 {
		return TrackPosition{X: point.X, Y: point.Y}
	}

	epsilon := math.Min(1, length*0.001)
	next := p.PointAt(math.Mod(at+epsilon, length))
	rotation := math.Atan2(next.Y-point.Y, next.X-point.X) * 180 / math.Pi

	return TrackPosition{X: point.X, Y: point.Y, Rotation: rotation}
}

func (p *Path) Positions(positions []float64) []TrackPosition {
	out := make([]TrackPosition, len(positions))
	for i, pos := range positions {
		out[i] = p.PositionOnPath(pos)
	}
	return out
}

type pathToken struct {
	cmd byte
	num float64
}

func tokenizePath(d string) ([]pathToken, error) {
	var toks []pathToken
	i := 0
	for i < len(d) {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\n' || c == '\t' || c == '\r':
			i++
		case strings.IndexByte("MmLlHhVvCcZz", c) >= 0:
			toks = append(toks, pathToken{cmd: c})
			i++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := scanNumber(d, i)
			v, err := strconv.ParseFloat(d[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("path: bad number %q", d[i:j])
			}
			toks = append(toks, pathToken{num: v})
			i = j
		default:
			return nil, fmt.Errorf("path: unexpected character %q", c)
		}
	}
	return toks, nil
}

// scanNumber returns the end of the number starting at i. A second dot or a
// sign not following an exponent starts a new number, as SVG allows "1.5.5".
func scanNumber(d string, i int) int {
	j := i
	if d[j] == '-' || d[j] == '+' {
		j++
	}
	dot, exp := false, false
	for j < len(d) {
		c := d[j]
		switch {
		case c >= '0' && c <= '9':
			j++
		case c == '.' && !dot && !exp:
			dot = true
			j++
		case (c == 'e' || c == 'E') && !exp && j+1 < len(d):
			exp = true
			j++
			if d[j] == '-' || d[j] == '+' {
				j++
			}
		default:
			return j
		}
	}
	return j
}
