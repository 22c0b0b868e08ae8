package telemetry

import "math"

// Bounds is the axis-aligned extent of every sample after rotation. Version
// increments whenever the extent grows.
type Bounds struct {
	MinX    float64 `json:"min_x"`
	MinY    float64 `json:"min_y"`
	MaxX    float64 `json:"max_x"`
	MaxY    float64 `json:"max_y"`
	Version int     `json:"version"`
	Empty   bool    `json:"empty"`
}

func NewBounds() Bounds {
	return Bounds{Empty: true}
}

func rotate(x, y, rad float64) (float64, float64) {
	cos, sin := math.Cos(rad), math.Sin(rad)
	return x*cos - y*sin, x*sin + y*cos
}

// Extend grows b to include the already rotated point (rx, ry).
func (b *Bounds) Extend(rx, ry float64) bool {
	if b.Empty {
		*b = Bounds{MinX: rx, MinY: ry, MaxX: rx, MaxY: ry, Version: b.Version + 1}
		return true
	}

	changed := false
	if rx < b.MinX {
		b.MinX = rx
		changed = true
	}
	if ry < b.MinY {
		b.MinY = ry
		changed = true
	}
	if rx > b.MaxX {
		b.MaxX = rx
		changed = true
	}
	if ry > b.MaxY {
		b.MaxY = ry
		changed = true
	}
	if changed {
		b.Version++
	}
	return changed
}

// Transform maps world coordinates to screen pixels.
type Transform struct {
	Scale    float64 `json:"scale"`
	TX       float64 `json:"tx"`
	TY       float64 `json:"ty"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	FlipY    bool    `json:"flip_y"`
}

// Fit centres b in a width x height viewport with padding on every side.
func (b Bounds) Fit(width, height, padding, rotation float64, flipY bool) Transform {
	t := Transform{Scale: 1, TX: width / 2, TY: height / 2, Height: height, Rotation: rotation, FlipY: flipY}
	if b.Empty {
		return t
	}

	spanX := math.Max(1e-9, b.MaxX-b.MinX)
	spanY := math.Max(1e-9, b.MaxY-b.MinY)
	usableW := math.Max(1, width-padding*2)
	usableH := math.Max(1, height-padding*2)
	scale := math.Min(usableW/spanX, usableH/spanY)
	cx := (b.MinX + b.MaxX) / 2
	cy := (b.MinY + b.MaxY) / 2

	t.Scale = scale
	t.TX = width/2 - cx*scale
	t.TY = height/2 - cy*scale
	return t
}

func (t Transform) Apply(x, y float64) (float64, float64) {
	rx, ry := rotate(x, y, t.Rotation)
	sx := rx*t.Scale + t.TX
	sy := ry*t.Scale + t.TY
	if t.FlipY {
		sy = t.Height - sy
	}
	return sx, sy
}
