package world

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Pos is an integer block position.
type Pos struct {
	X, Y, Z int
}

// Add returns p offset by o.
func (p Pos) Add(o Pos) Pos {
	return Pos{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

// Sub returns p minus o.
func (p Pos) Sub(o Pos) Pos {
	return Pos{p.X - o.X, p.Y - o.Y, p.Z - o.Z}
}

// Scale multiplies every component by n.
func (p Pos) Scale(n int) Pos {
	return Pos{p.X * n, p.Y * n, p.Z * n}
}

// Vec3 returns the block's minimum corner as a float vector.
func (p Pos) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{float64(p.X), float64(p.Y), float64(p.Z)}
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Location is an exact position with a view direction, used for teleports.
type Location struct {
	Pos   mgl64.Vec3
	Yaw   float64
	Pitch float64
}

// Centered returns the location at the horizontal center of the block at p,
// standing on its bottom face.
func Centered(p Pos, yaw, pitch float64) Location {
	return Location{
		Pos:   p.Vec3().Add(mgl64.Vec3{0.5, 0, 0.5}),
		Yaw:   yaw,
		Pitch: pitch,
	}
}

// Block returns the block position containing the location.
func (l Location) Block() Pos {
	return Pos{
		X: floor(l.Pos.X()),
		Y: floor(l.Pos.Y()),
		Z: floor(l.Pos.Z()),
	}
}

func floor(f float64) int {
	return int(math.Floor(f))
}

// Direction is one of the four horizontal headings a course can run in.
type Direction int

const (
	East  Direction = iota // +X
	South                  // +Z
	West                   // -X
	North                  // -Z
)

// Vector returns the unit step for the heading.
func (d Direction) Vector() Pos {
	switch d {
	case South:
		return Pos{0, 0, 1}
	case West:
		return Pos{-1, 0, 0}
	case North:
		return Pos{0, 0, -1}
	default:
		return Pos{1, 0, 0}
	}
}

// Side returns the unit step perpendicular to the heading, to its right.
func (d Direction) Side() Pos {
	return (d + 1).normalize().Vector()
}

func (d Direction) normalize() Direction {
	return ((d % 4) + 4) % 4
}

// String returns the lowercase compass name.
func (d Direction) String() string {
	switch d.normalize() {
	case South:
		return "south"
	case West:
		return "west"
	case North:
		return "north"
	default:
		return "east"
	}
}

// ParseDirection converts a compass name to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "east", "":
		return East, true
	case "south":
		return South, true
	case "west":
		return West, true
	case "north":
		return North, true
	default:
		return East, false
	}
}
