package feeder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"git.fiblab.net/general/common/v2/geometry"
)

func lShapedLine() *polyline {
	return newPolyline([]geometry.Point{
		{X: 0, Y: 0},
		{X: 10, Y: 0},
		{X: 10, Y: 10},
	})
}

func TestPolylinePositionByS(t *testing.T) {
	p := lShapedLine()
	assert.InDelta(t, 20, p.Length(), 1e-9)

	pos := p.PositionByS(5)
	assert.InDelta(t, 5, pos.X, 1e-9)
	assert.InDelta(t, 0, pos.Y, 1e-9)

	// past the corner
	pos = p.PositionByS(15)
	assert.InDelta(t, 10, pos.X, 1e-9)
	assert.InDelta(t, 5, pos.Y, 1e-9)

	// endpoints
	assert.InDelta(t, 0, p.PositionByS(0).X, 1e-9)
	end := p.PositionByS(20)
	assert.InDelta(t, 10, end.X, 1e-9)
	assert.InDelta(t, 10, end.Y, 1e-9)
}

func TestPolylineDirectionByS(t *testing.T) {
	p := lShapedLine()
	assert.InDelta(t, 0, p.DirectionByS(5).Direction, 1e-9)
	assert.InDelta(t, math.Pi/2, p.DirectionByS(15).Direction, 1e-9)
	// out of range clamps to the nearest segment
	assert.InDelta(t, math.Pi/2, p.DirectionByS(25).Direction, 1e-9)
}

func TestPolylineOffset(t *testing.T) {
	p := lShapedLine()
	// positive offset moves to the right of the heading
	pos := p.OffsetPositionByS(5, 2)
	assert.InDelta(t, 5, pos.X, 1e-9)
	assert.InDelta(t, -2, pos.Y, 1e-9)

	pos = p.OffsetPositionByS(15, 2)
	assert.InDelta(t, 12, pos.X, 1e-9)
	assert.InDelta(t, 5, pos.Y, 1e-9)
}

func TestPolylineDedupesJointPoints(t *testing.T) {
	// concatenated lanes share their joint point
	p := newPolyline([]geometry.Point{
		{X: 0, Y: 0},
		{X: 10, Y: 0},
		{X: 10, Y: 0},
		{X: 20, Y: 0},
	})
	assert.Len(t, p.points, 3)
	assert.InDelta(t, 20, p.Length(), 1e-9)
	pos := p.PositionByS(10)
	assert.InDelta(t, 10, pos.X, 1e-9)
}

func TestPolylineProjectToS(t *testing.T) {
	p := lShapedLine()
	assert.InDelta(t, 5, p.ProjectToS(geometry.Point{X: 5, Y: 1}), 1e-6)
	assert.InDelta(t, 10, p.ProjectToS(geometry.Point{X: 10, Y: 0}), 1e-6)
	assert.InDelta(t, 17, p.ProjectToS(geometry.Point{X: 11, Y: 7}), 1e-6)
}
