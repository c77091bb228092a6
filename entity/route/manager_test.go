package route_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/entity/route"
)

func newWaypoints(xys ...[2]float64) []entity.Waypoint {
	wps := make([]entity.Waypoint, 0, len(xys))
	for _, xy := range xys {
		wps = append(wps, entity.Waypoint{Pose: entity.Pose{
			XYZ: geometry.Point{X: xy[0], Y: xy[1]},
		}})
	}
	return wps
}

func TestClosestWaypointEmpty(t *testing.T) {
	m := route.NewManager(nil)
	// nothing set yet
	assert.True(t, m.Empty())
	assert.Equal(t, -1, m.ClosestWaypoint(geometry.Point{X: 1, Y: 2}))
}

func TestClosestWaypointSingle(t *testing.T) {
	m := route.NewManager(nil)
	m.Set(newWaypoints([2]float64{100, 100}))
	m.Prepare()
	// a single waypoint is the closest no matter where we ask from
	assert.Equal(t, 0, m.ClosestWaypoint(geometry.Point{X: 0, Y: 0}))
	assert.Equal(t, 0, m.ClosestWaypoint(geometry.Point{X: 1e6, Y: -1e6}))
}

func TestClosestWaypointPicksMinimum(t *testing.T) {
	m := route.NewManager(nil)
	m.Set(newWaypoints(
		[2]float64{0, 0}, [2]float64{1, 0}, [2]float64{2, 0}, [2]float64{3, 0},
	))
	m.Prepare()
	assert.Equal(t, 0, m.ClosestWaypoint(geometry.Point{X: -5, Y: 0}))
	assert.Equal(t, 2, m.ClosestWaypoint(geometry.Point{X: 2.1, Y: 1}))
	assert.Equal(t, 3, m.ClosestWaypoint(geometry.Point{X: 100, Y: 0}))
}

func TestClosestWaypointTieLowestIndex(t *testing.T) {
	m := route.NewManager(nil)
	// both at distance 1 from the query point
	m.Set(newWaypoints([2]float64{1, 0}, [2]float64{-1, 0}))
	m.Prepare()
	assert.Equal(t, 0, m.ClosestWaypoint(geometry.Point{X: 0, Y: 0}))
	// duplicated waypoints also resolve to the first occurrence
	m.Set(newWaypoints([2]float64{5, 5}, [2]float64{5, 5}, [2]float64{5, 5}))
	m.Prepare()
	assert.Equal(t, 0, m.ClosestWaypoint(geometry.Point{X: 4, Y: 4}))
}

func TestSetVisibleAfterPrepare(t *testing.T) {
	m := route.NewManager(nil)
	m.Set(newWaypoints([2]float64{0, 0}))
	// not visible until Prepare
	assert.True(t, m.Empty())
	m.Prepare()
	assert.False(t, m.Empty())
	assert.Len(t, m.Waypoints(), 1)

	// wholesale replacement
	m.Set(newWaypoints([2]float64{0, 0}, [2]float64{1, 1}))
	assert.Len(t, m.Waypoints(), 1)
	m.Prepare()
	assert.Len(t, m.Waypoints(), 2)

	// replacing with an empty list clears the route
	m.Set(nil)
	m.Prepare()
	assert.True(t, m.Empty())
	assert.Equal(t, -1, m.ClosestWaypoint(geometry.Point{}))
}
