package feeder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	geov2 "git.fiblab.net/sim/protos/v2/go/city/geo/v2"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"

	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/utils/config"
)

func testFeederConfig() *config.Feeder {
	return &config.Feeder{
		Speed:            10,
		WaypointInterval: 1,
		FrameWidth:       16,
		FrameHeight:      16,
	}
}

// newTestMap builds a straight two-road map with one signalized junction:
// road 100 (lane 101) -> junction 300 (lane 301) -> road 200 (lane 201)
func newTestMap() *mapv2.Map {
	return &mapv2.Map{
		Lanes: []*mapv2.Lane{
			{
				Id:   101,
				Type: mapv2.LaneType_LANE_TYPE_DRIVING,
				CenterLine: &mapv2.Polyline{Nodes: []*geov2.XYPosition{
					{X: 0, Y: 0}, {X: 50, Y: 0},
				}},
				Successors: []*mapv2.LaneConnection{{Id: 301}},
			},
			{
				Id:   301,
				Type: mapv2.LaneType_LANE_TYPE_DRIVING,
				CenterLine: &mapv2.Polyline{Nodes: []*geov2.XYPosition{
					{X: 50, Y: 0}, {X: 60, Y: 0},
				}},
				Predecessors: []*mapv2.LaneConnection{{Id: 101}},
				Successors:   []*mapv2.LaneConnection{{Id: 201}},
			},
			{
				Id:   201,
				Type: mapv2.LaneType_LANE_TYPE_DRIVING,
				CenterLine: &mapv2.Polyline{Nodes: []*geov2.XYPosition{
					{X: 60, Y: 0}, {X: 100, Y: 0},
				}},
				Predecessors: []*mapv2.LaneConnection{{Id: 301}},
			},
		},
		Roads: []*mapv2.Road{
			{Id: 100, LaneIds: []int32{101}},
			{Id: 200, LaneIds: []int32{201}},
		},
		Junctions: []*mapv2.Junction{
			{
				Id:      300,
				LaneIds: []int32{301},
				DrivingLaneGroups: []*mapv2.JunctionLaneGroup{
					{InRoadId: 100, OutRoadId: 200, LaneIds: []int32{301}},
				},
				FixedProgram: &mapv2.TrafficLight{
					JunctionId: 300,
					Phases: []*mapv2.Phase{
						{Duration: 10, States: []mapv2.LightState{mapv2.LightState_LIGHT_STATE_RED}},
						{Duration: 10, States: []mapv2.LightState{mapv2.LightState_LIGHT_STATE_GREEN}},
					},
				},
			},
		},
	}
}

func TestBuildScenarioPath(t *testing.T) {
	scn := buildScenario(testFeederConfig(), newTestMap(), []int32{100, 200})

	assert.InDelta(t, 100, scn.path.Length(), 1e-9)
	// one waypoint per meter plus the endpoint
	require.Len(t, scn.waypoints, 101)
	assert.InDelta(t, 10, scn.waypoints[10].XYZ.X, 1e-9)
	assert.InDelta(t, 0, scn.waypoints[10].Yaw, 1e-9)
	assert.InDelta(t, 100, scn.waypoints[100].XYZ.X, 1e-9)
}

func TestBuildScenarioStopLines(t *testing.T) {
	scn := buildScenario(testFeederConfig(), newTestMap(), []int32{100, 200})

	require.Len(t, scn.stops, 1)
	st := scn.stops[0]
	assert.Equal(t, int32(300), st.junctionID)
	assert.InDelta(t, 50, st.s, 1e-6)
	assert.InDelta(t, 50, st.point.X, 1e-9)
	assert.InDelta(t, 0, st.point.Y, 1e-9)

	obs := scn.Observations()
	require.Len(t, obs, 1)
	assert.Equal(t, int32(300), obs[0].ID)
	assert.InDelta(t, 50, obs[0].XYZ.X, 1e-9)
	assert.InDelta(t, headHeight, obs[0].XYZ.Z, 1e-9)
	// junction 300 with 2 phases starts at phase 0
	assert.Equal(t, entity.ColorRed, obs[0].GroundTruth)

	scn.UpdateHeads(10)
	assert.Equal(t, entity.ColorGreen, scn.Observations()[0].GroundTruth)
}

func TestScenarioNextStop(t *testing.T) {
	scn := buildScenario(testFeederConfig(), newTestMap(), []int32{100, 200})

	st := scn.NextStop(10)
	require.NotNil(t, st)
	assert.Equal(t, int32(300), st.junctionID)
	// the stop line itself is no longer ahead
	assert.Nil(t, scn.NextStop(50))
	assert.Nil(t, scn.NextStop(60))
}

func TestBuildScenarioUnsignalizedJunction(t *testing.T) {
	m := newTestMap()
	m.Junctions[0].FixedProgram = nil
	scn := buildScenario(testFeederConfig(), m, []int32{100, 200})

	assert.Empty(t, scn.stops)
	assert.Empty(t, scn.Observations())
	assert.Nil(t, scn.NextStop(0))
	// the path itself is unaffected
	assert.InDelta(t, 100, scn.path.Length(), 1e-9)
}

func TestBuildScenarioTwoJunctions(t *testing.T) {
	m := &mapv2.Map{
		Lanes: []*mapv2.Lane{
			{
				Id:   101,
				Type: mapv2.LaneType_LANE_TYPE_DRIVING,
				CenterLine: &mapv2.Polyline{Nodes: []*geov2.XYPosition{
					{X: 0, Y: 0}, {X: 50, Y: 0},
				}},
				Successors: []*mapv2.LaneConnection{{Id: 301}},
			},
			{
				Id:   301,
				Type: mapv2.LaneType_LANE_TYPE_DRIVING,
				CenterLine: &mapv2.Polyline{Nodes: []*geov2.XYPosition{
					{X: 50, Y: 0}, {X: 60, Y: 0},
				}},
				Predecessors: []*mapv2.LaneConnection{{Id: 101}},
				Successors:   []*mapv2.LaneConnection{{Id: 201}},
			},
			{
				Id:   201,
				Type: mapv2.LaneType_LANE_TYPE_DRIVING,
				CenterLine: &mapv2.Polyline{Nodes: []*geov2.XYPosition{
					{X: 60, Y: 0}, {X: 110, Y: 0},
				}},
				Predecessors: []*mapv2.LaneConnection{{Id: 301}},
				Successors:   []*mapv2.LaneConnection{{Id: 501}},
			},
			{
				Id:   501,
				Type: mapv2.LaneType_LANE_TYPE_DRIVING,
				CenterLine: &mapv2.Polyline{Nodes: []*geov2.XYPosition{
					{X: 110, Y: 0}, {X: 120, Y: 0},
				}},
				Predecessors: []*mapv2.LaneConnection{{Id: 201}},
				Successors:   []*mapv2.LaneConnection{{Id: 401}},
			},
			{
				Id:   401,
				Type: mapv2.LaneType_LANE_TYPE_DRIVING,
				CenterLine: &mapv2.Polyline{Nodes: []*geov2.XYPosition{
					{X: 120, Y: 0}, {X: 160, Y: 0},
				}},
				Predecessors: []*mapv2.LaneConnection{{Id: 501}},
			},
		},
		Roads: []*mapv2.Road{
			{Id: 100, LaneIds: []int32{101}},
			{Id: 200, LaneIds: []int32{201}},
			{Id: 400, LaneIds: []int32{401}},
		},
		Junctions: []*mapv2.Junction{
			{
				Id:      300,
				LaneIds: []int32{301},
				DrivingLaneGroups: []*mapv2.JunctionLaneGroup{
					{InRoadId: 100, OutRoadId: 200, LaneIds: []int32{301}},
				},
				FixedProgram: &mapv2.TrafficLight{
					JunctionId: 300,
					Phases: []*mapv2.Phase{
						{Duration: 10, States: []mapv2.LightState{mapv2.LightState_LIGHT_STATE_RED}},
						{Duration: 10, States: []mapv2.LightState{mapv2.LightState_LIGHT_STATE_GREEN}},
					},
				},
			},
			{
				Id:      500,
				LaneIds: []int32{501},
				DrivingLaneGroups: []*mapv2.JunctionLaneGroup{
					{InRoadId: 200, OutRoadId: 400, LaneIds: []int32{501}},
				},
				FixedProgram: &mapv2.TrafficLight{
					JunctionId: 500,
					Phases: []*mapv2.Phase{
						{Duration: 10, States: []mapv2.LightState{mapv2.LightState_LIGHT_STATE_GREEN}},
						{Duration: 10, States: []mapv2.LightState{mapv2.LightState_LIGHT_STATE_RED}},
					},
				},
			},
		},
	}
	scn := buildScenario(testFeederConfig(), m, []int32{100, 200, 400})

	assert.InDelta(t, 160, scn.path.Length(), 1e-9)
	require.Len(t, scn.stops, 2)
	assert.Equal(t, int32(300), scn.stops[0].junctionID)
	assert.InDelta(t, 50, scn.stops[0].s, 1e-6)
	assert.Equal(t, int32(500), scn.stops[1].junctionID)
	assert.InDelta(t, 110, scn.stops[1].s, 1e-6)

	// stops stay in travel order
	assert.Equal(t, int32(500), scn.NextStop(60).junctionID)
}

func TestPickGroupLanePrefersConnected(t *testing.T) {
	m := &mapv2.Map{
		Lanes: []*mapv2.Lane{
			{Id: 101, Type: mapv2.LaneType_LANE_TYPE_DRIVING},
			{Id: 102, Type: mapv2.LaneType_LANE_TYPE_DRIVING},
			{Id: 301, Type: mapv2.LaneType_LANE_TYPE_DRIVING, Predecessors: []*mapv2.LaneConnection{{Id: 101}}},
			{Id: 302, Type: mapv2.LaneType_LANE_TYPE_DRIVING, Predecessors: []*mapv2.LaneConnection{{Id: 102}}},
		},
	}
	idx := newMapIndex(m)
	group := &mapv2.JunctionLaneGroup{InRoadId: 100, OutRoadId: 200, LaneIds: []int32{301, 302}}

	assert.Equal(t, int32(301), idx.pickGroupLane(group, idx.lane(101)).Id)
	assert.Equal(t, int32(302), idx.pickGroupLane(group, idx.lane(102)).Id)
	// without an arrival lane the last group lane wins
	assert.Equal(t, int32(302), idx.pickGroupLane(group, nil).Id)
}

func TestExportStopLines(t *testing.T) {
	scn := buildScenario(testFeederConfig(), newTestMap(), []int32{100, 200})

	file := filepath.Join(t.TempDir(), "stop_lines.yml")
	require.NoError(t, scn.ExportStopLines(file))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var tl config.TrafficLight
	require.NoError(t, yaml.Unmarshal(data, &tl))
	require.Len(t, tl.StopLines, 1)
	assert.InDelta(t, 50, tl.StopLines[0][0], 1e-9)
	assert.InDelta(t, 0, tl.StopLines[0][1], 1e-9)
}
