package input

import (
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	geov2 "git.fiblab.net/sim/protos/v2/go/city/geo/v2"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils/config"
)

func TestInitInlineScenario(t *testing.T) {
	var c config.Config
	c.Input.Route.Waypoints = []config.Point{{X: 0}, {X: 10}, {X: 20}}
	c.Input.Lights = []config.Light{
		{
			Position: config.Point{X: 21, Y: 3},
			Phases: []config.Phase{
				{Duration: 20, State: "red"},
				{Duration: 25, State: "GREEN"},
				{Duration: 3, State: "yellow"},
			},
			Offset: 5,
		},
	}
	in, err := Init(c, "")
	require.NoError(t, err)
	assert.Nil(t, in.Map)
	assert.Equal(t, []geometry.Point{{X: 0}, {X: 10}, {X: 20}}, in.Waypoints)
	require.Len(t, in.Lights, 1)

	l := in.Lights[0]
	assert.Equal(t, int32(0), l.JunctionID)
	assert.Equal(t, geometry.Point{X: 21, Y: 3}, l.Position)
	assert.Equal(t, 5.0, l.Offset)
	require.Len(t, l.Program.Phases, 3)
	assert.Equal(t, []mapv2.LightState{mapv2.LightState_LIGHT_STATE_RED}, l.Program.Phases[0].States)
	assert.Equal(t, []mapv2.LightState{mapv2.LightState_LIGHT_STATE_GREEN}, l.Program.Phases[1].States)
	assert.Equal(t, 3.0, l.Program.Phases[2].Duration)
}

func TestInitBadPhaseColor(t *testing.T) {
	var c config.Config
	c.Input.Route.Waypoints = []config.Point{{X: 0}}
	c.Input.Lights = []config.Light{{Phases: []config.Phase{{Duration: 1, State: "blue"}}}}
	_, err := Init(c, "")
	assert.Error(t, err)
}

func TestInitNeedsMap(t *testing.T) {
	var c config.Config
	c.Input.Route.LaneIDs = []int32{1}
	_, err := Init(c, "")
	assert.ErrorIs(t, err, ErrNoMap)
}

func testMap() *mapv2.Map {
	return &mapv2.Map{
		Lanes: []*mapv2.Lane{
			{Id: 1, CenterLine: &geov2.Polyline{Nodes: []*geov2.XYPosition{{X: 0, Y: 0}, {X: 10, Y: 0}}}},
			{Id: 2, CenterLine: &geov2.Polyline{Nodes: []*geov2.XYPosition{{X: 10, Y: 0}, {X: 10, Y: 10}}}},
		},
		Junctions: []*mapv2.Junction{
			{Id: 100, FixedProgram: &mapv2.TrafficLight{
				JunctionId: 100,
				Phases:     []*mapv2.Phase{{Duration: 30, States: []mapv2.LightState{mapv2.LightState_LIGHT_STATE_RED}}},
			}},
			{Id: 101},
		},
	}
}

func TestLaneWaypoints(t *testing.T) {
	got, err := laneWaypoints(testMap(), []int32{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point{{X: 0}, {X: 10}, {X: 10, Y: 10}}, got)

	_, err = laneWaypoints(testMap(), []int32{3})
	assert.Error(t, err)
}

func TestJunctionProgram(t *testing.T) {
	tl, err := junctionProgram(testMap(), 100)
	require.NoError(t, err)
	assert.Equal(t, int32(100), tl.JunctionId)

	_, err = junctionProgram(testMap(), 101)
	assert.Error(t, err)
	_, err = junctionProgram(testMap(), 7)
	assert.Error(t, err)
	_, err = junctionProgram(nil, 100)
	assert.ErrorIs(t, err, ErrNoMap)
}
