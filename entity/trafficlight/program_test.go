package trafficlight_test

import (
	"testing"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/trafficlight"
)

const (
	stRed   = mapv2.LightState_LIGHT_STATE_RED
	stGreen = mapv2.LightState_LIGHT_STATE_GREEN
	stYel   = mapv2.LightState_LIGHT_STATE_YELLOW
)

// twoLaneProgram 两条车道：车道0 绿10-黄3-红12，车道1 红13-绿12
func twoLaneProgram() *mapv2.TrafficLight {
	return &mapv2.TrafficLight{
		JunctionId: 1,
		Phases: []*mapv2.Phase{
			{Duration: 10, States: []mapv2.LightState{stGreen, stRed}},
			{Duration: 3, States: []mapv2.LightState{stYel, stRed}},
			{Duration: 12, States: []mapv2.LightState{stRed, stGreen}},
		},
	}
}

func TestProgramCycles(t *testing.T) {
	p, err := trafficlight.NewProgram(twoLaneProgram(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, green, p.Color())

	p.Update(9)
	assert.Equal(t, int32(0), p.Step())
	assert.InDelta(t, 1, p.RemainingTime(), 1e-9)

	p.Update(1)
	assert.Equal(t, int32(1), p.Step())
	assert.Equal(t, yellow, p.Color())

	p.Update(3)
	assert.Equal(t, red, p.Color())

	// 一步跨越多个相位
	p.Update(25)
	assert.Equal(t, red, p.Color())
	assert.InDelta(t, 12, p.RemainingTime(), 1e-9)
	p.Update(12)
	assert.Equal(t, green, p.Color())
}

func TestProgramOffsetAndLaneIndex(t *testing.T) {
	p, err := trafficlight.NewProgram(twoLaneProgram(), 1, 14)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.Step())
	assert.Equal(t, green, p.Color())
	assert.InDelta(t, 11, p.RemainingTime(), 1e-9)
}

func TestProgramSkipsZeroDurationPhase(t *testing.T) {
	tl := &mapv2.TrafficLight{Phases: []*mapv2.Phase{
		{Duration: 5, States: []mapv2.LightState{stRed}},
		{Duration: 0, States: []mapv2.LightState{stYel}},
		{Duration: 5, States: []mapv2.LightState{stGreen}},
	}}
	p, err := trafficlight.NewProgram(tl, 0, 0)
	require.NoError(t, err)
	p.Update(5)
	assert.Equal(t, int32(2), p.Step())
	assert.Equal(t, green, p.Color())
}

func TestProgramInvalid(t *testing.T) {
	_, err := trafficlight.NewProgram(nil, 0, 0)
	assert.ErrorIs(t, err, trafficlight.ErrEmptyProgram)

	_, err = trafficlight.NewProgram(&mapv2.TrafficLight{}, 0, 0)
	assert.ErrorIs(t, err, trafficlight.ErrEmptyProgram)

	_, err = trafficlight.NewProgram(twoLaneProgram(), 2, 0)
	assert.Error(t, err)

	_, err = trafficlight.NewProgram(&mapv2.TrafficLight{Phases: []*mapv2.Phase{
		{Duration: 0, States: []mapv2.LightState{stRed}},
	}}, 0, 0)
	assert.Error(t, err)
}

func TestProgramSetPhaseAndOk(t *testing.T) {
	p, err := trafficlight.NewProgram(twoLaneProgram(), 0, 0)
	require.NoError(t, err)

	require.NoError(t, p.SetPhase(2, 4))
	assert.Equal(t, red, p.Color())
	assert.Error(t, p.SetPhase(3, 4))
	assert.Error(t, p.SetPhase(0, 0))

	p.SetOk(false)
	assert.Equal(t, green, p.Color())
	p.Update(100)
	assert.Equal(t, int32(2), p.Step())
	p.SetOk(true)
	assert.Equal(t, red, p.Color())
}
