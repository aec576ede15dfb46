package vehicle_test

import (
	"math"
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/vehicle"
)

// L形路线：先沿+x走10米，再沿+y走10米
var route = []geometry.Point{{X: 0}, {X: 5}, {X: 10}, {X: 10, Y: 10}}

func TestDrivesAlongRoute(t *testing.T) {
	v, err := vehicle.New(route, 2)
	require.NoError(t, err)
	assert.Equal(t, entity.IdentityQuaternion, v.Pose().Orientation)

	v.Update(3)
	assert.InDelta(t, 6, v.Pose().Position.X, 1e-9)
	assert.InDelta(t, 2, v.V(), 1e-9)

	v.Update(3)
	p := v.Pose()
	assert.InDelta(t, 10, p.Position.X, 1e-9)
	assert.InDelta(t, 2, p.Position.Y, 1e-9)
	assert.InDelta(t, math.Sin(math.Pi/4), p.Orientation.Z, 1e-9)

	v.Update(100)
	assert.True(t, v.Finished())
	assert.False(t, v.Stopped())
	assert.InDelta(t, 20, v.S(), 1e-9)
}

func TestStopsAtStopWaypoint(t *testing.T) {
	v, err := vehicle.New(route, 2)
	require.NoError(t, err)
	v.SetStopWaypoint(2)
	for i := 0; i < 10; i++ {
		v.Update(1)
	}
	assert.True(t, v.Stopped())
	assert.InDelta(t, 10, v.Pose().Position.X, 1e-9)
	assert.InDelta(t, 0, v.Pose().Position.Y, 1e-9)

	v.SetStopWaypoint(entity.NoStop)
	v.Update(1)
	assert.False(t, v.Stopped())
	assert.InDelta(t, 12, v.S(), 1e-9)
}

func TestPassedStopWaypointIgnored(t *testing.T) {
	v, err := vehicle.New(route, 2)
	require.NoError(t, err)
	v.Update(4)
	v.SetStopWaypoint(1)
	v.Update(1)
	assert.InDelta(t, 10, v.S(), 1e-9)

	// 越界视为不停车
	v.SetStopWaypoint(99)
	v.Update(1)
	assert.InDelta(t, 12, v.S(), 1e-9)
}

func TestEmptyRoute(t *testing.T) {
	_, err := vehicle.New(nil, 1)
	assert.ErrorIs(t, err, vehicle.ErrEmptyRoute)

	v, err := vehicle.New([]geometry.Point{{X: 1}}, 1)
	require.NoError(t, err)
	assert.True(t, v.Finished())
	assert.Equal(t, geometry.Point{X: 1}, v.Pose().Position)
}
