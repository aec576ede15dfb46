package route_test

import (
	"sync"
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/route"
	"golang.org/x/exp/rand"
)

func light(x, y, z float64) entity.TrafficLight {
	return entity.TrafficLight{Position: geometry.Point{X: x, Y: y, Z: z}}
}

func randomPoints(r *rand.Rand, n int) []geometry.Point {
	return lo.Times(n, func(_ int) geometry.Point {
		return geometry.Point{X: r.Float64()*200 - 100, Y: r.Float64()*200 - 100, Z: r.Float64() * 5}
	})
}

func TestBuildOrdersByDistance(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	waypoints := randomPoints(r, 300)
	lights := lo.Map(randomPoints(r, 7), func(p geometry.Point, _ int) entity.TrafficLight {
		return entity.TrafficLight{Position: p}
	})

	rows := route.NewIndex().Build(lights, waypoints)
	require.Len(t, rows, len(lights))
	for i, row := range rows {
		// 是全部waypoint下标的一个排列
		assert.ElementsMatch(t, lo.Map(lo.Range(len(waypoints)), func(j int, _ int) int32 { return int32(j) }), row)
		// 距离单调不减
		for k := 1; k < len(row); k++ {
			prev := entity.SquaredDistance(lights[i].Position, waypoints[row[k-1]])
			cur := entity.SquaredDistance(lights[i].Position, waypoints[row[k]])
			assert.LessOrEqual(t, prev, cur, "light %d position %d", i, k)
		}
	}
}

func TestBuildTieBreakByIndex(t *testing.T) {
	waypoints := []geometry.Point{{X: 2}, {X: -1}, {X: 0}, {X: 1}, {X: -2}}
	rows := route.NewIndex().Build([]entity.TrafficLight{light(0, 0, 0)}, waypoints)
	if diff := cmp.Diff([][]int32{{2, 1, 3, 0, 4}}, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	x := route.NewIndex()
	assert.Empty(t, x.Build(nil, []geometry.Point{{X: 1}}))
	assert.False(t, x.Built())
	assert.Empty(t, x.Build([]entity.TrafficLight{light(1, 0, 0)}, nil))
	assert.False(t, x.Built())
	_, ok := x.Nearest(0)
	assert.False(t, ok)
}

func TestBuildOnce(t *testing.T) {
	x := route.NewIndex()
	waypoints := []geometry.Point{{X: 0}, {X: 1}, {X: 2}}
	first := x.Build([]entity.TrafficLight{light(1, 0, 0)}, waypoints)
	require.True(t, x.Built())

	// 第二次调用不重新计算，即使输入不同
	second := x.Build([]entity.TrafficLight{light(2, 0, 0), light(0, 0, 0)}, waypoints)
	assert.Equal(t, first, second)
	assert.Same(t, &first[0][0], &second[0][0])

	wp, ok := x.Nearest(0)
	assert.True(t, ok)
	assert.Equal(t, int32(1), wp)
	_, ok = x.Nearest(1)
	assert.False(t, ok)
}

func TestBuildConcurrent(t *testing.T) {
	x := route.NewIndex()
	waypoints := []geometry.Point{{X: 0}, {X: 1}, {X: 2}, {X: 3}}

	var wg sync.WaitGroup
	results := make([][][]int32, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 每个调用方看到的信号灯不同，只有一方的输入会被采用
			results[i] = x.Build([]entity.TrafficLight{light(float64(i%4), 0, 0)}, waypoints)
		}()
	}
	wg.Wait()

	for _, rows := range results {
		require.Len(t, rows, 1)
		assert.Same(t, &results[0][0][0], &rows[0][0])
	}
}

func TestKNearest(t *testing.T) {
	x := route.NewIndex()
	x.Build([]entity.TrafficLight{light(10, 0, 0)}, []geometry.Point{{X: 0}, {X: 9}, {X: 12}, {X: 10.5}})
	assert.Equal(t, []int32{3, 1}, x.KNearest(0, 2))
	assert.Equal(t, []int32{3, 1, 2, 0}, x.KNearest(0, 10))
	assert.Nil(t, x.KNearest(0, 0))
	assert.Nil(t, x.KNearest(1, 2))
}
