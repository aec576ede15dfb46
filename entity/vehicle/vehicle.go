// 回放用车辆：沿路线匀速行驶，在发布的停车waypoint处停车
package vehicle

import (
	"errors"
	"sort"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
)

var (
	ErrEmptyRoute = errors.New("vehicle route has no waypoints")
)

var _ entity.IVehicle = (*Vehicle)(nil)

// Vehicle 回放车辆
// 功能：以路线折线上的s坐标表示车辆位置，每步按速度前进，停车waypoint之前的s坐标不可越过
// 说明：车头朝向为所在折线段的方向
type Vehicle struct {
	line           []geometry.Point             // 路线waypoint
	lineLengths    []float64                    // 各waypoint处的累计长度
	lineDirections []geometry.PolylineDirection // 折线每一段的方向（atan2）
	length         float64                      // 路线总长

	speed float64 // 期望速度
	s     float64 // 当前s坐标
	v     float64 // 上一步的实际速度
	stop  int32   // 停车waypoint，NoStop表示不停车
}

// New 创建回放车辆
// 参数：waypoints-路线，speed-匀速行驶速度（米/秒）
func New(waypoints []geometry.Point, speed float64) (*Vehicle, error) {
	if len(waypoints) == 0 {
		return nil, ErrEmptyRoute
	}
	v := &Vehicle{
		line:           waypoints,
		lineLengths:    geometry.GetPolylineLengths2D(waypoints),
		lineDirections: make([]geometry.PolylineDirection, 0),
		speed:          speed,
		stop:           entity.NoStop,
	}
	if len(waypoints) > 1 {
		v.lineDirections = geometry.GetPolylineDirections(waypoints)
	}
	v.length = v.lineLengths[len(v.lineLengths)-1]
	return v, nil
}

// Update 更新阶段，沿路线前进
// 参数：dt-时间步长
// 算法说明：
// 1. 本步最远到达路线终点
// 2. 停车waypoint在前方时，最远到达该waypoint
// 3. 已越过的停车waypoint不起作用
func (v *Vehicle) Update(dt float64) {
	if v.Finished() || dt <= 0 {
		v.v = 0
		return
	}
	target := v.length
	if v.stop != entity.NoStop {
		if stopS := v.lineLengths[v.stop]; stopS >= v.s {
			target = min(target, stopS)
		}
	}
	s := min(v.s+v.speed*dt, target)
	v.v = (s - v.s) / dt
	v.s = s
	if v.Finished() {
		log.Infof("vehicle reached end of route (%.1fm)", v.length)
	}
}

// SetStopWaypoint 设置停车waypoint
// 参数：index-waypoint下标，NoStop或越界表示不停车
func (v *Vehicle) SetStopWaypoint(index int32) {
	if index < 0 || int(index) >= len(v.line) {
		index = entity.NoStop
	}
	if index != v.stop {
		log.Debugf("stop waypoint %d -> %d at s=%.2f", v.stop, index, v.s)
	}
	v.stop = index
}

// Pose 当前位姿
func (v *Vehicle) Pose() entity.Pose {
	return entity.Pose{
		Position:    v.positionByS(v.s),
		Orientation: entity.YawQuaternion(v.directionByS(v.s)),
	}
}

// Finished 是否已到达路线终点
func (v *Vehicle) Finished() bool {
	return v.s >= v.length
}

// Stopped 是否在路线中途停车
func (v *Vehicle) Stopped() bool {
	return !v.Finished() && v.v == 0
}

// S 当前s坐标
func (v *Vehicle) S() float64 {
	return v.s
}

// V 上一步的实际速度
func (v *Vehicle) V() float64 {
	return v.v
}

// positionByS 将s坐标转换为xy(z)坐标
func (v *Vehicle) positionByS(s float64) geometry.Point {
	s = lo.Clamp(s, v.lineLengths[0], v.length)
	i := sort.SearchFloat64s(v.lineLengths, s)
	if i == 0 {
		return v.line[0]
	}
	sHigh, sLow := v.lineLengths[i], v.lineLengths[i-1]
	if sHigh == sLow {
		return v.line[i]
	}
	return geometry.Blend(v.line[i-1], v.line[i], (s-sLow)/(sHigh-sLow))
}

// directionByS 根据s坐标计算切向角度
func (v *Vehicle) directionByS(s float64) float64 {
	if len(v.lineDirections) == 0 {
		return 0
	}
	s = lo.Clamp(s, v.lineLengths[0], v.length)
	if i := sort.SearchFloat64s(v.lineLengths, s); i == 0 {
		return v.lineDirections[0].Direction
	} else {
		return v.lineDirections[i-1].Direction
	}
}
