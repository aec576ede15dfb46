package detector

import (
	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
)

// snapshot 一个观测周期读取的共享状态
// 说明：发布后不可修改，更新方复制后整体替换
type snapshot struct {
	pose      *entity.Pose          // nil表示尚未收到
	waypoints []geometry.Point      // nil表示尚未收到，首次到达后不再变化
	lights    []entity.TrafficLight // 整体替换
}

// withPose 替换位姿
func (s snapshot) withPose(pose entity.Pose) snapshot {
	s.pose = &pose
	return s
}

// withWaypoints 首次写入路线，已有路线时保持不变
func (s snapshot) withWaypoints(waypoints []geometry.Point) snapshot {
	if s.waypoints != nil {
		return s
	}
	s.waypoints = waypoints
	return s
}

// withLights 替换信号灯列表
func (s snapshot) withLights(lights []entity.TrafficLight) snapshot {
	s.lights = lights
	return s
}
