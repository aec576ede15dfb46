package detector

import (
	"context"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
)

// Event 检测器输入事件
// 说明：只有ImageEvent触发观测周期并产生输出，其余事件只更新共享状态
type Event interface {
	isEvent()
}

// PoseEvent 车辆位姿更新
type PoseEvent struct {
	Pose entity.Pose
}

// WaypointsEvent 车辆路线（首次生效）
type WaypointsEvent struct {
	Waypoints []geometry.Point
}

// LightsEvent 信号灯列表更新（整体替换）
type LightsEvent struct {
	Lights []entity.TrafficLight
}

// ImageEvent 新图像，触发一个观测周期
type ImageEvent struct {
	Image *entity.Image
}

func (PoseEvent) isEvent()      {}
func (WaypointsEvent) isEvent() {}
func (LightsEvent) isEvent()    {}
func (ImageEvent) isEvent()     {}

// Dispatch 处理单个事件
// 返回：ImageEvent的发布值与true；其他事件返回NoStop与false
func (d *Detector) Dispatch(ev Event) (int32, bool) {
	switch e := ev.(type) {
	case PoseEvent:
		d.OnPose(e.Pose)
	case WaypointsEvent:
		d.OnWaypoints(e.Waypoints)
	case LightsEvent:
		d.OnLights(e.Lights)
	case ImageEvent:
		return d.OnImage(e.Image), true
	default:
		log.Warnf("unknown event type %T", ev)
	}
	return entity.NoStop, false
}

// Run 事件循环
// 功能：依次消费事件直到通道关闭或ctx取消
// 返回：通道关闭时返回nil，ctx取消时返回ctx.Err()
func (d *Detector) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				log.Infof("event stream closed after %d cycles", d.Cycle())
				return nil
			}
			d.Dispatch(ev)
		}
	}
}
