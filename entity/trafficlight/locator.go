package trafficlight

import (
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// 车辆坐标系中的车头方向
var canonicalForward = r3.Vec{X: 1}

// Locator 前方最近信号灯查找
// 说明：信号灯数量很少，每个观测周期线性扫描一次，不维护跨周期的索引
type Locator struct {
	MaxDistance float64 // 只考虑该距离内的信号灯，0表示不限制
}

// Forward 车头方向向量
// 功能：将(1,0,0)按位姿四元数旋转得到车头方向
// 说明：四元数先归一化，零四元数视为单位旋转
func Forward(q entity.Quaternion) r3.Vec {
	n := quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
	abs := quat.Abs(n)
	if abs == 0 || math.IsNaN(abs) {
		return canonicalForward
	}
	return r3.Rotation(quat.Scale(1/abs, n)).Rotate(canonicalForward)
}

// Locate 查找车辆前方最近的信号灯
// 功能：在车头方向的前半空间内找到距离车辆最近的信号灯
// 参数：pose-车辆位姿（nil表示尚未收到），lights-信号灯列表
// 返回：信号灯下标与是否找到
// 算法说明：
// 1. 计算车头方向向量
// 2. 对每个信号灯计算车辆到信号灯的向量，与车头方向点积严格大于0才是候选
// 3. 候选中取欧氏距离最小者，距离相同时取列表中靠前的
func (l Locator) Locate(pose *entity.Pose, lights []entity.TrafficLight) (int, bool) {
	if pose == nil {
		return -1, false
	}
	ego := entity.Vec(pose.Position)
	forward := Forward(pose.Orientation)

	minDist := mathutil.INF
	index := -1
	for i, light := range lights {
		dir := r3.Sub(entity.Vec(light.Position), ego)
		if r3.Dot(forward, dir) <= 0 {
			continue
		}
		dist := r3.Norm(dir)
		if l.MaxDistance > 0 && dist > l.MaxDistance {
			continue
		}
		if dist < minDist {
			minDist = dist
			index = i
		}
	}
	return index, index >= 0
}
