package entity

import (
	"fmt"
	"math"
	"strings"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

// NoStop 发布值：当前不需要停车（或尚未得出结论）
const NoStop int32 = -1

// Color 信号灯颜色
type Color int32

const (
	ColorUnknown Color = iota // 未知（没有找到前方信号灯时也使用该值）
	ColorRed
	ColorYellow
	ColorGreen
)

var colorNames = map[Color]string{
	ColorUnknown: "unknown",
	ColorRed:     "red",
	ColorYellow:  "yellow",
	ColorGreen:   "green",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Color(%d)", int32(c))
}

// ParseColor 将字符串（不区分大小写）解析为颜色
func ParseColor(s string) (Color, error) {
	for c, name := range colorNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return ColorUnknown, fmt.Errorf("unknown light color %q", s)
}

// ColorFromLightState 将地图信控中的灯色转换为颜色
func ColorFromLightState(s mapv2.LightState) Color {
	switch s {
	case mapv2.LightState_LIGHT_STATE_RED:
		return ColorRed
	case mapv2.LightState_LIGHT_STATE_YELLOW:
		return ColorYellow
	case mapv2.LightState_LIGHT_STATE_GREEN:
		return ColorGreen
	default:
		return ColorUnknown
	}
}

// LightState 将颜色转换为地图信控中的灯色
func (c Color) LightState() mapv2.LightState {
	switch c {
	case ColorRed:
		return mapv2.LightState_LIGHT_STATE_RED
	case ColorYellow:
		return mapv2.LightState_LIGHT_STATE_YELLOW
	case ColorGreen:
		return mapv2.LightState_LIGHT_STATE_GREEN
	default:
		return mapv2.LightState_LIGHT_STATE_UNSPECIFIED
	}
}

// Quaternion 姿态四元数
type Quaternion struct {
	X, Y, Z, W float64
}

// IdentityQuaternion 单位四元数（车头朝向+x）
var IdentityQuaternion = Quaternion{W: 1}

// YawQuaternion 绕z轴旋转yaw弧度的四元数
func YawQuaternion(yaw float64) Quaternion {
	return Quaternion{Z: math.Sin(yaw / 2), W: math.Cos(yaw / 2)}
}

// Pose 车辆位姿
type Pose struct {
	Position    geometry.Point
	Orientation Quaternion
}

func (p Pose) String() string {
	return fmt.Sprintf("Pose{Position=(%.2f, %.2f, %.2f), Orientation=(%.3f, %.3f, %.3f, %.3f)}",
		p.Position.X, p.Position.Y, p.Position.Z,
		p.Orientation.X, p.Orientation.Y, p.Orientation.Z, p.Orientation.W,
	)
}

// TrafficLight 信号灯观测
// 说明：ID即其在信号灯列表中的下标，列表整体替换时下标保持对应同一个物理信号灯
type TrafficLight struct {
	Position geometry.Point
	State    Color
}

// Image 相机图像
// 说明：图像内容只对颜色识别边界有意义，检测核心只把它当作一次观测周期的触发
type Image struct {
	Seq   uint64
	Stamp time.Time
	Data  []byte
}

// Vec 将坐标点转换为gonum向量
func Vec(p geometry.Point) r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// SquaredDistance 两点间欧氏距离的平方
func SquaredDistance(a, b geometry.Point) float64 {
	return r3.Norm2(r3.Sub(Vec(a), Vec(b)))
}
