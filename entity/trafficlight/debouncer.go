package trafficlight

import (
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
)

// DefaultThreshold 默认连续相同观测次数阈值
const DefaultThreshold = 3

// DebounceState 去抖状态
type DebounceState struct {
	Observed      entity.Color // 上一周期的原始观测颜色
	Stable        entity.Color // 最近一次提交的稳定颜色
	Count         int          // 当前连续相同观测次数
	LastPublished int32        // 最近一次提交的发布值
}

// Debouncer 信号灯颜色去抖状态机
// 功能：原始观测颜色连续threshold次相同后才提交，避免单帧误判导致停车决策抖动
// 说明：非线程安全，只由检测流水线在每个观测周期调用一次
type Debouncer struct {
	threshold int
	state     DebounceState
}

// NewDebouncer 创建去抖状态机
// 参数：threshold-连续相同观测次数阈值，<=0时使用默认值3
func NewDebouncer(threshold int) *Debouncer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	d := &Debouncer{threshold: threshold}
	d.Reset()
	return d
}

// Reset 回到初始状态：未知颜色，没有提交过停车点
func (d *Debouncer) Reset() {
	d.state = DebounceState{
		Observed:      entity.ColorUnknown,
		Stable:        entity.ColorUnknown,
		LastPublished: entity.NoStop,
	}
}

// Threshold 连续相同观测次数阈值
func (d *Debouncer) Threshold() int {
	return d.threshold
}

// State 当前去抖状态快照
func (d *Debouncer) State() DebounceState {
	return d.state
}

// Update 输入本周期的原始观测，得到本周期的发布值
// 功能：执行一次状态转移
// 参数：observed-原始观测颜色，candidate-观测到的信号灯对应的停车waypoint（没有时为NoStop）
// 返回：本周期应发布的waypoint，以及本周期是否提交了新决策
// 算法说明：
// 1. 观测颜色与上一周期不同：计数清零，记录新颜色，沿用上次发布值
// 2. 观测颜色相同且连同本周期已连续threshold次：提交稳定颜色，红灯发布candidate，否则发布NoStop
// 3. 观测颜色相同但未达到阈值：沿用上次发布值
// 4. 每个周期最后计数加一（本周期的观测计入连续次数）
func (d *Debouncer) Update(observed entity.Color, candidate int32) (int32, bool) {
	committed := false
	if observed != d.state.Observed {
		d.state.Count = 0
		d.state.Observed = observed
	} else if d.state.Count+1 >= d.threshold {
		d.state.Stable = observed
		if observed == entity.ColorRed {
			d.state.LastPublished = candidate
		} else {
			d.state.LastPublished = entity.NoStop
		}
		committed = true
	}
	d.state.Count++
	return d.state.LastPublished, committed
}
