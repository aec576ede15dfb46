package trafficlight

import (
	"errors"
	"fmt"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
)

var (
	ErrEmptyProgram = errors.New("traffic light program has no phases")
)

// Program 固定相位信号灯程序运行时
// 功能：按照预设的相位顺序和时长循环切换，给出某条车道在当前相位下的灯色
// 说明：回放中作为信号灯真值来源；程序关闭时视为全绿
type Program struct {
	tl         *mapv2.TrafficLight
	laneIndex  int     // 该信号灯对应相位States中的下标
	step       int32   // 当前相位
	totalTime  float64 // 当前相位总时长
	remainingT float64 // 当前相位剩余时间
	ok         bool    // 信号灯状态，true为开启，false为关闭
}

// NewProgram 创建固定相位信号灯程序
// 参数：tl-信号灯程序，laneIndex-车道下标，offset-初始时间偏移（秒）
// 返回：程序运行时，程序非法时返回错误
func NewProgram(tl *mapv2.TrafficLight, laneIndex int, offset float64) (*Program, error) {
	if tl == nil || len(tl.Phases) == 0 {
		return nil, ErrEmptyProgram
	}
	total := 0.
	for i, p := range tl.Phases {
		if laneIndex < 0 || laneIndex >= len(p.States) {
			return nil, fmt.Errorf("phase %d has %d lane states, lane index %d out of range", i, len(p.States), laneIndex)
		}
		if p.Duration < 0 {
			return nil, fmt.Errorf("phase %d has negative duration %v", i, p.Duration)
		}
		total += p.Duration
	}
	if total <= 0 {
		return nil, fmt.Errorf("traffic light program of junction %d has zero cycle time", tl.JunctionId)
	}
	p := &Program{
		tl:         tl,
		laneIndex:  laneIndex,
		totalTime:  tl.Phases[0].Duration,
		remainingT: tl.Phases[0].Duration,
		ok:         true,
	}
	if offset > 0 {
		p.Update(offset)
	}
	return p, nil
}

// Update 推进程序时间
// 功能：按照预设程序进行相位切换，跳过时长为0的相位
// 参数：dt-时间步长
func (p *Program) Update(dt float64) {
	if !p.ok {
		return
	}
	p.remainingT -= dt
	for p.remainingT <= 0 {
		p.step = (p.step + 1) % int32(len(p.tl.Phases))
		p.totalTime = p.tl.Phases[p.step].Duration
		p.remainingT += p.totalTime
	}
}

// State 当前灯色
func (p *Program) State() mapv2.LightState {
	if !p.ok {
		return mapv2.LightState_LIGHT_STATE_GREEN
	}
	return p.tl.Phases[p.step].States[p.laneIndex]
}

// Color 当前颜色
func (p *Program) Color() entity.Color {
	return entity.ColorFromLightState(p.State())
}

// Get 获取信号灯程序
func (p *Program) Get() *mapv2.TrafficLight {
	return p.tl
}

// Step 获取当前相位索引
func (p *Program) Step() int32 {
	return p.step
}

// RemainingTime 获取当前相位剩余时间
func (p *Program) RemainingTime() float64 {
	return p.remainingT
}

// SetPhase 设置当前相位与剩余时间
func (p *Program) SetPhase(step int32, remainingT float64) error {
	if step < 0 || int(step) >= len(p.tl.Phases) {
		return fmt.Errorf("phase index %d out of range [0, %d)", step, len(p.tl.Phases))
	}
	if remainingT <= 0 {
		return fmt.Errorf("invalid remaining time %v", remainingT)
	}
	p.step = step
	p.totalTime = p.tl.Phases[step].Duration
	p.remainingT = remainingT
	return nil
}

// SetOk 设置信号灯的开关状态
// 参数：ok-true表示正常工作，false表示失效（全绿灯）
func (p *Program) SetOk(ok bool) {
	p.ok = ok
}

// Ok 获取信号灯状态
func (p *Program) Ok() bool {
	return p.ok
}
