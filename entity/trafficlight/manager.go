package trafficlight

import (
	"fmt"
	"sync"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/parallel"
	mapv2connect "git.fiblab.net/sim/protos/v2/go/city/map/v2/mapv2connect"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils/input"
)

var _ entity.ITrafficLightManager = (*Manager)(nil)

// signal 场景中的一个信号灯：位置与其程序
type signal struct {
	junctionID int32
	position   geometry.Point
	program    *Program
}

// Manager 信号灯管理器
// 功能：推进场景中所有信号灯程序，对外给出信号灯列表快照，并提供信控RPC
// 说明：同一路口的多个信号灯共享路口ID，RPC按路口操作其全部信号灯
type Manager struct {
	mapv2connect.UnimplementedTrafficLightServiceHandler

	ctx entity.ITaskContext

	mtx     sync.RWMutex
	signals []*signal
	data    map[int32][]*signal
}

// NewManager 创建信号灯管理器实例
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:     ctx,
		signals: make([]*signal, 0),
		data:    make(map[int32][]*signal),
	}
}

// Init 初始化所有信号灯
// 参数：lights-输入数据中的信号灯
// 返回：任一信号灯程序非法时返回错误
func (m *Manager) Init(lights []input.Light) error {
	signals := make([]*signal, 0, len(lights))
	for i, l := range lights {
		p, err := NewProgram(l.Program, l.LaneIndex, l.Offset)
		if err != nil {
			return fmt.Errorf("light %d (junction %d): %w", i, l.JunctionID, err)
		}
		signals = append(signals, &signal{junctionID: l.JunctionID, position: l.Position, program: p})
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.signals = signals
	m.data = lo.GroupBy(signals, func(s *signal) int32 { return s.junctionID })
	log.Infof("init %d traffic lights in %d junctions", len(signals), len(m.data))
	return nil
}

// Update 更新阶段，推进所有信号灯程序
// 参数：dt-时间步长
func (m *Manager) Update(dt float64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	parallel.GoFor(m.signals, func(s *signal) { s.program.Update(dt) })
}

// Lights 当前信号灯列表
// 返回：新分配的切片，下标与初始化顺序一致
func (m *Manager) Lights() []entity.TrafficLight {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return lo.Map(m.signals, func(s *signal, _ int) entity.TrafficLight {
		return entity.TrafficLight{Position: s.position, State: s.program.Color()}
	})
}

// Len 信号灯数量
func (m *Manager) Len() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.signals)
}

// getOrError 根据路口ID获取信号灯（调用方持有锁）
func (m *Manager) getOrError(junctionID int32) ([]*signal, error) {
	if s, ok := m.data[junctionID]; !ok {
		return nil, fmt.Errorf("no id %d in traffic light data", junctionID)
	} else {
		return s, nil
	}
}
