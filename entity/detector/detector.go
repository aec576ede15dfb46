// 红灯停车点检测流水线
// 每个观测周期：定位前方信号灯 -> 获取颜色与最近waypoint -> 去抖 -> 发布
package detector

import (
	"slices"
	"sync"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/route"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/trafficlight"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils/container"
)

// Detector 红灯停车点检测器
// 功能：汇合异步到达的位姿、路线、信号灯，在每个观测周期给出唯一的停车waypoint
// 说明：
// 1. OnPose/OnWaypoints/OnLights可被任意goroutine并发调用，只整体替换共享快照
// 2. OnImage串行执行，每次调用恰好发布一个值
type Detector struct {
	state     *container.AtomicValue[snapshot]
	index     *route.Index
	locator   trafficlight.Locator
	provider  entity.IColorProvider
	publisher entity.IPublisher

	mtx       sync.Mutex // 观测周期互斥锁
	debouncer *trafficlight.Debouncer
	cycle     uint64
}

// New 创建检测器
// 参数：cfg-检测配置，provider-颜色来源，publisher-发布接口（可为nil）
func New(cfg config.Detector, provider entity.IColorProvider, publisher entity.IPublisher) *Detector {
	return &Detector{
		state:     container.NewAtomicValue(snapshot{}),
		index:     route.NewIndex(),
		locator:   trafficlight.Locator{MaxDistance: cfg.MaxLightDistance},
		provider:  provider,
		publisher: publisher,
		debouncer: trafficlight.NewDebouncer(cfg.StateCountThreshold),
	}
}

// OnPose 更新车辆位姿（最新值覆盖）
func (d *Detector) OnPose(pose entity.Pose) {
	d.state.Update(func(old snapshot) snapshot { return old.withPose(pose) })
}

// OnWaypoints 设置车辆路线
// 功能：首次非空路线生效，之后的路线被忽略；生效后尝试构建索引
// 返回：本次路线是否生效
func (d *Detector) OnWaypoints(waypoints []geometry.Point) bool {
	if len(waypoints) == 0 {
		return false
	}
	waypoints = slices.Clone(waypoints)
	s := d.state.Update(func(old snapshot) snapshot { return old.withWaypoints(waypoints) })
	accepted := len(s.waypoints) > 0 && &s.waypoints[0] == &waypoints[0]
	if !accepted {
		log.Debug("ignore repeated waypoints delivery")
		return false
	}
	log.Infof("route received: %d waypoints", len(waypoints))
	d.tryBuild(s)
	return true
}

// OnLights 整体替换信号灯列表，并尝试构建索引
func (d *Detector) OnLights(lights []entity.TrafficLight) {
	lights = slices.Clone(lights)
	s := d.state.Update(func(old snapshot) snapshot { return old.withLights(lights) })
	d.tryBuild(s)
}

// tryBuild 路线与信号灯都已到达时构建索引，只会真正构建一次
func (d *Detector) tryBuild(s snapshot) {
	if d.index.Built() {
		return
	}
	d.index.Build(s.lights, s.waypoints)
	if d.index.Built() {
		indexBuilt.Set(1)
	}
}

// OnImage 执行一个观测周期
// 功能：读取一致的状态快照，计算原始观测并去抖，发布本周期结果
// 参数：img-本周期图像，只传递给颜色来源
// 返回：本周期发布的waypoint，NoStop表示无需停车
// 算法说明：
// 1. 未收到位姿、索引未构建或前方没有信号灯：观测为UNKNOWN，候选为NoStop
// 2. 否则由颜色来源给出该信号灯颜色，候选为该信号灯最近的waypoint
// 3. 颜色来源出错时按UNKNOWN处理，不中断周期
// 4. 观测与候选交给去抖状态机，得到发布值
func (d *Detector) OnImage(img *entity.Image) int32 {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	start := time.Now()

	d.cycle++
	observed, candidate := d.observe(img, d.state.Load())
	published, committed := d.debouncer.Update(observed, candidate)

	observationsTotal.WithLabelValues(observed.String()).Inc()
	if committed {
		commitsTotal.WithLabelValues(observed.String()).Inc()
	}
	publishedWaypoint.Set(float64(published))
	if d.publisher != nil {
		d.publisher.Publish(d.cycle, published)
	}
	cyclesTotal.Inc()
	cycleDuration.Observe(time.Since(start).Seconds())
	return published
}

// observe 计算本周期的原始观测颜色和候选停车waypoint
func (d *Detector) observe(img *entity.Image, s snapshot) (entity.Color, int32) {
	if s.pose == nil || !d.index.Built() {
		return entity.ColorUnknown, entity.NoStop
	}
	i, ok := d.locator.Locate(s.pose, s.lights)
	if !ok {
		return entity.ColorUnknown, entity.NoStop
	}
	// 索引构建之后新增的信号灯没有对应的waypoint
	wp, ok := d.index.Nearest(i)
	if !ok {
		return entity.ColorUnknown, entity.NoStop
	}
	c, err := d.provider.Classify(img, s.lights[i])
	if err != nil {
		log.Warnf("cycle %d: classify light %d failed: %v", d.cycle, i, err)
		return entity.ColorUnknown, entity.NoStop
	}
	return c, wp
}

// Cycle 已执行的观测周期数
func (d *Detector) Cycle() uint64 {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.cycle
}

// DebounceState 当前去抖状态快照
func (d *Detector) DebounceState() trafficlight.DebounceState {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.debouncer.State()
}

// Index 信号灯-路线索引
func (d *Detector) Index() *route.Index {
	return d.index
}
