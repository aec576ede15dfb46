// 信号灯-路线waypoint索引
// 对每个信号灯，将路线上所有waypoint按到信号灯的距离从近到远排序，只构建一次
package route

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
)

// Index 信号灯到路线waypoint的索引
// 功能：rows[i]为第i个信号灯对应的全部waypoint下标，按平方欧氏距离升序排列（距离相同按下标升序）
// 说明：构建状态单调（未构建->已构建），构建后rows不再修改，可无锁并发读取
type Index struct {
	mtx  sync.Mutex                // 构建互斥锁，保证waypoint与信号灯两条触发路径合计只构建一次
	rows atomic.Pointer[[][]int32] // 构建结果，nil表示尚未构建
}

// NewIndex 创建空索引
func NewIndex() *Index {
	return &Index{}
}

// Build 构建索引
// 功能：为每个信号灯计算全部waypoint的距离排序
// 参数：lights-信号灯列表，waypoints-路线waypoint序列
// 返回：信号灯下标->排序后的waypoint下标；任一输入为空时返回空结果且不标记为已构建
// 算法说明：
// 1. 已构建则直接返回已有结果，不重新计算（输入被忽略）
// 2. 加锁后再次检查，保证并发触发时只有一方真正构建
// 3. 各信号灯之间相互独立，并行计算每一行
func (x *Index) Build(lights []entity.TrafficLight, waypoints []geometry.Point) [][]int32 {
	if rows := x.rows.Load(); rows != nil {
		return *rows
	}
	if len(lights) == 0 || len(waypoints) == 0 {
		return [][]int32{}
	}
	x.mtx.Lock()
	defer x.mtx.Unlock()
	if rows := x.rows.Load(); rows != nil {
		return *rows
	}
	rows := make([][]int32, len(lights))
	parallel.GoFor(lo.Range(len(lights)), func(i int) {
		rows[i] = sortByDistance(lights[i].Position, waypoints)
	})
	x.rows.Store(&rows)
	log.Infof("indexed %d lights against %d waypoints", len(lights), len(waypoints))
	return rows
}

// Built 是否已构建
func (x *Index) Built() bool {
	return x.rows.Load() != nil
}

// Rows 构建结果，未构建时返回nil
func (x *Index) Rows() [][]int32 {
	if rows := x.rows.Load(); rows != nil {
		return *rows
	}
	return nil
}

// Waypoints 第light个信号灯的完整waypoint排序
// 返回：排序结果与是否存在（未构建或下标越界时为false）
func (x *Index) Waypoints(light int) ([]int32, bool) {
	rows := x.Rows()
	if light < 0 || light >= len(rows) {
		return nil, false
	}
	return rows[light], true
}

// Nearest 距离第light个信号灯最近的waypoint，即车辆应停车的位置
func (x *Index) Nearest(light int) (int32, bool) {
	row, ok := x.Waypoints(light)
	if !ok || len(row) == 0 {
		return entity.NoStop, false
	}
	return row[0], true
}

// KNearest 距离第light个信号灯最近的k个waypoint（不足k个时返回全部）
func (x *Index) KNearest(light, k int) []int32 {
	row, ok := x.Waypoints(light)
	if !ok || k <= 0 {
		return nil
	}
	return row[:min(k, len(row))]
}

// sortByDistance 将waypoint下标按到p的平方距离稳定排序
func sortByDistance(p geometry.Point, waypoints []geometry.Point) []int32 {
	distances := lo.Map(waypoints, func(wp geometry.Point, _ int) float64 {
		return entity.SquaredDistance(p, wp)
	})
	order := lo.Range(len(waypoints))
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(distances[a], distances[b])
	})
	return lo.Map(order, func(i int, _ int) int32 {
		return int32(i)
	})
}
