package input

import (
	"fmt"
	"os"

	"git.fiblab.net/general/common/v2/geometry"
	geov2 "git.fiblab.net/sim/protos/v2/go/city/geo/v2"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils/config"
)

// toPoint 配置坐标转换为几何点
func toPoint(p config.Point) geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y, Z: p.Z}
}

// laneWaypoints 按顺序拼接车道中心线得到waypoint序列
// 功能：将多条车道的中心线首尾相接，作为车辆路线
// 参数：m-地图，laneIDs-车道ID序列
// 返回：waypoint序列
// 说明：相邻车道的连接点通常重合，重合点只保留一个
func laneWaypoints(m *mapv2.Map, laneIDs []int32) ([]geometry.Point, error) {
	if m == nil {
		return nil, ErrNoMap
	}
	laneMap := lo.SliceToMap(m.Lanes, func(l *mapv2.Lane) (int32, *mapv2.Lane) {
		return l.Id, l
	})
	lanes, failedIDs := utils.Find(laneMap, laneIDs)
	if len(failedIDs) > 0 {
		return nil, fmt.Errorf("no id %v in lane data", failedIDs)
	}
	res := make([]geometry.Point, 0)
	for _, lane := range lanes {
		if lane.CenterLine == nil {
			return nil, fmt.Errorf("lane %d has no center line", lane.Id)
		}
		points := lo.Map(lane.CenterLine.Nodes, func(node *geov2.XYPosition, _ int) geometry.Point {
			return geometry.NewPointFromPb(node)
		})
		for _, p := range points {
			if n := len(res); n > 0 && res[n-1] == p {
				continue
			}
			res = append(res, p)
		}
	}
	return res, nil
}

// preCheckCache 预检查缓存目录
// 功能：验证输入缓存目录的有效性，决定是否启用缓存功能
// 参数：cacheDir-缓存目录路径
// 返回：true表示启用缓存，false表示禁用缓存
func preCheckCache(cacheDir string) bool {
	if cacheDir == "" {
		log.Info("disable input cache")
		return false
	} else {
		if stat, err := os.Stat(cacheDir); err == nil && stat.IsDir() {
			// 文件夹存在
			log.Infof("enable input cache at %s", cacheDir)
			return true
		} else {
			log.Errorf("disable input cache because invalid dir %s (not exist or file)", cacheDir)
			return false
		}
	}
}
