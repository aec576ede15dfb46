package input

import (
	"context"
	"errors"
	"fmt"

	"git.fiblab.net/general/common/v2/cache"
	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/mongoutil"
	"git.fiblab.net/general/common/v2/protoutil"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/protobuf/proto"
)

var (
	ErrNoMap = errors.New("map is required but not configured")
)

// Light 初始化完成的信号灯
type Light struct {
	JunctionID int32               // 地图路口ID；自定义程序时为其在配置中的序号
	Position   geometry.Point      // 信号灯位置
	Program    *mapv2.TrafficLight // 固定相位程序
	LaneIndex  int                 // 使用程序中第几条车道的灯色
	Offset     float64             // 程序初始时间偏移（秒）
}

// Input 输入数据
// 功能：存储回放所需的所有输入数据
// 说明：地图只在路线或信号灯引用地图元素时加载，支持从文件或数据库加载
type Input struct {
	Map       *mapv2.Map       // 可能为nil
	Waypoints []geometry.Point // 车辆路线
	Lights    []Light          // 场景中的信号灯
}

// Init 下载数据
// 功能：根据配置初始化并加载所有输入数据
// 参数：c-配置对象，cacheDir-缓存目录
// 返回：加载完成的输入数据指针，配置与数据不一致时返回错误
// 算法说明：
// 1. 判断是否需要地图：路线使用lane_ids或任一信号灯未给出自定义相位
// 2. 地图数据加载：文件优先，否则从MongoDB（带缓存）加载
// 3. 路线构建：直接给出的waypoint，或按顺序拼接车道中心线
// 4. 信号灯构建：自定义相位转换为信号灯程序，否则取地图路口的固定程序
func Init(c config.Config, cacheDir string) (*Input, error) {
	res := &Input{}
	needMap := len(c.Input.Route.Waypoints) == 0 && len(c.Input.Route.LaneIDs) > 0
	for _, l := range c.Input.Lights {
		if len(l.Phases) == 0 {
			needMap = true
		}
	}
	if needMap {
		m, err := loadMap(c.Input, cacheDir)
		if err != nil {
			return nil, err
		}
		res.Map = m
	}

	if len(c.Input.Route.Waypoints) > 0 {
		res.Waypoints = lo.Map(c.Input.Route.Waypoints, func(p config.Point, _ int) geometry.Point {
			return toPoint(p)
		})
	} else {
		waypoints, err := laneWaypoints(res.Map, c.Input.Route.LaneIDs)
		if err != nil {
			return nil, err
		}
		res.Waypoints = waypoints
	}

	res.Lights = make([]Light, 0, len(c.Input.Lights))
	for i, l := range c.Input.Lights {
		light := Light{
			JunctionID: l.JunctionID,
			Position:   toPoint(l.Position),
			LaneIndex:  l.LaneIndex,
			Offset:     l.Offset,
		}
		if len(l.Phases) > 0 {
			program, err := programFromPhases(int32(i), l.Phases)
			if err != nil {
				return nil, fmt.Errorf("light %d: %w", i, err)
			}
			light.JunctionID = int32(i)
			light.Program = program
		} else {
			program, err := junctionProgram(res.Map, l.JunctionID)
			if err != nil {
				return nil, fmt.Errorf("light %d: %w", i, err)
			}
			light.Program = program
		}
		res.Lights = append(res.Lights, light)
	}
	log.Infof("input ready: %d waypoints, %d lights", len(res.Waypoints), len(res.Lights))
	return res, nil
}

// loadMap 加载地图
func loadMap(in config.Input, cacheDir string) (*mapv2.Map, error) {
	if in.Map.IsEmpty() {
		return nil, ErrNoMap
	}
	if in.Map.File != "" {
		var m mapv2.Map
		if err := protoutil.UnmarshalFromFile(&m, in.Map.File); err != nil {
			return nil, fmt.Errorf("failed to load map from file: %w", err)
		}
		return &m, nil
	}
	if !preCheckCache(cacheDir) {
		cacheDir = ""
	}
	var client *mongo.Client
	if in.URI != "" {
		client = mongoutil.NewClient(in.URI)
		defer client.Disconnect(context.Background())
	}
	return mustLoad[mapv2.Map](client, in.Map, cacheDir, nil, nil), nil
}

// programFromPhases 将配置中的相位列表转换为单车道信号灯程序
func programFromPhases(id int32, phases []config.Phase) (*mapv2.TrafficLight, error) {
	tl := &mapv2.TrafficLight{
		JunctionId: id,
		Phases:     make([]*mapv2.Phase, 0, len(phases)),
	}
	for i, p := range phases {
		c, err := entity.ParseColor(p.State)
		if err != nil {
			return nil, fmt.Errorf("phase %d: %w", i, err)
		}
		tl.Phases = append(tl.Phases, &mapv2.Phase{
			Duration: p.Duration,
			States:   []mapv2.LightState{c.LightState()},
		})
	}
	return tl, nil
}

// junctionProgram 取地图路口的固定相位程序
func junctionProgram(m *mapv2.Map, junctionID int32) (*mapv2.TrafficLight, error) {
	if m == nil {
		return nil, ErrNoMap
	}
	j, ok := lo.Find(m.Junctions, func(j *mapv2.Junction) bool { return j.Id == junctionID })
	if !ok {
		return nil, fmt.Errorf("no id %d in junction data", junctionID)
	}
	if j.FixedProgram == nil || len(j.FixedProgram.Phases) == 0 {
		return nil, fmt.Errorf("junction %d has no fixed traffic light program", junctionID)
	}
	return j.FixedProgram, nil
}

// mustLoad 必须加载数据（泛型函数）
// 功能：从MongoDB或缓存中加载数据
// 参数：client-MongoDB客户端，inputPath-输入路径配置，cacheDir-缓存目录，classNameMapper-类名映射器，handler-数据处理函数，opts-查询选项
// 返回：加载的数据对象
// 说明：加载失败时panic
func mustLoad[T any, PT interface {
	proto.Message
	*T
}](
	client *mongo.Client,
	inputPath config.InputPath,
	cacheDir string,
	classNameMapper func(string) string,
	handler func(className string, pb any, rawBson bson.Raw) error,
	opts ...*options.FindOptions,
) (res PT) {
	var downloadFunc func() PT
	var err error
	if !inputPath.OnlyCache {
		if client == nil {
			log.Panicf("no mongo uri for %s.%s and only_cache is false", inputPath.DB, inputPath.Col)
		}
		coll := mongoutil.GetMongoColl(client, inputPath)
		downloadFunc = func() PT {
			pb, errs := mongoutil.DownloadPbFromMongo[T, PT](context.Background(), coll, classNameMapper, handler, opts...)
			if len(errs) > 0 {
				for _, err := range errs {
					log.Errorf("failed to download: %v", err)
				}
				log.Panicln("failed to download")
			}
			return pb
		}
	}
	log.Infof("start fetching from %s.%s", inputPath.DB, inputPath.Col)
	res, err = cache.LoadWithCache(cacheDir, inputPath, downloadFunc)
	if err != nil {
		log.Panicf("failed to load with cache: %v", err)
	}
	log.Infof("finish fetching from %s.%s", inputPath.DB, inputPath.Col)
	return
}
