package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义数据输入路径的配置结构，支持多种数据源
// 说明：支持MongoDB数据库和文件系统两种数据源，支持缓存机制
type InputPath struct {
	DB        string `yaml:"db"`                   // 数据库名
	Col       string `yaml:"col"`                  // 集合名
	Cache     string `yaml:"cache,omitempty"`      // 缓存文件名，为空则采用默认路径{db}.{col}.pb
	OnlyCache bool   `yaml:"only_cache,omitempty"` // 只从缓存中获取
	File      string `yaml:"file,omitempty"`       // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// GetCachePath 获取缓存文件路径
// 功能：返回缓存文件的完整路径
// 说明：未指定时使用默认命名规则：{数据库名}.{集合名}.pb
func (p InputPath) GetCachePath() string {
	if p.Cache != "" {
		return p.Cache
	}
	return p.DB + "." + p.Col + ".pb"
}

// IsEmpty 是否未配置任何数据来源
func (p InputPath) IsEmpty() bool {
	return p.File == "" && p.DB == "" && p.Col == ""
}

// Point 配置文件中的三维坐标
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z,omitempty"`
}

// Route 车辆行驶路线（waypoint序列）的来源
// 说明：Waypoints与LaneIDs二选一，Waypoints优先
type Route struct {
	Waypoints []Point `yaml:"waypoints,omitempty"` // 直接给出的waypoint序列
	LaneIDs   []int32 `yaml:"lane_ids,omitempty"`  // 从地图中按顺序拼接这些车道的中心线
}

// Phase 信号灯程序的一个相位
type Phase struct {
	Duration float64 `yaml:"duration"` // 相位时长（秒）
	State    string  `yaml:"state"`    // red | yellow | green
}

// Light 场景中的一个信号灯
// 说明：Phases为空时使用地图中JunctionID路口的固定相位程序
type Light struct {
	Position   Point   `yaml:"position"`
	Phases     []Phase `yaml:"phases,omitempty"`      // 自定义信号灯程序
	JunctionID int32   `yaml:"junction_id,omitempty"` // 地图路口ID
	LaneIndex  int     `yaml:"lane_index,omitempty"`  // 使用路口程序中第几条车道的灯色
	Offset     float64 `yaml:"offset,omitempty"`      // 程序初始时间偏移（秒）
}

// Input 指定所有输入数据的配置项
type Input struct {
	URI    string    `yaml:"uri,omitempty"` // MongoDB连接字符串
	Map    InputPath `yaml:"map,omitempty"` // 地图
	Route  Route     `yaml:"route"`         // 路线
	Lights []Light   `yaml:"lights"`        // 信号灯
}

// ControlStep 指定回放时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数（每步对应一次图像周期）
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 回放控制配置
type Control struct {
	Step ControlStep `yaml:"step"`
}

// Detector 红灯停车点检测配置
type Detector struct {
	StateCountThreshold int     `yaml:"state_count_threshold,omitempty"` // 连续相同观测次数阈值，默认3
	MaxLightDistance    float64 `yaml:"max_light_distance,omitempty"`    // 只考虑该距离内的信号灯，0表示不限制
}

// Classifier 信号灯颜色来源配置
type Classifier struct {
	Mode            string  `yaml:"mode,omitempty"`             // ground_truth | noisy
	FlipProbability float64 `yaml:"flip_probability,omitempty"` // noisy模式下的误判概率
	Seed            uint64  `yaml:"seed,omitempty"`             // noisy模式下的随机种子
}

// Vehicle 回放车辆配置
type Vehicle struct {
	Speed float64 `yaml:"speed,omitempty"` // 匀速行驶速度（米/秒）
}

// Config YAML配置文件的根结构
type Config struct {
	Input      Input      `yaml:"input"`                // 输入
	Control    Control    `yaml:"control"`              // 回放过程控制
	Detector   Detector   `yaml:"detector,omitempty"`   // 检测
	Classifier Classifier `yaml:"classifier,omitempty"` // 颜色来源
	Vehicle    Vehicle    `yaml:"vehicle,omitempty"`    // 车辆
}
