package config

import (
	"errors"
	"fmt"
)

const (
	DefaultStateCountThreshold = 3    // 默认连续相同观测次数阈值
	DefaultSpeed               = 10.0 // 默认车速（米/秒）

	ModeGroundTruth = "ground_truth"
	ModeNoisy       = "noisy"
)

var (
	ErrNoRoute  = errors.New("config: route needs waypoints or lane_ids")
	ErrNoLights = errors.New("config: no traffic lights configured")
)

// RuntimeConfig 运行时配置
// 功能：存储补全默认值并通过校验后的配置
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 回放控制配置
	D   Detector
	CL  Classifier
	V   Vehicle
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：补全默认值并进行配置校验
// 参数：config-原始配置对象
// 返回：运行时配置指针，配置非法时返回错误
// 算法说明：
// 1. 阈值、车速、颜色来源模式为空时使用默认值
// 2. 校验路线、信号灯、阈值、概率与步长
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	if config.Detector.StateCountThreshold == 0 {
		config.Detector.StateCountThreshold = DefaultStateCountThreshold
	}
	if config.Vehicle.Speed == 0 {
		config.Vehicle.Speed = DefaultSpeed
	}
	if config.Classifier.Mode == "" {
		config.Classifier.Mode = ModeGroundTruth
	}
	if err := validate(config); err != nil {
		return nil, err
	}
	return &RuntimeConfig{
		All: config,
		C:   config.Control,
		D:   config.Detector,
		CL:  config.Classifier,
		V:   config.Vehicle,
	}, nil
}

func validate(c Config) error {
	if len(c.Input.Route.Waypoints) == 0 && len(c.Input.Route.LaneIDs) == 0 {
		return ErrNoRoute
	}
	if len(c.Input.Route.Waypoints) == 0 && c.Input.Map.IsEmpty() {
		return fmt.Errorf("config: route.lane_ids needs input.map")
	}
	if len(c.Input.Lights) == 0 {
		return ErrNoLights
	}
	for i, l := range c.Input.Lights {
		if len(l.Phases) == 0 && c.Input.Map.IsEmpty() {
			return fmt.Errorf("config: light %d has no phases and no map to read junction %d from", i, l.JunctionID)
		}
		if l.LaneIndex < 0 {
			return fmt.Errorf("config: light %d has negative lane_index %d", i, l.LaneIndex)
		}
	}
	if c.Detector.StateCountThreshold < 1 {
		return fmt.Errorf("config: state_count_threshold must be >= 1, got %d", c.Detector.StateCountThreshold)
	}
	if c.Detector.MaxLightDistance < 0 {
		return fmt.Errorf("config: max_light_distance must be >= 0, got %v", c.Detector.MaxLightDistance)
	}
	switch c.Classifier.Mode {
	case ModeGroundTruth:
	case ModeNoisy:
		if c.Classifier.FlipProbability < 0 || c.Classifier.FlipProbability > 1 {
			return fmt.Errorf("config: flip_probability must be in [0, 1], got %v", c.Classifier.FlipProbability)
		}
	default:
		return fmt.Errorf("config: unknown classifier mode %q", c.Classifier.Mode)
	}
	if c.Control.Step.Interval <= 0 {
		return fmt.Errorf("config: control.step.interval must be > 0, got %v", c.Control.Step.Interval)
	}
	if c.Control.Step.Total <= 0 {
		return fmt.Errorf("config: control.step.total must be > 0, got %d", c.Control.Step.Total)
	}
	if c.Vehicle.Speed < 0 {
		return fmt.Errorf("config: vehicle.speed must be >= 0, got %v", c.Vehicle.Speed)
	}
	return nil
}
