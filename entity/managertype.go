package entity

// 依赖倒置，表达检测核心对外部协作方的接口需求

// 颜色识别边界：给定图像与信号灯，给出该信号灯当前颜色
// 真实视觉识别与真值透传都可以作为实现
type IColorProvider interface {
	Classify(img *Image, light TrafficLight) (Color, error)
}

// 停车点发布接口，每个观测周期调用一次
type IPublisher interface {
	Publish(cycle uint64, waypoint int32)
}

// entity/trafficlight/manager.go的依赖倒置
type ITrafficLightManager interface {
	Update(dt float64)      // 更新阶段，推进所有信号灯程序
	Lights() []TrafficLight // 当前信号灯列表（整体替换语义）
}

// entity/vehicle/vehicle.go的依赖倒置
type IVehicle interface {
	Update(dt float64)           // 更新阶段，沿路线前进
	Pose() Pose                  // 当前位姿
	SetStopWaypoint(index int32) // 设置需要停车的waypoint（NoStop表示不停车）
	Finished() bool              // 是否已到达路线终点
	Stopped() bool               // 是否在路线中途停车
}
