package task

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"connectrpc.com/grpcreflect"
	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"
	mapv2connect "git.fiblab.net/sim/protos/v2/go/city/map/v2/mapv2connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/clock"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/detector"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/trafficlight"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/vehicle"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils/input"
)

// waitForServerReady 等待服务器就绪
// 功能：通过HTTP请求检查服务器是否已经启动并可以响应
// 参数：addr-服务器地址，retryCount-重试次数，interval-重试间隔
// 返回：错误信息，如果服务器就绪则返回nil
func waitForServerReady(addr string, retryCount int, interval time.Duration) error {
	client := &http.Client{
		Timeout: interval,
	}
	for range retryCount {
		resp, err := client.Get(addr)
		if err == nil {
			resp.Body.Close()
			return nil
		}
		time.Sleep(interval)
	}
	return fmt.Errorf("server `%v` did not become ready after %d retries", addr, retryCount)
}

// Context 回放任务上下文
// 功能：包含一次回放任务的所有组件和状态
// 说明：信号灯管理器与车辆产生真值，检测器在独立的事件循环中消费事件并发布停车点
type Context struct {
	// 任务名
	job string
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock
	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig
	// 用于初始化的输入
	initRes *input.Input

	// 信号灯管理器
	lightManager *trafficlight.Manager
	// 回放车辆
	vehicle *vehicle.Vehicle

	// 检测器及其输入输出
	detector *detector.Detector
	events   chan detector.Event
	latest   *detector.ChanPublisher
	recorder *detector.Recorder

	// HTTP服务（RPC与metrics），listenAddr为空时不启动
	listenAddr    string
	server        *http.Server
	serverCloseCh chan struct{}
}

// NewContext 创建新的回放任务上下文
// 功能：初始化回放系统的所有组件和配置
// 参数：
//   - job: 任务名称
//   - listenAddr: RPC与metrics的HTTP监听地址，为空则不启动
//   - cacheDir: 缓存目录
//   - c: 配置对象
//
// 返回：初始化完成的Context实例，配置或输入非法时返回错误
// 算法说明：
// 1. 补全并校验配置
// 2. 下载和初始化地图、路线、信号灯数据
// 3. 创建信号灯管理器、车辆、颜色来源与检测器
// 4. 注册RPC服务并启动HTTP服务（如果需要）
func NewContext(job, listenAddr, cacheDir string, c config.Config) (*Context, error) {
	runtimeConfig, err := config.NewRuntimeConfig(c)
	if err != nil {
		return nil, err
	}
	ctx := &Context{
		job:           job,
		clock:         clock.New(c.Control.Step),
		runtimeConfig: runtimeConfig,
		events:        make(chan detector.Event, 4),
		latest:        detector.NewChanPublisher(),
		recorder:      &detector.Recorder{},
		listenAddr:    listenAddr,
		serverCloseCh: make(chan struct{}),
	}

	// 下载所有回放启动所需的数据
	if ctx.initRes, err = input.Init(c, cacheDir); err != nil {
		return nil, err
	}

	ctx.lightManager = trafficlight.NewManager(ctx)
	ctx.detector = detector.New(
		runtimeConfig.D,
		newColorProvider(runtimeConfig.CL),
		detector.Multi{ctx.recorder, ctx.latest, &detector.LogPublisher{}},
	)

	if listenAddr != "" {
		mux := http.NewServeMux()
		ctx.clock.Register(mux)
		ctx.lightManager.Register(mux)
		mux.Handle("/metrics", promhttp.Handler())
		// 服务反射，便于grpcurl等工具调试
		reflector := grpcreflect.NewStaticReflector(
			clockv1connect.ClockServiceName,
			mapv2connect.TrafficLightServiceName,
		)
		mux.Handle(grpcreflect.NewHandlerV1(reflector))
		mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector))
		if err := ctx.serve(mux); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// newColorProvider 根据配置创建颜色来源
// 说明：noisy模式在真值上叠加误判，出错时回退到真值
func newColorProvider(c config.Classifier) entity.IColorProvider {
	truth := trafficlight.GroundTruthProvider{}
	switch c.Mode {
	case config.ModeNoisy:
		log.Infof("color provider: noisy ground truth (flip probability %.3f, seed %d)", c.FlipProbability, c.Seed)
		return trafficlight.FallbackProvider{
			Primary:  trafficlight.NewNoisyProvider(truth, c.FlipProbability, c.Seed),
			Fallback: truth,
		}
	default:
		log.Warn("color provider: ground-truth passthrough (reduced fidelity, no vision classification)")
		return truth
	}
}

// serve HTTP服务协程，用于提供RPC与metrics
func (ctx *Context) serve(mux *http.ServeMux) error {
	listener, err := net.Listen("tcp", ctx.listenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", ctx.listenAddr, err)
	}
	ctx.server = &http.Server{Handler: mux}
	go func() {
		if err := ctx.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panicf("failed to serve: %v", err)
		}
		close(ctx.serverCloseCh)
	}()
	addr := "http://" + listener.Addr().String() + "/metrics"
	if err := waitForServerReady(addr, 10, 100*time.Millisecond); err != nil {
		return err
	}
	log.Infof("serving rpc and metrics at %s", listener.Addr())
	return nil
}

func (ctx *Context) GetInput() *input.Input {
	return ctx.initRes
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) LightManager() *trafficlight.Manager {
	return ctx.lightManager
}

func (ctx *Context) Detector() *detector.Detector {
	return ctx.detector
}

// Init 初始化信号灯与车辆
func (ctx *Context) Init() error {
	ctx.clock.Init()

	initRes := ctx.initRes
	log.Infof("Waypoint: %v", len(initRes.Waypoints))
	log.Infof("TrafficLight: %v", len(initRes.Lights))

	if err := ctx.lightManager.Init(initRes.Lights); err != nil {
		return err
	}
	v, err := vehicle.New(initRes.Waypoints, ctx.runtimeConfig.V.Speed)
	if err != nil {
		return err
	}
	ctx.vehicle = v
	return nil
}

// Close 关闭任务，停止HTTP服务
func (ctx *Context) Close() {
	if ctx.closed.Swap(true) {
		return
	}
	if ctx.server != nil {
		ctx.server.Close()
		// wait for graceful stop
		<-ctx.serverCloseCh
	}
}
