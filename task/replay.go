package task

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/detector"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// Report 回放结果
type Report struct {
	Steps        int32                  // 执行的步数
	History      []detector.Publication // 每个观测周期的发布值
	StoppedSteps int32                  // 车辆在路线中途停车的步数
	Finished     bool                   // 车辆是否到达路线终点
	FinalPose    entity.Pose            // 结束时的车辆位姿
	StopCommits  []detector.Publication // 发布值发生变化的周期
}

func (r *Report) String() string {
	return fmt.Sprintf("steps=%d stopped_steps=%d finished=%v changes=%d final=%v",
		r.Steps, r.StoppedSteps, r.Finished, len(r.StopCommits), r.FinalPose)
}

// prepare 准备阶段，每步执行一次
// 功能：推进时钟并定期输出心跳日志
// 返回：是否仍在回放区间内
func (ctx *Context) prepare() bool {
	more := ctx.clock.Tick()
	if ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		log.Infof(
			"STEP: %d(%d:%d:%.2f) vehicle s=%.1f",
			ctx.clock.InternalStep,
			hour, minute, second,
			ctx.vehicle.S(),
		)
	}
	return more
}

// update 更新阶段，每步执行一次
// 功能：并发推进信号灯程序与车辆
func (ctx *Context) update() {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.lightManager.Update(ctx.clock.DT) // traffic light
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.vehicle.Update(ctx.clock.DT) // vehicle
	}()
	wg.Wait()
}

// observe 观测阶段，每步执行一次
// 功能：把本步的位姿、信号灯与图像依次送入检测器，等待本周期的发布值并下发给车辆
// 说明：图像事件是唯一产生输出的事件，每个图像事件恰好对应一次发布
func (ctx *Context) observe(c context.Context) (int32, error) {
	img := &entity.Image{
		Seq:   uint64(ctx.clock.InternalStep),
		Stamp: time.Unix(0, 0).Add(time.Duration(ctx.clock.T * float64(time.Second))),
	}
	for _, ev := range []detector.Event{
		detector.PoseEvent{Pose: ctx.vehicle.Pose()},
		detector.LightsEvent{Lights: ctx.lightManager.Lights()},
		detector.ImageEvent{Image: img},
	} {
		select {
		case ctx.events <- ev:
		case <-c.Done():
			return entity.NoStop, c.Err()
		}
	}
	select {
	case p := <-ctx.latest.C():
		ctx.vehicle.SetStopWaypoint(p.Waypoint)
		return p.Waypoint, nil
	case <-c.Done():
		return entity.NoStop, c.Err()
	}
}

// Run 运行回放
// 功能：初始化后启动检测器事件循环，逐步推进信号灯与车辆并观测，直到回放区间结束、车辆到达终点或任务关闭
// 返回：回放结果
func (ctx *Context) Run(c context.Context) (*Report, error) {
	defer ctx.Close()
	if err := ctx.Init(); err != nil {
		return nil, err
	}

	c, cancel := context.WithCancel(c)
	defer cancel()
	detectorErr := make(chan error, 1)
	go func() {
		detectorErr <- ctx.detector.Run(c, ctx.events)
	}()

	// 路线只发送一次
	ctx.events <- detector.WaypointsEvent{Waypoints: ctx.initRes.Waypoints}

	report := &Report{}
	for !ctx.closed.Load() {
		ctx.update()
		if _, err := ctx.observe(c); err != nil {
			return nil, err
		}
		report.Steps++
		if ctx.vehicle.Stopped() {
			report.StoppedSteps++
		}
		if ctx.vehicle.Finished() {
			log.Infof("vehicle finished at step %d", ctx.clock.InternalStep)
			break
		}
		if !ctx.prepare() {
			break
		}
	}
	close(ctx.events)
	if err := <-detectorErr; err != nil {
		return nil, err
	}

	report.History = ctx.recorder.History()
	report.Finished = ctx.vehicle.Finished()
	report.FinalPose = ctx.vehicle.Pose()
	report.StopCommits = lo.Filter(report.History, func(p detector.Publication, i int) bool {
		return i == 0 || report.History[i-1].Waypoint != p.Waypoint
	})
	log.Infof("replay complete: %v", report)
	return report, nil
}
