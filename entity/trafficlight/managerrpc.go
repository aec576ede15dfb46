package trafficlight

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	mapv2connect "git.fiblab.net/sim/protos/v2/go/city/map/v2/mapv2connect"
)

// Register 将信号灯管理器注册到HTTP路由
// 功能：将信号灯管理器注册为RPC服务，提供远程调用接口
// 参数：mux-HTTP路由，opts-connect处理器选项
func (m *Manager) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	mux.Handle(mapv2connect.NewTrafficLightServiceHandler(m, opts...))
}

// GetTrafficLight RPC接口：获取指定路口的信号灯状态
// 功能：返回路口当前程序、相位索引和剩余时间
// 说明：同一路口的信号灯共享程序，取第一个
func (m *Manager) GetTrafficLight(
	ctx context.Context, in *connect.Request[mapv2.GetTrafficLightRequest],
) (*connect.Response[mapv2.GetTrafficLightResponse], error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	signals, err := m.getOrError(in.Msg.JunctionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	p := signals[0].program
	return connect.NewResponse(&mapv2.GetTrafficLightResponse{
		TrafficLight:  p.Get(),
		PhaseIndex:    p.Step(),
		TimeRemaining: p.RemainingTime(),
	}), nil
}

// SetTrafficLightPhase RPC接口：设置指定路口的信号灯相位
// 功能：设置路口全部信号灯的当前相位和剩余时间，不改变信号灯程序
func (m *Manager) SetTrafficLightPhase(
	ctx context.Context, in *connect.Request[mapv2.SetTrafficLightPhaseRequest],
) (*connect.Response[mapv2.SetTrafficLightPhaseResponse], error) {
	req := in.Msg
	if req.TimeRemaining <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("invalid remaining time"))
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	signals, err := m.getOrError(req.JunctionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	for _, s := range signals {
		if err := s.program.SetPhase(req.PhaseIndex, req.TimeRemaining); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}
	log.Infof("junction %d set to phase %d (%.1fs remaining)", req.JunctionId, req.PhaseIndex, req.TimeRemaining)
	return connect.NewResponse(&mapv2.SetTrafficLightPhaseResponse{}), nil
}

// SetTrafficLightStatus RPC接口：设置指定路口的信号灯开关状态
// 说明：true表示正常工作，false表示失效（全绿灯）
func (m *Manager) SetTrafficLightStatus(
	ctx context.Context, in *connect.Request[mapv2.SetTrafficLightStatusRequest],
) (*connect.Response[mapv2.SetTrafficLightStatusResponse], error) {
	req := in.Msg
	m.mtx.Lock()
	defer m.mtx.Unlock()
	signals, err := m.getOrError(req.JunctionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	for _, s := range signals {
		s.program.SetOk(req.Ok)
	}
	return connect.NewResponse(&mapv2.SetTrafficLightStatusResponse{}), nil
}
