package clock

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	clockv1 "git.fiblab.net/sim/protos/v2/go/city/clock/v1"
	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"
)

// Register 将ClockService挂载到HTTP路由
// 说明：使回放时间可以通过RPC接口被外部查询
func (c *Clock) Register(mux *http.ServeMux) {
	mux.Handle(clockv1connect.NewClockServiceHandler(c))
}

// Now 获取当前回放时间
func (c *Clock) Now(ctx context.Context, in *connect.Request[clockv1.NowRequest]) (*connect.Response[clockv1.NowResponse], error) {
	return connect.NewResponse(&clockv1.NowResponse{
		T: c.T,
	}), nil
}
