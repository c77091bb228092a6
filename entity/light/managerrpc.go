package light

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	mapv2connect "git.fiblab.net/sim/protos/v2/go/city/map/v2/mapv2connect"
	"git.fiblab.net/sim/syncer/v3"

	"git.fiblab.net/sim/tldetector/entity"
)

// 信号灯RPC服务
// 说明：只实现查询接口，作为暴露观测真值的调试入口；
// 估计器不控制信号灯，设置类接口保持未实现

// Register 将信号灯观测管理器注册到sidecar
// 功能：注册信号灯查询服务，供外部调试工具读取观测真值
func (m *LightManager) Register(sidecar *syncer.Sidecar) {
	sidecar.Register(
		mapv2connect.TrafficLightServiceName,
		func(opts ...connect.HandlerOption) (pattern string, handler http.Handler) {
			return mapv2connect.NewTrafficLightServiceHandler(m, opts...)
		},
	)
}

// GetTrafficLight RPC接口：按灯ID查询观测真值
// 功能：将观测条目合成为单相位信号灯程序返回
// 参数：ctx-上下文，in-请求，JunctionId字段填写灯ID（无匹配时按列表下标解释）
// 返回：单相位程序，相位状态为该灯的真值颜色，持续时间为一帧间隔
// 说明：该接口绕过分类器直接读取真值，仅供联调与评估使用
func (m *LightManager) GetTrafficLight(
	ctx context.Context, in *connect.Request[mapv2.GetTrafficLightRequest],
) (*connect.Response[mapv2.GetTrafficLightResponse], error) {
	req := in.Msg
	obs, ok := m.find(req.JunctionId)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("light id does not exist"))
	}
	interval := m.ctx.RuntimeConfig().C.Step.Interval
	return connect.NewResponse(&mapv2.GetTrafficLightResponse{
		TrafficLight: &mapv2.TrafficLight{
			JunctionId: obs.ID,
			Phases: []*mapv2.Phase{{
				Duration: interval,
				States:   []mapv2.LightState{obs.GroundTruth.ToPb()},
			}},
		},
		PhaseIndex:    0,
		TimeRemaining: interval,
	}), nil
}

// find 按ID查找观测条目，失败后尝试按下标解释
func (m *LightManager) find(id int32) (entity.Observation, bool) {
	m.snapshotMtx.RLock()
	defer m.snapshotMtx.RUnlock()
	for _, obs := range m.snapshot {
		if obs.ID == id {
			return obs, true
		}
	}
	if id >= 0 && int(id) < len(m.snapshot) {
		return m.snapshot[id], true
	}
	return entity.Observation{}, false
}
