package feeder

import (
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"

	"git.fiblab.net/sim/tldetector/entity"
)

// signalHead 固定程序信号灯头
// 功能：按地图里的固定相位程序推进一个受监控车道的灯色，
// 为观测列表提供真值
// 说明：相位起点由路口ID对相位数取模得到，不同路口的相位彼此错开
type signalHead struct {
	junctionID int32
	laneIndex  int // 受监控车道在路口车道列表中的下标
	tl         *mapv2.TrafficLight
	step       int32
	remainingT float64
}

// newSignalHead 创建信号灯头
// 参数：junctionID-路口ID，laneIndex-受监控车道下标，tl-固定信号灯程序
func newSignalHead(junctionID int32, laneIndex int, tl *mapv2.TrafficLight) *signalHead {
	if len(tl.Phases) == 0 {
		log.Panicf("junction %d has empty traffic light program", junctionID)
	}
	for _, p := range tl.Phases {
		if laneIndex >= len(p.States) {
			log.Panicf("junction %d: lane index %d out of %d states", junctionID, laneIndex, len(p.States))
		}
	}
	phaseIndex := junctionID % int32(len(tl.Phases))
	return &signalHead{
		junctionID: junctionID,
		laneIndex:  laneIndex,
		tl:         tl,
		step:       phaseIndex,
		remainingT: tl.Phases[phaseIndex].Duration,
	}
}

// Update 推进相位剩余时间
// 算法说明：
// 1. 扣减当前相位的剩余时间，未耗尽则保持当前相位
// 2. 耗尽后切换到下一相位并累加其时长，跳过时长为0的相位
func (h *signalHead) Update(dt float64) {
	h.remainingT -= dt
	if h.remainingT <= 0 {
		h.remainingT = 0
		for {
			h.step = (h.step + 1) % int32(len(h.tl.Phases))
			h.remainingT += h.tl.Phases[h.step].Duration
			if h.remainingT > 0 {
				break
			}
		}
	}
}

// Color 当前相位下受监控车道的灯色
func (h *signalHead) Color() entity.LightColor {
	return entity.LightColorFromPb(h.tl.Phases[h.step].States[h.laneIndex])
}
