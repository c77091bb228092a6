package detector

import (
	"git.fiblab.net/sim/tldetector/entity"
)

// stateCountThreshold 颜色需要连续保持多少帧才被采信
const stateCountThreshold = 3

// debounce 发布去抖滤波器
// 功能：对每帧的原始估计做低通滤波，只有连续保持的颜色才会改变对外发布值
// 说明：仅红灯会发布非负路径点下标，黄/绿/未知稳定后一律发布-1，
// 宁可漏报红灯目标也不误报
type debounce struct {
	state         entity.LightColor // 最近一帧的原始颜色
	stable        entity.LightColor // 最近一次被采信的颜色
	count         int32             // 当前颜色已连续保持的帧数
	lastPublished int32             // 最近一次对外发布的路径点下标
}

func newDebounce() debounce {
	return debounce{
		state:         entity.ColorUnknown,
		stable:        entity.ColorUnknown,
		lastPublished: -1,
	}
}

// apply 执行一轮去抖
// 参数：lightWp-本帧原始停车路径点下标，state-本帧原始颜色
// 返回：本轮对外发布的路径点下标
// 算法说明：
// 1. 颜色与上一帧不同：重置计数并记录新颜色，重发上次发布值
// 2. 颜色保持且计数达到阈值：采信该颜色，红灯发布lightWp，其余发布-1
// 3. 颜色保持但计数不足：继续重发上次发布值
// 4. 计数无条件加1
func (d *debounce) apply(lightWp int32, state entity.LightColor) (published int32) {
	if state != d.state {
		d.count = 0
		d.state = state
		published = d.lastPublished
	} else if d.count >= stateCountThreshold {
		d.stable = state
		if state != entity.ColorRed {
			lightWp = -1
		}
		d.lastPublished = lightWp
		published = lightWp
	} else {
		published = d.lastPublished
	}
	d.count++
	return published
}
