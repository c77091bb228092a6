package clock

import (
	"fmt"

	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"

	"git.fiblab.net/sim/tldetector/utils/config"
)

// Clock 帧时钟
// 功能：以处理的相机帧为单位推进时间，每帧推进一个固定间隔
// 说明：维护当前帧号与时间，提供时间格式化和RPC服务
type Clock struct {
	clockv1connect.UnimplementedClockServiceHandler

	DT         float64 // 每帧时间间隔（秒）
	START_STEP int32   // 起始帧号
	END_STEP   int32   // 结束帧号，处理区间[START, END)；与起始帧号相等时不设上限

	T    float64 // 当前时间（秒）
	Step int32   // 当前帧号
}

// New 根据配置创建新的时钟实例
// 参数：stepConfig-控制步配置，Total为0时不限制处理帧数
// 返回：初始化完成的时钟实例
func New(stepConfig config.ControlStep) *Clock {
	c := &Clock{
		DT:         stepConfig.Interval,
		START_STEP: stepConfig.Start,
		END_STEP:   stepConfig.Start + stepConfig.Total,
	}
	c.Init()
	return c
}

// Init 重置时钟状态
// 说明：帧号回到起始帧，按帧号重新计算当前时间
func (c *Clock) Init() {
	c.Step = c.START_STEP
	c.T = float64(c.Step) * c.DT
}

// Tick 推进一帧
// 说明：帧号加1，时间按DT推进
func (c *Clock) Tick() {
	c.Step++
	c.T = float64(c.Step) * c.DT
}

// Done 判断是否已到达结束帧
// 说明：END_STEP与START_STEP相等时视为不设上限，永远返回false
func (c *Clock) Done() bool {
	return c.END_STEP > c.START_STEP && c.Step >= c.END_STEP
}

// String 获取时钟的字符串表示
// 返回：格式化的时间字符串（HH:MM:SS）
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}
