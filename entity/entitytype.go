package entity

import (
	"fmt"
	"strings"

	"git.fiblab.net/general/common/v2/geometry"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"

	"git.fiblab.net/sim/tldetector/utils/geoutil"
)

// LightColor 信号灯颜色
// 说明：零值为未知，分类失败、数据缺失等情况都归入未知
type LightColor int32

const (
	ColorUnknown LightColor = iota // 未知
	ColorRed                       // 红灯
	ColorYellow                    // 黄灯
	ColorGreen                     // 绿灯
)

func (c LightColor) String() string {
	switch c {
	case ColorRed:
		return "RED"
	case ColorYellow:
		return "YELLOW"
	case ColorGreen:
		return "GREEN"
	default:
		return "UNKNOWN"
	}
}

// ParseLightColor 解析颜色名称，无法识别时返回未知
func ParseLightColor(s string) LightColor {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RED":
		return ColorRed
	case "YELLOW":
		return ColorYellow
	case "GREEN":
		return ColorGreen
	default:
		return ColorUnknown
	}
}

// LightColorFromPb 将地图协议中的信号灯状态转换为LightColor
func LightColorFromPb(state mapv2.LightState) LightColor {
	switch state {
	case mapv2.LightState_LIGHT_STATE_RED:
		return ColorRed
	case mapv2.LightState_LIGHT_STATE_YELLOW:
		return ColorYellow
	case mapv2.LightState_LIGHT_STATE_GREEN:
		return ColorGreen
	default:
		return ColorUnknown
	}
}

// ToPb 将LightColor转换为地图协议中的信号灯状态
func (c LightColor) ToPb() mapv2.LightState {
	switch c {
	case ColorRed:
		return mapv2.LightState_LIGHT_STATE_RED
	case ColorYellow:
		return mapv2.LightState_LIGHT_STATE_YELLOW
	case ColorGreen:
		return mapv2.LightState_LIGHT_STATE_GREEN
	default:
		var unknown mapv2.LightState
		return unknown
	}
}

// Pose 平面位姿
// 说明：XYZ为世界坐标，Yaw为绕Z轴的朝向角（弧度，0为+x方向）
type Pose struct {
	XYZ geometry.Point
	Yaw float64
}

func (p Pose) String() string {
	return fmt.Sprintf("Pose{XYZ=%v, Yaw=%.4f}", p.XYZ, p.Yaw)
}

// IsAheadOf 判断目标点是否在本位姿的前方（沿朝向的投影严格为正）
func (p Pose) IsAheadOf(target geometry.Point) bool {
	return geoutil.Ahead(p.XYZ, p.Yaw, target)
}

// Waypoint 基准路径点
type Waypoint struct {
	Pose
}

// Observation 一个受监控信号灯的观测条目
// 说明：GroundTruth仅供调试接口使用，估计主流程只读取位置与数量
type Observation struct {
	ID          int32          // 信号灯ID
	XYZ         geometry.Point // 灯头位置
	GroundTruth LightColor     // 仿真侧真值
}

func (o Observation) String() string {
	return fmt.Sprintf("Observation{ID=%v, XYZ=%v, GroundTruth=%v}", o.ID, o.XYZ, o.GroundTruth)
}

// Frame 一帧相机图像
type Frame struct {
	Data []byte // 编码后的图像字节（JPEG/PNG）
	Seq  uint64 // 接收序号，从1开始
}

// Estimate 一次估计的原始结果（去抖前）
type Estimate struct {
	Waypoint int32      // 停止线对应的路径点下标，无目标时为-1
	Color    LightColor // 分类得到的颜色
}

func (e Estimate) String() string {
	return fmt.Sprintf("Estimate{Waypoint=%v, Color=%v}", e.Waypoint, e.Color)
}
