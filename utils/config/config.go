package config

// 各配置项的缺省值
const (
	DefaultPoseTopic         = "tl/current_pose"
	DefaultRouteTopic        = "tl/base_waypoints"
	DefaultLightsTopic       = "tl/traffic_lights"
	DefaultImageTopic        = "tl/image_color"
	DefaultStopWaypointTopic = "tl/traffic_waypoint"

	DefaultStepInterval     = .1
	DefaultOutputBatchSize  = 100
	DefaultFeederSpeed      = 11.
	DefaultWaypointInterval = 1.
	DefaultFrameWidth       = 64
	DefaultFrameHeight      = 48
)

// RuntimeConfig 运行时配置
// 功能：存储估计器运行时的配置信息
// 说明：将YAML配置转换为运行时可用的配置对象，补齐缺省值
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化全局变量
// 功能：创建运行时配置对象，补齐各项缺省值
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
// 算法说明：
// 1. 为MQTT主题补齐缺省主题名
// 2. 为帧间隔、落库批量、驱动参数补齐缺省值
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	topics := &config.Mq.Topics
	if topics.Pose == "" {
		topics.Pose = DefaultPoseTopic
	}
	if topics.Route == "" {
		topics.Route = DefaultRouteTopic
	}
	if topics.Lights == "" {
		topics.Lights = DefaultLightsTopic
	}
	if topics.Image == "" {
		topics.Image = DefaultImageTopic
	}
	if topics.StopWaypoint == "" {
		topics.StopWaypoint = DefaultStopWaypointTopic
	}
	if config.Control.Step.Interval <= 0 {
		config.Control.Step.Interval = DefaultStepInterval
	}
	if config.Output != nil && config.Output.BatchSize <= 0 {
		config.Output.BatchSize = DefaultOutputBatchSize
	}
	if f := config.Feeder; f != nil {
		if f.Speed <= 0 {
			f.Speed = DefaultFeederSpeed
		}
		if f.WaypointInterval <= 0 {
			f.WaypointInterval = DefaultWaypointInterval
		}
		if f.FrameWidth <= 0 {
			f.FrameWidth = DefaultFrameWidth
		}
		if f.FrameHeight <= 0 {
			f.FrameHeight = DefaultFrameHeight
		}
	}

	rc.All = config
	rc.C = config.Control

	return rc
}
