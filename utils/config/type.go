package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义数据输入路径的配置结构，支持多种数据源
// 说明：支持MongoDB数据库和文件系统两种数据源，支持缓存机制
type InputPath struct {
	DB        string `yaml:"db"`                   // 数据库名
	Col       string `yaml:"col"`                  // 集合名
	Cache     string `yaml:"cache,omitempty"`      // 缓存文件名，为空则采用默认路径{db}.{col}.pb
	OnlyCache bool   `yaml:"only_cache,omitempty"` // 只从缓存中获取
	File      string `yaml:"file,omitempty"`       // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// GetCachePath 获取缓存文件路径
// 算法说明：
// 1. 如果指定了缓存路径，直接返回
// 2. 否则使用默认命名规则：{数据库名}.{集合名}.pb
func (p InputPath) GetCachePath() string {
	if p.Cache != "" {
		return p.Cache
	}
	return p.DB + "." + p.Col + ".pb"
}

// Input 指定场景驱动模式输入数据的配置项
// 说明：估计模式不读取任何地图数据，本节仅在drive模式下使用
type Input struct {
	URI string    `yaml:"uri"` // MongoDB连接字符串
	Map InputPath `yaml:"map"` // 地图
}

// ControlStep 指定时间范围和帧间隔的配置项
// 说明：估计模式下Total为处理的帧数上限（0为不限），
// 驱动模式下Interval为发布周期
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始帧号
	Total    int32   `yaml:"total"`    // 总帧数
	Interval float64 `yaml:"interval"` // 每帧的时间间隔（秒）
}

// Control 全局控制配置
type Control struct {
	Step ControlStep `yaml:"step"`
}

// TrafficLight 信号灯停止线配置
// 说明：每行为一条停止线的[x y]坐标，顺序与信号灯观测列表一一对应
type TrafficLight struct {
	StopLines [][]float64 `yaml:"stop_line_positions"`
}

// MqTopics MQTT主题配置
type MqTopics struct {
	Pose         string `yaml:"pose,omitempty"`          // 位姿输入
	Route        string `yaml:"route,omitempty"`         // 基准路径输入
	Lights       string `yaml:"lights,omitempty"`        // 信号灯观测输入
	Image        string `yaml:"image,omitempty"`         // 相机图像输入
	StopWaypoint string `yaml:"stop_waypoint,omitempty"` // 停车路径点输出
}

// Mq MQTT连接配置
type Mq struct {
	Broker   string   `yaml:"broker"`              // 形如tcp://host:1883
	ClientID string   `yaml:"client_id,omitempty"` // 为空时按模式生成
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Topics   MqTopics `yaml:"topics,omitempty"`
}

// Output 估计结果落库配置
// 说明：URI为空时不落库
type Output struct {
	URI       string `yaml:"uri"`                  // MongoDB连接字符串
	DB        string `yaml:"db"`                   // 数据库名
	Col       string `yaml:"col"`                  // 集合名
	BatchSize int    `yaml:"batch_size,omitempty"` // 批量写入条数，默认100
}

// Feeder 场景驱动模式配置
type Feeder struct {
	StartAoi         int32   `yaml:"start_aoi"`                   // 起点AOI
	EndAoi           int32   `yaml:"end_aoi"`                     // 终点AOI
	Speed            float64 `yaml:"speed,omitempty"`             // 行驶速度（米/秒），默认11
	WaypointInterval float64 `yaml:"waypoint_interval,omitempty"` // 路径点采样间隔（米），默认1
	NoiseStd         float64 `yaml:"noise_std,omitempty"`         // 位姿横向噪声标准差（米），默认0
	FrameWidth       int     `yaml:"frame_width,omitempty"`       // 合成图像宽度，默认64
	FrameHeight      int     `yaml:"frame_height,omitempty"`      // 合成图像高度，默认48
	Seed             uint64  `yaml:"seed,omitempty"`              // 噪声随机种子
	StopLinesFile    string  `yaml:"stop_lines_file,omitempty"`   // 停止线表导出路径，为空不导出
}

// Config YAML配置文件的根结构
type Config struct {
	Input        *Input       `yaml:"input,omitempty"` // 地图输入（drive模式）
	Control      Control      `yaml:"control"`         // 过程控制
	TrafficLight TrafficLight `yaml:"traffic_light"`   // 停止线表
	Mq           Mq           `yaml:"mq"`              // MQTT连接
	Output       *Output      `yaml:"output,omitempty"`
	Feeder       *Feeder      `yaml:"feeder,omitempty"` // drive模式
}
