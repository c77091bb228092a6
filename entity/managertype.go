package entity

import (
	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/sim/syncer/v3"
)

// Manager依赖倒置

// entity/ego/manager.go的依赖倒置
type IEgoManager interface {
	Set(p Pose) // 写入最新位姿（缓冲，Prepare后生效）

	Prepare() // 准备阶段：缓冲换入快照

	// 读取快照位姿，ok为false表示尚未收到任何位姿
	Pose() (p Pose, ok bool)
}

// entity/route/manager.go的依赖倒置
type IRouteManager interface {
	Set(wps []Waypoint) // 整体替换基准路径（缓冲，Prepare后生效）

	Prepare() // 准备阶段：缓冲换入快照

	Waypoints() []Waypoint // 获取快照路径点列表
	Empty() bool           // 快照是否为空（未收到或零长度）
	// 查找距离pos最近的路径点下标，路径为空时返回-1，
	// 距离相等时返回下标最小者
	ClosestWaypoint(pos geometry.Point) int
}

// entity/stopline/manager.go的依赖倒置
type IStopLineManager interface {
	Init(rows [][]float64) // 初始化，行格式非[x y]时panic

	Get(index int) geometry.Point // 获取停止线位置，越界时panic
	Len() int                     // 停止线数量
	Positions() []geometry.Point  // 获取所有停止线位置
}

// entity/light/manager.go的依赖倒置
type ILightManager interface {
	// 整体替换观测列表（缓冲，Prepare后生效）；
	// 非空列表长度与停止线表不一致时panic
	Set(obs []Observation)
	Register(sidecar *syncer.Sidecar) // 注册调试RPC到Sidecar

	Prepare() // 准备阶段：缓冲换入快照

	Len() int                  // 快照观测数量
	Get(index int) Observation // 获取快照观测条目，越界时panic
}

// entity/camera/manager.go的依赖倒置
type ICameraManager interface {
	Set(f Frame) // 写入最新一帧（缓冲，Prepare后生效）

	Prepare() // 准备阶段：缓冲换入快照

	// 读取快照帧，ok为false表示从未收到过图像
	Frame() (f Frame, ok bool)
	// 帧到达通知通道，容量为1，新帧合并而不阻塞
	Notify() <-chan struct{}
}

// entity/detector/detector.go的依赖倒置
type IDetector interface {
	Prepare() // 准备阶段：运行时状态换入快照

	// 更新阶段：执行一轮估计与去抖，
	// 返回原始估计与本轮对外发布的路径点下标
	Update() (raw Estimate, published int32)

	// 读取最近一轮的快照结果，供调试输出使用
	LastResult() (raw Estimate, published int32, stable LightColor)
}

// 信号灯颜色分类器接口
type IClassifier interface {
	// 对一帧图像分类，任何失败返回未知
	Classify(f Frame) LightColor
}
