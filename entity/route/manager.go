package route

import (
	"sync"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/mathutil"

	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/utils/geoutil"
)

// RouteManager 基准路径管理器
// 功能：维护有序路径点序列，支持整体替换与最近路径点查询
// 说明：路径为整体替换语义，替换在准备阶段原子生效，
// 一帧内所有下标引用同一份序列
type RouteManager struct {
	ctx entity.ITaskContext

	bufferMtx sync.Mutex
	buffer    []entity.Waypoint
	dirty     bool // buffer是否有待生效的替换（允许替换为空列表）

	snapshotMtx sync.RWMutex // 保护快照，调试接口在帧间并发读取
	snapshot    []entity.Waypoint
}

// NewManager 创建基准路径管理器
func NewManager(ctx entity.ITaskContext) *RouteManager {
	return &RouteManager{ctx: ctx}
}

// Set 整体替换基准路径
// 说明：只写缓冲，Prepare后对读取方可见；传入空列表视为清空路径
func (m *RouteManager) Set(wps []entity.Waypoint) {
	m.bufferMtx.Lock()
	m.buffer = wps
	m.dirty = true
	m.bufferMtx.Unlock()
}

// Prepare 准备阶段，将缓冲中的路径换入快照
func (m *RouteManager) Prepare() {
	m.bufferMtx.Lock()
	defer m.bufferMtx.Unlock()
	if m.dirty {
		m.snapshotMtx.Lock()
		m.snapshot = m.buffer
		m.snapshotMtx.Unlock()
		m.buffer = nil
		m.dirty = false
	}
}

// Waypoints 获取快照路径点列表
// 说明：返回的切片在下一次Prepare前有效，读取方不得修改
func (m *RouteManager) Waypoints() []entity.Waypoint {
	m.snapshotMtx.RLock()
	defer m.snapshotMtx.RUnlock()
	return m.snapshot
}

// Empty 快照是否为空
func (m *RouteManager) Empty() bool {
	m.snapshotMtx.RLock()
	defer m.snapshotMtx.RUnlock()
	return len(m.snapshot) == 0
}

// ClosestWaypoint 查找距离pos最近的路径点下标
// 参数：pos-查询点
// 返回：最近路径点下标，路径为空时返回-1
// 算法说明：线性扫描取距离最小者，严格小于才更新，
// 距离相等时保留先遇到的下标，保证结果确定
func (m *RouteManager) ClosestWaypoint(pos geometry.Point) int {
	m.snapshotMtx.RLock()
	defer m.snapshotMtx.RUnlock()
	closest := -1
	minDist := mathutil.INF
	for i, wp := range m.snapshot {
		if d := geoutil.Distance2D(pos, wp.XYZ); d < minDist {
			minDist = d
			closest = i
		}
	}
	return closest
}
