package light

import (
	"sync"

	mapv2connect "git.fiblab.net/sim/protos/v2/go/city/map/v2/mapv2connect"

	"git.fiblab.net/sim/tldetector/entity"
)

// LightManager 信号灯观测管理器
// 功能：接收仿真侧发布的信号灯观测列表，在准备阶段换入快照
// 说明：观测列表为整体替换语义；估计主流程只读取数量与位置，
// 真值颜色仅通过调试RPC暴露；设置类RPC接口保持未实现
type LightManager struct {
	mapv2connect.UnimplementedTrafficLightServiceHandler

	ctx entity.ITaskContext

	bufferMtx sync.Mutex
	buffer    []entity.Observation
	dirty     bool

	snapshotMtx sync.RWMutex // 保护快照，RPC接口在帧间并发读取
	snapshot    []entity.Observation
}

// NewManager 创建信号灯观测管理器
func NewManager(ctx entity.ITaskContext) *LightManager {
	return &LightManager{ctx: ctx}
}

// Set 整体替换观测列表
// 说明：只写缓冲，Prepare后对读取方可见；
// 空列表视为数据缺失允许写入，非空列表长度必须与停止线表一致，
// 不一致说明配置与数据源不匹配，直接panic终止
func (m *LightManager) Set(obs []entity.Observation) {
	if n := m.ctx.StopLines().Len(); len(obs) > 0 && len(obs) != n {
		log.Panicf("light list length %d does not match stop line table length %d", len(obs), n)
	}
	m.bufferMtx.Lock()
	m.buffer = obs
	m.dirty = true
	m.bufferMtx.Unlock()
}

// Prepare 准备阶段，将缓冲中的观测列表换入快照
func (m *LightManager) Prepare() {
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

// Len 快照观测数量
func (m *LightManager) Len() int {
	m.snapshotMtx.RLock()
	defer m.snapshotMtx.RUnlock()
	return len(m.snapshot)
}

// Get 获取快照观测条目，越界时panic
func (m *LightManager) Get(index int) entity.Observation {
	m.snapshotMtx.RLock()
	defer m.snapshotMtx.RUnlock()
	if index < 0 || index >= len(m.snapshot) {
		log.Panicf("no light observation at index %d (len=%d)", index, len(m.snapshot))
	}
	return m.snapshot[index]
}
