package ego

import (
	"sync"

	"git.fiblab.net/sim/tldetector/entity"
)

// EgoManager 自车位姿管理器
// 功能：接收异步到达的位姿消息，在准备阶段换入快照供一帧内一致读取
// 说明：位姿为整体替换语义，两帧之间多次写入只保留最后一次
type EgoManager struct {
	ctx entity.ITaskContext

	bufferMtx sync.Mutex
	buffer    *entity.Pose // 未消费的最新位姿，nil表示无新数据

	snapshotMtx sync.RWMutex // 保护快照，调试接口在帧间并发读取
	snapshot    entity.Pose
	has         bool // 是否已收到过位姿
}

// NewManager 创建自车位姿管理器
func NewManager(ctx entity.ITaskContext) *EgoManager {
	return &EgoManager{ctx: ctx}
}

// Set 写入最新位姿
// 说明：只写缓冲，Prepare后对读取方可见
func (m *EgoManager) Set(p entity.Pose) {
	m.bufferMtx.Lock()
	m.buffer = &p
	m.bufferMtx.Unlock()
}

// Prepare 准备阶段，将缓冲中的位姿换入快照
// 说明：没有新数据时保持上一帧快照不变
func (m *EgoManager) Prepare() {
	m.bufferMtx.Lock()
	defer m.bufferMtx.Unlock()
	if m.buffer != nil {
		m.snapshotMtx.Lock()
		m.snapshot = *m.buffer
		m.has = true
		m.snapshotMtx.Unlock()
		m.buffer = nil
	}
}

// Pose 读取快照位姿
// 返回：快照位姿与是否有效，ok为false表示尚未收到任何位姿
func (m *EgoManager) Pose() (p entity.Pose, ok bool) {
	m.snapshotMtx.RLock()
	defer m.snapshotMtx.RUnlock()
	return m.snapshot, m.has
}
