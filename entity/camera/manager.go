package camera

import (
	"sync"

	"git.fiblab.net/sim/tldetector/entity"
)

// CameraManager 相机帧管理器
// 功能：接收异步到达的图像帧，在准备阶段换入快照，并向处理循环发出到帧通知
// 说明：帧为最新优先语义，一帧处理期间到达的多帧只保留最后一帧；
// 收到过图像的标记一旦置位不再清除
type CameraManager struct {
	ctx entity.ITaskContext

	bufferMtx sync.Mutex
	buffer    *entity.Frame
	seq       uint64 // 接收序号，随每次Set递增

	snapshot entity.Frame
	has      bool // 是否收到过图像

	notifyCh chan struct{}
}

// NewManager 创建相机帧管理器
func NewManager(ctx entity.ITaskContext) *CameraManager {
	return &CameraManager{
		ctx:      ctx,
		notifyCh: make(chan struct{}, 1),
	}
}

// Set 写入最新一帧
// 说明：只写缓冲，Prepare后对读取方可见；
// 通知通道容量为1，处理循环尚未取走通知时新帧只合并不阻塞
func (m *CameraManager) Set(f entity.Frame) {
	m.bufferMtx.Lock()
	m.seq++
	f.Seq = m.seq
	m.buffer = &f
	m.bufferMtx.Unlock()
	select {
	case m.notifyCh <- struct{}{}:
	default:
	}
}

// Prepare 准备阶段，将缓冲中的帧换入快照
// 说明：没有新帧时保持上一帧快照不变
func (m *CameraManager) Prepare() {
	m.bufferMtx.Lock()
	defer m.bufferMtx.Unlock()
	if m.buffer != nil {
		m.snapshot = *m.buffer
		m.has = true
		m.buffer = nil
	}
}

// Frame 读取快照帧
// 返回：快照帧与是否有效，ok为false表示从未收到过图像
func (m *CameraManager) Frame() (f entity.Frame, ok bool) {
	return m.snapshot, m.has
}

// Notify 帧到达通知通道
func (m *CameraManager) Notify() <-chan struct{} {
	return m.notifyCh
}
