package stopline

import (
	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"

	"git.fiblab.net/sim/tldetector/entity"
)

// StopLineManager 停止线表管理器
// 功能：加载并保存受监控路口的停止线位置，启动后只读
// 说明：表中下标与信号灯观测列表的下标一一对应
type StopLineManager struct {
	ctx entity.ITaskContext

	positions []geometry.Point
}

// NewManager 创建停止线表管理器
func NewManager(ctx entity.ITaskContext) *StopLineManager {
	return &StopLineManager{ctx: ctx}
}

// Init 初始化停止线表
// 参数：rows-配置中的停止线坐标，每行为[x y]
// 说明：行格式错误属于配置错误，直接panic终止启动
func (m *StopLineManager) Init(rows [][]float64) {
	m.positions = lo.Map(rows, func(row []float64, i int) geometry.Point {
		if len(row) != 2 {
			log.Panicf("bad stop line row %d: expect [x y], got %v", i, row)
		}
		return geometry.Point{X: row[0], Y: row[1]}
	})
	log.Debugf("load %d stop lines", len(m.positions))
}

// Get 获取停止线位置，越界时panic
func (m *StopLineManager) Get(index int) geometry.Point {
	if index < 0 || index >= len(m.positions) {
		log.Panicf("no stop line at index %d (len=%d)", index, len(m.positions))
	}
	return m.positions[index]
}

// Len 停止线数量
func (m *StopLineManager) Len() int {
	return len(m.positions)
}

// Positions 获取所有停止线位置
func (m *StopLineManager) Positions() []geometry.Point {
	return m.positions
}
