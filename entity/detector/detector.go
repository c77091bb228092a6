package detector

import (
	"sync"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/mathutil"

	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/utils/geoutil"
)

// detectorRuntime 估计器运行时数据
// 说明：供调试接口读取的快照载荷
type detectorRuntime struct {
	raw       entity.Estimate   // 本帧原始估计
	published int32             // 本帧对外发布的路径点下标
	stable    entity.LightColor // 去抖后被采信的颜色
	candidate *geometry.Point   // 候选灯位缓存（当前逼近的停止线位置）
}

// Detector 停车路径点估计器
// 功能：每帧执行一轮估计，定位前方最近停止线对应的路径点并分类灯色，
// 结果经去抖后对外发布
// 说明：读取各管理器的帧内快照，自身状态在准备阶段换入快照供调试读取
type Detector struct {
	ctx entity.ITaskContext

	deb debounce

	runtime     detectorRuntime
	snapshot    detectorRuntime
	snapshotMtx sync.RWMutex // 调试读取与处理循环并发
}

// New 创建估计器
func New(ctx entity.ITaskContext) *Detector {
	rt := detectorRuntime{
		raw:       entity.Estimate{Waypoint: -1, Color: entity.ColorUnknown},
		published: -1,
	}
	return &Detector{
		ctx:      ctx,
		deb:      newDebounce(),
		runtime:  rt,
		snapshot: rt,
	}
}

// Prepare 准备阶段，将运行时状态换入快照
func (d *Detector) Prepare() {
	d.snapshotMtx.Lock()
	d.snapshot = d.runtime
	d.snapshotMtx.Unlock()
}

// Update 更新阶段，执行一轮估计与去抖
// 返回：本帧原始估计与对外发布的路径点下标
func (d *Detector) Update() (raw entity.Estimate, published int32) {
	raw = d.process()
	published = d.deb.apply(raw.Waypoint, raw.Color)
	d.runtime.raw = raw
	d.runtime.published = published
	d.runtime.stable = d.deb.stable
	log.Debugf("raw %v -> publish %d", raw, published)
	return raw, published
}

// LastResult 读取最近一轮的快照结果
func (d *Detector) LastResult() (raw entity.Estimate, published int32, stable entity.LightColor) {
	d.snapshotMtx.RLock()
	defer d.snapshotMtx.RUnlock()
	return d.snapshot.raw, d.snapshot.published, d.snapshot.stable
}

// process 执行一轮原始估计
// 返回：前方最近红绿灯对应的停车路径点下标与灯色，无可报告目标时为(-1, 未知)
// 算法说明：
// 1. 路径或观测列表为空时直接返回(-1, 未知)，缺数据不做几何计算
// 2. 求自车位姿的最近路径点，尚无位姿时取下标0作为冷启动回退
// 3. 在自车路径点前方的停止线中取距离最近者，前方没有停止线则返回(-1, 未知)
// 4. 对选中的停止线，在其后方的路径点（停止线仍在该点前方）中取距离最近者，
//    即进入停止线前的最后一个路径点
// 5. 用分类器对当前帧取灯色，从未收到过图像时返回未知并清空候选灯位缓存
func (d *Detector) process() entity.Estimate {
	none := entity.Estimate{Waypoint: -1, Color: entity.ColorUnknown}
	routeMan := d.ctx.Route()
	lights := d.ctx.Lights()
	stopLines := d.ctx.StopLines()
	if routeMan.Empty() || lights.Len() == 0 {
		return none
	}

	carIdx := 0
	if pose, ok := d.ctx.Ego().Pose(); ok {
		carIdx = routeMan.ClosestWaypoint(pose.XYZ)
	}
	wps := routeMan.Waypoints()
	carWp := wps[carIdx]

	// 自车路径点前方距离最近的停止线
	stopIdx := -1
	minDist := mathutil.INF
	for i := 0; i < stopLines.Len(); i++ {
		pos := stopLines.Get(i)
		if !carWp.IsAheadOf(pos) {
			continue
		}
		if dist := geoutil.Distance2D(carWp.XYZ, pos); dist < minDist {
			minDist = dist
			stopIdx = i
		}
	}
	if stopIdx < 0 {
		return none
	}

	// 停止线前的最后一个路径点
	stopPos := stopLines.Get(stopIdx)
	lightWp := -1
	minDist = mathutil.INF
	for i, wp := range wps {
		if !wp.IsAheadOf(stopPos) {
			continue
		}
		if dist := geoutil.Distance2D(wp.XYZ, stopPos); dist < minDist {
			minDist = dist
			lightWp = i
		}
	}
	if lightWp < 0 {
		return none
	}

	return entity.Estimate{
		Waypoint: int32(lightWp),
		Color:    d.lightState(stopPos),
	}
}

// lightState 取当前帧的灯色
// 说明：从未收到过图像时清空候选灯位缓存并返回未知，
// 等图像到达后重新评估
func (d *Detector) lightState(stopPos geometry.Point) entity.LightColor {
	frame, ok := d.ctx.Camera().Frame()
	if !ok {
		d.runtime.candidate = nil
		return entity.ColorUnknown
	}
	d.runtime.candidate = &stopPos
	return d.ctx.Classifier().Classify(frame)
}
