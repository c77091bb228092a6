package task

import (
	"flag"
	"sync"

	"git.fiblab.net/sim/tldetector/output"
)

const (
	SelfName = "tldetector" // 本程序在模拟任务集群中的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔帧数")
)

// Publisher 停车路径点的发布端
type Publisher interface {
	PublishStopWaypoint(wp int32) error
}

// prepare 准备阶段，每帧执行一次
// 功能：推进时钟并将各数据流的缓冲换入快照
// 算法说明：
// 1. 更新时钟：帧号加1并计算当前时间
// 2. 心跳日志：定期输出帧号与时间
// 3. 并行准备：并发执行各个管理器的准备操作
//   - 自车位姿管理器：换入最新位姿
//   - 基准路径管理器：换入待生效的路径替换
//   - 信号灯观测管理器：换入最新观测列表
//   - 相机帧管理器：换入最新图像帧
//
// 说明：确保所有数据流在更新阶段前落在同一帧快照上
func (ctx *Context) prepare() {
	ctx.clock.Tick()

	if ctx.clock.Step%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		log.Infof(
			"STEP: %d(%d:%d:%.2f)",
			ctx.clock.Step,
			hour, minute, second,
		)
	}

	// Prepare
	var wg sync.WaitGroup

	{
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.egoManager.Prepare() // ego
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.routeManager.Prepare() // route
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.lightManager.Prepare() // light
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.cameraManager.Prepare() // camera
		}()
		wg.Wait()
	}
	// 估计器快照依赖上一帧结果，在管理器之后换入
	ctx.detector.Prepare()
}

// update 更新阶段，每帧执行一次
// 功能：执行一轮估计并对外发布结果
// 算法说明：
// 1. 估计器执行一轮估计与去抖
// 2. 发布停车路径点下标
// 3. 落库本帧记录（如启用）
func (ctx *Context) update() {
	raw, published := ctx.detector.Update()

	if err := ctx.pub.PublishStopWaypoint(published); err != nil {
		log.Errorf("publish stop waypoint: %v", err)
	}

	if ctx.recorder != nil {
		f, _ := ctx.cameraManager.Frame()
		ctx.recorder.Record(output.EstimateDoc{
			Step:        ctx.clock.Step,
			T:           ctx.clock.T,
			FrameSeq:    f.Seq,
			RawWaypoint: raw.Waypoint,
			RawColor:    raw.Color.String(),
			Published:   published,
		})
	}
}

// Run 运行
// 功能：帧驱动的主循环，相机到帧才推进一帧
// 说明：处理完配置的帧数上限或收到停止请求后退出；
// 不参与sidecar的步进屏障，注册的RPC服务只作查询
func (ctx *Context) Run() {
	// 初始化
	ctx.Init()
loop:
	for !ctx.closed.Load() {
		select {
		case <-ctx.cameraManager.Notify():
		case <-ctx.quitCh:
			break loop
		}
		ctx.prepare()
		log.Debugf("step %d: prepare complete", ctx.clock.Step)
		ctx.update()
		log.Debugf("step %d: update complete", ctx.clock.Step)
		if ctx.clock.Done() {
			break
		}
	}
	log.Infof("estimator complete")
	ctx.Close()
}

// Stop 请求主循环退出
// 说明：可从信号处理等其他协程调用，多次调用只生效一次
func (ctx *Context) Stop() {
	ctx.stopOnce.Do(func() {
		close(ctx.quitCh)
	})
}
