package feeder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"

	"github.com/samber/lo"

	"git.fiblab.net/sim/tldetector/clock"
	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/utils/config"
	"git.fiblab.net/sim/tldetector/utils/input"
	"git.fiblab.net/sim/tldetector/utils/randengine"
)

// FramePublisher 驱动端的发布接口
type FramePublisher interface {
	PublishPose(p entity.Pose) error
	PublishRoute(wps []entity.Waypoint) error
	PublishLights(obs []entity.Observation) error
	PublishFrame(data []byte) error
}

// Feeder 场景驱动器
// 功能：沿预计算路径驱动一辆虚拟车，按固定周期发布位姿、
// 信号灯观测与合成相机图像
// 说明：作为估计端的数据源使用，全部发布内容只由地图与配置推导
type Feeder struct {
	c   *config.Feeder
	pub FramePublisher

	clock     *clock.Clock
	scn       *scenario
	generator *randengine.Engine

	quitCh   chan struct{}
	stopOnce sync.Once
}

// New 创建场景驱动器
// 功能：加载地图，规划路径并预计算行驶场景
// 参数：c-配置，cacheDir-地图缓存目录，pub-发布接口
func New(c config.Config, cacheDir string, pub FramePublisher) *Feeder {
	rc := config.NewRuntimeConfig(c)
	fc := rc.All.Feeder
	if fc == nil {
		log.Panicf("missing feeder section in config")
	}
	in := input.Init(rc.All, cacheDir)
	return &Feeder{
		c:         fc,
		pub:       pub,
		clock:     clock.New(rc.All.Control.Step),
		scn:       newScenario(fc, in.Map),
		generator: randengine.New(fc.Seed),
		quitCh:    make(chan struct{}),
	}
}

// Run 开始驱动
// 算法说明：
// 1. 导出停止线表（如配置）并发布一次基准路径
// 2. 按帧间隔循环：推进信号灯相位与行驶里程，
//    发布位姿、观测列表与合成图像
// 3. 到达路径终点后回到起点继续行驶，帧数达到上限或被Stop后退出
func (f *Feeder) Run() {
	f.clock.Init()
	if f.c.StopLinesFile != "" {
		if err := f.scn.ExportStopLines(f.c.StopLinesFile); err != nil {
			log.Errorf("failed to export stop lines: %v", err)
		} else {
			log.Infof("stop lines written to %s", f.c.StopLinesFile)
		}
	}
	if err := f.pub.PublishRoute(f.scn.waypoints); err != nil {
		log.Errorf("failed to publish route: %v", err)
	}
	log.Infof("path %.1fm, %d waypoints, %d stop lines",
		f.scn.path.Length(), len(f.scn.waypoints), len(f.scn.stops))

	ticker := time.NewTicker(time.Duration(f.clock.DT * float64(time.Second)))
	defer ticker.Stop()
	s := 0.
loop:
	for {
		select {
		case <-f.quitCh:
			break loop
		case <-ticker.C:
		}
		f.clock.Tick()
		f.scn.UpdateHeads(f.clock.DT)
		s += f.c.Speed * f.clock.DT
		if length := f.scn.path.Length(); s >= length {
			// 回到起点继续行驶
			s -= length
		}
		f.publishStep(s)
		if f.clock.Done() {
			break
		}
	}
	log.Infof("feeder complete")
}

// Stop 结束驱动，幂等
func (f *Feeder) Stop() {
	f.stopOnce.Do(func() { close(f.quitCh) })
}

// publishStep 发布一帧数据
// 说明：位姿带横向噪声，图像取前方最近信号灯的灯色，前方无灯时为灰色
func (f *Feeder) publishStep(s float64) {
	noise := f.c.NoiseStd * lo.Clamp(.5*f.generator.NormFloat64(), -1, 1)
	pose := entity.Pose{
		XYZ: f.scn.path.OffsetPositionByS(s, noise),
		Yaw: f.scn.path.DirectionByS(s).Direction,
	}
	if err := f.pub.PublishPose(pose); err != nil {
		log.Errorf("failed to publish pose: %v", err)
	}
	if err := f.pub.PublishLights(f.scn.Observations()); err != nil {
		log.Errorf("failed to publish lights: %v", err)
	}
	col := entity.ColorUnknown
	if st := f.scn.NextStop(s); st != nil {
		col = st.head.Color()
	}
	data, err := renderFrame(f.c.FrameWidth, f.c.FrameHeight, col)
	if err != nil {
		log.Errorf("failed to render frame: %v", err)
		return
	}
	if err := f.pub.PublishFrame(data); err != nil {
		log.Errorf("failed to publish frame: %v", err)
	}
}

// 灯色到合成图像填充色的映射，前方无灯时为灰色
var frameColors = map[entity.LightColor]color.RGBA{
	entity.ColorRed:     {R: 230, G: 30, B: 30, A: 255},
	entity.ColorYellow:  {R: 230, G: 200, B: 30, A: 255},
	entity.ColorGreen:   {R: 30, G: 200, B: 60, A: 255},
	entity.ColorUnknown: {R: 128, G: 128, B: 128, A: 255},
}

// renderFrame 合成一帧纯色JPEG图像
func renderFrame(w, h int, c entity.LightColor) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := frameColors[c]
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
