package task

import (
	"sync"
	"sync/atomic"

	"git.fiblab.net/sim/syncer/v3"

	"git.fiblab.net/sim/tldetector/classifier"
	"git.fiblab.net/sim/tldetector/clock"
	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/entity/camera"
	"git.fiblab.net/sim/tldetector/entity/detector"
	"git.fiblab.net/sim/tldetector/entity/ego"
	"git.fiblab.net/sim/tldetector/entity/light"
	"git.fiblab.net/sim/tldetector/entity/route"
	"git.fiblab.net/sim/tldetector/entity/stopline"
	"git.fiblab.net/sim/tldetector/output"
	"git.fiblab.net/sim/tldetector/utils/config"
)

// Context 估计任务上下文
// 功能：包含一次估计任务的所有变量和状态，替代原来的全局变量
// 说明：管理估计器的所有组件，包括时钟、各数据流管理器、配置、输出等
type Context struct {

	// 任务名
	job string
	// 关闭指令
	closed atomic.Bool
	// 停止请求
	quitCh   chan struct{}
	stopOnce sync.Once

	// 时钟
	clock *clock.Clock

	// 辅助程序，处理分布式模式下相关调用，包括与syncer、其他服务的交互
	sidecar *syncer.Sidecar
	// sidecar close channel
	sidecarCloseCh chan struct{}
	// sidecar服务协程是否已启动
	serving bool

	// 自车位姿管理器
	egoManager entity.IEgoManager
	// 基准路径管理器
	routeManager entity.IRouteManager
	// 停止线管理器
	stopLineManager entity.IStopLineManager
	// 信号灯观测管理器
	lightManager entity.ILightManager
	// 相机帧管理器
	cameraManager entity.ICameraManager
	// 停车路径点估计器
	detector entity.IDetector
	// 灯色分类器
	classifier entity.IClassifier

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// 停车路径点发布端
	pub Publisher
	// 估计记录落库端，nil表示不落库
	recorder *output.Recorder
}

// NewContext 创建新的估计任务上下文
// 功能：初始化估计器的所有组件和配置
// 参数：
//   - job: 任务名称
//   - c: 配置对象
//   - sidecar: sidecar实例，nil表示不提供RPC服务
//   - pub: 停车路径点发布端
//   - startSidecarServe: 是否启动sidecar服务
//
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 创建Context实例并设置基本属性
// 2. 初始化运行时配置、时钟与落库端
// 3. 创建各数据流管理器、估计器与分类器
// 4. 注册RPC服务与调试接口到sidecar
// 5. 启动sidecar服务（如果需要）
func NewContext(
	job string,
	c config.Config,
	sidecar *syncer.Sidecar,
	pub Publisher,
	startSidecarServe bool,
) *Context {
	ctx := &Context{
		job:            job,
		quitCh:         make(chan struct{}),
		sidecar:        sidecar,
		sidecarCloseCh: make(chan struct{}),
		pub:            pub,
	}
	// 先补齐缺省值，时钟间隔与落库批量都来自补齐后的配置
	ctx.runtimeConfig = config.NewRuntimeConfig(c)
	ctx.clock = clock.New(ctx.runtimeConfig.C.Step)
	ctx.recorder = output.NewRecorder(ctx.runtimeConfig.All.Output)

	// 新建各类估计对象
	ctx.egoManager = ego.NewManager(ctx)
	ctx.routeManager = route.NewManager(ctx)
	ctx.stopLineManager = stopline.NewManager(ctx)
	ctx.lightManager = light.NewManager(ctx)
	ctx.cameraManager = camera.NewManager(ctx)
	ctx.detector = detector.New(ctx)
	ctx.classifier = classifier.New()

	if sidecar != nil {
		ctx.clock.Register(sidecar)
		ctx.lightManager.Register(sidecar)
		output.RegisterDebugGeoJSON(sidecar, ctx)

		// sidecar协程，用于提供gRPC服务
		if startSidecarServe {
			ctx.serving = true
			go func() {
				err := sidecar.Serve()
				if err != nil {
					log.Panicf("failed to serve: %v", err)
				}
				ctx.sidecarCloseCh <- struct{}{}
			}()
		}
	}

	return ctx
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Ego() entity.IEgoManager {
	return ctx.egoManager
}

func (ctx *Context) Route() entity.IRouteManager {
	return ctx.routeManager
}

func (ctx *Context) StopLines() entity.IStopLineManager {
	return ctx.stopLineManager
}

func (ctx *Context) Lights() entity.ILightManager {
	return ctx.lightManager
}

func (ctx *Context) Camera() entity.ICameraManager {
	return ctx.cameraManager
}

func (ctx *Context) Detector() entity.IDetector {
	return ctx.detector
}

func (ctx *Context) Classifier() entity.IClassifier {
	return ctx.classifier
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Init() {
	ctx.clock.Init()

	// 停止线表来自配置，路径、观测与图像经MQTT到达
	ctx.stopLineManager.Init(ctx.runtimeConfig.All.TrafficLight.StopLines)

	log.Infof("StopLine: %v", ctx.stopLineManager.Len())
}

func (ctx *Context) Close() {
	if ctx.closed.Load() {
		return
	}
	if ctx.recorder != nil {
		ctx.recorder.Close()
	}
	if ctx.sidecar != nil {
		ctx.sidecar.Close()
		if ctx.serving {
			// wait for graceful stop
			<-ctx.sidecarCloseCh
		}
	}
	ctx.closed.Store(true)
}
