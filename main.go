package main

import (
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"git.fiblab.net/sim/syncer/v3"
	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"git.fiblab.net/sim/tldetector/feeder"
	"git.fiblab.net/sim/tldetector/mq"
	"git.fiblab.net/sim/tldetector/task"
	"git.fiblab.net/sim/tldetector/utils/config"
)

var (
	// 运行模式：estimate消费数据流并发布停车路径点，drive从地图生成场景数据流
	mode = flag.String("mode", "estimate", "run mode (estimate or drive)")
	// 分布式模式syncer地址，如果设置为空则激活独立部署模式
	// 独立部署：不需要syncer，不向其他服务提供受保护的RPC访问
	syncerAddr = flag.String("syncer", "", "syncer address (empty means standalone mode), e.g. http://localhost:53001")
	// 模拟任务名，主要用于etcd中服务注册与MQTT客户端标识前缀
	job = flag.String("job", "job0", "the name of the whole simulation task")
	// 本程序监听的gRPC地址
	grpcAddr = flag.String("listen", ":51102", "gRPC listening address")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 数据加载input的缓存地址，设置为空则禁用缓存功能
	// 缓存：将proto数据根据数据库db和col序列化到本地文件系统，并总是先试图从文件系统中加载
	cacheDir = flag.String("cache", "data/", "input cache dir path (empty means disable cache)")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "tldetector")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", c)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	switch *mode {
	case "estimate":
		sidecar := syncer.NewSidecar(task.SelfName, *grpcAddr, *syncerAddr)
		mqCli := mq.New(c.Mq, task.SelfName+"."+*job)
		if err := mqCli.Connect(); err != nil {
			log.Panicf("mqtt connect err: %v", err)
		}
		t := task.NewContext(*job, c, sidecar, mqCli, true)
		mqCli.RegisterFeeds(t)
		go func() {
			<-sigCh
			t.Stop()
		}()
		t.Run()
		mqCli.Close()
	case "drive":
		mqCli := mq.New(c.Mq, task.SelfName+"."+*job+".feeder")
		if err := mqCli.Connect(); err != nil {
			log.Panicf("mqtt connect err: %v", err)
		}
		f := feeder.New(c, *cacheDir, mqCli)
		go func() {
			<-sigCh
			f.Stop()
		}()
		f.Run()
		mqCli.Close()
	default:
		log.Panicf("mode must be estimate or drive, got %s", *mode)
	}
}
