package mq

import (
	"encoding/json"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"git.fiblab.net/sim/tldetector/entity"
)

// 输入数据流的订阅与解析
// 说明：回调在底层客户端的协程中执行，只做解析并写入各管理器的缓冲，
// 解析失败的消息记日志后丢弃，不影响已有状态

// RegisterFeeds 登记全部输入数据流的订阅
// 参数：tc-任务上下文，回调将数据写入其中的管理器
func (cli *Client) RegisterFeeds(tc entity.ITaskContext) {
	cli.Subscribe(cli.topics.Pose, cli.poseHandler(tc))
	cli.Subscribe(cli.topics.Route, cli.routeHandler(tc))
	cli.Subscribe(cli.topics.Lights, cli.lightsHandler(tc))
	cli.Subscribe(cli.topics.Image, cli.imageHandler(tc))
}

// poseHandler 位姿消息回调
// 说明：四元数在接收时转换为偏航角
func (cli *Client) poseHandler(tc entity.ITaskContext) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var p posePayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Warnf("drop bad pose message on %s: %v", msg.Topic(), err)
			return
		}
		tc.Ego().Set(p.toPose())
	}
}

// routeHandler 基准路径消息回调
func (cli *Client) routeHandler(tc entity.ITaskContext) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var p routePayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Warnf("drop bad route message on %s: %v", msg.Topic(), err)
			return
		}
		wps := p.toWaypoints()
		log.Debugf("route replaced with %d waypoints", len(wps))
		tc.Route().Set(wps)
	}
}

// lightsHandler 信号灯观测消息回调
// 说明：非空列表长度与停止线表不一致时管理器直接panic，
// 这是启动配置错误，不做恢复
func (cli *Client) lightsHandler(tc entity.ITaskContext) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var p lightsPayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Warnf("drop bad lights message on %s: %v", msg.Topic(), err)
			return
		}
		tc.Lights().Set(p.toObservations())
	}
}

// imageHandler 相机图像回调
// 说明：载荷为编码图像原始字节，不在回调中解码
func (cli *Client) imageHandler(tc entity.ITaskContext) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		data := msg.Payload()
		if len(data) == 0 {
			log.Warnf("drop empty image message on %s", msg.Topic())
			return
		}
		tc.Camera().Set(entity.Frame{Data: data})
	}
}
