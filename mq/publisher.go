package mq

import (
	"encoding/json"
	"strconv"

	"git.fiblab.net/sim/tldetector/entity"
)

// 输出数据流的发布
// 说明：停车路径点是估计器的唯一生产输出；
// 其余发布方法供场景驱动端使用，路径与观测列表带retained标记，
// 晚启动的估计器也能立即收到

// PublishStopWaypoint 发布停车路径点下标
// 参数：wp-路径点下标，无目标时为-1
// 说明：载荷为十进制整数文本
func (cli *Client) PublishStopWaypoint(wp int32) error {
	return cli.publish(cli.topics.StopWaypoint, false, strconv.Itoa(int(wp)))
}

// PublishPose 发布自车位姿
func (cli *Client) PublishPose(p entity.Pose) error {
	data, err := json.Marshal(newPosePayload(p))
	if err != nil {
		return err
	}
	return cli.publish(cli.topics.Pose, false, data)
}

// PublishRoute 发布基准路径（retained）
func (cli *Client) PublishRoute(wps []entity.Waypoint) error {
	data, err := json.Marshal(newRoutePayload(wps))
	if err != nil {
		return err
	}
	return cli.publish(cli.topics.Route, true, data)
}

// PublishLights 发布信号灯观测列表（retained）
func (cli *Client) PublishLights(obs []entity.Observation) error {
	data, err := json.Marshal(newLightsPayload(obs))
	if err != nil {
		return err
	}
	return cli.publish(cli.topics.Lights, true, data)
}

// PublishFrame 发布一帧编码图像
func (cli *Client) PublishFrame(data []byte) error {
	return cli.publish(cli.topics.Image, false, data)
}
