package mq

import (
	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"

	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/utils/geoutil"
)

// MQTT消息的JSON载荷定义与实体转换

// orientationPayload 姿态四元数
type orientationPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// posePayload 自车位姿消息
type posePayload struct {
	X           float64            `json:"x"`
	Y           float64            `json:"y"`
	Z           float64            `json:"z"`
	Orientation orientationPayload `json:"orientation"`
}

func newPosePayload(p entity.Pose) posePayload {
	x, y, z, w := geoutil.QuaternionFromYaw(p.Yaw)
	return posePayload{
		X: p.XYZ.X, Y: p.XYZ.Y, Z: p.XYZ.Z,
		Orientation: orientationPayload{X: x, Y: y, Z: z, W: w},
	}
}

func (p posePayload) toPose() entity.Pose {
	o := p.Orientation
	return entity.Pose{
		XYZ: geometry.Point{X: p.X, Y: p.Y, Z: p.Z},
		Yaw: geoutil.YawFromQuaternion(o.X, o.Y, o.Z, o.W),
	}
}

// waypointPayload 单个路径点
// 说明：路径点直接携带偏航角，不再经过四元数
type waypointPayload struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	Yaw float64 `json:"yaw"`
}

// routePayload 基准路径消息
type routePayload struct {
	Waypoints []waypointPayload `json:"waypoints"`
}

func newRoutePayload(wps []entity.Waypoint) routePayload {
	return routePayload{Waypoints: lo.Map(wps, func(wp entity.Waypoint, _ int) waypointPayload {
		return waypointPayload{X: wp.XYZ.X, Y: wp.XYZ.Y, Z: wp.XYZ.Z, Yaw: wp.Yaw}
	})}
}

func (p routePayload) toWaypoints() []entity.Waypoint {
	return lo.Map(p.Waypoints, func(wp waypointPayload, _ int) entity.Waypoint {
		return entity.Waypoint{Pose: entity.Pose{
			XYZ: geometry.Point{X: wp.X, Y: wp.Y, Z: wp.Z},
			Yaw: wp.Yaw,
		}}
	})
}

// lightPayload 单个信号灯观测
type lightPayload struct {
	ID    int32   `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	State string  `json:"state"` // RED/YELLOW/GREEN/UNKNOWN
}

// lightsPayload 信号灯观测列表消息
type lightsPayload struct {
	Lights []lightPayload `json:"lights"`
}

func newLightsPayload(obs []entity.Observation) lightsPayload {
	return lightsPayload{Lights: lo.Map(obs, func(o entity.Observation, _ int) lightPayload {
		return lightPayload{
			ID: o.ID, X: o.XYZ.X, Y: o.XYZ.Y, Z: o.XYZ.Z,
			State: o.GroundTruth.String(),
		}
	})}
}

func (p lightsPayload) toObservations() []entity.Observation {
	return lo.Map(p.Lights, func(l lightPayload, _ int) entity.Observation {
		return entity.Observation{
			ID:          l.ID,
			XYZ:         geometry.Point{X: l.X, Y: l.Y, Z: l.Z},
			GroundTruth: entity.ParseLightColor(l.State),
		}
	})
}
