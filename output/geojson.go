package output

import (
	"net/http"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/syncer/v3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"git.fiblab.net/sim/tldetector/entity"
)

// DebugServiceName 调试接口在sidecar中的注册名
const DebugServiceName = "city.tldetector.debug"

// RegisterDebugGeoJSON 注册调试用GeoJSON接口
// 功能：在/debug/geojson输出当前快照的FeatureCollection，
// 包含基准路径、停止线、自车位姿与最近一次估计，便于在地图工具中查看
func RegisterDebugGeoJSON(sidecar *syncer.Sidecar, tc entity.ITaskContext) {
	sidecar.Register(
		DebugServiceName,
		func(opts ...connect.HandlerOption) (pattern string, handler http.Handler) {
			return "/debug/geojson", debugHandler(tc)
		},
		syncer.WithNoLock(),
	)
}

// debugHandler 生成GeoJSON响应的HTTP处理器
func debugHandler(tc entity.ITaskContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := BuildDebugGeoJSON(tc).MarshalJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write(data)
	}
}

// BuildDebugGeoJSON 组装当前快照的FeatureCollection
// 说明：各管理器的快照读取自带读锁，与处理循环并发安全
func BuildDebugGeoJSON(tc entity.ITaskContext) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	wps := tc.Route().Waypoints()
	if len(wps) > 0 {
		line := make(orb.LineString, 0, len(wps))
		for _, wp := range wps {
			line = append(line, orb.Point{wp.XYZ.X, wp.XYZ.Y})
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "route"
		f.Properties["waypoints"] = len(wps)
		fc.Append(f)
	}

	for i, p := range tc.StopLines().Positions() {
		f := geojson.NewFeature(orb.Point{p.X, p.Y})
		f.Properties["kind"] = "stop_line"
		f.Properties["index"] = i
		fc.Append(f)
	}

	if p, ok := tc.Ego().Pose(); ok {
		f := geojson.NewFeature(orb.Point{p.XYZ.X, p.XYZ.Y})
		f.Properties["kind"] = "ego"
		f.Properties["yaw"] = p.Yaw
		fc.Append(f)
	}

	raw, published, stable := tc.Detector().LastResult()
	if published >= 0 && int(published) < len(wps) {
		f := geojson.NewFeature(orb.Point{wps[published].XYZ.X, wps[published].XYZ.Y})
		f.Properties["kind"] = "stop_waypoint"
		f.Properties["waypoint"] = int(published)
		f.Properties["stable_color"] = stable.String()
		f.Properties["raw_waypoint"] = int(raw.Waypoint)
		f.Properties["raw_color"] = raw.Color.String()
		fc.Append(f)
	}

	return fc
}
