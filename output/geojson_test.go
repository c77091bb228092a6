package output

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.fiblab.net/general/common/v2/geometry"

	"git.fiblab.net/sim/tldetector/clock"
	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/entity/camera"
	"git.fiblab.net/sim/tldetector/entity/detector"
	"git.fiblab.net/sim/tldetector/entity/ego"
	"git.fiblab.net/sim/tldetector/entity/light"
	"git.fiblab.net/sim/tldetector/entity/route"
	"git.fiblab.net/sim/tldetector/entity/stopline"
	"git.fiblab.net/sim/tldetector/utils/config"
)

type redClassifier struct{}

func (redClassifier) Classify(entity.Frame) entity.LightColor { return entity.ColorRed }

type geoCtx struct {
	ego   *ego.EgoManager
	route *route.RouteManager
	stop  *stopline.StopLineManager
	light *light.LightManager
	cam   *camera.CameraManager
	det   *detector.Detector
}

func (c *geoCtx) Clock() *clock.Clock                  { return nil }
func (c *geoCtx) Ego() entity.IEgoManager              { return c.ego }
func (c *geoCtx) Route() entity.IRouteManager          { return c.route }
func (c *geoCtx) StopLines() entity.IStopLineManager   { return c.stop }
func (c *geoCtx) Lights() entity.ILightManager         { return c.light }
func (c *geoCtx) Camera() entity.ICameraManager        { return c.cam }
func (c *geoCtx) Detector() entity.IDetector           { return c.det }
func (c *geoCtx) Classifier() entity.IClassifier       { return redClassifier{} }
func (c *geoCtx) RuntimeConfig() *config.RuntimeConfig { return nil }

func newGeoCtx() *geoCtx {
	ctx := &geoCtx{}
	ctx.ego = ego.NewManager(ctx)
	ctx.route = route.NewManager(ctx)
	ctx.stop = stopline.NewManager(ctx)
	ctx.light = light.NewManager(ctx)
	ctx.cam = camera.NewManager(ctx)
	ctx.det = detector.New(ctx)
	ctx.stop.Init([][]float64{{2, 0}})
	return ctx
}

func (c *geoCtx) cycle() {
	c.ego.Prepare()
	c.route.Prepare()
	c.light.Prepare()
	c.cam.Prepare()
	c.det.Prepare()
	c.det.Update()
}

func kinds(fc *geojson.FeatureCollection) map[string]*geojson.Feature {
	out := make(map[string]*geojson.Feature)
	for _, f := range fc.Features {
		out[f.Properties["kind"].(string)] = f
	}
	return out
}

func TestGeoJSONBeforeAnyData(t *testing.T) {
	ctx := newGeoCtx()
	fc := BuildDebugGeoJSON(ctx)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "stop_line", fc.Features[0].Properties["kind"])
}

func TestGeoJSONSnapshot(t *testing.T) {
	ctx := newGeoCtx()
	wps := make([]entity.Waypoint, 0, 5)
	for i := 0; i < 5; i++ {
		wps = append(wps, entity.Waypoint{Pose: entity.Pose{
			XYZ: geometry.Point{X: float64(i)},
		}})
	}
	ctx.route.Set(wps)
	ctx.light.Set([]entity.Observation{{ID: 1, XYZ: geometry.Point{X: 2}}})
	ctx.ego.Set(entity.Pose{XYZ: geometry.Point{X: 0}})
	ctx.cam.Set(entity.Frame{Data: []byte{1}})
	// four identical frames commit the red light, the fifth
	// prepare swaps the committed result into the snapshot
	for i := 0; i < 5; i++ {
		ctx.cycle()
	}

	fc := BuildDebugGeoJSON(ctx)
	got := kinds(fc)
	require.Contains(t, got, "route")
	require.Contains(t, got, "stop_line")
	require.Contains(t, got, "ego")
	require.Contains(t, got, "stop_waypoint")

	line := got["route"].Geometry.(orb.LineString)
	assert.Len(t, line, 5)
	assert.Equal(t, orb.Point{0, 0}, got["ego"].Geometry.(orb.Point))

	mark := got["stop_waypoint"]
	assert.Equal(t, orb.Point{1, 0}, mark.Geometry.(orb.Point))
	assert.Equal(t, 1, mark.Properties["waypoint"])
	assert.Equal(t, "RED", mark.Properties["stable_color"])
	assert.Equal(t, "RED", mark.Properties["raw_color"])
}

func TestDebugHandler(t *testing.T) {
	ctx := newGeoCtx()
	rr := httptest.NewRecorder()
	debugHandler(ctx)(rr, httptest.NewRequest(http.MethodGet, "/debug/geojson", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/geo+json", rr.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "FeatureCollection", body["type"])
}
