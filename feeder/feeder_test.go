package feeder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.fiblab.net/sim/tldetector/classifier"
	"git.fiblab.net/sim/tldetector/clock"
	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/utils/config"
	"git.fiblab.net/sim/tldetector/utils/randengine"
)

// recordPub collects everything the feeder publishes
type recordPub struct {
	routes  [][]entity.Waypoint
	poses   []entity.Pose
	lights  [][]entity.Observation
	frames  [][]byte
	frameCh chan struct{}
}

func newRecordPub() *recordPub {
	return &recordPub{frameCh: make(chan struct{}, 64)}
}

func (p *recordPub) PublishPose(pose entity.Pose) error {
	p.poses = append(p.poses, pose)
	return nil
}

func (p *recordPub) PublishRoute(wps []entity.Waypoint) error {
	p.routes = append(p.routes, wps)
	return nil
}

func (p *recordPub) PublishLights(obs []entity.Observation) error {
	p.lights = append(p.lights, obs)
	return nil
}

func (p *recordPub) PublishFrame(data []byte) error {
	p.frames = append(p.frames, data)
	select {
	case p.frameCh <- struct{}{}:
	default:
	}
	return nil
}

func newTestFeeder(pub FramePublisher, step config.ControlStep, speed float64) *Feeder {
	fc := testFeederConfig()
	fc.Speed = speed
	return &Feeder{
		c:         fc,
		pub:       pub,
		clock:     clock.New(step),
		scn:       buildScenario(fc, newTestMap(), []int32{100, 200}),
		generator: randengine.New(1),
		quitCh:    make(chan struct{}),
	}
}

func TestFeederRunBounded(t *testing.T) {
	pub := newRecordPub()
	f := newTestFeeder(pub, config.ControlStep{Total: 3, Interval: .01}, 10)

	done := make(chan struct{})
	go func() {
		f.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feeder did not finish at the frame limit")
	}

	// route once, then one pose/lights/frame per tick
	require.Len(t, pub.routes, 1)
	assert.Len(t, pub.routes[0], 101)
	require.Len(t, pub.poses, 3)
	require.Len(t, pub.lights, 3)
	require.Len(t, pub.frames, 3)

	// 10 m/s at 0.01 s per tick
	assert.InDelta(t, .1, pub.poses[0].XYZ.X, 1e-9)
	assert.InDelta(t, .3, pub.poses[2].XYZ.X, 1e-9)
	assert.InDelta(t, 0, pub.poses[0].Yaw, 1e-9)

	// the junction light starts red and is visible ahead
	assert.Equal(t, entity.ColorRed, pub.lights[0][0].GroundTruth)
	assert.Equal(t, entity.ColorRed, classifier.New().Classify(entity.Frame{Data: pub.frames[0], Seq: 1}))
}

func TestFeederLoopsRoute(t *testing.T) {
	pub := newRecordPub()
	// 60 m per tick on a 100 m path
	f := newTestFeeder(pub, config.ControlStep{Total: 2, Interval: .01}, 6000)

	done := make(chan struct{})
	go func() {
		f.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feeder did not finish at the frame limit")
	}

	require.Len(t, pub.poses, 2)
	assert.InDelta(t, 60, pub.poses[0].XYZ.X, 1e-9)
	// wraps back to the start of the path
	assert.InDelta(t, 20, pub.poses[1].XYZ.X, 1e-9)
}

func TestFeederStop(t *testing.T) {
	pub := newRecordPub()
	// no frame limit
	f := newTestFeeder(pub, config.ControlStep{Total: 0, Interval: .01}, 10)

	done := make(chan struct{})
	go func() {
		f.Run()
		close(done)
	}()
	// wait for a couple of frames before stopping
	for i := 0; i < 2; i++ {
		select {
		case <-pub.frameCh:
		case <-time.After(2 * time.Second):
			t.Fatal("no frame published")
		}
	}
	f.Stop()
	f.Stop() // idempotent
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feeder did not stop")
	}
	assert.GreaterOrEqual(t, len(pub.frames), 2)
}

func TestRenderFrameClassifiable(t *testing.T) {
	cls := classifier.New()
	for _, tc := range []struct {
		color entity.LightColor
	}{
		{entity.ColorRed},
		{entity.ColorYellow},
		{entity.ColorGreen},
	} {
		data, err := renderFrame(64, 48, tc.color)
		require.NoError(t, err)
		assert.Equal(t, tc.color, cls.Classify(entity.Frame{Data: data, Seq: 1}))
	}

	// no visible light renders gray, which classifies as unknown
	data, err := renderFrame(64, 48, entity.ColorUnknown)
	require.NoError(t, err)
	assert.Equal(t, entity.ColorUnknown, cls.Classify(entity.Frame{Data: data, Seq: 1}))
}
