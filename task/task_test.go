package task_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.fiblab.net/general/common/v2/geometry"

	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/task"
	"git.fiblab.net/sim/tldetector/utils/config"
)

// capturePub hands every published index to the test goroutine
type capturePub struct {
	ch chan int32
}

func (p *capturePub) PublishStopWaypoint(wp int32) error {
	p.ch <- wp
	return nil
}

func redJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 230, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func recv(t *testing.T, ch <-chan int32) int32 {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a published stop waypoint")
		return 0
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not exit")
	}
}

func baseConfig() config.Config {
	return config.Config{
		Control:      config.Control{Step: config.ControlStep{Interval: .1}},
		TrafficLight: config.TrafficLight{StopLines: [][]float64{{2, 0}}},
	}
}

func TestRunPublishesPerFrame(t *testing.T) {
	pub := &capturePub{ch: make(chan int32, 16)}
	ctx := task.NewContext("test", baseConfig(), nil, pub, false)

	// feed before starting, Run re-runs Init without losing the buffers
	ctx.Init()
	wps := make([]entity.Waypoint, 0, 5)
	for i := 0; i < 5; i++ {
		wps = append(wps, entity.Waypoint{Pose: entity.Pose{
			XYZ: geometry.Point{X: float64(i)},
		}})
	}
	ctx.Route().Set(wps)
	ctx.Lights().Set([]entity.Observation{{ID: 1, XYZ: geometry.Point{X: 2}}})
	ctx.Ego().Set(entity.Pose{XYZ: geometry.Point{X: 0}})

	done := make(chan struct{})
	go func() {
		ctx.Run()
		close(done)
	}()

	frame := entity.Frame{Data: redJPEG(t)}
	var got []int32
	for i := 0; i < 4; i++ {
		ctx.Camera().Set(frame)
		got = append(got, recv(t, pub.ch))
	}
	// the red light is committed on the fourth identical frame
	assert.Equal(t, []int32{-1, -1, -1, 1}, got)

	ctx.Stop()
	waitDone(t, done)
}

func TestRunStopsAtFrameLimit(t *testing.T) {
	cfg := baseConfig()
	cfg.Control.Step.Total = 2
	pub := &capturePub{ch: make(chan int32, 16)}
	ctx := task.NewContext("test", cfg, nil, pub, false)

	done := make(chan struct{})
	go func() {
		ctx.Run()
		close(done)
	}()

	frame := entity.Frame{Data: redJPEG(t)}
	for i := 0; i < 2; i++ {
		ctx.Camera().Set(frame)
		// nothing fed but frames, the estimator reports no target
		assert.Equal(t, int32(-1), recv(t, pub.ch))
	}
	// the loop exits on its own once the frame limit is reached
	waitDone(t, done)
}

func TestStopWithoutFrames(t *testing.T) {
	pub := &capturePub{ch: make(chan int32, 1)}
	ctx := task.NewContext("test", baseConfig(), nil, pub, false)

	done := make(chan struct{})
	go func() {
		ctx.Run()
		close(done)
	}()

	ctx.Stop()
	ctx.Stop() // idempotent
	waitDone(t, done)
	assert.Empty(t, pub.ch)
}
