package entity

import (
	"git.fiblab.net/sim/tldetector/clock"
	"git.fiblab.net/sim/tldetector/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	Ego() IEgoManager
	Route() IRouteManager
	StopLines() IStopLineManager
	Lights() ILightManager
	Camera() ICameraManager
	Detector() IDetector
	Classifier() IClassifier
	RuntimeConfig() *config.RuntimeConfig
}
