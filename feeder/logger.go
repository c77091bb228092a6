package feeder

import (
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "feeder")
