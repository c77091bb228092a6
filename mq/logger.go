package mq

import "github.com/sirupsen/logrus"

// log MQTT模块的日志记录器
var log = logrus.WithField("module", "mq")
