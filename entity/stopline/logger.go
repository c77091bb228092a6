package stopline

import "github.com/sirupsen/logrus"

// log 停止线模块的日志记录器
var log = logrus.WithField("module", "stopline")
