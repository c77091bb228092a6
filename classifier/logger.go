package classifier

import "github.com/sirupsen/logrus"

// log 分类器模块的日志记录器
var log = logrus.WithField("module", "classifier")
