package output

import (
	"context"

	"git.fiblab.net/general/common/v2/mongoutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"git.fiblab.net/sim/tldetector/utils/config"
)

// EstimateDoc 一帧估计结果的落库文档
type EstimateDoc struct {
	Step        int32   `bson:"step"`         // 帧号
	T           float64 `bson:"t"`            // 帧时刻（秒）
	FrameSeq    uint64  `bson:"frame_seq"`    // 图像接收序号
	RawWaypoint int32   `bson:"raw_waypoint"` // 去抖前的停车路径点
	RawColor    string  `bson:"raw_color"`    // 去抖前的灯色
	Published   int32   `bson:"published"`    // 实际发布值
}

// inserter 批量写入目标，*mongo.Collection满足该接口
type inserter interface {
	InsertMany(ctx context.Context, documents []any,
		opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// Recorder 估计结果落库器
// 功能：将每帧的估计结果按批写入MongoDB
// 说明：攒满一批写一次，Close写出剩余部分；
// 写入失败记日志后丢弃该批，不阻断估计主流程
type Recorder struct {
	coll      inserter
	batchSize int
	batch     []any
}

// NewRecorder 创建估计结果落库器
// 参数：c-输出配置
// 返回：落库器实例，c为nil或URI为空时返回nil表示不落库
func NewRecorder(c *config.Output) *Recorder {
	if c == nil || c.URI == "" {
		return nil
	}
	client := mongoutil.NewClient(c.URI)
	log.Infof("estimate records go to %s.%s, batch size %d", c.DB, c.Col, c.BatchSize)
	return &Recorder{
		coll:      client.Database(c.DB).Collection(c.Col),
		batchSize: c.BatchSize,
		batch:     make([]any, 0, c.BatchSize),
	}
}

// Record 追加一条记录，攒满一批时写出
func (r *Recorder) Record(doc EstimateDoc) {
	r.batch = append(r.batch, doc)
	if len(r.batch) >= r.batchSize {
		r.flush()
	}
}

// Close 写出剩余记录
func (r *Recorder) Close() {
	r.flush()
}

func (r *Recorder) flush() {
	if len(r.batch) == 0 {
		return
	}
	if _, err := r.coll.InsertMany(context.Background(), r.batch); err != nil {
		log.Errorf("insert %d estimate records: %v", len(r.batch), err)
	}
	r.batch = r.batch[:0]
}
