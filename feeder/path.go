package feeder

import (
	"math"
	"sort"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
)

// polyline 带里程索引的折线
// 功能：为拼接后的行驶路径提供按里程取位置、方向与横向偏移的能力
// 说明：构造后不再修改，所有查询方法无副作用
type polyline struct {
	points     []geometry.Point
	lengths    []float64
	directions []geometry.PolylineDirection
}

// newPolyline 由折线点构建里程索引
// 说明：相邻车道的中心线共享端点，拼接时先去掉距离过近的重复点，
// 避免零长度线段破坏里程查找
func newPolyline(points []geometry.Point) *polyline {
	merged := make([]geometry.Point, 0, len(points))
	for _, pt := range points {
		if n := len(merged); n > 0 {
			last := merged[n-1]
			if math.Hypot(pt.X-last.X, pt.Y-last.Y) < 1e-6 {
				continue
			}
		}
		merged = append(merged, pt)
	}
	if len(merged) < 2 {
		log.Panicf("polyline requires at least 2 distinct points, got %d", len(merged))
	}
	return &polyline{
		points:     merged,
		lengths:    geometry.GetPolylineLengths2D(merged),
		directions: geometry.GetPolylineDirections(merged),
	}
}

// Length 折线总长度
func (p *polyline) Length() float64 {
	return p.lengths[len(p.lengths)-1]
}

// DirectionByS 根据里程计算切向角度
func (p *polyline) DirectionByS(s float64) (direction geometry.PolylineDirection) {
	if s < p.lengths[0] || s > p.lengths[len(p.lengths)-1] {
		log.Debugf("get direction with s %v out of range{%v,%v}",
			s, p.lengths[0], p.lengths[len(p.lengths)-1])
		s = lo.Clamp(s, p.lengths[0], p.lengths[len(p.lengths)-1])
	}
	if i := sort.SearchFloat64s(p.lengths, s); i == 0 {
		direction = p.directions[0]
	} else {
		direction = p.directions[i-1]
	}
	return
}

// PositionByS 将里程转换为xy(z)坐标
func (p *polyline) PositionByS(s float64) (pos geometry.Point) {
	if s < p.lengths[0] || s > p.lengths[len(p.lengths)-1] {
		log.Debugf("get position with s %v out of range{%v,%v}",
			s, p.lengths[0], p.lengths[len(p.lengths)-1])
		s = lo.Clamp(s, p.lengths[0], p.lengths[len(p.lengths)-1])
	}
	if i := sort.SearchFloat64s(p.lengths, s); i == 0 {
		pos = p.points[0]
	} else {
		sHigh, sLow := p.lengths[i], p.lengths[i-1]
		k := (s - sLow) / (sHigh - sLow)
		if k < 0 || k > 1 {
			log.Panicf("polyline: PositionByS(), bad k %v due to pos %v. sHigh=%f, sLow=%f, s=%f", k, pos, sHigh, sLow, s)
		}
		pos = geometry.Blend(p.points[i-1], p.points[i], k)
	}
	return
}

// OffsetPositionByS 在指定里程处沿法向偏移
// 说明：offset为正时偏向行进方向右侧
func (p *polyline) OffsetPositionByS(s, offset float64) geometry.Point {
	originalPos := p.PositionByS(s)
	direction := p.DirectionByS(s)
	unitNormal := geometry.Point{X: math.Cos(direction.Direction - math.Pi/2), Y: math.Sin(direction.Direction - math.Pi/2)}
	return geometry.Point{X: originalPos.X + unitNormal.X*offset, Y: originalPos.Y + unitNormal.Y*offset, Z: originalPos.Z}
}

// ProjectToS 将坐标投影到折线上，计算对应的里程
func (p *polyline) ProjectToS(pos geometry.Point) float64 {
	s := geometry.GetClosestPolylineSToPoint2D(p.points, p.lengths, pos)
	return lo.Clamp(s, 0, p.Length())
}
