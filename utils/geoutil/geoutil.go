package geoutil

import (
	"math"

	"git.fiblab.net/general/common/v2/geometry"
)

// Distance2D 计算两点间的平面欧氏距离
// 参数：a-起点，b-终点
// 返回：忽略Z坐标的2D距离
func Distance2D(a, b geometry.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Ahead 判断目标点是否位于原点朝向的前方
// 功能：以origin为原点、yaw为朝向做半平面测试，目标点在朝向向量上的投影严格为正时视为前方
// 参数：origin-参考点，yaw-参考朝向（弧度，逆时针，0为+x方向），target-目标点
// 返回：目标点严格在前方时为true，侧方（投影为零）与后方为false
func Ahead(origin geometry.Point, yaw float64, target geometry.Point) bool {
	return (target.X-origin.X)*math.Cos(yaw)+(target.Y-origin.Y)*math.Sin(yaw) > 0
}

// YawFromQuaternion 从四元数中提取偏航角
// 参数：x/y/z/w-四元数分量
// 返回：绕Z轴的偏航角（弧度，范围(-π,π]）
func YawFromQuaternion(x, y, z, w float64) float64 {
	return math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
}

// QuaternionFromYaw 由偏航角构造平面朝向四元数
// 说明：只含绕Z轴的旋转，与YawFromQuaternion互逆
func QuaternionFromYaw(yaw float64) (x, y, z, w float64) {
	return 0, 0, math.Sin(yaw / 2), math.Cos(yaw / 2)
}
