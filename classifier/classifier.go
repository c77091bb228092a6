package classifier

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"git.fiblab.net/sim/tldetector/entity"
)

// 色相带与像素筛选阈值
// 说明：色相单位为度，仅统计饱和度和明度都足够高的像素，
// 避免把路面、天空等低饱和区域计入灯色
const (
	redHueLow     = 20
	redHueHigh    = 340
	yellowHueLow  = 40
	yellowHueHigh = 70
	greenHueLow   = 90
	greenHueHigh  = 160

	minSaturation = .5
	minValue      = .5
	minFraction   = .005 // 计数下限占总像素的比例
)

// HSVClassifier 基于HSV色相统计的灯色分类器
// 功能：解码图像后按色相带统计候选像素，取计数最多且超过下限的颜色
// 说明：纯函数式分类，同一帧输入必然得到同一结果；
// 解码失败、空图像、无足量候选像素都返回未知
type HSVClassifier struct{}

// New 创建灯色分类器
func New() *HSVClassifier {
	return &HSVClassifier{}
}

// Classify 对一帧图像分类
// 参数：f-编码后的图像帧（JPEG/PNG）
// 返回：分类得到的灯色，任何失败返回未知
func (c *HSVClassifier) Classify(f entity.Frame) entity.LightColor {
	if len(f.Data) == 0 {
		return entity.ColorUnknown
	}
	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		log.Warnf("decode frame %d: %v", f.Seq, err)
		return entity.ColorUnknown
	}
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return entity.ColorUnknown
	}

	var red, yellow, green int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			h, s, v := rgbToHSV(
				float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff,
			)
			if s < minSaturation || v < minValue {
				continue
			}
			switch {
			case h <= redHueLow || h >= redHueHigh:
				red++
			case h >= yellowHueLow && h <= yellowHueHigh:
				yellow++
			case h >= greenHueLow && h <= greenHueHigh:
				green++
			}
		}
	}

	minCount := int(float64(total) * minFraction)
	if minCount < 1 {
		minCount = 1
	}
	best, count := entity.ColorUnknown, minCount-1
	if red > count {
		best, count = entity.ColorRed, red
	}
	if yellow > count {
		best, count = entity.ColorYellow, yellow
	}
	if green > count {
		best, count = entity.ColorGreen, green
	}
	return best
}

// rgbToHSV 将RGB分量转换为HSV
// 参数：r/g/b-范围[0,1]的颜色分量
// 返回：h-色相（度，[0,360)），s-饱和度[0,1]，v-明度[0,1]
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max, min := r, r
	for _, x := range []float64{g, b} {
		if x > max {
			max = x
		}
		if x < min {
			min = x
		}
	}
	v = max
	delta := max - min
	if max > 0 {
		s = delta / max
	}
	if delta == 0 {
		return 0, s, v
	}
	switch max {
	case r:
		h = 60 * (g - b) / delta
	case g:
		h = 60*(b-r)/delta + 120
	default:
		h = 60*(r-g)/delta + 240
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}
