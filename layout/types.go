package layout

import "strings"

// 该文件定义词网格布局的结果类型，供命中测试、高亮覆盖层与渲染器共用。

// Point 是容器坐标系中的一个点（单位 px，左上角为原点）。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size 描述宽高（px）。
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect 是轴对齐矩形。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains 判断点是否落在矩形内，slop 向四周扩展命中范围（触摸时使用）。
func (r Rect) Contains(p Point, slop float64) bool {
	return p.X >= r.X-slop && p.X <= r.Right()+slop &&
		p.Y >= r.Y-slop && p.Y <= r.Bottom()+slop
}

// Union 返回同时包含 r 与 o 的最小矩形。
func (r Rect) Union(o Rect) Rect {
	if r.Width == 0 && r.Height == 0 {
		return o
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.Right(), o.Right()), max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Offset 将矩形平移 (dx, dy)。
func (r Rect) Offset(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// WordBox 表示一个已经排好坐标的词，每次布局都会重建，不做持久化。
type WordBox struct {
	Text      string  `json:"text"`
	Index     int     `json:"index"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	LineIndex int     `json:"lineIndex"`
	Paragraph int     `json:"paragraph"`
}

// Rect 返回词的包围盒。
func (w WordBox) Rect() Rect {
	return Rect{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height}
}

// Result 保存一次布局的全部词与总高度。
type Result struct {
	Words      []WordBox `json:"words"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	LineHeight float64   `json:"lineHeight"`
	SpaceWidth float64   `json:"spaceWidth"`
	Lines      int       `json:"lines"`
	// Overflows 记录宽于容器、被原样放在行首的词数量。
	Overflows int  `json:"overflows,omitempty"`
	Font      Font `json:"font"`
}

// Text 返回以单个空格拼接的全部词，与高亮匹配使用的扁平文本一致。
func (r *Result) Text() string {
	if r == nil || len(r.Words) == 0 {
		return ""
	}
	parts := make([]string, len(r.Words))
	for i, w := range r.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// WordAt 返回命中点所在词的下标，未命中返回 -1。
func (r *Result) WordAt(p Point, slop float64) int {
	if r == nil {
		return -1
	}
	for i, w := range r.Words {
		if w.Rect().Contains(p, slop) {
			return i
		}
	}
	return -1
}

// Slice 返回 [start, end] 闭区间内的词，下标越界时自动收紧。
func (r *Result) Slice(start, end int) []WordBox {
	if r == nil || len(r.Words) == 0 {
		return nil
	}
	if start > end {
		start, end = end, start
	}
	start = max(start, 0)
	end = min(end, len(r.Words)-1)
	if start > end {
		return nil
	}
	return r.Words[start : end+1]
}
