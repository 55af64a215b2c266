package segment

import "fmt"

type Label int

const (
	LabelBackground Label = 0 // 背景/排除
	LabelForeground Label = 1 // 前景/点击
)

type Point struct {
	X, Y  float64
	Label Label
}

// Box 左上 (X1,Y1) 到右下 (X2,Y2)
type Box struct {
	X1, Y1, X2, Y2 float64
}

type Prompt struct {
	Points []Point
	Box    *Box
}

// ParsePrompt 解析接口里的 [[x, y, label], ...] 和 [x1, y1, x2, y2]
func ParsePrompt(points [][]float64, bbox []float64) (Prompt, error) {
	var p Prompt
	for i, raw := range points {
		if len(raw) != 3 {
			return Prompt{}, fmt.Errorf("point %d: expected [x, y, label], got %d values", i, len(raw))
		}
		if raw[2] != float64(LabelBackground) && raw[2] != float64(LabelForeground) {
			return Prompt{}, fmt.Errorf("point %d: label must be 0 or 1, got %v", i, raw[2])
		}
		p.Points = append(p.Points, Point{X: raw[0], Y: raw[1], Label: Label(raw[2])})
	}

	if len(bbox) > 0 {
		if len(bbox) != 4 {
			return Prompt{}, fmt.Errorf("bbox: expected [x1, y1, x2, y2], got %d values", len(bbox))
		}
		p.Box = &Box{X1: bbox[0], Y1: bbox[1], X2: bbox[2], Y2: bbox[3]}
	}
	return p, nil
}

func (p Prompt) Empty() bool {
	return len(p.Points) == 0 && p.Box == nil
}

// Multimask 只有框没有点时让模型输出多个候选 mask
func (p Prompt) Multimask() bool {
	return p.Box != nil && len(p.Points) == 0
}

// Scale 图片缩放后同步缩放坐标
func (p Prompt) Scale(f float64) Prompt {
	if f == 1 {
		return p
	}
	out := Prompt{Points: make([]Point, len(p.Points))}
	for i, pt := range p.Points {
		out.Points[i] = Point{X: pt.X * f, Y: pt.Y * f, Label: pt.Label}
	}
	if p.Box != nil {
		out.Box = &Box{X1: p.Box.X1 * f, Y1: p.Box.Y1 * f, X2: p.Box.X2 * f, Y2: p.Box.Y2 * f}
	}
	return out
}
