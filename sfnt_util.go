package opentype

import "math"

// bboxPather accumulates the bounding box of all points, including control points.
type bboxPather struct {
	Rect
	empty bool
}

func newBBoxPather() *bboxPather {
	return &bboxPather{empty: true}
}

func (p *bboxPather) extend(x, y float64) {
	if p.empty {
		p.Rect = Rect{x, y, x, y}
		p.empty = false
		return
	}
	p.XMin = math.Min(p.XMin, x)
	p.XMax = math.Max(p.XMax, x)
	p.YMin = math.Min(p.YMin, y)
	p.YMax = math.Max(p.YMax, y)
}

func (p *bboxPather) MoveTo(x float64, y float64) {
	p.extend(x, y)
}

func (p *bboxPather) LineTo(x float64, y float64) {
	p.extend(x, y)
}

func (p *bboxPather) QuadTo(cpx float64, cpy float64, x float64, y float64) {
	p.extend(cpx, cpy)
	p.extend(x, y)
}

func (p *bboxPather) CubeTo(cpx1 float64, cpy1 float64, cpx2 float64, cpy2 float64, x float64, y float64) {
	p.extend(cpx1, cpy1)
	p.extend(cpx2, cpy2)
	p.extend(x, y)
}

func (p *bboxPather) Close() {
}
