// Package combo 负责组合键注释的排版与绘制。
//
// 注释框默认落在成员按键的几何中心；对齐到键区边缘的注释会把
// 整层撑高，额外高度通过 Offsets 预先报给绘制端。连线在注释框
// 离开成员按键时自动出现，也可以用 d 字段强制开关。
package combo

import (
	"fmt"
	"math"
	"strings"

	"github.com/shroomist/keymap-drawer/config"
	"github.com/shroomist/keymap-drawer/draw"
	"github.com/shroomist/keymap-drawer/keymap"
	"github.com/shroomist/keymap-drawer/layout"
)

var _ draw.ComboDrawer = (*Drawer)(nil)

// Drawer 按物理布局绘制组合键注释。组合键的位置引用必须已经
// 通过键图校验。
type Drawer struct {
	cfg    *config.DrawConfig
	layout *layout.PhysicalLayout
	combos []keymap.Combo
}

// New 构造组合键绘制器。
func New(cfg *config.DrawConfig, phys *layout.PhysicalLayout, combos []keymap.Combo) *Drawer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Drawer{cfg: cfg, layout: phys, combos: combos}
}

// PerLayer 实现 draw.ComboDrawer。未限定层的组合键出现在每一层。
func (d *Drawer) PerLayer(layerNames []string) map[string][]keymap.Combo {
	out := make(map[string][]keymap.Combo, len(layerNames))
	for _, name := range layerNames {
		for _, c := range d.combos {
			if len(c.Layers) == 0 {
				out[name] = append(out[name], c)
				continue
			}
			for _, l := range c.Layers {
				if l == name {
					out[name] = append(out[name], c)
					break
				}
			}
		}
	}
	return out
}

// Offsets 实现 draw.ComboDrawer。只有对齐到上下边缘的注释框才
// 占用额外高度，取各自方向上的最大值。
func (d *Drawer) Offsets(combos []keymap.Combo) draw.Offsets {
	var off draw.Offsets
	for i := range combos {
		c := &combos[i]
		extent := d.boxH(c) + c.Offset*d.cfg.KeyH
		switch c.AlignOrDefault() {
		case keymap.AlignTop:
			off.Top = math.Max(off.Top, extent)
		case keymap.AlignBottom:
			off.Bottom = math.Max(off.Bottom, extent)
		}
	}
	return off
}

// Draw 实现 draw.ComboDrawer。
func (d *Drawer) Draw(p *draw.Painter, origin layout.Point, combos []keymap.Combo) {
	for i := range combos {
		d.drawCombo(p, origin, &combos[i], i)
	}
}

func (d *Drawer) boxW(c *keymap.Combo) float64 {
	if c.Width > 0 {
		return c.Width
	}
	return d.cfg.ComboW
}

func (d *Drawer) boxH(c *keymap.Combo) float64 {
	if c.Height > 0 {
		return c.Height
	}
	return d.cfg.ComboH
}

// anchor 计算注释框中心：居中对齐取成员按键中心的均值，边缘对齐
// 推到成员按键包围盒之外再加偏移。
func (d *Drawer) anchor(origin layout.Point, c *keymap.Combo) layout.Point {
	var sum layout.Point
	minEdge := layout.Pt(math.Inf(1), math.Inf(1))
	maxEdge := layout.Pt(math.Inf(-1), math.Inf(-1))
	for _, pos := range c.Positions {
		k := d.layout.Keys[pos]
		sum = sum.Add(k.Pos)
		minEdge.X = math.Min(minEdge.X, k.Pos.X-k.Width/2)
		minEdge.Y = math.Min(minEdge.Y, k.Pos.Y-k.Height/2)
		maxEdge.X = math.Max(maxEdge.X, k.Pos.X+k.Width/2)
		maxEdge.Y = math.Max(maxEdge.Y, k.Pos.Y+k.Height/2)
	}
	n := float64(len(c.Positions))
	mid := origin.Add(layout.Pt(sum.X/n, sum.Y/n))

	switch c.AlignOrDefault() {
	case keymap.AlignTop:
		return layout.Pt(mid.X, origin.Y+minEdge.Y-d.boxH(c)/2-c.Offset*d.cfg.KeyH)
	case keymap.AlignBottom:
		return layout.Pt(mid.X, origin.Y+maxEdge.Y+d.boxH(c)/2+c.Offset*d.cfg.KeyH)
	case keymap.AlignLeft:
		return layout.Pt(origin.X+minEdge.X-d.boxW(c)/2-c.Offset*d.cfg.KeyW, mid.Y)
	case keymap.AlignRight:
		return layout.Pt(origin.X+maxEdge.X+d.boxW(c)/2+c.Offset*d.cfg.KeyW, mid.Y)
	default:
		return mid
	}
}

func (d *Drawer) drawCombo(p *draw.Painter, origin layout.Point, c *keymap.Combo, index int) {
	w, h := d.boxW(c), d.boxH(c)
	anchor := d.anchor(origin, c)
	classes := []string{"combo", c.Type}

	p.BeginGroup("combo", c.Type, fmt.Sprintf("combopos-%d", index))
	d.drawDendrons(p, origin, c, anchor, classes)

	// 旋转只作用在注释框与图例上，连线端点保持在未旋转的键心
	if c.Rotation != 0 {
		p.BeginRotatedGroup(c.Rotation, anchor)
	}
	p.Rect(anchor, layout.Pt(w, h), layout.Pt(d.cfg.KeyRx, d.cfg.KeyRy), classes)

	edge := layout.Pt(0, h/2-d.cfg.SmallPad)
	p.Legend(anchor, draw.SplitText(c.Key.Tap), classes, draw.SlotTap, 0)
	p.Legend(anchor.Add(edge), []string{c.Key.Hold}, classes, draw.SlotHold, 0)
	p.Legend(anchor.Sub(edge), []string{c.Key.Shifted}, classes, draw.SlotShifted, 0)
	if c.Rotation != 0 {
		p.EndGroup()
	}
	p.EndGroup()
}

// drawDendrons 画注释框到各成员按键的连线。边缘对齐的连线先平移
// 对齐再折向按键，居中对齐的连线直连，末端都缩进按键内侧。
func (d *Drawer) drawDendrons(p *draw.Painter, origin layout.Point, c *keymap.Combo, anchor layout.Point, classes []string) {
	if c.Dendron != nil && !*c.Dendron {
		return
	}
	forced := c.Dendron != nil && *c.Dendron
	for _, pos := range c.Positions {
		k := d.layout.Keys[pos]
		target := origin.Add(k.Pos)
		dx, dy := target.X-anchor.X, target.Y-anchor.Y
		switch c.AlignOrDefault() {
		case keymap.AlignTop, keymap.AlignBottom:
			if !forced && math.Abs(dy) < k.Height/2+d.cfg.SmallPad {
				continue
			}
			shorten := k.Height / 3
			if math.Abs(dx) < d.boxW(c)/2 {
				shorten = k.Height / 5
			}
			d.bentPath(p, anchor, target, true, shorten, classes)
		case keymap.AlignLeft, keymap.AlignRight:
			if !forced && math.Abs(dx) < k.Width/2+d.cfg.SmallPad {
				continue
			}
			shorten := k.Width / 3
			if math.Abs(dy) < d.boxH(c)/2 {
				shorten = k.Width / 5
			}
			d.bentPath(p, anchor, target, false, shorten, classes)
		default:
			if !forced && math.Abs(dx) <= k.Width/2 && math.Abs(dy) <= k.Height/2 {
				continue
			}
			d.straightPath(p, anchor, target, math.Min(k.Width, k.Height)/3, classes)
		}
	}
}

// bentPath 输出一条先平移后折弯的连线。xFirst 为真时先走横向，
// 弯角用二次贝塞尔曲线过渡；位移不足以容纳弯角时退化为直线。
func (d *Drawer) bentPath(p *draw.Painter, from, to layout.Point, xFirst bool, shorten float64, classes []string) {
	dx, dy := to.X-from.X, to.Y-from.Y
	r := d.cfg.ArcRadius
	sx, sy := math.Copysign(1, dx), math.Copysign(1, dy)

	degenerate := false
	if xFirst {
		degenerate = math.Abs(dx) < r || math.Abs(dy) < r+shorten
	} else {
		degenerate = math.Abs(dy) < r || math.Abs(dx) < r+shorten
	}
	if degenerate {
		d.straightPath(p, from, to, shorten, classes)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "M%d,%d", ri(from.X), ri(from.Y))
	if xFirst {
		fmt.Fprintf(&b, " h%d", ri(dx-sx*r))
		fmt.Fprintf(&b, " q%g,0 %g,%g", sx*r, sx*r, sy*r)
		fmt.Fprintf(&b, " v%d", ri(dy-sy*(r+shorten)))
	} else {
		fmt.Fprintf(&b, " v%d", ri(dy-sy*r))
		fmt.Fprintf(&b, " q0,%g %g,%g", sy*r, sx*r, sy*r)
		fmt.Fprintf(&b, " h%d", ri(dx-sx*(r+shorten)))
	}
	p.Path(b.String(), classes)
}

// straightPath 输出一条直连线，末端按 shorten 缩短。
func (d *Drawer) straightPath(p *draw.Painter, from, to layout.Point, shorten float64, classes []string) {
	dx, dy := to.X-from.X, to.Y-from.Y
	if dist := math.Hypot(dx, dy); shorten > 0 && shorten < dist {
		scale := 1 - shorten/dist
		dx *= scale
		dy *= scale
	}
	p.Path(fmt.Sprintf("M%d,%d l%d,%d", ri(from.X), ri(from.Y), ri(dx), ri(dy)), classes)
}

// ri 是 layout.Round 的本包简写。
func ri(v float64) int {
	return layout.Round(v)
}
