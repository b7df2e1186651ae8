package draw

import (
	"github.com/shroomist/keymap-drawer/keymap"
	"github.com/shroomist/keymap-drawer/layout"
)

// LegendSlot 标识按键上的图例槽位，同时也是写入 SVG 的 class 名。
type LegendSlot string

const (
	SlotTap     LegendSlot = "tap"
	SlotHold    LegendSlot = "hold"
	SlotShifted LegendSlot = "shifted"
)

// GlyphDims 描述一个字形在某个槽位下的摆放尺寸。DY 是字形顶边
// 相对锚点的纵向回退量：轻按槽位取半高居中，长按槽位取整高使
// 字形底边贴住锚点，Shift 槽位为零使顶边贴住锚点。
type GlyphDims struct {
	Width  float64
	Height float64
	DY     float64
}

// GlyphResolver 把图例文本解析为可引用的字形。实现方负责收集
// 字形内容并以 <defs> 片段交给绘制端，绘制端只通过 use 引用。
type GlyphResolver interface {
	// Lookup 判断图例是否是字形引用，是则返回字形名。
	Lookup(legend string) (name string, ok bool)
	// Dimensions 返回字形在指定槽位下的尺寸。
	Dimensions(name string, slot LegendSlot) GlyphDims
	// Defs 返回包含全部字形定义的 <defs> 片段，无字形时为空串。
	Defs() string
}

// Offsets 是组合键注释框在键区上下两侧额外占用的高度。
type Offsets struct {
	Top    float64
	Bottom float64
}

// ComboDrawer 负责组合键的筛选、排版与绘制。绘制端只关心每层
// 需要预留多少额外高度，以及在确定锚点后把注释画出来。
type ComboDrawer interface {
	// PerLayer 返回每个层上应绘制的组合键，层名不在键图中的组合
	// 不会出现在结果里。
	PerLayer(layerNames []string) map[string][]keymap.Combo
	// Offsets 计算一组组合键在键区上下两侧需要的额外高度。
	Offsets(combos []keymap.Combo) Offsets
	// Draw 以 origin 为键区左上角锚点绘制一组组合键。
	Draw(p *Painter, origin layout.Point, combos []keymap.Combo)
}
