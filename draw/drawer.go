// Package draw 把物理布局与键图描述组合成 SVG 文档。
//
// 包内分两层：Painter 负责低层输出原语，Drawer 负责按键渲染与
// 整板排版。字形与组合键分别通过 GlyphResolver 和 ComboDrawer
// 两个接口接入，两者都允许为 nil。
package draw

import (
	"fmt"
	"io"

	"github.com/shroomist/keymap-drawer/config"
	"github.com/shroomist/keymap-drawer/keymap"
	"github.com/shroomist/keymap-drawer/layout"
)

// Options 是 Drawer 的可选构造参数。
type Options struct {
	// Glyphs 解析字形图例，nil 表示全部按文本处理。
	Glyphs GlyphResolver
	// Combos 绘制组合键，nil 表示忽略所有组合键。
	Combos ComboDrawer
}

// Drawer 按层绘制整个键图。
type Drawer struct {
	cfg    *config.DrawConfig
	layout *layout.PhysicalLayout
	keymap *keymap.Keymap
	p      *Painter
	combos ComboDrawer
}

// New 构造一个向 out 输出的 Drawer。键图的每一层都必须与物理布局
// 的按键数一致，否则构造失败。
func New(cfg *config.DrawConfig, out io.Writer, km *keymap.Keymap, phys *layout.PhysicalLayout, opts Options) (*Drawer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if km == nil || len(km.Layers) == 0 {
		return nil, fmt.Errorf("键图描述为空，无法绘制")
	}
	if phys == nil || phys.NumKeys() == 0 {
		return nil, fmt.Errorf("绘制需要物理布局")
	}
	for _, layer := range km.Layers {
		if len(layer.Keys) != phys.NumKeys() {
			return nil, fmt.Errorf("层 %q 有 %d 个图例，与布局的 %d 个按键不一致",
				layer.Name, len(layer.Keys), phys.NumKeys())
		}
	}
	return &Drawer{
		cfg:    cfg,
		layout: phys,
		keymap: km,
		p:      NewPainter(cfg, out, opts.Glyphs),
		combos: opts.Combos,
	}, nil
}

// PrintHeader 在 p 处绘制层标题。
func (d *Drawer) PrintHeader(p layout.Point, header string) {
	if d.cfg.AppendColonToLayerHeader {
		header += ":"
	}
	d.p.Label(p, header, []string{"label"})
}

// PrintKey 以 origin 为键区锚点绘制一个按键：按键矩形加上轻按、
// 长按与 Shift 三个图例槽位。带旋转的按键整体包在一个旋转分组里，
// 旋转中心即按键中心。
func (d *Drawer) PrintKey(origin layout.Point, pk layout.PhysicalKey, lk keymap.LayoutKey, index int) {
	p := origin.Add(pk.Pos)
	classes := []string{"key", lk.Type}
	group := withClass(classes, fmt.Sprintf("keypos-%d", index))
	if pk.Rotation != 0 {
		d.p.BeginRotatedGroup(pk.Rotation, p, group...)
	} else {
		d.p.BeginGroup(group...)
	}

	d.p.KeyBox(p, layout.Pt(pk.Width-2*d.cfg.InnerPadW, pk.Height-2*d.cfg.InnerPadH), classes)

	tapWords := SplitText(lk.Tap)

	// 恰好两行时按另一侧图例的占用情况上下让位
	shift := 0.0
	if len(tapWords) == 2 {
		switch {
		case lk.Shifted != "" && lk.Hold == "":
			shift = -1
		case lk.Hold != "" && lk.Shifted == "":
			shift = 1
		}
	}

	tapShift := layout.Pt(d.cfg.LegendRelX, d.cfg.LegendRelY)
	if d.cfg.DrawKeySides {
		tapShift = tapShift.Sub(layout.Pt(d.cfg.KeySidePars.RelX, d.cfg.KeySidePars.RelY))
	}

	edge := pk.Height/2 - d.cfg.InnerPadH - d.cfg.SmallPad
	d.p.Legend(p.Add(tapShift), tapWords, classes, SlotTap, shift)
	d.p.Legend(p.Add(layout.Pt(0, edge)), []string{lk.Hold}, classes, SlotHold, 0)
	d.p.Legend(p.Sub(layout.Pt(0, edge)), []string{lk.Shifted}, classes, SlotShifted, 0)

	d.p.EndGroup()
}

// PrintLayer 以 origin 为锚点绘制一层的全部按键。blank 为真时只画
// 按键矩形，图例留空。
func (d *Drawer) PrintLayer(origin layout.Point, keys []keymap.LayoutKey, blank bool) {
	for i, pk := range d.layout.Keys {
		lk := keys[i]
		if blank {
			lk = keymap.LayoutKey{}
		}
		d.PrintKey(origin, pk, lk, i)
	}
}

// BoardOptions 控制一次整板输出。
type BoardOptions struct {
	// Layers 选择要绘制的层，空表示全部。顺序以键图描述为准。
	Layers []string
	// KeysOnly 为真时跳过所有组合键。
	KeysOnly bool
	// CombosOnly 为真时按键图例留空，只画组合键。
	CombosOnly bool
	// GhostKeys 列出的按键位置在所有层上标记 ghost 类。
	GhostKeys []int
}

// PrintBoard 输出完整的 SVG 文档。参数校验失败时在写出任何内容
// 之前返回错误；ghost 标记作用在内部副本上，调用方的键图不变。
func (d *Drawer) PrintBoard(opt BoardOptions) error {
	layers, err := d.selectLayers(opt.Layers)
	if err != nil {
		return err
	}
	for _, pos := range opt.GhostKeys {
		if pos < 0 || pos >= d.layout.NumKeys() {
			return fmt.Errorf("ghost 按键位置 %d 超出布局（共 %d 键）", pos, d.layout.NumKeys())
		}
		for i := range layers {
			layers[i].Keys[pos].Type = "ghost"
		}
	}

	combosPerLayer := make(map[string][]keymap.Combo, len(layers))
	if !opt.KeysOnly && d.combos != nil {
		names := make([]string, len(layers))
		for i, layer := range layers {
			names[i] = layer.Name
		}
		combosPerLayer = d.combos.PerLayer(names)
	}
	offsets := make([]Offsets, len(layers))
	extra := 0.0
	if d.combos != nil {
		for i, layer := range layers {
			offsets[i] = d.combos.Offsets(combosPerLayer[layer.Name])
			extra += offsets[i].Top + offsets[i].Bottom
		}
	}

	boardW := d.layout.Width + 2*d.cfg.OuterPadW
	boardH := float64(len(layers))*d.layout.Height + float64(len(layers)+1)*d.cfg.OuterPadH + extra
	d.p.printf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" class="keymap" `+
		`xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">`+"\n",
		ri(boardW), ri(boardH), ri(boardW), ri(boardH))

	if d.p.glyphs != nil {
		if defs := d.p.glyphs.Defs(); defs != "" {
			d.p.printf("%s", defs)
		}
	}
	d.p.printf("<style>%s</style>\n", d.cfg.Style())

	p := layout.Pt(d.cfg.OuterPadW, 0)
	for i, layer := range layers {
		d.p.BeginGroup("layer-" + layer.Name)
		d.PrintHeader(p.Add(layout.Pt(0, d.cfg.OuterPadH/2)), layer.Name)

		p = p.Add(layout.Pt(0, d.cfg.OuterPadH+offsets[i].Top))
		d.PrintLayer(p, layer.Keys, opt.CombosOnly)
		if d.combos != nil {
			d.combos.Draw(d.p, p, combosPerLayer[layer.Name])
		}
		p = p.Add(layout.Pt(0, d.layout.Height+offsets[i].Bottom))

		d.p.EndGroup()
	}
	d.p.printf("</svg>\n")
	return d.p.Err()
}

// selectLayers 返回待绘制层的深拷贝，保持键图中的顺序。选择了
// 不存在的层名时报错。
func (d *Drawer) selectLayers(names []string) ([]keymap.Layer, error) {
	selected := make(map[string]bool, len(names))
	for _, name := range names {
		found := false
		for _, layer := range d.keymap.Layers {
			if layer.Name == name {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("选择的层 %q 不在键图中", name)
		}
		selected[name] = true
	}

	var out []keymap.Layer
	for _, layer := range d.keymap.Layers {
		if len(names) > 0 && !selected[layer.Name] {
			continue
		}
		keys := make([]keymap.LayoutKey, len(layer.Keys))
		copy(keys, layer.Keys)
		out = append(out, keymap.Layer{Name: layer.Name, Keys: keys})
	}
	return out, nil
}
