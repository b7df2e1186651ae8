package draw

import (
	"fmt"
	"html"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shroomist/keymap-drawer/config"
	"github.com/shroomist/keymap-drawer/layout"
)

// Painter 提供低层 SVG 输出原语：矩形、文本、多行文本、字形引用
// 与路径。所有坐标按四舍五入（远离零）取整后输出，写入错误会被
// 记住并使后续调用全部变成空操作，最终由 Err 统一上报。
type Painter struct {
	cfg    *config.DrawConfig
	out    io.Writer
	glyphs GlyphResolver
	err    error
}

// NewPainter 构造一个向 out 输出的 Painter。glyphs 可以为 nil，
// 此时所有图例都按纯文本处理。
func NewPainter(cfg *config.DrawConfig, out io.Writer, glyphs GlyphResolver) *Painter {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Painter{cfg: cfg, out: out, glyphs: glyphs}
}

// Err 返回首个写入错误。
func (pt *Painter) Err() error {
	return pt.err
}

func (pt *Painter) printf(format string, args ...any) {
	if pt.err != nil {
		return
	}
	if _, err := fmt.Fprintf(pt.out, format, args...); err != nil {
		pt.err = fmt.Errorf("写入 SVG 失败: %w", err)
	}
}

// ri 是 layout.Round 的本包简写。
func ri(v float64) int {
	return layout.Round(v)
}

// classAttr 把 class 列表拼成属性文本，空项被剔除，全部为空时
// 不输出该属性。
func classAttr(classes []string) string {
	kept := make([]string, 0, len(classes))
	for _, c := range classes {
		if c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return ` class="` + strings.Join(kept, " ") + `"`
}

func withClass(classes []string, extra ...string) []string {
	out := make([]string, 0, len(classes)+len(extra))
	out = append(out, classes...)
	return append(out, extra...)
}

// SplitText 把图例文本按空白拆成多行。连续两个空格表示一个字面
// 空格，不参与拆分。
func SplitText(text string) []string {
	const marker = "\x00"
	words := strings.Fields(strings.ReplaceAll(text, "  ", marker))
	for i, w := range words {
		words[i] = strings.ReplaceAll(w, marker, " ")
	}
	return words
}

// Rect 以 center 为中心绘制一个圆角矩形。
func (pt *Painter) Rect(center, dims, radii layout.Point, classes []string) {
	pt.printf(`<rect rx="%d" ry="%d" x="%d" y="%d" width="%d" height="%d"%s/>`+"\n",
		ri(radii.X), ri(radii.Y),
		ri(center.X-dims.X/2), ri(center.Y-dims.Y/2),
		ri(dims.X), ri(dims.Y), classAttr(classes))
}

// KeyBox 绘制一个按键矩形。开启键帽侧面模式时画两层：外层矩形
// 附加 side 类作为侧面，内层矩形向左上偏移作为键帽顶面。
func (pt *Painter) KeyBox(center, dims layout.Point, classes []string) {
	cfg := pt.cfg
	if !cfg.DrawKeySides {
		pt.Rect(center, dims, layout.Pt(cfg.KeyRx, cfg.KeyRy), classes)
		return
	}
	side := cfg.KeySidePars
	pt.Rect(center, dims, layout.Pt(cfg.KeyRx, cfg.KeyRy), withClass(classes, "side"))
	pt.Rect(
		center.Sub(layout.Pt(side.RelX, side.RelY)),
		dims.Sub(layout.Pt(side.RelW, side.RelH)),
		layout.Pt(side.RX, side.RY),
		classes,
	)
}

// scaling 为超宽图例生成缩小字号的 style 属性，宽度按字符数计。
// 缩小比例以 60% 为下限。
func (pt *Painter) scaling(width int) string {
	limit := pt.cfg.ShrinkWideLegends
	if limit <= 0 || width <= limit {
		return ""
	}
	size := 100 * float64(limit) / float64(width)
	if size < 60 {
		size = 60
	}
	return fmt.Sprintf(` style="font-size: %.0f%%"`, size)
}

// Text 在 p 处绘制单行文本，空文本不输出任何内容。
func (pt *Painter) Text(p layout.Point, word string, classes []string) {
	if word == "" {
		return
	}
	pt.printf(`<text x="%d" y="%d"%s%s>%s</text>`+"\n",
		ri(p.X), ri(p.Y), classAttr(classes),
		pt.scaling(utf8.RuneCountInString(word)), html.EscapeString(word))
}

// Label 在 p 处绘制层标题等非图例文字。与 Text 的区别是不参与
// 宽图例的字号缩放，长标题按原字号输出。
func (pt *Painter) Label(p layout.Point, text string, classes []string) {
	if text == "" {
		return
	}
	pt.printf(`<text x="%d" y="%d"%s>%s</text>`+"\n",
		ri(p.X), ri(p.Y), classAttr(classes), html.EscapeString(text))
}

// TextBlock 在 p 处绘制多行文本。shift 取 -1、0 或 +1，分别令
// 整块文本相对锚点下沉、居中或上移，用于给长按/Shift 图例让位。
func (pt *Painter) TextBlock(p layout.Point, words []string, classes []string, shift float64) {
	widest := 0
	for _, w := range words {
		if n := utf8.RuneCountInString(w); n > widest {
			widest = n
		}
	}
	pt.printf(`<text x="%d" y="%d"%s%s>`+"\n",
		ri(p.X), ri(p.Y), classAttr(classes), pt.scaling(widest))
	dy0 := float64(len(words)-1) * pt.cfg.LineSpacing * (1 + shift) / 2
	pt.printf(`<tspan x="%d" dy="-%gem">%s</tspan>`+"\n", ri(p.X), dy0, html.EscapeString(words[0]))
	for _, w := range words[1:] {
		pt.printf(`<tspan x="%d" dy="%gem">%s</tspan>`+"\n", ri(p.X), pt.cfg.LineSpacing, html.EscapeString(w))
	}
	pt.printf("</text>\n")
}

// Glyph 在 p 处通过 use 引用一个已定义的字形。
func (pt *Painter) Glyph(p layout.Point, name string, slot LegendSlot, classes []string) {
	if pt.glyphs == nil {
		return
	}
	d := pt.glyphs.Dimensions(name, slot)
	pt.printf(`<use href="#%s" xlink:href="#%s" x="%d" y="%d" height="%g" width="%g"%s/>`+"\n",
		name, name, ri(p.X-d.Width/2), ri(p.Y-d.DY), d.Height, d.Width,
		classAttr(withClass(classes, "glyph", name)))
}

// Legend 绘制一个图例槽位：单行文本、字形引用或多行文本块。
// words 为空时不输出。槽位名会追加进 class 列表。
func (pt *Painter) Legend(p layout.Point, words []string, classes []string, slot LegendSlot, shift float64) {
	if len(words) == 0 {
		return
	}
	cls := withClass(classes, string(slot))
	if len(words) == 1 {
		if pt.glyphs != nil {
			if name, ok := pt.glyphs.Lookup(words[0]); ok {
				pt.Glyph(p, name, slot, cls)
				return
			}
		}
		pt.Text(p, words[0], cls)
		return
	}
	pt.TextBlock(p, words, cls, shift)
}

// Path 按给定的 d 属性绘制路径。
func (pt *Painter) Path(d string, classes []string) {
	pt.printf(`<path d="%s"%s/>`+"\n", d, classAttr(classes))
}

// BeginGroup 打开一个 <g> 分组。
func (pt *Painter) BeginGroup(classes ...string) {
	pt.printf("<g%s>\n", classAttr(classes))
}

// BeginRotatedGroup 打开一个绕 center 旋转 angle 度的 <g> 分组。
func (pt *Painter) BeginRotatedGroup(angle float64, center layout.Point, classes ...string) {
	pt.printf(`<g transform="rotate(%g, %d, %d)"%s>`+"\n",
		angle, ri(center.X), ri(center.Y), classAttr(classes))
}

// EndGroup 关闭最近打开的分组。
func (pt *Painter) EndGroup() {
	pt.printf("</g>\n")
}
