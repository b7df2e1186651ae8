package glyph

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shroomist/keymap-drawer/config"
	"github.com/shroomist/keymap-drawer/draw"
	"github.com/shroomist/keymap-drawer/keymap"
)

const remoteSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path d="M1 1"/></svg>`

func fakeFetcher(urls *[]string, body string) func(string) ([]byte, error) {
	return func(url string) ([]byte, error) {
		*urls = append(*urls, url)
		return []byte(body), nil
	}
}

func testConfig() *config.DrawConfig {
	cfg := config.Default()
	cfg.Glyphs = map[string]string{
		"custom": `<svg viewBox="0 0 48 24"><path d="M0 0"/></svg>`,
	}
	return cfg
}

func testGlyphKeymap() *keymap.Keymap {
	return &keymap.Keymap{
		Layers: []keymap.Layer{
			{Name: "base", Keys: []keymap.LayoutKey{
				{Tap: "$tabler:heart$"},
				{Tap: "a", Hold: "$custom$"},
			}},
		},
		Combos: []keymap.Combo{
			{Positions: []int{0, 1}, Key: keymap.LayoutKey{Tap: "$mdi:star$"}},
		},
	}
}

// TestBuildCollectsReferences 验证构造时收集键图里的全部字形引用：
// 内联字形不触发网络，远程字形把名字代入来源模板。
func TestBuildCollectsReferences(t *testing.T) {
	var urls []string
	r, err := build(testConfig(), testGlyphKeymap(), fakeFetcher(&urls, remoteSVG))
	if err != nil {
		t.Fatalf("构造失败: %v", err)
	}

	want := []string{
		"https://raw.githubusercontent.com/tabler/tabler-icons/main/icons/outline/heart.svg",
		"https://raw.githubusercontent.com/Templarian/MaterialDesign-SVG/master/svg/star.svg",
	}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Fatalf("请求的 URL 不符 (-want +got):\n%s", diff)
	}

	for _, legend := range []string{"$tabler:heart$", "$custom$", "$mdi:star$"} {
		name, ok := r.Lookup(legend)
		if !ok || name != strings.Trim(legend, "$") {
			t.Fatalf("Lookup(%q) 期望命中，实际 %q, %v", legend, name, ok)
		}
	}
	if _, ok := r.Lookup("$absent$"); ok {
		t.Fatalf("未收集的字形不应命中")
	}
	if _, ok := r.Lookup("plain"); ok {
		t.Fatalf("普通文本不应命中")
	}
	if _, ok := r.Lookup("$custom$ x"); ok {
		t.Fatalf("引用必须占满整个图例")
	}
}

// TestDimensions 验证各槽位的字形尺寸：高度取配置字号，宽度按
// viewBox 纵横比换算，DY 决定竖直对齐方式。
func TestDimensions(t *testing.T) {
	r, err := build(testConfig(), testGlyphKeymap(), fakeFetcher(new([]string), remoteSVG))
	if err != nil {
		t.Fatalf("构造失败: %v", err)
	}

	// custom 的 viewBox 是 0 0 48 24，纵横比 2:1
	cases := []struct {
		slot draw.LegendSlot
		want draw.GlyphDims
	}{
		{draw.SlotTap, draw.GlyphDims{Width: 28, Height: 14, DY: 7}},
		{draw.SlotHold, draw.GlyphDims{Width: 24, Height: 12, DY: 12}},
		{draw.SlotShifted, draw.GlyphDims{Width: 20, Height: 10, DY: 0}},
	}
	for _, c := range cases {
		if got := r.Dimensions("custom", c.slot); got != c.want {
			t.Fatalf("槽位 %s 期望 %+v，实际 %+v", c.slot, c.want, got)
		}
	}

	if got := r.Dimensions("tabler:heart", draw.SlotTap); got.Width != 14 {
		t.Fatalf("方形 viewBox 的轻按宽度期望 14，实际 %g", got.Width)
	}
	if got := r.Dimensions("nope", draw.SlotTap); got != (draw.GlyphDims{}) {
		t.Fatalf("未知字形期望零值，实际 %+v", got)
	}
}

// TestDefs 验证字形定义块：按名称排序、根元素注入 id、XML 声明被去掉。
func TestDefs(t *testing.T) {
	r, err := build(testConfig(), testGlyphKeymap(), fakeFetcher(new([]string), remoteSVG))
	if err != nil {
		t.Fatalf("构造失败: %v", err)
	}
	defs := r.Defs()

	if !strings.HasPrefix(defs, "<defs>\n") || !strings.HasSuffix(defs, "</defs>\n") {
		t.Fatalf("定义块骨架错误: %q", defs)
	}
	if strings.Contains(defs, "<?xml") {
		t.Fatalf("XML 声明应被去掉: %s", defs)
	}
	for _, id := range []string{`<svg id="custom"`, `<svg id="mdi:star"`, `<svg id="tabler:heart"`} {
		if !strings.Contains(defs, id) {
			t.Fatalf("缺少 %s: %s", id, defs)
		}
	}
	if strings.Index(defs, `id="custom"`) > strings.Index(defs, `id="mdi:star"`) {
		t.Fatalf("字形应按名称排序: %s", defs)
	}
}

// TestBuildErrors 验证非法引用让构造失败。
func TestBuildErrors(t *testing.T) {
	mk := func(legend string) *keymap.Keymap {
		return &keymap.Keymap{Layers: []keymap.Layer{
			{Name: "base", Keys: []keymap.LayoutKey{{Tap: legend}}},
		}}
	}

	if _, err := build(testConfig(), mk("$nope:x$"), fakeFetcher(new([]string), remoteSVG)); err == nil ||
		!strings.Contains(err.Error(), "未知的字形来源") {
		t.Fatalf("未知来源期望报错，实际 %v", err)
	}
	if _, err := build(testConfig(), mk("$undefined$"), fakeFetcher(new([]string), remoteSVG)); err == nil {
		t.Fatalf("未定义的内联字形期望报错")
	}
	if _, err := build(testConfig(), mk("$tabler:x$"), fakeFetcher(new([]string), `<svg xmlns="http://www.w3.org/2000/svg"/>`)); err == nil ||
		!strings.Contains(err.Error(), "viewBox") {
		t.Fatalf("缺 viewBox 期望报错，实际 %v", err)
	}
}

// TestEmptyKeymap 验证无键图时得到一个空解析器。
func TestEmptyKeymap(t *testing.T) {
	r, err := build(testConfig(), nil, fakeFetcher(new([]string), remoteSVG))
	if err != nil {
		t.Fatalf("构造失败: %v", err)
	}
	if _, ok := r.Lookup("$custom$"); ok {
		t.Fatalf("空键图不应收集任何字形")
	}
	if r.Defs() != "" {
		t.Fatalf("空解析器的定义块应为空: %q", r.Defs())
	}
}
