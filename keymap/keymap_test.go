package keymap

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/shroomist/keymap-drawer/layout"
)

const sampleDoc = `
layout:
  keys:
    - {x: 0, y: 0}
    - {x: 1, y: 0}
draw_config:
  key_w: 70
layers:
  base:
    - a
    - {t: b, h: Ctrl}
  sym:
    - {t: ";", s: ":"}
    - null
combos:
  - {p: [0, 1], k: Esc, l: [base]}
`

// TestParseSample 验证完整描述文件的解析：层保序、按键两种写法、组合键。
func TestParseSample(t *testing.T) {
	km, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Parse 出错: %v", err)
	}
	wantLayers := []Layer{
		{Name: "base", Keys: []LayoutKey{{Tap: "a"}, {Tap: "b", Hold: "Ctrl"}}},
		{Name: "sym", Keys: []LayoutKey{{Tap: ";", Shifted: ":"}, {}}},
	}
	if diff := cmp.Diff(wantLayers, km.Layers); diff != "" {
		t.Fatalf("层解析不一致 (-want +got):\n%s", diff)
	}
	wantCombos := []Combo{
		{Positions: []int{0, 1}, Key: LayoutKey{Tap: "Esc"}, Layers: []string{"base"}},
	}
	if diff := cmp.Diff(wantCombos, km.Combos); diff != "" {
		t.Fatalf("组合键解析不一致 (-want +got):\n%s", diff)
	}
	if len(km.Layout.Keys) != 2 {
		t.Fatalf("布局按键数期望 2，实际 %d", len(km.Layout.Keys))
	}
	if km.DrawConfig.Kind != yaml.MappingNode {
		t.Fatalf("draw_config 应捕获为映射节点，实际 kind=%v", km.DrawConfig.Kind)
	}
	var ov struct {
		KeyW float64 `yaml:"key_w"`
	}
	if err := km.DrawConfig.Decode(&ov); err != nil {
		t.Fatalf("解码捕获的 draw_config 出错: %v", err)
	}
	if ov.KeyW != 70 {
		t.Fatalf("捕获的 key_w 期望 70，实际 %g", ov.KeyW)
	}
}

// TestParseNoDrawConfig 验证省略 draw_config 段时捕获节点保持零值。
func TestParseNoDrawConfig(t *testing.T) {
	km, err := Parse(strings.NewReader("layers:\n  base:\n    - a\n"))
	if err != nil {
		t.Fatalf("Parse 出错: %v", err)
	}
	if km.DrawConfig.Kind != 0 {
		t.Fatalf("无 draw_config 段时节点应为零值，实际 kind=%v", km.DrawConfig.Kind)
	}
}

// TestLayerOrderPreserved 验证层顺序严格按文档书写顺序。
func TestLayerOrderPreserved(t *testing.T) {
	doc := "layers:\n  zz:\n    - a\n  aa:\n    - b\n  mm:\n    - c\n"
	km, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse 出错: %v", err)
	}
	got := km.LayerNames()
	want := []string{"zz", "aa", "mm"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("层顺序不一致 (-want +got):\n%s", diff)
	}
}

// TestNestedRows 验证按行嵌套的层内容被展开成扁平列表。
func TestNestedRows(t *testing.T) {
	doc := "layers:\n  base:\n    - [a, b]\n    - [c]\n"
	km, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse 出错: %v", err)
	}
	want := []LayoutKey{{Tap: "a"}, {Tap: "b"}, {Tap: "c"}}
	if diff := cmp.Diff(want, km.Layers[0].Keys); diff != "" {
		t.Fatalf("展开结果不一致 (-want +got):\n%s", diff)
	}
}

// TestLayoutKeyForms 覆盖标量、数字、长字段名与非法写法。
func TestLayoutKeyForms(t *testing.T) {
	var k LayoutKey
	if err := yaml.Unmarshal([]byte(`5`), &k); err != nil {
		t.Fatalf("数字标量解析出错: %v", err)
	}
	if k.Tap != "5" {
		t.Fatalf("数字标量 Tap 期望 %q，实际 %q", "5", k.Tap)
	}

	if err := yaml.Unmarshal([]byte(`{tap: x, hold: y, shifted: z, type: ghost}`), &k); err != nil {
		t.Fatalf("长字段名解析出错: %v", err)
	}
	want := LayoutKey{Tap: "x", Hold: "y", Shifted: "z", Type: "ghost"}
	if diff := cmp.Diff(want, k); diff != "" {
		t.Fatalf("长字段名结果不一致 (-want +got):\n%s", diff)
	}

	if err := yaml.Unmarshal([]byte(`{nope: 1}`), &k); err == nil {
		t.Fatalf("未知字段应当报错")
	}
	if err := yaml.Unmarshal([]byte(`{t: [a]}`), &k); err == nil {
		t.Fatalf("非标量字段值应当报错")
	}
}

// TestMarshalRoundTrip 验证序列化输出可以原样解析回来。
func TestMarshalRoundTrip(t *testing.T) {
	km, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Parse 出错: %v", err)
	}
	data, err := yaml.Marshal(km)
	if err != nil {
		t.Fatalf("Marshal 出错: %v", err)
	}
	again, err := Parse(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("二次解析出错: %v\n%s", err, data)
	}
	if diff := cmp.Diff(km.Layers, again.Layers); diff != "" {
		t.Fatalf("往返后层不一致 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(km.Combos, again.Combos); diff != "" {
		t.Fatalf("往返后组合键不一致 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(km.Layout, again.Layout); diff != "" {
		t.Fatalf("往返后布局不一致 (-want +got):\n%s", diff)
	}
}

// TestMarshalShorthand 验证只有轻按图例的按键退化为标量写法。
func TestMarshalShorthand(t *testing.T) {
	km := &Keymap{Layers: []Layer{{Name: "base", Keys: []LayoutKey{
		{Tap: "a"},
		{Tap: "b", Hold: "Ctrl"},
	}}}}
	data, err := yaml.Marshal(km)
	if err != nil {
		t.Fatalf("Marshal 出错: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "- a\n") {
		t.Fatalf("纯轻按图例应输出为标量:\n%s", text)
	}
	if !strings.Contains(text, "{t: b, h: Ctrl}") {
		t.Fatalf("多槽位图例应输出为流式映射:\n%s", text)
	}
}

// TestValidate 覆盖结构性校验：空层、重名、组合键引用错误。
func TestValidate(t *testing.T) {
	if err := (&Keymap{}).Validate(); err == nil {
		t.Fatalf("零层键图应当报错")
	}

	dup := &Keymap{Layers: []Layer{{Name: "a"}, {Name: "a"}}}
	if err := dup.Validate(); err == nil {
		t.Fatalf("重复层名应当报错")
	}

	outOfRange := &Keymap{
		Layout: LayoutDef{Keys: []layout.KeySpec{{X: 0, Y: 0}}},
		Layers: []Layer{{Name: "base", Keys: []LayoutKey{{Tap: "a"}}}},
		Combos: []Combo{{Positions: []int{5}, Key: LayoutKey{Tap: "x"}}},
	}
	if err := outOfRange.Validate(); err == nil {
		t.Fatalf("组合键位置越界应当报错")
	}

	badLayer := &Keymap{
		Layers: []Layer{{Name: "base", Keys: []LayoutKey{{Tap: "a"}}}},
		Combos: []Combo{{Positions: []int{0}, Layers: []string{"nope"}}},
	}
	if err := badLayer.Validate(); err == nil {
		t.Fatalf("组合键引用未知层应当报错")
	}

	badAlign := &Keymap{
		Layers: []Layer{{Name: "base", Keys: []LayoutKey{{Tap: "a"}}}},
		Combos: []Combo{{Positions: []int{0}, Align: "sideways"}},
	}
	if err := badAlign.Validate(); err == nil {
		t.Fatalf("未知对齐方式应当报错")
	}
}
