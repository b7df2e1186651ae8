package combo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shroomist/keymap-drawer/config"
	"github.com/shroomist/keymap-drawer/draw"
	"github.com/shroomist/keymap-drawer/keymap"
	"github.com/shroomist/keymap-drawer/layout"
)

// testLayout 生成 2x2 的测试布局，键心分别在 (30,28) (90,28)
// (30,84) (90,84)。
func testLayout(t *testing.T) *layout.PhysicalLayout {
	t.Helper()
	cfg := config.Default()
	specs := []layout.KeySpec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	phys, err := layout.Generate(specs, cfg.KeyW, cfg.KeyH)
	if err != nil {
		t.Fatalf("生成布局失败: %v", err)
	}
	return phys
}

func drawOne(t *testing.T, c keymap.Combo) string {
	t.Helper()
	var buf bytes.Buffer
	p := draw.NewPainter(config.Default(), &buf, nil)
	d := New(config.Default(), testLayout(t), []keymap.Combo{c})
	d.Draw(p, layout.Pt(30, 56), []keymap.Combo{c})
	if err := p.Err(); err != nil {
		t.Fatalf("绘制失败: %v", err)
	}
	return buf.String()
}

// TestPerLayer 验证组合键按层过滤：未限定层的组合键出现在每一层。
func TestPerLayer(t *testing.T) {
	all := keymap.Combo{Positions: []int{0, 1}, Key: keymap.LayoutKey{Tap: "Esc"}}
	navOnly := keymap.Combo{Positions: []int{2, 3}, Key: keymap.LayoutKey{Tap: "Tab"}, Layers: []string{"nav"}}
	d := New(nil, testLayout(t), []keymap.Combo{all, navOnly})

	got := d.PerLayer([]string{"base", "nav"})
	want := map[string][]keymap.Combo{
		"base": {all},
		"nav":  {all, navOnly},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("按层分配不符 (-want +got):\n%s", diff)
	}
}

// TestOffsets 验证只有对齐到上下边缘的注释框占用层外高度。
func TestOffsets(t *testing.T) {
	d := New(nil, testLayout(t), nil)
	combos := []keymap.Combo{
		{Positions: []int{0, 1}, Align: keymap.AlignTop, Offset: 0.5},
		{Positions: []int{2, 3}, Align: keymap.AlignBottom},
		{Positions: []int{0, 1}},
	}
	got := d.Offsets(combos)
	// 26 + 0.5*56 = 54
	if got.Top != 54 || got.Bottom != 26 {
		t.Fatalf("期望 Top 54 Bottom 26，实际 %+v", got)
	}
	if off := d.Offsets(nil); off != (draw.Offsets{}) {
		t.Fatalf("无组合键时不应有额外高度: %+v", off)
	}
}

// TestDrawMid 验证居中注释框落在成员按键的几何中心，相邻按键
// 不画连线。
func TestDrawMid(t *testing.T) {
	out := drawOne(t, keymap.Combo{Positions: []int{0, 1}, Key: keymap.LayoutKey{Tap: "Esc"}})

	if !strings.Contains(out, `<g class="combo combopos-0">`) {
		t.Fatalf("缺少组合键分组: %s", out)
	}
	if !strings.Contains(out, `<rect rx="6" ry="6" x="76" y="71" width="28" height="26" class="combo"/>`) {
		t.Fatalf("注释框位置错误: %s", out)
	}
	if !strings.Contains(out, `<text x="90" y="84" class="combo tap">Esc</text>`) {
		t.Fatalf("图例位置错误: %s", out)
	}
	if strings.Contains(out, "<path") {
		t.Fatalf("相邻按键不应有连线: %s", out)
	}
}

// TestDrawTopAligned 验证边缘对齐的注释框推到键区上方，连线先
// 平移再经圆角折向按键。
func TestDrawTopAligned(t *testing.T) {
	out := drawOne(t, keymap.Combo{
		Positions: []int{0, 1},
		Key:       keymap.LayoutKey{Tap: "Esc"},
		Align:     keymap.AlignTop,
	})

	if !strings.Contains(out, `<rect rx="6" ry="6" x="76" y="30" width="28" height="26" class="combo"/>`) {
		t.Fatalf("注释框应在键区上缘之外: %s", out)
	}
	if !strings.Contains(out, `<path d="M90,43 h-24 q-6,0 -6,6 v16" class="combo"/>`) {
		t.Fatalf("左侧连线错误: %s", out)
	}
	if !strings.Contains(out, `<path d="M90,43 h24 q6,0 6,6 v16" class="combo"/>`) {
		t.Fatalf("右侧连线错误: %s", out)
	}
}

// TestDendronOverride 验证 d 字段强制开关连线。
func TestDendronOverride(t *testing.T) {
	on := true
	out := drawOne(t, keymap.Combo{
		Positions: []int{0, 1},
		Key:       keymap.LayoutKey{Tap: "Esc"},
		Dendron:   &on,
	})
	if !strings.Contains(out, `<path d="M90,84 l-11,0" class="combo"/>`) {
		t.Fatalf("强制开启时应有直连线: %s", out)
	}

	off := false
	out = drawOne(t, keymap.Combo{
		Positions: []int{0, 1},
		Key:       keymap.LayoutKey{Tap: "Esc"},
		Align:     keymap.AlignTop,
		Dendron:   &off,
	})
	if strings.Contains(out, "<path") {
		t.Fatalf("强制关闭时不应有连线: %s", out)
	}
}

// TestComboRotation 验证 r 字段把注释框与图例装进旋转分组，
// 连线留在分组之外保持端点不动。
func TestComboRotation(t *testing.T) {
	out := drawOne(t, keymap.Combo{
		Positions: []int{0, 1},
		Key:       keymap.LayoutKey{Tap: "Esc"},
		Align:     keymap.AlignTop,
		Rotation:  30,
	})

	rot := strings.Index(out, `<g transform="rotate(30, 90, 43)">`)
	if rot < 0 {
		t.Fatalf("缺少旋转分组: %s", out)
	}
	if path := strings.Index(out, `<path d="M90,43 `); path < 0 || path > rot {
		t.Fatalf("连线应画在旋转分组之前: %s", out)
	}
	if !strings.Contains(out, `<rect rx="6" ry="6" x="76" y="30" width="28" height="26" class="combo"/>`) {
		t.Fatalf("注释框应保持未旋转坐标: %s", out)
	}
	if got := strings.Count(out, "</g>"); got != 2 {
		t.Fatalf("期望 2 个分组结束标签，实际 %d:\n%s", got, out)
	}
}

// TestComboLegendSlots 验证长按与 Shift 图例贴注释框上下缘。
func TestComboLegendSlots(t *testing.T) {
	out := drawOne(t, keymap.Combo{
		Positions: []int{0, 1},
		Key:       keymap.LayoutKey{Tap: "a", Hold: "b", Shifted: "c"},
	})
	for _, want := range []string{
		`<text x="90" y="84" class="combo tap">a</text>`,
		`<text x="90" y="95" class="combo hold">b</text>`,
		`<text x="90" y="73" class="combo shifted">c</text>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("缺少 %s:\n%s", want, out)
		}
	}
}

// TestCustomBoxSize 验证 w/h 覆盖默认注释框尺寸。
func TestCustomBoxSize(t *testing.T) {
	out := drawOne(t, keymap.Combo{
		Positions: []int{0, 1},
		Key:       keymap.LayoutKey{Tap: "Esc"},
		Width:     40,
		Height:    20,
	})
	if !strings.Contains(out, `width="40" height="20"`) {
		t.Fatalf("注释框尺寸未覆盖: %s", out)
	}
}
