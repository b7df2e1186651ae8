package keymap

import "fmt"

// 组合键注释框相对成员按键的对齐方式。
const (
	AlignMid    = "mid"
	AlignTop    = "top"
	AlignBottom = "bottom"
	AlignLeft   = "left"
	AlignRight  = "right"
)

// Combo 描述一条组合键：同时按下 Positions 指定的按键触发 Key。
// 注释框默认画在成员按键的几何中心，可通过 Align 与 Offset 推到
// 键区外侧。
type Combo struct {
	// 成员按键在布局中的序号。
	Positions []int `yaml:"p,flow" json:"p"`

	// 触发的图例，写法与层内按键一致。
	Key LayoutKey `yaml:"k" json:"k"`

	// 只在这些层上绘制；为空表示所有层。
	Layers []string `yaml:"l,omitempty,flow" json:"l,omitempty"`

	// 对齐方式，空值等同 mid。
	Align string `yaml:"a,omitempty" json:"a,omitempty"`

	// 沿对齐方向的额外位移，单位为按键宽/高的倍数。
	Offset float64 `yaml:"o,omitempty" json:"o,omitempty"`

	// 注释框宽高，0 取配置中的 combo_w/combo_h。
	Width  float64 `yaml:"w,omitempty" json:"w,omitempty"`
	Height float64 `yaml:"h,omitempty" json:"h,omitempty"`

	// 注释框绕自身中心的旋转角度（度）。
	Rotation float64 `yaml:"r,omitempty" json:"r,omitempty"`

	// 是否绘制注释框到成员按键的连线。nil 表示自动：
	// 仅当注释框被推离键区时绘制。
	Dendron *bool `yaml:"d,omitempty" json:"d,omitempty"`

	// 追加到注释框 class 的自定义类型。
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// AlignOrDefault 返回归一化后的对齐方式。
func (c *Combo) AlignOrDefault() string {
	if c.Align == "" {
		return AlignMid
	}
	return c.Align
}

func (c *Combo) validate(numKeys int) error {
	if len(c.Positions) == 0 {
		return fmt.Errorf("组合键缺少成员按键位置")
	}
	for _, p := range c.Positions {
		if p < 0 {
			return fmt.Errorf("组合键位置 %d 非法", p)
		}
		if numKeys > 0 && p >= numKeys {
			return fmt.Errorf("组合键位置 %d 超出布局（共 %d 键）", p, numKeys)
		}
	}
	switch c.AlignOrDefault() {
	case AlignMid, AlignTop, AlignBottom, AlignLeft, AlignRight:
	default:
		return fmt.Errorf("未知的组合键对齐方式 %q", c.Align)
	}
	return nil
}
