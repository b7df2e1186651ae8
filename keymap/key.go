package keymap

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LayoutKey 描述单个按键上的图例：轻按、长按、Shift 三个槽位，
// 以及追加到 SVG class 的自定义类型。
//
// YAML 里既可以写成纯标量（只有轻按图例），也可以写成映射：
//
//	- A
//	- {t: B, h: Ctrl}
//	- {t: ";", s: ":", type: morph}
type LayoutKey struct {
	Tap     string `yaml:"t,omitempty" json:"t,omitempty"`
	Hold    string `yaml:"h,omitempty" json:"h,omitempty"`
	Shifted string `yaml:"s,omitempty" json:"s,omitempty"`
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
}

// IsEmpty 报告三个图例槽位是否全部为空。
func (k LayoutKey) IsEmpty() bool {
	return k.Tap == "" && k.Hold == "" && k.Shifted == ""
}

// UnmarshalYAML 同时接受标量与映射两种写法。映射字段支持短名
// （t/h/s）与长名（tap/hold/shifted）。标量取其原始文本，因此
// 数字图例不需要额外加引号。
func (k *LayoutKey) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*k = LayoutKey{}
			return nil
		}
		*k = LayoutKey{Tap: node.Value}
		return nil
	case yaml.MappingNode:
		*k = LayoutKey{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			field, value := node.Content[i], node.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return fmt.Errorf("按键字段 %q 的值必须是标量", field.Value)
			}
			text := value.Value
			if value.Tag == "!!null" {
				text = ""
			}
			switch field.Value {
			case "t", "tap":
				k.Tap = text
			case "h", "hold":
				k.Hold = text
			case "s", "shifted":
				k.Shifted = text
			case "type":
				k.Type = text
			default:
				return fmt.Errorf("按键定义包含未知字段 %q", field.Value)
			}
		}
		return nil
	default:
		return fmt.Errorf("按键定义必须是标量或映射，得到 %v", node.Kind)
	}
}

// MarshalYAML 在可能时退化为标量写法，保持输出紧凑。
func (k LayoutKey) MarshalYAML() (interface{}, error) {
	if k.Hold == "" && k.Shifted == "" && k.Type == "" {
		return k.Tap, nil
	}
	type plain LayoutKey
	node := &yaml.Node{}
	if err := node.Encode(plain(k)); err != nil {
		return nil, err
	}
	node.Style = yaml.FlowStyle
	return node, nil
}
