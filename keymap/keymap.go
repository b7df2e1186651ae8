// Package keymap 定义键图描述文件的数据模型。
//
// 描述文件是一份 YAML 文档，包含物理布局（layout）、可选的绘制参数
// 覆盖（draw_config）、按层组织的图例（layers）与组合键（combos）。
// 层在文档中的书写顺序即绘制顺序，因此解析时必须保序。
package keymap

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/shroomist/keymap-drawer/layout"
)

// LayoutDef 是描述文件中的物理布局段，目前只支持内联按键列表。
type LayoutDef struct {
	Keys []layout.KeySpec `yaml:"keys,omitempty" json:"keys,omitempty"`
}

// Layer 是一组与物理按键一一对应的图例，顺序与布局中的按键一致。
type Layer struct {
	Name string      `json:"name"`
	Keys []LayoutKey `json:"keys"`
}

// Keymap 是一份完整的键图描述。DrawConfig 保留原始节点，留待
// config.Overlay 叠加；未出现 draw_config 段时 Kind 为零值。
// yaml.v3 只对值类型的 yaml.Node 字段保留原始节点，指针字段会被
// 当作普通结构体逐字段解码成空节点。
type Keymap struct {
	Layout     LayoutDef `json:"layout"`
	DrawConfig yaml.Node `json:"-"`
	Layers     []Layer   `json:"layers"`
	Combos     []Combo   `json:"combos,omitempty"`
}

// Parse 从 r 读取并解析一份键图描述。
func Parse(r io.Reader) (*Keymap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取键图描述失败: %w", err)
	}
	var km Keymap
	if err := yaml.Unmarshal(data, &km); err != nil {
		return nil, fmt.Errorf("解析键图描述失败: %w", err)
	}
	if err := km.Validate(); err != nil {
		return nil, err
	}
	return &km, nil
}

// UnmarshalYAML 按文档顺序解析 layers 映射。层内容既可以是扁平的
// 按键列表，也可以按行嵌套一层列表，嵌套的行会被展开。
func (m *Keymap) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Layout     LayoutDef `yaml:"layout"`
		DrawConfig yaml.Node `yaml:"draw_config"`
		Layers     yaml.Node `yaml:"layers"`
		Combos     []Combo   `yaml:"combos"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	m.Layout = raw.Layout
	m.DrawConfig = raw.DrawConfig
	m.Combos = raw.Combos
	m.Layers = nil

	if raw.Layers.Kind == 0 {
		return nil
	}
	if raw.Layers.Kind != yaml.MappingNode {
		return fmt.Errorf("layers 必须是映射，得到 %v", raw.Layers.Kind)
	}
	for i := 0; i+1 < len(raw.Layers.Content); i += 2 {
		name := raw.Layers.Content[i].Value
		keys, err := decodeLayerKeys(raw.Layers.Content[i+1])
		if err != nil {
			return fmt.Errorf("层 %q: %w", name, err)
		}
		m.Layers = append(m.Layers, Layer{Name: name, Keys: keys})
	}
	return nil
}

func decodeLayerKeys(node *yaml.Node) ([]LayoutKey, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("层内容必须是列表，得到 %v", node.Kind)
	}
	var keys []LayoutKey
	for _, item := range node.Content {
		if item.Kind == yaml.SequenceNode {
			row, err := decodeLayerKeys(item)
			if err != nil {
				return nil, err
			}
			keys = append(keys, row...)
			continue
		}
		var k LayoutKey
		if err := item.Decode(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// MarshalYAML 以与解析对称的结构输出描述文件，层保持原有顺序。
func (m Keymap) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	appendEntry := func(name string, value interface{}) error {
		key := &yaml.Node{}
		if err := key.Encode(name); err != nil {
			return err
		}
		val := &yaml.Node{}
		if err := val.Encode(value); err != nil {
			return err
		}
		root.Content = append(root.Content, key, val)
		return nil
	}

	if len(m.Layout.Keys) > 0 {
		if err := appendEntry("layout", m.Layout); err != nil {
			return nil, err
		}
	}
	layers := &yaml.Node{Kind: yaml.MappingNode}
	for _, layer := range m.Layers {
		name := &yaml.Node{}
		if err := name.Encode(layer.Name); err != nil {
			return nil, err
		}
		keys := &yaml.Node{}
		if err := keys.Encode(layer.Keys); err != nil {
			return nil, err
		}
		layers.Content = append(layers.Content, name, keys)
	}
	key := &yaml.Node{}
	if err := key.Encode("layers"); err != nil {
		return nil, err
	}
	root.Content = append(root.Content, key, layers)

	if len(m.Combos) > 0 {
		if err := appendEntry("combos", m.Combos); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// Validate 检查描述文件的结构性约束：至少一层、层名不重复、
// 组合键引用的按键位置与层名均有效。
func (m *Keymap) Validate() error {
	if len(m.Layers) == 0 {
		return fmt.Errorf("键图描述至少需要一层")
	}
	seen := make(map[string]bool, len(m.Layers))
	for _, layer := range m.Layers {
		if seen[layer.Name] {
			return fmt.Errorf("层名 %q 重复", layer.Name)
		}
		seen[layer.Name] = true
	}
	numKeys := len(m.Layout.Keys)
	for i := range m.Combos {
		c := &m.Combos[i]
		if err := c.validate(numKeys); err != nil {
			return fmt.Errorf("第 %d 个组合键: %w", i, err)
		}
		for _, name := range c.Layers {
			if !seen[name] {
				return fmt.Errorf("第 %d 个组合键引用了不存在的层 %q", i, name)
			}
		}
	}
	return nil
}

// LayerNames 按绘制顺序返回全部层名。
func (m *Keymap) LayerNames() []string {
	names := make([]string, len(m.Layers))
	for i, layer := range m.Layers {
		names[i] = layer.Name
	}
	return names
}
