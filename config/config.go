package config

import (
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// 该文件定义绘制阶段的全部样式参数。所有字段都可以通过 YAML 覆盖：
// 既支持独立的配置文件，也支持 keymap 文件内嵌的 draw_config 段。

//go:embed style.css
var defaultStyle string

// KeySidePars 控制"键帽侧面"模式下内层矩形相对外层的偏移与圆角。
type KeySidePars struct {
	RelX float64 `yaml:"rel_x"`
	RelY float64 `yaml:"rel_y"`
	RelW float64 `yaml:"rel_w"`
	RelH float64 `yaml:"rel_h"`
	RX   float64 `yaml:"rx"`
	RY   float64 `yaml:"ry"`
}

// DrawConfig 汇总渲染所需的数值与开关。字段命名沿用键图描述文件的
// snake_case 习惯，单位与按键几何一致（见 layout 包）。
type DrawConfig struct {
	// 单个 1u 按键的基准宽高，布局文件中的键距单位按此缩放。
	KeyW float64 `yaml:"key_w"`
	KeyH float64 `yaml:"key_h"`

	// 组合键注释框的默认宽高。
	ComboW float64 `yaml:"combo_w"`
	ComboH float64 `yaml:"combo_h"`

	// 按键矩形的圆角半径。
	KeyRx float64 `yaml:"key_rx"`
	KeyRy float64 `yaml:"key_ry"`

	// 按键内边距（矩形相对物理键缩进的量）与整板外边距。
	InnerPadW float64 `yaml:"inner_pad_w"`
	InnerPadH float64 `yaml:"inner_pad_h"`
	OuterPadW float64 `yaml:"outer_pad_w"`
	OuterPadH float64 `yaml:"outer_pad_h"`

	// 多行图例的行距（em）与辅助图例到边缘的小间距。
	LineSpacing float64 `yaml:"line_spacing"`
	SmallPad    float64 `yaml:"small_pad"`

	// tap 图例锚点相对按键中心的偏移。
	LegendRelX float64 `yaml:"legend_rel_x"`
	LegendRelY float64 `yaml:"legend_rel_y"`

	// 组合键连线的弯折半径。
	ArcRadius float64 `yaml:"arc_radius"`

	// 超过该字符数的图例按比例缩小字号；0 表示不缩小。
	ShrinkWideLegends int `yaml:"shrink_wide_legends"`

	// 是否在层标题后追加冒号。
	AppendColonToLayerHeader bool `yaml:"append_colon_to_layer_header"`

	// 键帽侧面模式：用两层矩形模拟立体键帽。
	DrawKeySides bool        `yaml:"draw_key_sides"`
	KeySidePars  KeySidePars `yaml:"key_side_pars"`

	// 文档内嵌样式表。SvgStyle 默认取内置样式，SvgExtraStyle 追加在其后。
	SvgStyle      string `yaml:"svg_style"`
	SvgExtraStyle string `yaml:"svg_extra_style"`

	// 各图例槽位的字形高度（字形宽度按其 viewBox 纵横比推算）。
	GlyphTapSize     float64 `yaml:"glyph_tap_size"`
	GlyphHoldSize    float64 `yaml:"glyph_hold_size"`
	GlyphShiftedSize float64 `yaml:"glyph_shifted_size"`

	// 自定义字形：名称到完整 <svg> 片段的映射，优先于远程来源。
	Glyphs map[string]string `yaml:"glyphs"`

	// 远程字形来源：来源名到 URL 模板的映射，模板中 {} 替换为图标名。
	GlyphURLs map[string]string `yaml:"glyph_urls"`

	// 是否把远程字形缓存到用户缓存目录。
	UseLocalCache bool `yaml:"use_local_cache"`
}

// Default 返回与内置样式表配套的默认配置。
func Default() *DrawConfig {
	return &DrawConfig{
		KeyW:                     60,
		KeyH:                     56,
		ComboW:                   28,
		ComboH:                   26,
		KeyRx:                    6,
		KeyRy:                    6,
		InnerPadW:                2,
		InnerPadH:                2,
		OuterPadW:                30,
		OuterPadH:                56,
		LineSpacing:              1.2,
		SmallPad:                 2,
		ArcRadius:                6,
		ShrinkWideLegends:        7,
		AppendColonToLayerHeader: true,
		KeySidePars: KeySidePars{
			RelX: 4,
			RelY: 4,
			RelW: 12,
			RelH: 12,
			RX:   4,
			RY:   4,
		},
		SvgStyle:         defaultStyle,
		GlyphTapSize:     14,
		GlyphHoldSize:    12,
		GlyphShiftedSize: 10,
		GlyphURLs: map[string]string{
			"tabler":   "https://raw.githubusercontent.com/tabler/tabler-icons/main/icons/outline/{}.svg",
			"mdi":      "https://raw.githubusercontent.com/Templarian/MaterialDesign-SVG/master/svg/{}.svg",
			"mdil":     "https://raw.githubusercontent.com/Pictogrammers/MaterialDesignLight/master/svg/{}.svg",
			"phosphor": "https://raw.githubusercontent.com/phosphor-icons/core/main/assets/regular/{}.svg",
		},
	}
}

// Parse 在默认值之上叠加一份 YAML 配置。文件中省略的字段保持默认。
func Parse(r io.Reader) (*DrawConfig, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}

// Overlay 把一段 YAML 节点（例如 keymap 文件内嵌的 draw_config）叠加到当前配置。
// nil 或零值节点（文档中没有该段）是空操作。
func (c *DrawConfig) Overlay(node *yaml.Node) error {
	if node == nil || node.Kind == 0 {
		return nil
	}
	if err := node.Decode(c); err != nil {
		return fmt.Errorf("解析内嵌 draw_config 失败: %w", err)
	}
	return nil
}

// Style 返回写入 <style> 块的完整样式表内容。
func (c *DrawConfig) Style() string {
	if c.SvgExtraStyle == "" {
		return c.SvgStyle
	}
	return c.SvgStyle + "\n" + c.SvgExtraStyle
}
