package layout

import (
	"fmt"
	"math"
)

// 该文件定义物理布局模型：每个按键的几何描述与整板的包围盒尺寸。
// 布局只描述"按键在哪里"，不关心各层图例内容。

// PhysicalKey 描述一个按键位置的固定几何信息。
// Pos 是按键中心相对布局原点的偏移；Rotation 以度为单位，绕按键自身中心旋转。
type PhysicalKey struct {
	Pos      Point   `json:"pos"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`
}

// PhysicalLayout 保存全部按键几何与预先算好的包围盒尺寸。
// 键序即图例层中按键的索引顺序，整个渲染过程以此对齐。
type PhysicalLayout struct {
	Keys   []PhysicalKey `json:"keys"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
}

// KeySpec 是布局描述文件中单个按键的原始条目，坐标与宽高以键距（u）为单位。
// x/y 为未旋转时按键左上角位置；r 为旋转角度（度）；rx/ry 为旋转锚点，
// 缺省时取按键自身左上角（与 QMK info.json 的习惯一致）。
type KeySpec struct {
	X  float64  `yaml:"x" json:"x"`
	Y  float64  `yaml:"y" json:"y"`
	W  float64  `yaml:"w,omitempty" json:"w,omitempty"`
	H  float64  `yaml:"h,omitempty" json:"h,omitempty"`
	R  float64  `yaml:"r,omitempty" json:"r,omitempty"`
	RX *float64 `yaml:"rx,omitempty" json:"rx,omitempty"`
	RY *float64 `yaml:"ry,omitempty" json:"ry,omitempty"`
}

// Generate 将键距单位的按键条目转换为物理布局：宽高分别按 keyW/keyH 缩放，
// 旋转锚点折算为"绕自身中心旋转"的等价表示，最后把整板平移到包围盒原点。
func Generate(specs []KeySpec, keyW, keyH float64) (*PhysicalLayout, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("布局中没有任何按键条目")
	}
	if keyW <= 0 || keyH <= 0 {
		return nil, fmt.Errorf("按键基准尺寸必须为正值: key_w=%v key_h=%v", keyW, keyH)
	}

	keys := make([]PhysicalKey, 0, len(specs))
	for i, s := range specs {
		w, h := s.W, s.H
		if w == 0 {
			w = 1
		}
		if h == 0 {
			h = 1
		}
		if w < 0 || h < 0 {
			return nil, fmt.Errorf("按键 %d 的宽高不能为负: w=%v h=%v", i, s.W, s.H)
		}

		center := Pt(s.X+w/2, s.Y+h/2)
		if s.R != 0 {
			// 条目的旋转锚点默认为按键左上角；绕锚点旋转中心点后，
			// 剩余的旋转量归结为绕按键自身中心的旋转，交给绘制阶段的 transform。
			anchor := Pt(s.X, s.Y)
			if s.RX != nil {
				anchor.X = *s.RX
			}
			if s.RY != nil {
				anchor.Y = *s.RY
			}
			center = center.RotateAround(s.R, anchor)
		}

		keys = append(keys, PhysicalKey{
			Pos:      Pt(center.X*keyW, center.Y*keyH),
			Width:    w * keyW,
			Height:   h * keyH,
			Rotation: s.R,
		})
	}
	return New(keys)
}

// New 根据已是绝对坐标的按键集合构建布局：计算旋转后的包围盒，
// 把所有按键平移到以包围盒左上角为原点，并记录整板宽高。
func New(keys []PhysicalKey) (*PhysicalLayout, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("布局中没有任何按键")
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, k := range keys {
		for _, c := range k.corners() {
			minX = math.Min(minX, c.X)
			maxX = math.Max(maxX, c.X)
			minY = math.Min(minY, c.Y)
			maxY = math.Max(maxY, c.Y)
		}
	}

	shifted := make([]PhysicalKey, len(keys))
	for i, k := range keys {
		k.Pos = k.Pos.Sub(Pt(minX, minY))
		shifted[i] = k
	}
	return &PhysicalLayout{
		Keys:   shifted,
		Width:  maxX - minX,
		Height: maxY - minY,
	}, nil
}

// NumKeys 返回布局中的按键数量，各图例层必须与之等长。
func (l *PhysicalLayout) NumKeys() int {
	return len(l.Keys)
}

// corners 返回按键四个角的坐标，已按 Rotation 绕中心旋转。
func (k PhysicalKey) corners() [4]Point {
	hw, hh := k.Width/2, k.Height/2
	corners := [4]Point{
		k.Pos.Add(Pt(-hw, -hh)),
		k.Pos.Add(Pt(hw, -hh)),
		k.Pos.Add(Pt(hw, hh)),
		k.Pos.Add(Pt(-hw, hh)),
	}
	if k.Rotation != 0 {
		for i, c := range corners {
			corners[i] = c.RotateAround(k.Rotation, k.Pos)
		}
	}
	return corners
}
