// Package glyph 解析形如 $name$ 或 $source:name$ 的字形图例。
//
// 字形内容有两个来源：配置中 glyphs 映射内联的 SVG 片段，以及
// glyph_urls 模板指向的远程图标库。远程内容可选地缓存到用户缓存
// 目录。构造时一次性收集键图里引用的全部字形，绘制阶段只做查表。
package glyph

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/shroomist/keymap-drawer/config"
	"github.com/shroomist/keymap-drawer/draw"
	"github.com/shroomist/keymap-drawer/keymap"
)

var _ draw.GlyphResolver = (*Resolver)(nil)

// legendRe 匹配完整的字形引用图例。
var legendRe = regexp.MustCompile(`^\$([^$]+)\$$`)

// xmlPrologRe 去掉远程 SVG 开头的 XML 声明。
var xmlPrologRe = regexp.MustCompile(`<\?xml.*?\?>`)

type glyphDef struct {
	content string
	w, h    float64
}

// Resolver 持有键图引用的全部字形及其 viewBox 尺寸。
type Resolver struct {
	cfg    *config.DrawConfig
	glyphs map[string]glyphDef
}

// New 扫描键图中的字形引用并取得它们的内容。引用了未知来源或
// 获取失败都会让构造失败。
func New(cfg *config.DrawConfig, km *keymap.Keymap) (*Resolver, error) {
	return build(cfg, km, fetchRemote)
}

func build(cfg *config.DrawConfig, km *keymap.Keymap, fetch func(url string) ([]byte, error)) (*Resolver, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Resolver{cfg: cfg, glyphs: map[string]glyphDef{}}
	if km == nil {
		return r, nil
	}
	for _, name := range referencedNames(km) {
		raw, err := r.load(name, fetch)
		if err != nil {
			return nil, fmt.Errorf("字形 %q: %w", name, err)
		}
		w, h, err := viewBoxDims(raw)
		if err != nil {
			return nil, fmt.Errorf("字形 %q: %w", name, err)
		}
		r.glyphs[name] = glyphDef{content: sanitize(raw), w: w, h: h}
	}
	return r, nil
}

// referencedNames 按首次出现的顺序收集键图里引用的字形名。
func referencedNames(km *keymap.Keymap) []string {
	var names []string
	seen := map[string]bool{}
	add := func(k keymap.LayoutKey) {
		for _, legend := range []string{k.Tap, k.Hold, k.Shifted} {
			if m := legendRe.FindStringSubmatch(legend); m != nil && !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}
	for _, layer := range km.Layers {
		for _, k := range layer.Keys {
			add(k)
		}
	}
	for _, c := range km.Combos {
		add(c.Key)
	}
	return names
}

// load 取一个字形的原始 SVG：先查配置内联映射，再按 source:name
// 拆分走远程模板，可选经过本地缓存。
func (r *Resolver) load(name string, fetch func(url string) ([]byte, error)) (string, error) {
	if svg, ok := r.cfg.Glyphs[name]; ok {
		return svg, nil
	}
	source, icon, ok := strings.Cut(name, ":")
	if !ok {
		return "", fmt.Errorf("未在配置中定义，也不是 source:name 形式的远程引用")
	}
	tmpl, ok := r.cfg.GlyphURLs[source]
	if !ok {
		return "", fmt.Errorf("未知的字形来源 %q", source)
	}

	var cachePath string
	if r.cfg.UseLocalCache {
		if dir, err := os.UserCacheDir(); err == nil {
			cachePath = filepath.Join(dir, "keymap-drawer", source, icon+".svg")
			if data, err := os.ReadFile(cachePath); err == nil {
				return string(data), nil
			}
		}
	}

	data, err := fetch(strings.ReplaceAll(tmpl, "{}", icon))
	if err != nil {
		return "", err
	}
	if cachePath != "" {
		if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err == nil {
			_ = os.WriteFile(cachePath, data, 0o644)
		}
	}
	return string(data), nil
}

func fetchRemote(url string) ([]byte, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("获取远程字形失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("获取远程字形失败: %s 返回 %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// viewBoxDims 从 SVG 根元素的 viewBox 属性解出宽高。
func viewBoxDims(raw string) (w, h float64, err error) {
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if err != nil {
			return 0, 0, fmt.Errorf("解析 SVG 失败: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return 0, 0, fmt.Errorf("根元素是 %q 而不是 svg", start.Name.Local)
		}
		for _, attr := range start.Attr {
			if attr.Name.Local != "viewBox" {
				continue
			}
			fields := strings.Fields(attr.Value)
			if len(fields) != 4 {
				return 0, 0, fmt.Errorf("viewBox %q 不是四个数", attr.Value)
			}
			w, errW := strconv.ParseFloat(fields[2], 64)
			h, errH := strconv.ParseFloat(fields[3], 64)
			if errW != nil || errH != nil || w <= 0 || h <= 0 {
				return 0, 0, fmt.Errorf("viewBox %q 的宽高非法", attr.Value)
			}
			return w, h, nil
		}
		return 0, 0, fmt.Errorf("缺少 viewBox 属性")
	}
}

// sanitize 去掉 XML 声明并裁剪首尾空白，保证片段可以直接内嵌。
func sanitize(raw string) string {
	return strings.TrimSpace(xmlPrologRe.ReplaceAllString(raw, ""))
}

// Lookup 实现 draw.GlyphResolver。
func (r *Resolver) Lookup(legend string) (string, bool) {
	m := legendRe.FindStringSubmatch(legend)
	if m == nil {
		return "", false
	}
	if _, ok := r.glyphs[m[1]]; !ok {
		return "", false
	}
	return m[1], true
}

// Dimensions 实现 draw.GlyphResolver。高度取配置中对应槽位的
// 字号，宽度按 viewBox 纵横比换算。
func (r *Resolver) Dimensions(name string, slot draw.LegendSlot) draw.GlyphDims {
	g, ok := r.glyphs[name]
	if !ok {
		return draw.GlyphDims{}
	}
	var d draw.GlyphDims
	switch slot {
	case draw.SlotHold:
		d.Height = r.cfg.GlyphHoldSize
		d.DY = d.Height
	case draw.SlotShifted:
		d.Height = r.cfg.GlyphShiftedSize
		d.DY = 0
	default:
		d.Height = r.cfg.GlyphTapSize
		d.DY = d.Height / 2
	}
	d.Width = d.Height * g.w / g.h
	return d
}

// Defs 实现 draw.GlyphResolver。字形按名称排序，每个片段的根
// 元素注入 id 以便 use 引用。
func (r *Resolver) Defs() string {
	if len(r.glyphs) == 0 {
		return ""
	}
	names := make([]string, 0, len(r.glyphs))
	for name := range r.glyphs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("<defs>\n")
	for _, name := range names {
		b.WriteString(strings.Replace(r.glyphs[name].content, "<svg", fmt.Sprintf(`<svg id="%s"`, name), 1))
		b.WriteString("\n")
	}
	b.WriteString("</defs>\n")
	return b.String()
}
