package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shroomist/keymap-drawer/combo"
	"github.com/shroomist/keymap-drawer/config"
	"github.com/shroomist/keymap-drawer/draw"
	"github.com/shroomist/keymap-drawer/glyph"
	"github.com/shroomist/keymap-drawer/keymap"
	"github.com/shroomist/keymap-drawer/layout"
	"github.com/shroomist/keymap-drawer/parse"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "draw":
		if err := runDraw(os.Args[2:]); err != nil {
			log.Fatalf("绘制失败: %v", err)
		}
	case "parse":
		if err := runParse(os.Args[2:]); err != nil {
			log.Fatalf("解析失败: %v", err)
		}
	case "dump-config":
		if err := runDumpConfig(os.Args[2:]); err != nil {
			log.Fatalf("输出配置失败: %v", err)
		}
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		log.Fatalf("未知子命令 %q", os.Args[1])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "用法: keymap-drawer <子命令> [参数]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "子命令:")
	fmt.Fprintln(os.Stderr, "  draw         把键图描述绘制成 SVG")
	fmt.Fprintln(os.Stderr, "  parse        把 ZMK/QMK 键映射转换成键图描述")
	fmt.Fprintln(os.Stderr, "  dump-config  输出全部绘制参数的默认值")
}

// runDraw 串联配置、键图解析、布局生成与 SVG 绘制。
func runDraw(args []string) error {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	keymapPath := fs.String("keymap", "", "键图描述 YAML 路径")
	configPath := fs.String("config", "", "绘制配置 YAML 路径，省略时使用默认值")
	layoutPath := fs.String("layout", "", "物理布局 YAML 路径，覆盖键图中的 layout 段")
	outPath := fs.String("out", "", "SVG 输出路径，省略时写到标准输出")
	selectLayers := fs.String("select", "", "只绘制这些层，逗号分隔")
	keysOnly := fs.Bool("keys-only", false, "跳过所有组合键")
	combosOnly := fs.Bool("combos-only", false, "按键图例留空，只画组合键")
	ghostKeys := fs.String("ghost-keys", "", "标记为 ghost 的按键位置，逗号分隔")
	debugPath := fs.String("debug", "", "解析结果调试 JSON 输出路径")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keymapPath == "" {
		return fmt.Errorf("必须指定 -keymap")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	file, err := os.Open(*keymapPath)
	if err != nil {
		return fmt.Errorf("无法打开键图描述 %s: %w", *keymapPath, err)
	}
	defer file.Close()
	km, err := keymap.Parse(file)
	if err != nil {
		return err
	}
	if err := cfg.Overlay(&km.DrawConfig); err != nil {
		return err
	}
	if *layoutPath != "" {
		def, err := loadLayout(*layoutPath)
		if err != nil {
			return err
		}
		km.Layout = *def
		// 组合键位置要对新布局重新校验
		if err := km.Validate(); err != nil {
			return err
		}
	}
	if len(km.Layout.Keys) == 0 {
		return fmt.Errorf("缺少物理布局：键图描述没有 layout.keys，也未指定 -layout")
	}

	phys, err := layout.Generate(km.Layout.Keys, cfg.KeyW, cfg.KeyH)
	if err != nil {
		return err
	}
	if *debugPath != "" {
		if err := writeDebug(km, phys, *debugPath); err != nil {
			return err
		}
	}

	glyphs, err := glyph.New(cfg, km)
	if err != nil {
		return err
	}
	ghosts, err := parseIntList(*ghostKeys)
	if err != nil {
		return fmt.Errorf("解析 -ghost-keys 失败: %w", err)
	}

	var buf bytes.Buffer
	drawer, err := draw.New(cfg, &buf, km, phys, draw.Options{
		Glyphs: glyphs,
		Combos: combo.New(cfg, phys, km.Combos),
	})
	if err != nil {
		return err
	}
	err = drawer.PrintBoard(draw.BoardOptions{
		Layers:     splitList(*selectLayers),
		KeysOnly:   *keysOnly,
		CombosOnly: *combosOnly,
		GhostKeys:  ghosts,
	})
	if err != nil {
		return err
	}
	return writeOutput(*outPath, buf.Bytes(), "SVG")
}

// runParse 把固件格式的键映射转成键图描述 YAML。
func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	zmkPath := fs.String("zmk", "", "ZMK .keymap 文件路径")
	qmkPath := fs.String("qmk", "", "QMK keymap.json 文件路径")
	outPath := fs.String("out", "", "YAML 输出路径，省略时写到标准输出")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*zmkPath == "") == (*qmkPath == "") {
		return fmt.Errorf("必须在 -zmk 与 -qmk 中指定其一")
	}

	path := *zmkPath
	parser := parse.ZMK
	if *qmkPath != "" {
		path = *qmkPath
		parser = parse.QMK
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("无法打开键映射 %s: %w", path, err)
	}
	defer file.Close()

	km, err := parser(file)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(km)
	if err != nil {
		return fmt.Errorf("生成键图描述失败: %w", err)
	}
	return writeOutput(*outPath, data, "键图描述")
}

// runDumpConfig 输出内置默认配置，便于以它为起点自定义。
func runDumpConfig(args []string) error {
	fs := flag.NewFlagSet("dump-config", flag.ExitOnError)
	outPath := fs.String("out", "", "YAML 输出路径，省略时写到标准输出")
	if err := fs.Parse(args); err != nil {
		return err
	}
	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("序列化默认配置失败: %w", err)
	}
	return writeOutput(*outPath, data, "默认配置")
}

func loadConfig(path string) (*config.DrawConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开配置 %s: %w", path, err)
	}
	defer file.Close()
	return config.Parse(file)
}

// loadLayout 读取独立的物理布局文件，既接受带 keys 段的映射，
// 也接受裸的按键列表。
func loadLayout(path string) (*keymap.LayoutDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取布局 %s: %w", path, err)
	}
	var def keymap.LayoutDef
	if err := yaml.Unmarshal(data, &def); err == nil && len(def.Keys) > 0 {
		return &def, nil
	}
	var keys []layout.KeySpec
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("解析布局 %s 失败: %w", path, err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("布局 %s 中没有按键", path)
	}
	return &keymap.LayoutDef{Keys: keys}, nil
}

// writeOutput 把结果写到文件或标准输出，写文件时自动建目录。
func writeOutput(path string, data []byte, what string) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	fmt.Printf("已生成 %s：%s\n", what, path)
	return nil
}

// writeDebug 把解析后的键图与布局以 JSON 落盘，方便排查。
func writeDebug(km *keymap.Keymap, phys *layout.PhysicalLayout, path string) error {
	payload := struct {
		Keymap *keymap.Keymap         `json:"keymap"`
		Layout *layout.PhysicalLayout `json:"layout"`
	}{km, phys}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化调试 JSON 失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntList(s string) ([]int, error) {
	var out []int
	for _, p := range splitList(s) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
