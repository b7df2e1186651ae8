package parse

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/shroomist/keymap-drawer/keymap"
)

// qmkFile is the subset of a QMK keymap.json export that matters for
// drawing.
type qmkFile struct {
	Keyboard   string     `json:"keyboard"`
	Keymap     string     `json:"keymap"`
	Layout     string     `json:"layout"`
	LayerNames []string   `json:"layer_names"`
	Layers     [][]string `json:"layers"`
}

var (
	modTapRe    = regexp.MustCompile(`^([A-Z]+)_T\((.+)\)$`)
	layerTapRe  = regexp.MustCompile(`^LT\((\d+),\s*(.+)\)$`)
	momentaryRe = regexp.MustCompile(`^(MO|TO|TG|TT|DF)\((\d+)\)$`)
	oneShotRe   = regexp.MustCompile(`^OSM\(MOD_([A-Z]+)\)$`)
)

// qmkModTaps maps the prefixes of QMK mod-tap wrappers like LCTL_T(..)
// to display names.
var qmkModTaps = map[string]string{
	"LCTL": "Ctrl", "RCTL": "Ctrl", "CTL": "Ctrl", "C": "Ctrl",
	"LSFT": "Shift", "RSFT": "Shift", "SFT": "Shift", "S": "Shift",
	"LALT": "Alt", "RALT": "Alt", "ALT": "Alt", "A": "Alt",
	"LGUI": "Gui", "RGUI": "Gui", "GUI": "Gui", "G": "Gui",
	"LOPT": "Alt", "ROPT": "Alt",
	"LCMD": "Gui", "RCMD": "Gui",
	"HYPR": "Hyper", "MEH": "Meh",
}

// QMK parses a QMK keymap.json export into layers. Layers are named
// from layer_names when present, otherwise L0, L1 and so on.
func QMK(r io.Reader) (*keymap.Keymap, error) {
	var file qmkFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode keymap.json: %w", err)
	}
	if len(file.Layers) == 0 {
		return nil, fmt.Errorf("keymap.json has no layers")
	}

	names := make([]string, len(file.Layers))
	for i := range file.Layers {
		if i < len(file.LayerNames) && file.LayerNames[i] != "" {
			names[i] = file.LayerNames[i]
		} else {
			names[i] = "L" + strconv.Itoa(i)
		}
	}

	km := &keymap.Keymap{}
	for i, codes := range file.Layers {
		keys := make([]keymap.LayoutKey, len(codes))
		for j, code := range codes {
			keys[j] = qmkKey(code, names)
		}
		km.Layers = append(km.Layers, keymap.Layer{Name: names[i], Keys: keys})
	}
	return km, nil
}

// qmkKey converts one QMK key code string to a key legend.
func qmkKey(code string, layerNames []string) keymap.LayoutKey {
	switch code {
	case "KC_TRNS", "_______", "KC_TRANSPARENT":
		return keymap.LayoutKey{Tap: "▽", Type: "trans"}
	case "KC_NO", "XXXXXXX":
		return keymap.LayoutKey{}
	}
	if m := modTapRe.FindStringSubmatch(code); m != nil {
		if mod, ok := qmkModTaps[m[1]]; ok {
			inner := qmkKey(m[2], layerNames)
			inner.Hold = mod
			return inner
		}
	}
	if m := layerTapRe.FindStringSubmatch(code); m != nil {
		inner := qmkKey(m[2], layerNames)
		inner.Hold = qmkLayerName(m[1], layerNames)
		return inner
	}
	if m := momentaryRe.FindStringSubmatch(code); m != nil {
		return keymap.LayoutKey{Tap: qmkLayerName(m[2], layerNames)}
	}
	if m := oneShotRe.FindStringSubmatch(code); m != nil {
		tap := m[1]
		if mod, ok := qmkModTaps[m[1]]; ok {
			tap = mod
		}
		return keymap.LayoutKey{Tap: tap, Hold: "sticky"}
	}
	l := legendFor(stripPrefix(code))
	return keymap.LayoutKey{Tap: l.Tap, Shifted: l.Shifted}
}

func qmkLayerName(index string, layerNames []string) string {
	n, err := strconv.Atoi(index)
	if err != nil || n < 0 || n >= len(layerNames) {
		return index
	}
	return layerNames[n]
}
