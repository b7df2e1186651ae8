package parse

import "strings"

// Legend is the displayable form of a key code: the text printed on tap
// and, where meaningful, the text produced while Shift is held.
type Legend struct {
	Tap     string
	Shifted string
}

// keycodes maps bare key code names, shared between ZMK and QMK after
// prefix stripping, to their display legends. Letters and function keys
// display as themselves and are resolved by legendFor instead.
var keycodes = map[string]Legend{
	"0": {"0", ")"}, "N0": {"0", ")"},
	"1": {"1", "!"}, "N1": {"1", "!"},
	"2": {"2", "@"}, "N2": {"2", "@"},
	"3": {"3", "#"}, "N3": {"3", "#"},
	"4": {"4", "$"}, "N4": {"4", "$"},
	"5": {"5", "%"}, "N5": {"5", "%"},
	"6": {"6", "^"}, "N6": {"6", "^"},
	"7": {"7", "&"}, "N7": {"7", "&"},
	"8": {"8", "*"}, "N8": {"8", "*"},
	"9": {"9", "("}, "N9": {"9", "("},

	"MINUS": {"-", "_"},
	"EQUAL": {"=", "+"},
	"LBKT":  {"[", "{"}, "LBRC": {"[", "{"},
	"RBKT": {"]", "}"}, "RBRC": {"]", "}"},
	"BSLH": {"\\", "|"}, "BSLS": {"\\", "|"},
	"SEMI":  {";", ":"},
	"SQT":   {"'", "\""},
	"QUOT":  {"'", "\""},
	"GRAVE": {"`", "~"}, "GRV": {"`", "~"},
	"COMMA": {",", "<"}, "COMM": {",", "<"},
	"DOT": {".", ">"},
	"FSLH": {"/", "?"}, "SLSH": {"/", "?"},

	"EXCL": {Tap: "!"}, "EXLM": {Tap: "!"},
	"AT":   {Tap: "@"},
	"HASH": {Tap: "#"},
	"DLLR": {Tap: "$"}, "DLR": {Tap: "$"},
	"PRCNT": {Tap: "%"}, "PERC": {Tap: "%"},
	"CARET": {Tap: "^"}, "CIRC": {Tap: "^"},
	"AMPS": {Tap: "&"}, "AMPR": {Tap: "&"},
	"STAR": {Tap: "*"}, "ASTRK": {Tap: "*"}, "ASTR": {Tap: "*"},
	"LPAR": {Tap: "("}, "LPRN": {Tap: "("},
	"RPAR": {Tap: ")"}, "RPRN": {Tap: ")"},
	"UNDER": {Tap: "_"}, "UNDS": {Tap: "_"},
	"PLUS":  {Tap: "+"},
	"LBRACE": {Tap: "{"}, "LCBR": {Tap: "{"},
	"RBRACE": {Tap: "}"}, "RCBR": {Tap: "}"},
	"PIPE":  {Tap: "|"},
	"COLON": {Tap: ":"},
	"DQT":   {Tap: "\""}, "DQUO": {Tap: "\""},
	"TILDE": {Tap: "~"}, "TILD": {Tap: "~"},
	"QMARK": {Tap: "?"}, "QUES": {Tap: "?"},
	"LT": {Tap: "<"},
	"GT": {Tap: ">"},

	"ESC": {Tap: "Esc"}, "ESCAPE": {Tap: "Esc"},
	"TAB":   {Tap: "Tab"},
	"RET":   {Tap: "Enter"},
	"ENTER": {Tap: "Enter"}, "ENT": {Tap: "Enter"},
	"SPACE": {Tap: "Space"}, "SPC": {Tap: "Space"},
	"BSPC": {Tap: "Bspc"}, "BACKSPACE": {Tap: "Bspc"},
	"DEL": {Tap: "Del"}, "DELETE": {Tap: "Del"},
	"INS": {Tap: "Ins"}, "INSERT": {Tap: "Ins"},
	"HOME": {Tap: "Home"},
	"END":  {Tap: "End"},
	"PG_UP": {Tap: "PgUp"}, "PGUP": {Tap: "PgUp"},
	"PG_DN": {Tap: "PgDn"}, "PGDN": {Tap: "PgDn"},
	"CAPS": {Tap: "Caps"}, "CAPSLOCK": {Tap: "Caps"},
	"PSCRN": {Tap: "PrtSc"}, "PSCR": {Tap: "PrtSc"},
	"LEFT": {Tap: "◀"}, "RIGHT": {Tap: "▶"},
	"UP": {Tap: "▲"}, "DOWN": {Tap: "▼"},

	"C_MUTE":      {Tap: "Mute"},
	"C_VOL_UP":    {Tap: "Vol+"},
	"C_VOL_DN":    {Tap: "Vol-"},
	"C_PP":        {Tap: "Play"},
	"C_NEXT":      {Tap: "Next"},
	"C_PREV":      {Tap: "Prev"},
	"C_BRI_UP":    {Tap: "Bri+"},
	"C_BRI_DN":    {Tap: "Bri-"},
	"KP_MULTIPLY": {Tap: "*"},
	"KP_DIVIDE":   {Tap: "/"},
	"KP_PLUS":     {Tap: "+"},
	"KP_MINUS":    {Tap: "-"},
}

// modifiers maps modifier key codes, in both left and right variants, to
// a short display name.
var modifiers = map[string]string{
	"LSHFT": "Shift", "RSHFT": "Shift",
	"LSHIFT": "Shift", "RSHIFT": "Shift",
	"LSFT": "Shift", "RSFT": "Shift",
	"LCTRL": "Ctrl", "RCTRL": "Ctrl",
	"LCTL": "Ctrl", "RCTL": "Ctrl",
	"LALT": "Alt", "RALT": "Alt",
	"LGUI": "Gui", "RGUI": "Gui",
	"LCMD": "Gui", "RCMD": "Gui",
	"LWIN": "Gui", "RWIN": "Gui",
	"LMETA": "Gui", "RMETA": "Gui",
}

// legendFor resolves a bare key code name to its display legend.
// Modifiers use their short names; letters, F-keys and anything else
// not in the table display as the raw name.
func legendFor(code string) Legend {
	if l, ok := keycodes[code]; ok {
		return l
	}
	if name, ok := modifiers[code]; ok {
		return Legend{Tap: name}
	}
	return Legend{Tap: code}
}

// modifierCall resolves ZMK modifier functions such as LS(N1) or
// LC(TAB) into a display legend. Shift wrappers prefer the shifted
// legend of the inner code when one is known.
func modifierCall(name string, inner Legend) (Legend, bool) {
	switch name {
	case "LS", "RS":
		if inner.Shifted != "" {
			return Legend{Tap: inner.Shifted}, true
		}
		return Legend{Tap: "Shift+" + inner.Tap}, true
	case "LC", "RC":
		return Legend{Tap: "Ctrl+" + inner.Tap}, true
	case "LA", "RA":
		return Legend{Tap: "Alt+" + inner.Tap}, true
	case "LG", "RG":
		return Legend{Tap: "Gui+" + inner.Tap}, true
	}
	return Legend{}, false
}

// stripPrefix removes the QMK KC_ prefix when present.
func stripPrefix(code string) string {
	return strings.TrimPrefix(code, "KC_")
}
