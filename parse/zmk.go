package parse

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/shroomist/keymap-drawer/keymap"
)

var (
	dtLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Int", Pattern: `0[xX][0-9A-Fa-f]+|\d+`},
		{Name: "Ident", Pattern: `#?[A-Za-z_][A-Za-z0-9_/@-]*`},
		{Name: "Symbol", Pattern: `[{}<>=;:&(),/]`},
	})

	deviceTreeParser = participle.MustBuild[deviceTree](
		participle.Lexer(dtLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment"),
		participle.UseLookahead(2),
	)

	directiveRe = regexp.MustCompile(`^\s*#\s*(include|define|undef|if|ifdef|ifndef|elif|else|endif|pragma|error|warning)\b`)
	defineRe    = regexp.MustCompile(`^\s*#\s*define\s+([A-Za-z_][A-Za-z0-9_]*)[ \t]+(.+?)\s*$`)
)

// deviceTree is the root AST node for a devicetree source file.
type deviceTree struct {
	Nodes []*dtNode `parser:"@@*"`
}

// dtNode is a devicetree node: an optional label, the node name (or a
// &label reference for overlays), then a braced body of properties and
// child nodes.
type dtNode struct {
	Label string     `parser:"(@Ident ':')?"`
	Name  string     `parser:"@('&'? (Ident | '/'))"`
	Body  []*dtEntry `parser:"'{' @@* '}' ';'"`
}

// dtEntry is either a child node or a property.
type dtEntry struct {
	Node *dtNode     `parser:"  @@"`
	Prop *dtProperty `parser:"| @@"`
}

// dtProperty is a `name = value;` assignment or a bare boolean `name;`.
type dtProperty struct {
	Name   string     `parser:"@Ident"`
	Values []*dtValue `parser:"('=' @@ (',' @@)*)? ';'"`
}

// dtValue is a string value or a `< ... >` cell list.
type dtValue struct {
	Str   *dtString `parser:"  @String"`
	Cells []*dtCell `parser:"| '<' @@* '>'"`
}

// dtCell is one item inside a cell list: a &behavior reference, an
// integer, or a symbol with optional modifier-function arguments.
type dtCell struct {
	Ref *string `parser:"  '&' @Ident"`
	Num *string `parser:"| @Int"`
	Sym *dtSym  `parser:"| @@"`
}

// dtSym is a bare symbol such as a key code, possibly wrapped in a
// modifier function like LS(N1).
type dtSym struct {
	Name string    `parser:"@Ident"`
	Args []*dtCell `parser:"('(' @@* ')')?"`
}

// dtString unquotes string property values on capture.
type dtString string

// Capture implements participle.Capture.
func (s *dtString) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = dtString(val)
	return nil
}

// ZMK parses a ZMK devicetree keymap into layers and combos. Only
// object-like #define macros are expanded; other preprocessor
// directives are dropped.
func ZMK(r io.Reader) (*keymap.Keymap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read keymap source: %w", err)
	}
	return parseZMK(string(data))
}

func parseZMK(src string) (*keymap.Keymap, error) {
	tree, err := deviceTreeParser.ParseString("", preprocess(src))
	if err != nil {
		return nil, fmt.Errorf("parse device tree: %w", err)
	}

	keymapNode := findCompatible(tree.Nodes, "zmk,keymap")
	if keymapNode == nil {
		return nil, fmt.Errorf(`no node with compatible = "zmk,keymap"`)
	}

	var layerNodes []*dtNode
	for _, e := range keymapNode.Body {
		if e.Node != nil && findProp(e.Node, "bindings") != nil {
			layerNodes = append(layerNodes, e.Node)
		}
	}
	if len(layerNodes) == 0 {
		return nil, fmt.Errorf("keymap node has no layers with bindings")
	}
	names := make([]string, len(layerNodes))
	for i, n := range layerNodes {
		names[i] = layerName(n)
	}

	km := &keymap.Keymap{}
	for i, n := range layerNodes {
		bindings := bindingList(findProp(n, "bindings"))
		keys := make([]keymap.LayoutKey, len(bindings))
		for j, b := range bindings {
			keys[j] = b.toKey(names)
		}
		km.Layers = append(km.Layers, keymap.Layer{Name: names[i], Keys: keys})
	}

	if combosNode := findCompatible(tree.Nodes, "zmk,combos"); combosNode != nil {
		for _, e := range combosNode.Body {
			if e.Node == nil {
				continue
			}
			combo, err := convertCombo(e.Node, names)
			if err != nil {
				return nil, fmt.Errorf("combo %s: %w", e.Node.Name, err)
			}
			km.Combos = append(km.Combos, combo)
		}
	}
	return km, nil
}

// preprocess drops preprocessor directives and expands object-like
// #define macros in place. Function-like macros and conditionals are
// beyond scope and simply removed.
func preprocess(src string) string {
	defines := map[string]string{}
	lines := strings.Split(src, "\n")
	continued := false
	for i, line := range lines {
		if continued {
			continued = strings.HasSuffix(strings.TrimRight(line, " \t"), `\`)
			lines[i] = ""
			continue
		}
		if !directiveRe.MatchString(line) {
			continue
		}
		continued = strings.HasSuffix(strings.TrimRight(line, " \t"), `\`)
		if m := defineRe.FindStringSubmatch(line); m != nil && !continued {
			defines[m[1]] = m[2]
		}
		lines[i] = ""
	}
	out := strings.Join(lines, "\n")

	// longest names first so FOO_BAR is not clobbered by FOO
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for _, name := range names {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		out = re.ReplaceAllString(out, defines[name])
	}
	return out
}

// findCompatible walks the tree depth-first for a node whose compatible
// property matches want.
func findCompatible(nodes []*dtNode, want string) *dtNode {
	for _, n := range nodes {
		if p := findProp(n, "compatible"); p != nil && firstString(p) == want {
			return n
		}
		var children []*dtNode
		for _, e := range n.Body {
			if e.Node != nil {
				children = append(children, e.Node)
			}
		}
		if found := findCompatible(children, want); found != nil {
			return found
		}
	}
	return nil
}

func findProp(n *dtNode, name string) *dtProperty {
	for _, e := range n.Body {
		if e.Prop != nil && e.Prop.Name == name {
			return e.Prop
		}
	}
	return nil
}

func firstString(p *dtProperty) string {
	for _, v := range p.Values {
		if v.Str != nil {
			return string(*v.Str)
		}
	}
	return ""
}

// layerName prefers the display-name property, falling back to the node
// name with its conventional _layer suffix trimmed.
func layerName(n *dtNode) string {
	if p := findProp(n, "display-name"); p != nil {
		if s := firstString(p); s != "" {
			return s
		}
	}
	return strings.TrimSuffix(n.Name, "_layer")
}

// binding is one behavior invocation from a bindings cell list.
type binding struct {
	Behavior string
	Params   []*dtCell
}

// bindingList splits the flat cell stream into per-behavior bindings.
// Each &reference starts a new binding and the cells up to the next
// reference are its parameters.
func bindingList(p *dtProperty) []binding {
	if p == nil {
		return nil
	}
	var out []binding
	for _, v := range p.Values {
		for _, c := range v.Cells {
			if c.Ref != nil {
				out = append(out, binding{Behavior: *c.Ref})
				continue
			}
			if len(out) > 0 {
				last := &out[len(out)-1]
				last.Params = append(last.Params, c)
			}
		}
	}
	return out
}

func cellInt(c *dtCell) (int, bool) {
	if c == nil || c.Num == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(*c.Num, 0, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func cellText(c *dtCell) string {
	switch {
	case c == nil:
		return ""
	case c.Ref != nil:
		return "&" + *c.Ref
	case c.Num != nil:
		if n, ok := cellInt(c); ok {
			return strconv.Itoa(n)
		}
		return *c.Num
	case c.Sym != nil:
		if len(c.Sym.Args) == 0 {
			return c.Sym.Name
		}
		args := make([]string, len(c.Sym.Args))
		for i, a := range c.Sym.Args {
			args[i] = cellText(a)
		}
		return c.Sym.Name + "(" + strings.Join(args, ",") + ")"
	}
	return ""
}

// cellLegend resolves a parameter cell to a display legend, unwrapping
// modifier functions recursively.
func cellLegend(c *dtCell) Legend {
	if c == nil {
		return Legend{}
	}
	if c.Sym != nil {
		if len(c.Sym.Args) == 1 {
			if l, ok := modifierCall(c.Sym.Name, cellLegend(c.Sym.Args[0])); ok {
				return l
			}
		}
		if len(c.Sym.Args) == 0 {
			return legendFor(c.Sym.Name)
		}
	}
	return Legend{Tap: cellText(c)}
}

// layerRef resolves a layer parameter: a known index becomes the layer
// name, anything else keeps its textual form.
func layerRef(c *dtCell, layerNames []string) string {
	if n, ok := cellInt(c); ok && n >= 0 && n < len(layerNames) {
		return layerNames[n]
	}
	return cellText(c)
}

func (b binding) param(i int) *dtCell {
	if i < len(b.Params) {
		return b.Params[i]
	}
	return nil
}

// toKey converts one behavior binding to a key legend.
func (b binding) toKey(layerNames []string) keymap.LayoutKey {
	switch b.Behavior {
	case "kp":
		l := cellLegend(b.param(0))
		return keymap.LayoutKey{Tap: l.Tap, Shifted: l.Shifted}
	case "mt":
		l := cellLegend(b.param(1))
		return keymap.LayoutKey{Tap: l.Tap, Shifted: l.Shifted, Hold: cellLegend(b.param(0)).Tap}
	case "lt":
		l := cellLegend(b.param(1))
		return keymap.LayoutKey{Tap: l.Tap, Shifted: l.Shifted, Hold: layerRef(b.param(0), layerNames)}
	case "mo", "to", "tog":
		return keymap.LayoutKey{Tap: layerRef(b.param(0), layerNames)}
	case "sk":
		return keymap.LayoutKey{Tap: cellLegend(b.param(0)).Tap, Hold: "sticky"}
	case "sl":
		return keymap.LayoutKey{Tap: layerRef(b.param(0), layerNames), Hold: "sticky"}
	case "caps_word":
		return keymap.LayoutKey{Tap: "Caps Word"}
	case "trans":
		return keymap.LayoutKey{Tap: "▽", Type: "trans"}
	case "none":
		return keymap.LayoutKey{}
	}
	parts := []string{"&" + b.Behavior}
	for _, p := range b.Params {
		parts = append(parts, cellText(p))
	}
	return keymap.LayoutKey{Tap: strings.Join(parts, " ")}
}

// convertCombo maps a combo node to the keymap model.
func convertCombo(n *dtNode, layerNames []string) (keymap.Combo, error) {
	posProp := findProp(n, "key-positions")
	if posProp == nil {
		return keymap.Combo{}, fmt.Errorf("missing key-positions")
	}
	var combo keymap.Combo
	for _, v := range posProp.Values {
		for _, c := range v.Cells {
			p, ok := cellInt(c)
			if !ok {
				return keymap.Combo{}, fmt.Errorf("key position %q is not a number", cellText(c))
			}
			combo.Positions = append(combo.Positions, p)
		}
	}
	if bindings := bindingList(findProp(n, "bindings")); len(bindings) > 0 {
		combo.Key = bindings[0].toKey(layerNames)
	}
	if layersProp := findProp(n, "layers"); layersProp != nil {
		for _, v := range layersProp.Values {
			for _, c := range v.Cells {
				idx, ok := cellInt(c)
				if !ok || idx < 0 || idx >= len(layerNames) {
					return keymap.Combo{}, fmt.Errorf("layer reference %q is out of range", cellText(c))
				}
				combo.Layers = append(combo.Layers, layerNames[idx])
			}
		}
	}
	return combo, nil
}
