// Package expand renders parsed abbreviations into markup with numbered
// tab stops, and expands registered snippet triggers.
package expand

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jinjals/jinjals/pkg/abbr"
	"github.com/jinjals/jinjals/pkg/snippets"
)

// Options control rendering.
type Options struct {
	// Indent is the string prepended once per nesting level.
	Indent string
}

// DefaultOptions uses four-space indentation.
func DefaultOptions() Options {
	return Options{Indent: "    "}
}

// Placeholder is a tab stop in the rendered text. Index 0 is the terminal
// stop; other indexes follow document order starting at 1. Offset is the
// byte offset of the stop marker within Result.Text.
type Placeholder struct {
	Index  int
	Offset int
}

// Result is rendered markup. Text contains literal $N markers at the
// placeholder offsets.
type Result struct {
	Text         string
	Placeholders []Placeholder
}

// voidElements never take a closing tag or an inner tab stop.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Expand renders a parsed abbreviation. Output is deterministic: the same
// tree and options always produce the same text and placeholders.
func Expand(parsed *abbr.ParsedAbbreviation, opts Options) Result {
	if opts.Indent == "" {
		opts.Indent = DefaultOptions().Indent
	}
	r := &renderer{indent: opts.Indent}
	for _, root := range parsed.Roots {
		r.renderNode(root, 0, repetition{})
	}
	if len(r.stops) == 0 {
		r.stops = append(r.stops, Placeholder{Index: 0, Offset: r.b.Len()})
		r.b.WriteString("$0")
	}
	return Result{Text: r.b.String(), Placeholders: r.stops}
}

// repetition carries the 1-based clone index while rendering a repeated
// subtree. The innermost multiplication wins.
type repetition struct {
	index  int
	active bool
}

type renderer struct {
	b      strings.Builder
	indent string
	stops  []Placeholder
	next   int
}

func (r *renderer) beginLine(depth int) {
	if r.b.Len() > 0 {
		r.b.WriteByte('\n')
	}
	for i := 0; i < depth; i++ {
		r.b.WriteString(r.indent)
	}
}

func (r *renderer) writeStop() {
	r.next++
	r.stops = append(r.stops, Placeholder{Index: r.next, Offset: r.b.Len()})
	r.b.WriteString("$" + strconv.Itoa(r.next))
}

func (r *renderer) renderNode(node *abbr.Node, depth int, rep repetition) {
	if node.Repeat > 1 {
		for i := 1; i <= node.Repeat; i++ {
			r.renderOnce(node, depth, repetition{index: i, active: true})
		}
		return
	}
	r.renderOnce(node, depth, rep)
}

func (r *renderer) renderOnce(node *abbr.Node, depth int, rep repetition) {
	if node.Group {
		for _, child := range node.Children {
			r.renderNode(child, depth, rep)
		}
		return
	}

	if isBareText(node) {
		r.beginLine(depth)
		r.b.WriteString(substitute(node.Text, rep))
		return
	}

	tag := node.Tag
	if tag == "" {
		tag = "div"
	}

	r.beginLine(depth)
	r.b.WriteByte('<')
	r.b.WriteString(substitute(tag, rep))
	if node.ID != "" {
		r.b.WriteString(` id="`)
		r.b.WriteString(substitute(node.ID, rep))
		r.b.WriteByte('"')
	}
	if len(node.Classes) > 0 {
		r.b.WriteString(` class="`)
		for i, c := range node.Classes {
			if i > 0 {
				r.b.WriteByte(' ')
			}
			r.b.WriteString(substitute(c, rep))
		}
		r.b.WriteByte('"')
	}
	for _, attr := range node.Attrs {
		r.b.WriteByte(' ')
		r.b.WriteString(attr.Key)
		r.b.WriteString(`="`)
		if attr.Value == "" {
			r.writeStop()
		} else {
			r.b.WriteString(substitute(attr.Value, rep))
		}
		r.b.WriteByte('"')
	}
	r.b.WriteByte('>')

	if voidElements[tag] {
		return
	}

	if len(node.Children) == 0 {
		if node.HasText {
			r.b.WriteString(substitute(node.Text, rep))
		} else {
			r.writeStop()
		}
		r.b.WriteString("</" + tag + ">")
		return
	}

	if node.HasText && node.Text != "" {
		r.beginLine(depth + 1)
		r.b.WriteString(substitute(node.Text, rep))
	}
	for _, child := range node.Children {
		r.renderNode(child, depth+1, rep)
	}
	r.beginLine(depth)
	r.b.WriteString("</" + tag + ">")
}

func isBareText(node *abbr.Node) bool {
	return node.Tag == "" && node.ID == "" && len(node.Classes) == 0 &&
		len(node.Attrs) == 0 && len(node.Children) == 0 && node.HasText
}

// substitute replaces each run of $ characters with the clone index,
// zero padded to the run length. Outside a repeated subtree the text is
// returned untouched so literal dollars survive.
func substitute(s string, rep repetition) string {
	if !rep.active || !strings.ContainsRune(s, '$') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '$' {
			b.WriteByte(s[i])
			i++
			continue
		}
		run := 0
		for i < len(s) && s[i] == '$' {
			run++
			i++
		}
		num := strconv.Itoa(rep.index)
		for len(num) < run {
			num = "0" + num
		}
		b.WriteString(num)
	}
	return b.String()
}

// Expander resolves input against the snippet registry before falling back
// to abbreviation parsing.
type Expander struct {
	registry *snippets.Registry
	opts     Options
}

// NewExpander builds an expander. A nil registry disables snippet lookup.
func NewExpander(registry *snippets.Registry, opts Options) *Expander {
	if opts.Indent == "" {
		opts.Indent = DefaultOptions().Indent
	}
	return &Expander{registry: registry, opts: opts}
}

// Expand turns input into markup. An exact snippet trigger match wins over
// abbreviation parsing, so `!` produces the document boilerplate rather
// than a parse error.
func (e *Expander) Expand(ctx context.Context, input string) (Result, error) {
	if e.registry != nil {
		if entry, ok := e.registry.Lookup(input); ok {
			zerolog.Ctx(ctx).Debug().Str("trigger", input).Msg("expanding snippet")
			return Result{Text: entry.Body, Placeholders: PlaceholdersIn(entry.Body)}, nil
		}
	}

	parsed, err := abbr.Parse(input)
	if err != nil {
		return Result{}, err
	}
	res := Expand(parsed, e.opts)
	zerolog.Ctx(ctx).Debug().
		Str("abbreviation", input).
		Int("placeholders", len(res.Placeholders)).
		Msg("expanded abbreviation")
	return res, nil
}

// PlaceholdersIn locates $N markers in a snippet body, ordered ascending
// by index with $0 last.
func PlaceholdersIn(body string) []Placeholder {
	var stops []Placeholder
	for i := 0; i < len(body); i++ {
		if body[i] != '$' || i+1 >= len(body) || !isDigit(body[i+1]) {
			continue
		}
		j := i + 1
		for j < len(body) && isDigit(body[j]) {
			j++
		}
		n, err := strconv.Atoi(body[i+1 : j])
		if err == nil {
			stops = append(stops, Placeholder{Index: n, Offset: i})
		}
		i = j - 1
	}
	key := func(p Placeholder) int {
		if p.Index == 0 {
			return int(^uint(0) >> 1)
		}
		return p.Index
	}
	sort.SliceStable(stops, func(i, j int) bool { return key(stops[i]) < key(stops[j]) })
	return stops
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// isAbbreviationChar reports whether a byte may appear in an abbreviation
// extracted from surrounding document text.
func isAbbreviationChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '.', '#', '>', '+', '^', '*', '(', ')', '[', ']', '{', '}',
		'$', '=', ':', '-', '_', '!', '@', '/', '"', '\'':
		return true
	}
	return false
}

// AbbreviationAt extracts the abbreviation candidate ending at offset,
// scanning backwards until whitespace or a tag opener. It returns the
// candidate and the offset where it starts; an empty candidate means there
// is nothing to expand.
func AbbreviationAt(text string, offset int) (string, int) {
	if offset > len(text) {
		offset = len(text)
	}
	start := offset
	for start > 0 {
		b := text[start-1]
		if b == '<' || !isAbbreviationChar(b) {
			break
		}
		start--
	}
	// A scan stopped by a tag opener walked through that tag's closing
	// bracket; the candidate begins after it.
	if start > 0 && text[start-1] == '<' {
		if i := strings.IndexByte(text[start:offset], '>'); i >= 0 {
			start += i + 1
		}
	}
	return text[start:offset], start
}
