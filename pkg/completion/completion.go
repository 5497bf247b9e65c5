// Package completion assembles ranked suggestion lists from the cursor
// context: static HTML and template vocabularies, snippet triggers, and
// symbols extracted from the document.
package completion

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jinjals/jinjals/pkg/analysis"
	"github.com/jinjals/jinjals/pkg/snippets"
)

// ItemKind mirrors the LSP completion item kinds the assembler produces.
type ItemKind int

const (
	ItemKindKeyword  ItemKind = 14
	ItemKindVariable ItemKind = 6
	ItemKindFunction ItemKind = 3
	ItemKindProperty ItemKind = 10
	ItemKindValue    ItemKind = 12
	ItemKindSnippet  ItemKind = 15
)

// Item is one ranked suggestion. InsertText may contain $N placeholder
// markers. SortRank is the item's final position in the returned list.
type Item struct {
	Label         string
	Detail        string
	Documentation string
	InsertText    string
	Kind          ItemKind
	SortRank      int
}

// Request carries one completion invocation.
type Request struct {
	Text        string
	Offset      int
	TriggerChar string
}

// Assembler sources candidates by context kind and ranks them.
type Assembler struct {
	registry       *snippets.Registry
	enableSnippets bool
}

// NewAssembler builds an assembler. When enableSnippets is false, snippet
// triggers never appear as candidates.
func NewAssembler(registry *snippets.Registry, enableSnippets bool) *Assembler {
	return &Assembler{registry: registry, enableSnippets: enableSnippets}
}

// candidate ranks: document-derived names sort before static vocabulary,
// which sorts before snippet triggers.
const (
	rankDocument = iota
	rankVocabulary
	rankSnippet
)

// Complete classifies the cursor and returns suggestions filtered by the
// typed prefix. Exact-prefix matches order before substring matches, then
// source rank, then label.
func (a *Assembler) Complete(ctx context.Context, req Request) []Item {
	kind := analysis.ClassifyContext(req.Text, req.Offset)
	prefix := PrefixAt(req.Text, req.Offset)

	var cands []candidate
	switch kind {
	case analysis.TagName:
		cands = a.tagCandidates()
	case analysis.AttributeName:
		cands = a.attributeCandidates(req)
	case analysis.AttributeValue:
		cands = a.attributeValueCandidates(req)
	case analysis.CssClassValue:
		cands = a.classCandidates(req)
	case analysis.ExpressionBody:
		cands = a.expressionCandidates(req)
	case analysis.StatementBody:
		cands = a.statementCandidates()
	case analysis.PlainMarkup:
		cands = a.snippetCandidates()
	case analysis.CommentBody:
		// nothing completes inside a comment
	}

	items := rank(cands, prefix)
	zerolog.Ctx(ctx).Debug().
		Stringer("context", kind).
		Str("prefix", prefix).
		Int("items", len(items)).
		Msg("assembled completions")
	return items
}

type candidate struct {
	item Item
	rank int
}

func rank(cands []candidate, prefix string) []Item {
	type scored struct {
		candidate
		matchClass int
	}
	var kept []scored
	for _, c := range cands {
		matchClass := 0
		if prefix != "" {
			switch {
			case strings.HasPrefix(c.item.Label, prefix):
			case strings.Contains(c.item.Label, prefix):
				matchClass = 1
			default:
				continue
			}
		}
		kept = append(kept, scored{candidate: c, matchClass: matchClass})
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].matchClass != kept[j].matchClass {
			return kept[i].matchClass < kept[j].matchClass
		}
		if kept[i].rank != kept[j].rank {
			return kept[i].rank < kept[j].rank
		}
		return kept[i].item.Label < kept[j].item.Label
	})
	items := make([]Item, len(kept))
	for i, s := range kept {
		s.item.SortRank = i
		items[i] = s.item
	}
	return items
}

func (a *Assembler) tagCandidates() []candidate {
	var cands []candidate
	for _, tag := range sortedKeys(htmlTags) {
		info := htmlTags[tag]
		cands = append(cands, candidate{rank: rankVocabulary, item: Item{
			Label:         tag,
			Kind:          ItemKindKeyword,
			Detail:        fmt.Sprintf("HTML <%s> element", tag),
			Documentation: info.Description,
			InsertText:    info.Snippet,
		}})
	}
	return append(cands, a.snippetCandidates()...)
}

func (a *Assembler) attributeCandidates(req Request) []candidate {
	tag, _ := analysis.EnclosingTagContext(req.Text, req.Offset)
	var cands []candidate
	for _, name := range sortedKeys(htmlAttributes) {
		info := htmlAttributes[name]
		if tag.Name != "" && !info.Global && !contains(info.Tags, tag.Name) {
			continue
		}
		insert := name
		if !info.Boolean {
			insert = name + `="$1"$0`
		}
		cands = append(cands, candidate{rank: rankVocabulary, item: Item{
			Label:         name,
			Kind:          ItemKindProperty,
			Detail:        "HTML attribute",
			Documentation: info.Description,
			InsertText:    insert,
		}})
	}
	return cands
}

func (a *Assembler) attributeValueCandidates(req Request) []candidate {
	tag, ok := analysis.EnclosingTagContext(req.Text, req.Offset)
	if !ok || tag.Attr == "" {
		return nil
	}
	info := htmlAttributes[tag.Attr]

	values := info.Values
	if info.ValuesByTag != nil {
		values = info.ValuesByTag[tag.Name]
	}

	var cands []candidate
	for _, v := range values {
		cands = append(cands, candidate{rank: rankVocabulary, item: Item{
			Label:      v,
			Kind:       ItemKindValue,
			Detail:     tag.Attr + " value",
			InsertText: v,
		}})
	}

	if tag.Attr == "style" {
		for _, prop := range cssProperties {
			cands = append(cands, candidate{rank: rankSnippet, item: Item{
				Label:      prop,
				Kind:       ItemKindProperty,
				Detail:     "CSS property",
				InsertText: prop + ": $1;",
			}})
		}
	}
	return cands
}

func (a *Assembler) classCandidates(req Request) []candidate {
	var cands []candidate
	for _, name := range analysis.ExtractClasses(req.Text) {
		cands = append(cands, candidate{rank: rankDocument, item: Item{
			Label:      name,
			Kind:       ItemKindValue,
			Detail:     "class used in this document",
			InsertText: name,
		}})
	}
	seen := make(map[string]bool, len(cands))
	for _, c := range cands {
		seen[c.item.Label] = true
	}
	for _, name := range commonClasses {
		if seen[name] {
			continue
		}
		cands = append(cands, candidate{rank: rankVocabulary, item: Item{
			Label:      name,
			Kind:       ItemKindValue,
			Detail:     "CSS class",
			InsertText: name,
		}})
	}
	return cands
}

func (a *Assembler) expressionCandidates(req Request) []candidate {
	prefix := PrefixAt(req.Text, req.Offset)
	typedAt := req.Offset - len(prefix)

	var cands []candidate
	for _, sym := range analysis.ExtractSymbols(req.Text) {
		// a fragment whose only occurrence is under the cursor is the text
		// being typed, not a known symbol
		if sym.Name == prefix && sym.Offset == typedAt {
			continue
		}
		cands = append(cands, candidate{rank: rankDocument, item: Item{
			Label:         sym.Name,
			Kind:          ItemKindVariable,
			Detail:        "template variable",
			Documentation: sym.Origin.String(),
			InsertText:    sym.Name,
		}})
	}
	for _, name := range sortedKeys(jinjaFilters) {
		info := jinjaFilters[name]
		cands = append(cands, candidate{rank: rankVocabulary, item: Item{
			Label:         name,
			Kind:          ItemKindFunction,
			Detail:        "template filter",
			Documentation: info.Description,
			InsertText:    callableInsert(name, info.Args),
		}})
	}
	for _, name := range sortedKeys(jinjaFunctions) {
		info := jinjaFunctions[name]
		cands = append(cands, candidate{rank: rankVocabulary, item: Item{
			Label:         name,
			Kind:          ItemKindFunction,
			Detail:        "template function",
			Documentation: info.Description,
			InsertText:    callableInsert(name, info.Args),
		}})
	}
	return cands
}

func (a *Assembler) statementCandidates() []candidate {
	var cands []candidate
	for _, name := range sortedKeys(jinjaKeywords) {
		info := jinjaKeywords[name]
		insert := info.Snippet
		if insert == "" {
			insert = name
		}
		cands = append(cands, candidate{rank: rankVocabulary, item: Item{
			Label:         name,
			Kind:          ItemKindKeyword,
			Detail:        "template keyword",
			Documentation: info.Description,
			InsertText:    insert,
		}})
	}
	return cands
}

func (a *Assembler) snippetCandidates() []candidate {
	if !a.enableSnippets || a.registry == nil {
		return nil
	}
	var cands []candidate
	for _, e := range a.registry.Entries() {
		cands = append(cands, candidate{rank: rankSnippet, item: Item{
			Label:         e.Trigger,
			Kind:          ItemKindSnippet,
			Detail:        string(e.Kind) + " snippet",
			Documentation: e.Description,
			InsertText:    e.Body,
		}})
	}
	return cands
}

func callableInsert(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, len(args))
	for i := range args {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// PrefixAt returns the word fragment immediately before offset: the
// characters a candidate label may start with, scanned back to the nearest
// boundary.
func PrefixAt(text string, offset int) string {
	if offset > len(text) {
		offset = len(text)
	}
	start := offset
	for start > 0 && isPrefixChar(text[start-1]) {
		start--
	}
	return text[start:offset]
}

func isPrefixChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	return b == '_' || b == '-' || b == ':' || b == '!' || b == '$'
}
