// Package hover produces documentation for the construct under the cursor.
package hover

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jinjals/jinjals/pkg/analysis"
	"github.com/jinjals/jinjals/pkg/completion"
	"github.com/jinjals/jinjals/pkg/position"
)

// Info is a hover response: markdown content and the hovered word's span.
type Info struct {
	Content  string
	Position position.RawPosition
}

// Hover looks up documentation for the word at offset. It returns nil when
// nothing under the cursor is documented.
func Hover(ctx context.Context, text string, offset int) *Info {
	word, start := wordAt(text, offset)
	if word == "" {
		return nil
	}

	kind := analysis.ClassifyContext(text, offset)
	doc, role := lookup(kind, word)
	if doc == "" {
		zerolog.Ctx(ctx).Trace().Str("word", word).Stringer("context", kind).Msg("no hover documentation")
		return nil
	}

	return &Info{
		Content:  fmt.Sprintf("**%s** (%s)\n\n%s", word, role, doc),
		Position: position.NewBasicPosition(word, start),
	}
}

func lookup(kind analysis.ContextKind, word string) (doc, role string) {
	switch kind {
	case analysis.ExpressionBody:
		if d, ok := completion.FilterDoc(word); ok {
			return d, "template filter"
		}
		if d, ok := completion.FunctionDoc(word); ok {
			return d, "template function"
		}
		if d, ok := completion.TestDoc(word); ok {
			return d, "template test"
		}
	case analysis.StatementBody:
		if d, ok := completion.KeywordDoc(word); ok {
			return d, "template keyword"
		}
		if d, ok := completion.TestDoc(word); ok {
			return d, "template test"
		}
	case analysis.TagName:
		if d, ok := completion.TagDoc(word); ok {
			return d, "HTML element"
		}
	case analysis.AttributeName:
		if d, ok := completion.AttributeDoc(word); ok {
			return d, "HTML attribute"
		}
	}
	return "", ""
}

// wordAt expands from offset to the identifier spanning it. A cursor at the
// end of a word still hits it.
func wordAt(text string, offset int) (string, int) {
	if offset > len(text) {
		offset = len(text)
	}
	start := offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	end := offset
	for end < len(text) && isWordByte(text[end]) {
		end++
	}
	return text[start:end], start
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
