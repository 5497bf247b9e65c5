package expand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinjals/jinjals/pkg/abbr"
	"github.com/jinjals/jinjals/pkg/snippets"
)

func mustExpand(t *testing.T, input string, opts Options) Result {
	t.Helper()
	parsed, err := abbr.Parse(input)
	require.NoError(t, err)
	return Expand(parsed, opts)
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		indexes []int
	}{
		{
			name:  "repeated leaf",
			input: "ul>li*3",
			want: "<ul>\n" +
				"    <li>$1</li>\n" +
				"    <li>$2</li>\n" +
				"    <li>$3</li>\n" +
				"</ul>",
			indexes: []int{1, 2, 3},
		},
		{
			name:  "nested grid",
			input: "div.container>div.row>div.col*2",
			want: "<div class=\"container\">\n" +
				"    <div class=\"row\">\n" +
				"        <div class=\"col\">$1</div>\n" +
				"        <div class=\"col\">$2</div>\n" +
				"    </div>\n" +
				"</div>",
			indexes: []int{1, 2},
		},
		{
			name:  "numbering marker",
			input: "li.item$*3",
			want: "<li class=\"item1\">$1</li>\n" +
				"<li class=\"item2\">$2</li>\n" +
				"<li class=\"item3\">$3</li>",
			indexes: []int{1, 2, 3},
		},
		{
			name:  "zero padded numbering",
			input: "b.x$$*2",
			want: "<b class=\"x01\">$1</b>\n" +
				"<b class=\"x02\">$2</b>",
			indexes: []int{1, 2},
		},
		{
			name:  "group as sibling unit",
			input: "(div>p)+span",
			want: "<div>\n" +
				"    <p>$1</p>\n" +
				"</div>\n" +
				"<span>$2</span>",
			indexes: []int{1, 2},
		},
		{
			name:  "repeated group clones the subtree",
			input: "(div>p)*2",
			want: "<div>\n" +
				"    <p>$1</p>\n" +
				"</div>\n" +
				"<div>\n" +
				"    <p>$2</p>\n" +
				"</div>",
			indexes: []int{1, 2},
		},
		{
			name:    "void element takes no inner stop",
			input:   "img[src=logo.png alt]",
			want:    `<img src="logo.png" alt="$1">`,
			indexes: []int{1},
		},
		{
			name:    "text suppresses the inner stop",
			input:   "a[href]{Home}",
			want:    `<a href="$1">Home</a>`,
			indexes: []int{1},
		},
		{
			name:    "terminal stop when nothing else needs one",
			input:   "p{hi}",
			want:    "<p>hi</p>$0",
			indexes: []int{0},
		},
		{
			name:    "id and classes before attributes",
			input:   "input#q.wide[type=search name=q]",
			want:    `<input id="q" class="wide" type="search" name="q">$0`,
			indexes: []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustExpand(t, tt.input, DefaultOptions())
			assert.Equal(t, tt.want, res.Text)

			indexes := make([]int, len(res.Placeholders))
			for i, p := range res.Placeholders {
				indexes[i] = p.Index
			}
			assert.Equal(t, tt.indexes, indexes)

			for _, p := range res.Placeholders {
				marker := "$" + string(rune('0'+p.Index))
				require.Less(t, p.Offset, len(res.Text))
				assert.Equal(t, marker, res.Text[p.Offset:p.Offset+len(marker)])
			}
		})
	}
}

func TestExpandCustomIndent(t *testing.T) {
	res := mustExpand(t, "ul>li", Options{Indent: "\t"})
	assert.Equal(t, "<ul>\n\t<li>$1</li>\n</ul>", res.Text)
}

func TestExpandDeterministic(t *testing.T) {
	first := mustExpand(t, "div#a.b[c=d]>p{x}+p*2", DefaultOptions())
	second := mustExpand(t, "div#a.b[c=d]>p{x}+p*2", DefaultOptions())
	assert.Equal(t, first, second)
}

func TestExpanderSnippetFirst(t *testing.T) {
	e := NewExpander(snippets.NewRegistry(), DefaultOptions())
	ctx := context.Background()

	res, err := e.Expand(ctx, "!")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "<!DOCTYPE html>")
	require.NotEmpty(t, res.Placeholders)
	assert.Equal(t, 1, res.Placeholders[0].Index)
	assert.Equal(t, 0, res.Placeholders[len(res.Placeholders)-1].Index)

	res, err = e.Expand(ctx, "div>p")
	require.NoError(t, err)
	assert.Equal(t, "<div>\n    <p>$1</p>\n</div>", res.Text)

	_, err = e.Expand(ctx, "div>")
	require.Error(t, err)
	var parseErr *abbr.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestPlaceholdersIn(t *testing.T) {
	body := "{% for $1 in $2 %}\n    $0\n{% endfor %}"
	stops := PlaceholdersIn(body)
	require.Len(t, stops, 3)
	assert.Equal(t, 1, stops[0].Index)
	assert.Equal(t, 2, stops[1].Index)
	assert.Equal(t, 0, stops[2].Index, "terminal stop sorts last")
	assert.Equal(t, "$1", body[stops[0].Offset:stops[0].Offset+2])
}

func TestAbbreviationAt(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		offset    int
		want      string
		wantStart int
	}{
		{name: "after whitespace", text: "text ul>li", offset: 10, want: "ul>li", wantStart: 5},
		{name: "after tag opener", text: "<p>div.row", offset: 10, want: "div.row", wantStart: 3},
		{name: "after closed tag keeps child operators", text: "<div>p>em", offset: 9, want: "p>em", wantStart: 5},
		{name: "just past a closing bracket", text: "<p>", offset: 3, want: "", wantStart: 3},
		{name: "inside an unfinished tag", text: "<di", offset: 3, want: "di", wantStart: 1},
		{name: "whole line", text: "div#main", offset: 8, want: "div#main", wantStart: 0},
		{name: "nothing before cursor", text: "p> ", offset: 3, want: "", wantStart: 3},
		{name: "offset past end is clamped", text: "ul", offset: 99, want: "ul", wantStart: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, start := AbbreviationAt(tt.text, tt.offset)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStart, start)
		})
	}
}
