package hover

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hoverAt(t *testing.T, marked string) *Info {
	t.Helper()
	offset := strings.LastIndexByte(marked, '|')
	require.GreaterOrEqual(t, offset, 0, "test input needs a | cursor marker")
	text := marked[:offset] + marked[offset+1:]
	return Hover(context.Background(), text, offset)
}

func TestHover(t *testing.T) {
	tests := []struct {
		name     string
		marked   string
		wantWord string
		wantDoc  string
	}{
		{
			name:     "filter in expression",
			marked:   "{{ name | up|per }}",
			wantWord: "upper",
			wantDoc:  "Convert to uppercase",
		},
		{
			name:     "function in expression",
			marked:   "{{ ran|ge(5) }}",
			wantWord: "range",
			wantDoc:  "Generate range of numbers",
		},
		{
			name:     "keyword in statement",
			marked:   "{% exte|nds \"base.html\" %}",
			wantWord: "extends",
			wantDoc:  "Extend base template",
		},
		{
			name:     "test in statement",
			marked:   "{% if x is divisible|by 3 %}",
			wantWord: "divisibleby",
			wantDoc:  "divisible",
		},
		{
			name:     "tag name",
			marked:   "<sect|ion",
			wantWord: "section",
			wantDoc:  "Section element",
		},
		{
			name:     "attribute name",
			marked:   "<input placehol|der",
			wantWord: "placeholder",
			wantDoc:  "Placeholder text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := hoverAt(t, tt.marked)
			require.NotNil(t, info)
			assert.Contains(t, info.Content, "**"+tt.wantWord+"**")
			assert.Contains(t, info.Content, tt.wantDoc)
			assert.Equal(t, tt.wantWord, info.Position.Text)
		})
	}
}

func TestHoverNothingDocumented(t *testing.T) {
	tests := []struct {
		name   string
		marked string
	}{
		{name: "plain text word", marked: "just some wo|rds"},
		{name: "undocumented variable", marked: "{{ my_va|r }}"},
		{name: "whitespace", marked: "{{ x }} | "},
		{name: "comment body", marked: "{# some not|e #}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, hoverAt(t, tt.marked))
		})
	}
}
