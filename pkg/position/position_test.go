package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRawPositionFromLineAndColumn(t *testing.T) {
	fileText := "first line\nsecond line\nthird"

	tests := []struct {
		name       string
		line, col  int
		wantOffset int
	}{
		{name: "document start", line: 0, col: 0, wantOffset: 0},
		{name: "mid first line", line: 0, col: 6, wantOffset: 6},
		{name: "start of second line", line: 1, col: 0, wantOffset: 11},
		{name: "mid second line", line: 1, col: 7, wantOffset: 18},
		{name: "last line", line: 2, col: 5, wantOffset: 28},
		{name: "column past end of line clamps", line: 0, col: 99, wantOffset: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRawPositionFromLineAndColumn(tt.line, tt.col, "", fileText)
			assert.Equal(t, tt.wantOffset, got.Offset)
		})
	}
}

func TestNewRawPositionFromLineAndColumnMultiByte(t *testing.T) {
	// "héllo" holds a two-byte rune at column 1, so column 3 lands after
	// four bytes.
	fileText := "héllo\nworld"

	got := NewRawPositionFromLineAndColumn(0, 3, "", fileText)
	assert.Equal(t, 4, got.Offset)

	got = NewRawPositionFromLineAndColumn(1, 2, "", fileText)
	assert.Equal(t, "r", string(fileText[got.Offset]))
}

func TestGetLineAndColumn(t *testing.T) {
	fileText := "first line\nsecond line\nthird"

	tests := []struct {
		name     string
		offset   int
		wantLine int
		wantCol  int
	}{
		{name: "zero offset", offset: 0, wantLine: 0, wantCol: 0},
		{name: "first line", offset: 6, wantLine: 0, wantCol: 6},
		{name: "start of second line", offset: 11, wantLine: 1, wantCol: 0},
		{name: "mid second line", offset: 18, wantLine: 1, wantCol: 7},
		{name: "third line", offset: 25, wantLine: 2, wantCol: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, col := NewBasicPosition("", tt.offset).GetLineAndColumn(fileText)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantCol, col)
		})
	}
}

func TestLineColumnRoundTrip(t *testing.T) {
	fileText := "{% for item in items %}\n  {{ item.name }}\n{% endfor %}"

	for offset := 0; offset <= len(fileText); offset++ {
		line, col := NewBasicPosition("", offset).GetLineAndColumn(fileText)
		got := NewRawPositionFromLineAndColumn(line, col, "", fileText)
		assert.Equal(t, offset, got.Offset, "offset %d did not round trip", offset)
	}
}

func TestLineColumnRoundTripMultiByte(t *testing.T) {
	fileText := "héllo wörld\nsécond"

	for _, offset := range []int{0, 1, 3, 10, 13, 15, len(fileText)} {
		line, col := NewBasicPosition("", offset).GetLineAndColumn(fileText)
		got := NewRawPositionFromLineAndColumn(line, col, "", fileText)
		assert.Equal(t, offset, got.Offset, "offset %d did not round trip", offset)
	}
}

func TestGetLineAndColumnCountsGraphemes(t *testing.T) {
	fileText := "héllo\nwörld"

	// byte offset 4 sits after h, é, l: three grapheme columns
	line, col := NewBasicPosition("", 4).GetLineAndColumn(fileText)
	assert.Equal(t, 0, line)
	assert.Equal(t, 3, col)

	line, col = NewBasicPosition("", len(fileText)).GetLineAndColumn(fileText)
	assert.Equal(t, 1, line)
	assert.Equal(t, 5, col)
}

func TestConversionsClampOutOfRange(t *testing.T) {
	fileText := "ab\ncd"

	line, col := NewBasicPosition("", 99).GetLineAndColumn(fileText)
	assert.Equal(t, 1, line)
	assert.Equal(t, 2, col)

	got := NewRawPositionFromLineAndColumn(9, 9, "", fileText)
	assert.Equal(t, len(fileText), got.Offset)
}

func TestGetRange(t *testing.T) {
	fileText := "one\ntwo three\nfour"

	r := NewBasicPosition("three", 8).GetRange(fileText)
	assert.Equal(t, Place{Line: 1, Character: 4}, r.Start)
	assert.Equal(t, Place{Line: 1, Character: 9}, r.End)
}

func TestHasRangeOverlapWith(t *testing.T) {
	tests := []struct {
		name string
		a, b RawPosition
		want bool
	}{
		{name: "identical", a: NewBasicPosition("abc", 5), b: NewBasicPosition("abc", 5), want: true},
		{name: "partial overlap", a: NewBasicPosition("abc", 5), b: NewBasicPosition("cd", 7), want: true},
		{name: "adjacent", a: NewBasicPosition("abc", 5), b: NewBasicPosition("de", 8), want: false},
		{name: "disjoint", a: NewBasicPosition("abc", 5), b: NewBasicPosition("x", 20), want: false},
		{name: "zero length inside", a: NewBasicPosition("", 6), b: NewBasicPosition("abc", 5), want: true},
		{name: "zero length outside", a: NewBasicPosition("", 20), b: NewBasicPosition("abc", 5), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.HasRangeOverlapWith(tt.b))
		})
	}
}

func TestIDAndString(t *testing.T) {
	p := NewBasicPosition("upper", 12)
	assert.Equal(t, "upper@12", p.ID())
	assert.Equal(t, "upper@12", p.String())
	assert.Equal(t, 5, p.Length())
	assert.Equal(t, 17, p.GetEndPosition().Offset)
}
