// Package position provides byte-offset based positions in document text and
// conversions to and from line/character coordinates.
package position

import (
	"fmt"
	"strings"

	"github.com/apparentlymart/go-textseg/v13/textseg"
)

type Place struct {
	Line      int
	Character int
}

type Range struct {
	Start Place
	End   Place
}

// RawPosition represents a position in the source text
type RawPosition struct {
	// Offset is the byte offset in the source text
	Offset int
	// Text is the actual text at this position
	Text string
}

func NewBasicPosition(text string, offset int) RawPosition {
	return RawPosition{Text: text, Offset: offset}
}

// NewRawPositionFromLineAndColumn converts zero-based line/character
// coordinates into a byte offset. Characters are counted in grapheme
// clusters so that multi-byte text maps to the column the editor shows.
func NewRawPositionFromLineAndColumn(line, col int, text, fileText string) RawPosition {
	lines := strings.Split(fileText, "\n")
	offset := 0
	for i := 0; i < line && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	if line < len(lines) {
		offset += byteColumn(lines[line], col)
	}
	if offset > len(fileText) {
		offset = len(fileText)
	}
	return RawPosition{Text: text, Offset: offset}
}

// byteColumn returns the byte index of the col-th grapheme cluster in line.
func byteColumn(line string, col int) int {
	if col <= 0 {
		return 0
	}
	clusters, err := textseg.AllTokens([]byte(line), textseg.ScanGraphemeClusters)
	if err != nil {
		// fall back to byte counting on malformed input
		if col > len(line) {
			return len(line)
		}
		return col
	}
	idx := 0
	for i, cluster := range clusters {
		if i >= col {
			break
		}
		idx += len(cluster)
	}
	return idx
}

// ID returns a unique identifier for this position based on offset and text
func (p RawPosition) ID() string {
	return fmt.Sprintf("%s@%d", p.Text, p.Offset)
}

// Length returns the length of the text at this position
func (p RawPosition) Length() int {
	return len(p.Text)
}

func (p RawPosition) HasRangeOverlapWith(start RawPosition) bool {
	startOffset := start.Offset
	endOffset := startOffset + start.Length()

	posOffset := p.Offset
	posEndOffset := posOffset + p.Length()

	if p.Length() == 0 {
		return posOffset >= startOffset && posOffset <= endOffset
	}
	if start.Length() == 0 {
		return startOffset >= posOffset && startOffset <= posEndOffset
	}

	return startOffset < posEndOffset && endOffset > posOffset
}

// GetLineAndColumn calculates the zero-based line and column number for this
// position in text. Columns count grapheme clusters so the two conversion
// directions round-trip on multi-byte lines.
func (p RawPosition) GetLineAndColumn(text string) (line, col int) {
	offset := p.Offset
	if offset > len(text) {
		offset = len(text)
	}
	if offset <= 0 {
		return 0, 0
	}

	line = 0
	lastNewline := -1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lastNewline = i
		}
	}

	col = graphemeCount(text[lastNewline+1 : offset])

	return line, col
}

// graphemeCount returns the number of grapheme clusters in s.
func graphemeCount(s string) int {
	clusters, err := textseg.AllTokens([]byte(s), textseg.ScanGraphemeClusters)
	if err != nil {
		return len(s)
	}
	return len(clusters)
}

func (p RawPosition) GetEndPosition() RawPosition {
	return RawPosition{
		Text:   "",
		Offset: p.Offset + p.Length(),
	}
}

// GetRange calculates the line/column range covered by this position.
func (p RawPosition) GetRange(fileText string) Range {
	startLine, startCol := p.GetLineAndColumn(fileText)
	endLine, endCol := p.GetEndPosition().GetLineAndColumn(fileText)
	return Range{
		Start: Place{Line: startLine, Character: startCol},
		End:   Place{Line: endLine, Character: endCol},
	}
}

func (p RawPosition) String() string {
	return fmt.Sprintf("%s@%d", p.Text, p.Offset)
}
