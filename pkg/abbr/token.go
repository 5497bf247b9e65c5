// Package abbr implements the abbreviation grammar: a tokenizer and a
// recursive-descent parser that turn compact markup shorthand like
// `div.row>p*3` into an ordered node tree.
package abbr

import "fmt"

// Kind identifies a token produced by the tokenizer.
type Kind int

const (
	KindEOF Kind = iota
	KindIdent
	KindNumber
	KindString
	KindClassOp
	KindIdOp
	KindChildOp
	KindSiblingOp
	KindClimbOp
	KindMultiplyOp
	KindGroupOpen
	KindGroupClose
	KindAttrOpen
	KindAttrClose
	KindTextOpen
	KindTextClose
	KindText
	KindEquals
	KindAttrWord
)

var kindNames = map[Kind]string{
	KindEOF:        "eof",
	KindIdent:      "identifier",
	KindNumber:     "number",
	KindString:     "string",
	KindClassOp:    ".",
	KindIdOp:       "#",
	KindChildOp:    ">",
	KindSiblingOp:  "+",
	KindClimbOp:    "^",
	KindMultiplyOp: "*",
	KindGroupOpen:  "(",
	KindGroupClose: ")",
	KindAttrOpen:   "[",
	KindAttrClose:  "]",
	KindTextOpen:   "{",
	KindTextClose:  "}",
	KindText:       "text",
	KindEquals:     "=",
	KindAttrWord:   "attribute value",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexical element of an abbreviation.
type Token struct {
	Kind   Kind
	Value  string
	Offset int
}

// LexError reports an unterminated quote or bracket in an abbreviation.
type LexError struct {
	Offset  int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Offset, e.Message)
}

// ParseError reports a structural error in an abbreviation, such as a
// dangling operator, an unmatched group, or climbing past the root.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}
