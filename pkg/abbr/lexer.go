package abbr

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// abbrevLexer is the stateful lexer for abbreviations. Attribute lists and
// text blocks get their own states so their contents are not interpreted as
// operators.
var abbrevLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Number", Pattern: `\d+`, Action: nil},
		{Name: "Ident", Pattern: `[A-Za-z$][A-Za-z0-9$_:-]*`, Action: nil},
		{Name: "ClassOp", Pattern: `\.`, Action: nil},
		{Name: "IdOp", Pattern: `#`, Action: nil},
		{Name: "ChildOp", Pattern: `>`, Action: nil},
		{Name: "SiblingOp", Pattern: `\+`, Action: nil},
		{Name: "ClimbOp", Pattern: `\^`, Action: nil},
		{Name: "MultiplyOp", Pattern: `\*`, Action: nil},
		{Name: "GroupOpen", Pattern: `\(`, Action: nil},
		{Name: "GroupClose", Pattern: `\)`, Action: nil},
		{Name: "AttrOpen", Pattern: `\[`, Action: lexer.Push("Attr")},
		{Name: "TextOpen", Pattern: `{`, Action: lexer.Push("Text")},
		{Name: "Quote", Pattern: `["']`, Action: nil},
	},
	"Attr": {
		{Name: "whitespace", Pattern: `\s+`, Action: nil},
		{Name: "String", Pattern: `"[^"]*"|'[^']*'`, Action: nil},
		{Name: "Equals", Pattern: `=`, Action: nil},
		{Name: "AttrClose", Pattern: `\]`, Action: lexer.Pop()},
		{Name: "AttrWord", Pattern: `[^\s\]='"]+`, Action: nil},
		{Name: "Quote", Pattern: `["']`, Action: nil},
	},
	"Text": {
		{Name: "TextClose", Pattern: `}`, Action: lexer.Pop()},
		{Name: "TextRun", Pattern: `[^}]+`, Action: nil},
	},
})

// kindForSymbol maps participle token type ids to Kind. Built once from the
// lexer's symbol table.
var kindForSymbol = func() map[lexer.TokenType]Kind {
	names := map[string]Kind{
		"Number":     KindNumber,
		"Ident":      KindIdent,
		"ClassOp":    KindClassOp,
		"IdOp":       KindIdOp,
		"ChildOp":    KindChildOp,
		"SiblingOp":  KindSiblingOp,
		"ClimbOp":    KindClimbOp,
		"MultiplyOp": KindMultiplyOp,
		"GroupOpen":  KindGroupOpen,
		"GroupClose": KindGroupClose,
		"AttrOpen":   KindAttrOpen,
		"AttrClose":  KindAttrClose,
		"TextOpen":   KindTextOpen,
		"TextClose":  KindTextClose,
		"String":     KindString,
		"Equals":     KindEquals,
		"AttrWord":   KindAttrWord,
		"TextRun":    KindText,
	}
	out := make(map[lexer.TokenType]Kind, len(names))
	for name, sym := range abbrevLexer.Symbols() {
		if kind, ok := names[name]; ok {
			out[sym] = kind
		}
	}
	return out
}()

var quoteSymbol = abbrevLexer.Symbols()["Quote"]

// TokenStream is a lazy, non-restartable sequence of abbreviation tokens.
type TokenStream struct {
	lex   lexer.Lexer
	input string

	// offsets of unclosed [ and { openers, for unterminated-bracket errors
	attrOpens []int
	textOpens []int
}

// NewTokenStream tokenizes input lazily. Tokens are produced by calls to
// Next; lexical failures surface as *LexError.
func NewTokenStream(input string) (*TokenStream, error) {
	lex, err := abbrevLexer.LexString("", input)
	if err != nil {
		return nil, lexErrorFrom(err)
	}
	return &TokenStream{lex: lex, input: input}, nil
}

// Next returns the next token. The stream terminates with a KindEOF token.
func (s *TokenStream) Next() (Token, error) {
	tok, err := s.lex.Next()
	if err != nil {
		return Token{}, lexErrorFrom(err)
	}

	if tok.EOF() {
		if n := len(s.attrOpens); n > 0 {
			return Token{}, &LexError{Offset: s.attrOpens[n-1], Message: "unterminated attribute list"}
		}
		if n := len(s.textOpens); n > 0 {
			return Token{}, &LexError{Offset: s.textOpens[n-1], Message: "unterminated text block"}
		}
		return Token{Kind: KindEOF, Offset: len(s.input)}, nil
	}

	if tok.Type == quoteSymbol {
		return Token{}, &LexError{Offset: tok.Pos.Offset, Message: "unterminated quote"}
	}

	kind, ok := kindForSymbol[tok.Type]
	if !ok {
		return Token{}, &LexError{Offset: tok.Pos.Offset, Message: "unexpected character " + strings.TrimSpace(tok.Value)}
	}

	switch kind {
	case KindAttrOpen:
		s.attrOpens = append(s.attrOpens, tok.Pos.Offset)
	case KindAttrClose:
		s.attrOpens = s.attrOpens[:len(s.attrOpens)-1]
	case KindTextOpen:
		s.textOpens = append(s.textOpens, tok.Pos.Offset)
	case KindTextClose:
		s.textOpens = s.textOpens[:len(s.textOpens)-1]
	}

	return Token{Kind: kind, Value: tok.Value, Offset: tok.Pos.Offset}, nil
}

func lexErrorFrom(err error) *LexError {
	if perr, ok := err.(participle.Error); ok {
		return &LexError{Offset: perr.Position().Offset, Message: perr.Message()}
	}
	return &LexError{Offset: 0, Message: err.Error()}
}
