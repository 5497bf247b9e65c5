package analysis

import (
	"fmt"
	"strings"
)

// SymbolOrigin says how a symbol entered the template.
type SymbolOrigin int

const (
	ExpressionReference SymbolOrigin = iota
	LoopVariable
	AssignedVariable
	MacroParameter
)

var originNames = map[SymbolOrigin]string{
	ExpressionReference: "expression-reference",
	LoopVariable:        "loop-variable",
	AssignedVariable:    "assigned-variable",
	MacroParameter:      "macro-parameter",
}

func (o SymbolOrigin) String() string {
	if s, ok := originNames[o]; ok {
		return s
	}
	return fmt.Sprintf("SymbolOrigin(%d)", int(o))
}

// Symbol is a name the template declares or references. Offset is the byte
// offset of the first occurrence; Block identifies the declaring construct
// for loop variables and macro parameters.
type Symbol struct {
	Name   string
	Origin SymbolOrigin
	Offset int
	Block  string
}

// reservedWords never become symbols.
var reservedWords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "else": true, "elif": true,
	"true": true, "false": true, "none": true,
	"True": true, "False": true, "None": true,
	"loop": true,
}

// ExtractSymbols collects every symbol in document order. A name is
// reported once, at its first occurrence, no matter how often or in which
// role it reappears. Malformed or unterminated template syntax never
// produces an error; the scanner reports what it can.
func ExtractSymbols(text string) []Symbol {
	s := &symbolScanner{text: text, seen: make(map[string]bool)}
	s.run()
	return s.out
}

type symbolScanner struct {
	text string
	out  []Symbol
	seen map[string]bool
}

func (s *symbolScanner) add(sym Symbol) {
	if sym.Name == "" || reservedWords[sym.Name] || s.seen[sym.Name] {
		return
	}
	s.seen[sym.Name] = true
	s.out = append(s.out, sym)
}

func (s *symbolScanner) run() {
	for i := 0; i+1 < len(s.text); {
		switch s.text[i : i+2] {
		case "{#":
			i = skipPast(s.text, i+2, "#}")
		case "{{":
			i = s.scanExpression(i+2, "}}")
		case "{%":
			i = s.scanStatement(i + 2)
		default:
			i++
		}
	}
}

// scanExpression collects chain-start identifiers up to the closer: names
// directly after `.` are member accesses and names after `|` are filters,
// so neither counts as a reference.
func (s *symbolScanner) scanExpression(from int, closer string) int {
	i := from
	var prev byte
	for i < len(s.text) {
		if strings.HasPrefix(s.text[i:], closer) {
			return i + len(closer)
		}
		c := s.text[i]
		switch {
		case c == '"' || c == '\'':
			i = skipString(s.text, i)
			prev = c
		case isIdentStart(c):
			name, end := readIdent(s.text, i)
			if prev != '.' && prev != '|' {
				s.add(Symbol{Name: name, Origin: ExpressionReference, Offset: i})
			}
			i = end
			prev = 'a'
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		default:
			prev = c
			i++
		}
	}
	return i
}

func (s *symbolScanner) scanStatement(from int) int {
	i := skipSpace(s.text, from)
	keyword, i := readIdent(s.text, i)

	switch keyword {
	case "for":
		return s.scanFor(i, from)
	case "set", "with":
		i = skipSpace(s.text, i)
		if isIdentStart(byteAt(s.text, i)) {
			name, end := readIdent(s.text, i)
			s.add(Symbol{Name: name, Origin: AssignedVariable, Offset: i})
			i = end
		}
		return s.scanExpression(i, "%}")
	case "macro":
		return s.scanMacro(i)
	case "if", "elif", "call":
		return s.scanExpression(i, "%}")
	default:
		return skipPast(s.text, i, "%}")
	}
}

// scanFor handles `{% for a, b in expr %}`. Names before `in` are loop
// variables scoped to this statement; the rest of the clause is scanned as
// an expression.
func (s *symbolScanner) scanFor(i, stmtStart int) int {
	block := fmt.Sprintf("for@%d", stmtStart)
	for i < len(s.text) && !strings.HasPrefix(s.text[i:], "%}") {
		c := s.text[i]
		if isIdentStart(c) {
			name, end := readIdent(s.text, i)
			if name == "in" {
				return s.scanExpression(end, "%}")
			}
			s.add(Symbol{Name: name, Origin: LoopVariable, Offset: i, Block: block})
			i = end
			continue
		}
		i++
	}
	return skipPast(s.text, i, "%}")
}

// scanMacro handles `{% macro name(a, b=default) %}`. Parameters become
// symbols scoped to the macro; default values are skipped.
func (s *symbolScanner) scanMacro(i int) int {
	i = skipSpace(s.text, i)
	name, i := readIdent(s.text, i)
	block := "macro:" + name

	i = skipSpace(s.text, i)
	if byteAt(s.text, i) != '(' {
		return skipPast(s.text, i, "%}")
	}
	i++
	for i < len(s.text) && s.text[i] != ')' && !strings.HasPrefix(s.text[i:], "%}") {
		c := s.text[i]
		switch {
		case isIdentStart(c):
			param, end := readIdent(s.text, i)
			s.add(Symbol{Name: param, Origin: MacroParameter, Offset: i, Block: block})
			i = end
		case c == '=':
			for i < len(s.text) && s.text[i] != ',' && s.text[i] != ')' {
				if s.text[i] == '"' || s.text[i] == '\'' {
					i = skipString(s.text, i)
					continue
				}
				i++
			}
		default:
			i++
		}
	}
	return skipPast(s.text, i, "%}")
}

// ExtractClasses returns CSS class names used in class attributes, in
// document order with duplicates dropped.
func ExtractClasses(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for i := 0; i+6 < len(text); i++ {
		if !strings.HasPrefix(text[i:], "class") {
			continue
		}
		if i > 0 && isIdentByte(text[i-1]) {
			continue
		}
		j := skipSpace(text, i+5)
		if byteAt(text, j) != '=' {
			continue
		}
		j = skipSpace(text, j+1)
		quote := byteAt(text, j)
		if quote != '"' && quote != '\'' {
			continue
		}
		end := strings.IndexByte(text[j+1:], quote)
		if end == -1 {
			continue
		}
		for _, name := range strings.Fields(text[j+1 : j+1+end]) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
		i = j + end
	}
	return out
}

func skipPast(text string, from int, marker string) int {
	idx := strings.Index(text[from:], marker)
	if idx == -1 {
		return len(text)
	}
	return from + idx + len(marker)
}

func skipString(text string, from int) int {
	quote := text[from]
	for i := from + 1; i < len(text); i++ {
		if text[i] == quote {
			return i + 1
		}
	}
	return len(text)
}

func skipSpace(text string, from int) int {
	for from < len(text) && (text[from] == ' ' || text[from] == '\t' || text[from] == '\n' || text[from] == '\r') {
		from++
	}
	return from
}

func byteAt(text string, i int) byte {
	if i < 0 || i >= len(text) {
		return 0
	}
	return text[i]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func readIdent(text string, from int) (string, int) {
	end := from
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	return text[from:end], end
}
