// Package analysis inspects template document text around a cursor: it
// classifies what kind of construct the cursor sits in and extracts the
// symbols a template declares or references.
package analysis

import (
	"fmt"
	"strings"
)

// ContextKind classifies the construct enclosing a cursor position. Every
// position maps to exactly one kind; PlainMarkup is the default.
type ContextKind int

const (
	PlainMarkup ContextKind = iota
	TagName
	AttributeName
	AttributeValue
	CssClassValue
	ExpressionBody
	StatementBody
	CommentBody
)

var contextKindNames = map[ContextKind]string{
	PlainMarkup:    "plain-markup",
	TagName:        "tag-name",
	AttributeName:  "attribute-name",
	AttributeValue: "attribute-value",
	CssClassValue:  "css-class-value",
	ExpressionBody: "expression-body",
	StatementBody:  "statement-body",
	CommentBody:    "comment-body",
}

func (k ContextKind) String() string {
	if s, ok := contextKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ContextKind(%d)", int(k))
}

// ClassifyContext determines the construct at offset. Template delimiters
// win over markup: the nearest unbalanced opener behind the cursor decides
// between expression, statement, and comment bodies. A cursor past a
// matching closer falls through to markup classification.
func ClassifyContext(text string, offset int) ContextKind {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	var pendingExpr, pendingStmt, pendingComment int
	for j := offset - 2; j >= 0; j-- {
		switch text[j : j+2] {
		case "}}":
			pendingExpr++
			j--
		case "%}":
			pendingStmt++
			j--
		case "#}":
			pendingComment++
			j--
		case "{{":
			if pendingExpr == 0 {
				return ExpressionBody
			}
			pendingExpr--
			j--
		case "{%":
			if pendingStmt == 0 {
				return StatementBody
			}
			pendingStmt--
			j--
		case "{#":
			if pendingComment == 0 {
				return CommentBody
			}
			pendingComment--
			j--
		}
	}

	tag, ok := enclosingTag(text, offset)
	if !ok {
		return PlainMarkup
	}
	switch tag.zone {
	case zoneTagName:
		return TagName
	case zoneAttrValue:
		if tag.Attr == "class" {
			return CssClassValue
		}
		return AttributeValue
	default:
		return AttributeName
	}
}

// TagContext describes the open tag enclosing a cursor: the tag name and,
// when the cursor sits in an attribute value, the attribute's name.
type TagContext struct {
	Name string
	Attr string
}

// EnclosingTagContext reports the open tag around offset, if any. It
// returns false when the cursor is outside any unfinished tag.
func EnclosingTagContext(text string, offset int) (TagContext, bool) {
	tag, ok := enclosingTag(text, offset)
	if !ok {
		return TagContext{}, false
	}
	return TagContext{Name: tag.Name, Attr: tag.Attr}, true
}

type tagZone int

const (
	zoneTagName tagZone = iota
	zoneAttrName
	zoneAttrValue
)

type tagInfo struct {
	Name string
	Attr string
	zone tagZone
}

// enclosingTag scans from the last `<` before offset. Quoted attribute
// values may contain `>` without closing the tag.
func enclosingTag(text string, offset int) (tagInfo, bool) {
	if offset > len(text) {
		offset = len(text)
	}
	lt := strings.LastIndexByte(text[:offset], '<')
	if lt == -1 {
		return tagInfo{}, false
	}
	span := text[lt+1 : offset]

	ws := -1
	var quote byte
	for i := 0; i < len(span); i++ {
		c := span[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return tagInfo{}, false
		case isHTMLSpace(c) && ws == -1:
			ws = i
		}
	}

	if ws == -1 {
		return tagInfo{Name: strings.TrimPrefix(span, "/"), zone: zoneTagName}, true
	}

	info := tagInfo{Name: strings.TrimPrefix(span[:ws], "/"), zone: zoneAttrName}

	const (
		stBetween = iota
		stName
		stEquals
		stValue
	)
	st := stBetween
	var nameBuf []byte
	quote = 0
	for i := ws + 1; i < len(span); i++ {
		c := span[i]
		switch st {
		case stBetween:
			if !isHTMLSpace(c) && c != '=' {
				nameBuf = append(nameBuf[:0], c)
				st = stName
			}
		case stName:
			switch {
			case c == '=':
				info.Attr = string(nameBuf)
				st = stEquals
			case isHTMLSpace(c):
				st = stBetween
			default:
				nameBuf = append(nameBuf, c)
			}
		case stEquals:
			// only a quoted value opens the value zone
			switch {
			case c == '"' || c == '\'':
				quote = c
				st = stValue
			case isHTMLSpace(c):
				st = stBetween
				info.Attr = ""
			}
		case stValue:
			if c == quote {
				quote = 0
				st = stBetween
				info.Attr = ""
			}
		}
	}

	switch st {
	case stValue:
		info.zone = zoneAttrValue
	case stName:
		info.Attr = string(nameBuf)
		info.zone = zoneAttrName
	default:
		info.Attr = ""
		info.zone = zoneAttrName
	}
	return info, true
}

func isHTMLSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
