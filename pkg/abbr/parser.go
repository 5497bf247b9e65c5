package abbr

import (
	"strconv"
	"strings"
)

// Attr is a single attribute declaration. An empty Value means the attribute
// was written as a bare key and should receive a cursor stop on expansion.
type Attr struct {
	Key   string
	Value string
}

// Node is one element of a parsed abbreviation. An empty Tag means the
// default element (div) unless the node is a transparent group.
type Node struct {
	Tag     string
	ID      string
	Classes []string
	Attrs   []Attr
	Text    string
	HasText bool

	Children []*Node

	// Repeat is the repetition count from a `*N` suffix, always >= 1.
	Repeat int

	// Group marks a `(...)` container: it renders nothing itself, its
	// children are emitted at the parent's depth.
	Group bool

	parent *Node
}

// SetAttr records an attribute preserving first-declaration order; a
// duplicate key overwrites the earlier value in place.
func (n *Node) SetAttr(key, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
}

// AddClass records a class name, dropping duplicates.
func (n *Node) AddClass(name string) {
	for _, c := range n.Classes {
		if c == name {
			return
		}
	}
	n.Classes = append(n.Classes, name)
}

func (n *Node) empty() bool {
	return n.Tag == "" && n.ID == "" && len(n.Classes) == 0 &&
		len(n.Attrs) == 0 && !n.HasText && len(n.Children) == 0
}

// ParsedAbbreviation is the result of parsing: one or more sibling roots.
type ParsedAbbreviation struct {
	Roots []*Node
}

// Parse tokenizes and parses an abbreviation. It returns *LexError for
// lexical failures and *ParseError for structural ones.
func Parse(input string) (*ParsedAbbreviation, error) {
	stream, err := NewTokenStream(input)
	if err != nil {
		return nil, err
	}
	p := &parser{stream: stream}
	if err := p.advance(); err != nil {
		return nil, err
	}

	root := &Node{Group: true, Repeat: 1}
	if err := p.parseInto(root, KindEOF); err != nil {
		return nil, err
	}
	return &ParsedAbbreviation{Roots: root.Children}, nil
}

type parser struct {
	stream *TokenStream
	tok    Token
}

func (p *parser) advance() error {
	tok, err := p.stream.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind Kind) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, &ParseError{Offset: p.tok.Offset, Message: "expected " + kind.String() + ", found " + p.tok.Kind.String()}
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// parseInto parses a sibling/child chain, attaching nodes under root, until
// the terminator token is reached. The insertion point moves down on `>`,
// stays on `+`, and climbs on `^`.
func (p *parser) parseInto(root *Node, terminator Kind) error {
	cur := root
	for {
		node, err := p.parseOperand()
		if err != nil {
			return err
		}
		node.parent = cur
		cur.Children = append(cur.Children, node)

		switch p.tok.Kind {
		case terminator:
			if terminator == KindEOF {
				return nil
			}
			return p.advance()

		case KindChildOp:
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.Kind == terminator || p.tok.Kind == KindEOF {
				return &ParseError{Offset: p.tok.Offset, Message: "dangling child operator"}
			}
			cur = node

		case KindSiblingOp:
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.Kind == terminator || p.tok.Kind == KindEOF {
				return &ParseError{Offset: p.tok.Offset, Message: "dangling sibling operator"}
			}

		case KindClimbOp:
			for p.tok.Kind == KindClimbOp {
				if cur == root {
					return &ParseError{Offset: p.tok.Offset, Message: "cannot climb above the root"}
				}
				cur = cur.parent
				if err := p.advance(); err != nil {
					return err
				}
			}
			if p.tok.Kind == terminator || p.tok.Kind == KindEOF {
				return &ParseError{Offset: p.tok.Offset, Message: "dangling climb operator"}
			}

		case KindEOF:
			return &ParseError{Offset: p.tok.Offset, Message: "unmatched group"}

		default:
			return &ParseError{Offset: p.tok.Offset, Message: "unexpected " + p.tok.Kind.String()}
		}
	}
}

// parseOperand parses a group or a single element, with an optional `*N`
// repetition suffix.
func (p *parser) parseOperand() (*Node, error) {
	if p.tok.Kind == KindGroupOpen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		group := &Node{Group: true, Repeat: 1}
		if err := p.parseInto(group, KindGroupClose); err != nil {
			return nil, err
		}
		if err := p.parseRepeat(group); err != nil {
			return nil, err
		}
		return group, nil
	}
	return p.parseElement()
}

func (p *parser) parseElement() (*Node, error) {
	node := &Node{Repeat: 1}
	start := p.tok

	if p.tok.Kind == KindIdent {
		node.Tag = p.tok.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

loop:
	for {
		switch p.tok.Kind {
		case KindClassOp:
			if err := p.advance(); err != nil {
				return nil, err
			}
			name, err := p.expect(KindIdent)
			if err != nil {
				return nil, err
			}
			node.AddClass(name.Value)

		case KindIdOp:
			if err := p.advance(); err != nil {
				return nil, err
			}
			name, err := p.expect(KindIdent)
			if err != nil {
				return nil, err
			}
			node.ID = name.Value

		case KindAttrOpen:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.parseAttrs(node); err != nil {
				return nil, err
			}

		case KindTextOpen:
			if err := p.advance(); err != nil {
				return nil, err
			}
			node.HasText = true
			for p.tok.Kind == KindText {
				node.Text += p.tok.Value
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			if _, err := p.expect(KindTextClose); err != nil {
				return nil, err
			}

		default:
			break loop
		}
	}

	if node.empty() {
		return nil, &ParseError{Offset: start.Offset, Message: "expected an element"}
	}

	if err := p.parseRepeat(node); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *parser) parseRepeat(node *Node) error {
	if p.tok.Kind != KindMultiplyOp {
		return nil
	}
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.Kind != KindNumber {
		return &ParseError{Offset: p.tok.Offset, Message: "multiplier requires a count"}
	}
	count := p.tok
	if err := p.advance(); err != nil {
		return err
	}
	n, convErr := strconv.Atoi(count.Value)
	if convErr != nil || n < 1 {
		return &ParseError{Offset: count.Offset, Message: "invalid repetition count " + count.Value}
	}
	node.Repeat = n
	return nil
}

// parseAttrs consumes `k=v k2="v 2" bare` pairs up to the closing bracket.
func (p *parser) parseAttrs(node *Node) error {
	for {
		switch p.tok.Kind {
		case KindAttrClose:
			return p.advance()

		case KindAttrWord, KindIdent:
			key := p.tok.Value
			if err := p.advance(); err != nil {
				return err
			}
			value := ""
			if p.tok.Kind == KindEquals {
				if err := p.advance(); err != nil {
					return err
				}
				switch p.tok.Kind {
				case KindAttrWord, KindIdent, KindNumber:
					value = p.tok.Value
				case KindString:
					value = unquote(p.tok.Value)
				default:
					return &ParseError{Offset: p.tok.Offset, Message: "expected attribute value"}
				}
				if err := p.advance(); err != nil {
					return err
				}
			}
			node.SetAttr(key, value)

		case KindString:
			// quoted bare key, e.g. ["data-x"]
			key := unquote(p.tok.Value)
			if err := p.advance(); err != nil {
				return err
			}
			node.SetAttr(key, "")

		default:
			return &ParseError{Offset: p.tok.Offset, Message: "unexpected " + p.tok.Kind.String() + " in attribute list"}
		}
	}
}

func unquote(s string) string {
	if len(s) >= 2 && (strings.HasPrefix(s, `"`) || strings.HasPrefix(s, `'`)) {
		return s[1 : len(s)-1]
	}
	return s
}
