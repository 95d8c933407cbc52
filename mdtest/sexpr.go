package mdtest

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeEllipsis
	NodeList
)

// Node is one datum of an s-expression assertion: an atom or a list.
type Node struct {
	Type  NodeType
	Text  string  // NodeSymbol, NodeString, NodeInteger
	Items []*Node // NodeList
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")
		return fmt.Sprintf("\"%s\"", escaped)
	case NodeEllipsis:
		return "..."
	case NodeList:
		var parts []string
		for _, item := range n.Items {
			parts = append(parts, item.String())
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, " "))
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

// Match reports whether actual matches the pattern n. Atoms match by
// type and text. A list matches item by item; an ellipsis in the
// pattern matches any remaining items.
func (n *Node) Match(actual *Node) bool {
	if n.Type == NodeEllipsis {
		return true
	}
	if n.Type != actual.Type {
		return false
	}
	if n.Type != NodeList {
		return n.Text == actual.Text
	}
	for i, item := range n.Items {
		if item.Type == NodeEllipsis {
			return true
		}
		if i >= len(actual.Items) || !item.Match(actual.Items[i]) {
			return false
		}
	}
	return len(n.Items) == len(actual.Items)
}

type parser struct {
	input string
	pos   int
}

// Parse parses one datum and requires the input to end after it.
func Parse(input string) (*Node, error) {
	p := &parser{input: input}
	node, err := p.parseDatum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("trailing input at offset %d", p.pos)
	}
	return node, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == ';' {
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		if !unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
}

func (p *parser) parseDatum() (*Node, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch c := p.input[p.pos]; {
	case c == '(':
		return p.parseList()
	case c == '"':
		return p.parseString()
	case strings.HasPrefix(p.input[p.pos:], "..."):
		p.pos += 3
		return &Node{Type: NodeEllipsis}, nil
	case c == '-' || unicode.IsDigit(rune(c)):
		return p.parseInteger()
	case isSymbolChar(rune(c)):
		return p.parseSymbol()
	default:
		return nil, fmt.Errorf("unexpected character %q at offset %d", c, p.pos)
	}
}

func (p *parser) parseList() (*Node, error) {
	p.pos++ // consume '('
	var items []*Node
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return nil, fmt.Errorf("unterminated list")
		}
		if p.input[p.pos] == ')' {
			p.pos++
			return &Node{Type: NodeList, Items: items}, nil
		}
		item, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (p *parser) parseString() (*Node, error) {
	p.pos++ // consume opening quote
	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		p.pos++
		switch c {
		case '"':
			return &Node{Type: NodeString, Text: sb.String()}, nil
		case '\\':
			if p.pos >= len(p.input) {
				return nil, fmt.Errorf("unterminated string")
			}
			esc := p.input[p.pos]
			p.pos++
			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				return nil, fmt.Errorf("invalid escape sequence: \\%c", esc)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return nil, fmt.Errorf("unterminated string")
}

func (p *parser) parseInteger() (*Node, error) {
	start := p.pos
	if p.input[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.input) && unicode.IsDigit(rune(p.input[p.pos])) {
		p.pos++
	}
	if p.pos == start || (p.pos == start+1 && p.input[start] == '-') {
		return nil, fmt.Errorf("malformed integer at offset %d", start)
	}
	return &Node{Type: NodeInteger, Text: p.input[start:p.pos]}, nil
}

func (p *parser) parseSymbol() (*Node, error) {
	start := p.pos
	for p.pos < len(p.input) && isSymbolChar(rune(p.input[p.pos])) {
		p.pos++
	}
	return &Node{Type: NodeSymbol, Text: p.input[start:p.pos]}, nil
}

func isSymbolChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.'
}
