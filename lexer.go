package main

import "strconv"

// TokenType is the type of token (identifier, operator, literal, etc.).
type TokenType string

// Definition of token types
const (
	// Special tokens
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT" // main, foo, _bar
	INT    = "INT"   // 12345
	STRING = "STRING"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	BANG     = "!"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"

	LT     = "<"
	GT     = ">"
	EQ     = "=="
	NOT_EQ = "!="
	LE     = "<="
	GE     = ">="

	AND     = "&&"
	OR      = "||"
	BIT_AND = "&"

	PLUS_PLUS   = "++"
	MINUS_MINUS = "--"

	// Delimiters
	COMMA     = ","
	SEMICOLON = ";"
	LPAREN    = "("
	RPAREN    = ")"
	LBRACE    = "{"
	RBRACE    = "}"
	DOT       = "."

	// Keywords
	IF      = "IF"
	ELSE    = "ELSE"
	FOR     = "FOR"
	FUNC    = "FUNC"
	RETURN  = "RETURN"
	VAR     = "VAR"
	TYPE    = "TYPE"
	STRUCT  = "STRUCT"
	PACKAGE = "PACKAGE"
	IMPORT  = "IMPORT"
)

// Lexer scans a NUL-terminated input buffer. The trailing 0 byte is
// required; it doubles as the EOF sentinel so the scanner never bounds
// checks.
type Lexer struct {
	input []byte
	pos   int
	line  int
	col   int

	// Current token state, advanced by NextToken.
	CurrTokenType TokenType
	CurrLiteral   string
	CurrIntValue  int64 // only meaningful when CurrTokenType == INT
	CurrPos       Pos

	Errors ErrorList
}

// NewLexer initializes a lexer with the given input (must end with a 0 byte).
func NewLexer(input []byte) *Lexer {
	if len(input) == 0 || input[len(input)-1] != 0 {
		panic("lexer input must end with a 0 byte")
	}
	return &Lexer{input: input, line: 1, col: 1}
}

func (l *Lexer) advance() byte {
	c := l.input[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) peek() byte {
	return l.input[l.pos]
}

func (l *Lexer) peek2() byte {
	if l.input[l.pos] == 0 {
		return 0
	}
	return l.input[l.pos+1]
}

// NextToken scans the next token into the Curr* fields.
// Call repeatedly until CurrTokenType == EOF.
func (l *Lexer) NextToken() {
	l.skipWhitespaceAndComments()

	l.CurrPos = Pos{Line: l.line, Col: l.col}
	l.CurrIntValue = 0 // reset for non-INT tokens

	c := l.peek()

	if c == 0 {
		l.CurrTokenType = EOF
		l.CurrLiteral = ""
		return
	}

	if isLetter(c) {
		lit := l.readIdentifier()
		l.CurrTokenType = keywordToken(lit)
		l.CurrLiteral = lit
		return
	}

	if isDigit(c) {
		lit, val := l.readNumber()
		l.CurrTokenType = INT
		l.CurrLiteral = lit
		l.CurrIntValue = val
		return
	}

	if c == '"' {
		l.CurrTokenType = STRING
		l.CurrLiteral = l.readString()
		return
	}

	l.advance()
	switch c {
	case '=':
		if l.peek() == '=' {
			l.advance()
			l.setToken(EQ, "==")
		} else {
			l.setToken(ASSIGN, "=")
		}
	case '+':
		if l.peek() == '+' {
			l.advance()
			l.setToken(PLUS_PLUS, "++")
		} else {
			l.setToken(PLUS, "+")
		}
	case '-':
		if l.peek() == '-' {
			l.advance()
			l.setToken(MINUS_MINUS, "--")
		} else {
			l.setToken(MINUS, "-")
		}
	case '!':
		if l.peek() == '=' {
			l.advance()
			l.setToken(NOT_EQ, "!=")
		} else {
			l.setToken(BANG, "!")
		}
	case '*':
		l.setToken(ASTERISK, "*")
	case '/':
		l.setToken(SLASH, "/")
	case '%':
		l.setToken(PERCENT, "%")
	case '<':
		if l.peek() == '=' {
			l.advance()
			l.setToken(LE, "<=")
		} else {
			l.setToken(LT, "<")
		}
	case '>':
		if l.peek() == '=' {
			l.advance()
			l.setToken(GE, ">=")
		} else {
			l.setToken(GT, ">")
		}
	case '&':
		if l.peek() == '&' {
			l.advance()
			l.setToken(AND, "&&")
		} else {
			l.setToken(BIT_AND, "&")
		}
	case '|':
		if l.peek() == '|' {
			l.advance()
			l.setToken(OR, "||")
		} else {
			l.setToken(ILLEGAL, "|")
		}
	case ',':
		l.setToken(COMMA, ",")
	case ';':
		l.setToken(SEMICOLON, ";")
	case '(':
		l.setToken(LPAREN, "(")
	case ')':
		l.setToken(RPAREN, ")")
	case '{':
		l.setToken(LBRACE, "{")
	case '}':
		l.setToken(RBRACE, "}")
	case '.':
		l.setToken(DOT, ".")
	default:
		l.setToken(ILLEGAL, string(c))
		l.Errors.Addf(l.CurrPos, "unexpected character %q", c)
	}
}

func (l *Lexer) setToken(t TokenType, lit string) {
	l.CurrTokenType = t
	l.CurrLiteral = lit
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.advance()
		} else if c == '/' && l.peek2() == '/' {
			for l.peek() != '\n' && l.peek() != 0 {
				l.advance()
			}
		} else if c == '/' && l.peek2() == '*' {
			l.advance()
			l.advance()
			for l.peek() != 0 && !(l.peek() == '*' && l.peek2() == '/') {
				l.advance()
			}
			if l.peek() == '*' {
				l.advance()
				l.advance()
			}
		} else {
			return
		}
	}
}

func keywordToken(lit string) TokenType {
	switch lit {
	case "if":
		return IF
	case "else":
		return ELSE
	case "for":
		return FOR
	case "func":
		return FUNC
	case "return":
		return RETURN
	case "var":
		return VAR
	case "type":
		return TYPE
	case "struct":
		return STRUCT
	case "package":
		return PACKAGE
	case "import":
		return IMPORT
	default:
		return IDENT
	}
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) readNumber() (string, int64) {
	start := l.pos
	for isDigit(l.peek()) {
		l.advance()
	}
	lit := string(l.input[start:l.pos])
	val, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		l.Errors.Addf(l.CurrPos, "integer literal overflows int64: %s", lit)
	}
	return lit, val
}

// readString scans a double-quoted literal and decodes the escape
// sequences \n \t \" \\ in place. The returned value is the decoded
// string; the code generator re-escapes it for the data section.
func (l *Lexer) readString() string {
	l.advance() // skip opening "
	var out []byte
	for {
		c := l.peek()
		if c == '"' || c == 0 || c == '\n' {
			break
		}
		if c == '\\' {
			l.advance()
			esc := l.peek()
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			default:
				l.Errors.Addf(Pos{Line: l.line, Col: l.col}, "unknown escape sequence \\%c", esc)
				out = append(out, esc)
			}
			l.advance()
			continue
		}
		out = append(out, c)
		l.advance()
	}
	if l.peek() == '"' {
		l.advance()
	} else {
		l.Errors.Addf(l.CurrPos, "unterminated string literal")
	}
	return string(out)
}

// PeekToken returns the next token type without advancing the lexer.
// Useful for lookahead parsing decisions.
func (l *Lexer) PeekToken() TokenType {
	saved := *l
	l.NextToken()
	next := l.CurrTokenType
	*l = saved
	return next
}

// SkipToken advances past the current token, asserting it matches the
// expected type.
func (l *Lexer) SkipToken(expected TokenType) {
	if l.CurrTokenType != expected {
		l.Errors.Addf(l.CurrPos, "expected token %s but got %s", expected, l.CurrTokenType)
	}
	l.NextToken()
}
