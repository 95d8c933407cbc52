package main

// The parser records errors into the lexer's ErrorList and keeps
// going with best-effort placeholder nodes; callers check
// l.Errors.HasErrors() before trusting the tree.

// precedence returns the binary precedence level for a token type.
func precedence(tokenType TokenType) int {
	switch tokenType {
	case OR:
		return 1
	case AND:
		return 2
	case EQ, NOT_EQ, LT, GT, LE, GE:
		return 3
	case PLUS, MINUS:
		return 4
	case ASTERISK, SLASH, PERCENT:
		return 5
	default:
		return 0 // not a binary operator
	}
}

// ParseExpression parses one expression.
func ParseExpression(l *Lexer) *ASTNode {
	return parseBinary(l, 1)
}

// parseBinary implements precedence climbing over parseUnary.
func parseBinary(l *Lexer, minPrec int) *ASTNode {
	left := parseUnary(l)

	for {
		prec := precedence(l.CurrTokenType)
		if prec == 0 || prec < minPrec {
			return left
		}
		op := l.CurrLiteral
		pos := l.CurrPos
		l.NextToken()
		right := parseBinary(l, prec+1) // left-associative
		left = &ASTNode{
			Kind:     NodeBinary,
			Pos:      pos,
			Op:       op,
			Children: []*ASTNode{left, right},
		}
	}
}

// parseUnary handles the prefix operators - ! & *.
func parseUnary(l *Lexer) *ASTNode {
	switch l.CurrTokenType {
	case MINUS, BANG, BIT_AND, ASTERISK:
		op := l.CurrLiteral
		pos := l.CurrPos
		l.NextToken()
		operand := parseUnary(l)
		return &ASTNode{
			Kind:     NodeUnary,
			Pos:      pos,
			Op:       op,
			Children: []*ASTNode{operand},
		}
	}
	return parsePostfix(l, parsePrimary(l))
}

// parsePostfix handles call and field-access suffixes.
func parsePostfix(l *Lexer, left *ASTNode) *ASTNode {
	for {
		switch l.CurrTokenType {
		case LPAREN:
			pos := l.CurrPos
			l.SkipToken(LPAREN)
			var args []*ASTNode
			for l.CurrTokenType != RPAREN && l.CurrTokenType != EOF {
				args = append(args, ParseExpression(l))
				if l.CurrTokenType == COMMA {
					l.SkipToken(COMMA)
				} else {
					break
				}
			}
			l.SkipToken(RPAREN)
			left = makeCall(left, args, pos)

		case DOT:
			pos := l.CurrPos
			l.SkipToken(DOT)
			name := l.CurrLiteral
			if l.CurrTokenType != IDENT {
				l.Errors.Addf(l.CurrPos, "expected field name after '.'")
			}
			l.SkipToken(IDENT)
			left = &ASTNode{
				Kind:     NodeDot,
				Pos:      pos,
				String:   name,
				Children: []*ASTNode{left},
			}

		default:
			return left
		}
	}
}

// makeCall builds a call node, rewriting the two special callee
// shapes: `new(...)` becomes a dedicated node, and `fmt.Print`
// becomes a call of the reserved print name.
func makeCall(callee *ASTNode, args []*ASTNode, pos Pos) *ASTNode {
	if callee.Kind == NodeIdent && callee.String == "new" {
		return &ASTNode{Kind: NodeNew, Pos: pos, Children: args}
	}
	if callee.Kind == NodeDot && callee.Children[0].Kind == NodeIdent &&
		callee.Children[0].String == "fmt" && callee.String == "Print" {
		callee = &ASTNode{Kind: NodeIdent, Pos: callee.Pos, String: PrintName}
	}
	return &ASTNode{
		Kind:     NodeCall,
		Pos:      pos,
		Children: append([]*ASTNode{callee}, args...),
	}
}

// parsePrimary handles literals, identifiers, and parentheses.
func parsePrimary(l *Lexer) *ASTNode {
	pos := l.CurrPos
	switch l.CurrTokenType {
	case INT:
		node := &ASTNode{Kind: NodeInteger, Pos: pos, Integer: l.CurrIntValue}
		l.SkipToken(INT)
		return node

	case STRING:
		node := &ASTNode{Kind: NodeString, Pos: pos, String: l.CurrLiteral}
		l.SkipToken(STRING)
		return node

	case IDENT:
		lit := l.CurrLiteral
		l.SkipToken(IDENT)
		switch lit {
		case "true":
			return &ASTNode{Kind: NodeBool, Pos: pos, Bool: true}
		case "false":
			return &ASTNode{Kind: NodeBool, Pos: pos, Bool: false}
		case "nil":
			return &ASTNode{Kind: NodeNil, Pos: pos}
		}
		return &ASTNode{Kind: NodeIdent, Pos: pos, String: lit}

	case LPAREN:
		l.SkipToken(LPAREN)
		expr := ParseExpression(l)
		l.SkipToken(RPAREN)
		return expr

	default:
		l.Errors.Addf(pos, "unexpected token %s in expression", l.CurrTokenType)
		l.NextToken()
		return &ASTNode{Kind: NodeIdent, Pos: pos}
	}
}

// parseType parses a syntactic type: a bare name or *T.
func parseType(l *Lexer) *TypeExpr {
	pos := l.CurrPos
	if l.CurrTokenType == ASTERISK {
		l.SkipToken(ASTERISK)
		return &TypeExpr{Pos: pos, Elem: parseType(l)}
	}
	name := l.CurrLiteral
	if l.CurrTokenType != IDENT {
		l.Errors.Addf(pos, "expected type name, got %s", l.CurrTokenType)
	}
	l.SkipToken(IDENT)
	return &TypeExpr{Pos: pos, Name: name}
}

func startsType(t TokenType) bool {
	return t == IDENT || t == ASTERISK
}

// parseVarDecl parses `var a, b [T] [= e1, e2]` without consuming a
// trailing semicolon.
func parseVarDecl(l *Lexer) *ASTNode {
	pos := l.CurrPos
	l.SkipToken(VAR)

	node := &ASTNode{Kind: NodeVar, Pos: pos}
	for {
		namePos := l.CurrPos
		name := l.CurrLiteral
		if l.CurrTokenType != IDENT {
			l.Errors.Addf(namePos, "expected variable name, got %s", l.CurrTokenType)
		}
		l.SkipToken(IDENT)
		node.Names = append(node.Names, &ASTNode{Kind: NodeIdent, Pos: namePos, String: name})
		if l.CurrTokenType != COMMA {
			break
		}
		l.SkipToken(COMMA)
	}

	if startsType(l.CurrTokenType) {
		node.TypeExpr = parseType(l)
	}

	if l.CurrTokenType == ASSIGN {
		l.SkipToken(ASSIGN)
		node.Inits = parseExpressionList(l)
	}

	if node.TypeExpr == nil && len(node.Inits) == 0 {
		l.Errors.Addf(pos, "variable declaration needs a type or an initializer")
	}
	return node
}

func parseExpressionList(l *Lexer) []*ASTNode {
	exprs := []*ASTNode{ParseExpression(l)}
	for l.CurrTokenType == COMMA {
		l.SkipToken(COMMA)
		exprs = append(exprs, ParseExpression(l))
	}
	return exprs
}

// parseSimpleStmt parses the statements legal in a for-header:
// variable declarations, assignments, ++/--, and expression
// statements.
func parseSimpleStmt(l *Lexer) *ASTNode {
	if l.CurrTokenType == VAR {
		return parseVarDecl(l)
	}

	exprs := parseExpressionList(l)

	switch l.CurrTokenType {
	case ASSIGN:
		pos := l.CurrPos
		l.SkipToken(ASSIGN)
		rhs := parseExpressionList(l)
		return &ASTNode{Kind: NodeAssign, Pos: pos, LHS: exprs, RHS: rhs}

	case PLUS_PLUS, MINUS_MINUS:
		op := l.CurrLiteral
		pos := l.CurrPos
		l.NextToken()
		if len(exprs) != 1 {
			l.Errors.Addf(pos, "%s requires exactly one operand", op)
		}
		return &ASTNode{Kind: NodeIncDec, Pos: pos, Op: op, Children: exprs[:1]}
	}

	if len(exprs) != 1 {
		l.Errors.Addf(exprs[0].Pos, "expression list is not a statement")
	}
	return exprs[0]
}

// parseBlock parses `{ stmt... }` into a NodeBlock.
func parseBlock(l *Lexer) *ASTNode {
	pos := l.CurrPos
	l.SkipToken(LBRACE)
	var stmts []*ASTNode
	for l.CurrTokenType != RBRACE && l.CurrTokenType != EOF {
		stmts = append(stmts, ParseStatement(l))
	}
	l.SkipToken(RBRACE)
	return &ASTNode{Kind: NodeBlock, Pos: pos, Children: stmts}
}

// ParseStatement parses one statement.
func ParseStatement(l *Lexer) *ASTNode {
	switch l.CurrTokenType {
	case VAR:
		node := parseVarDecl(l)
		skipOptionalSemicolon(l)
		return node

	case IF:
		return parseIf(l)

	case FOR:
		return parseFor(l)

	case RETURN:
		pos := l.CurrPos
		l.SkipToken(RETURN)
		node := &ASTNode{Kind: NodeReturn, Pos: pos}
		if l.CurrTokenType != SEMICOLON && l.CurrTokenType != RBRACE && l.CurrTokenType != EOF {
			node.Children = parseExpressionList(l)
		}
		skipOptionalSemicolon(l)
		return node

	case LBRACE:
		return parseBlock(l)

	default:
		node := parseSimpleStmt(l)
		skipOptionalSemicolon(l)
		return node
	}
}

func skipOptionalSemicolon(l *Lexer) {
	if l.CurrTokenType == SEMICOLON {
		l.SkipToken(SEMICOLON)
	}
}

func parseIf(l *Lexer) *ASTNode {
	pos := l.CurrPos
	l.SkipToken(IF)
	cond := ParseExpression(l)
	then := parseBlock(l)
	node := &ASTNode{Kind: NodeIf, Pos: pos, Children: []*ASTNode{cond, then}}
	if l.CurrTokenType == ELSE {
		l.SkipToken(ELSE)
		var els *ASTNode
		if l.CurrTokenType == IF {
			els = parseIf(l)
		} else {
			els = parseBlock(l)
		}
		node.Children = append(node.Children, els)
	}
	return node
}

// parseFor parses the three loop forms. The three-clause form is
// desugared here into a block holding the init statement and a
// condition+body loop with the post statement folded into the body
// tail, so later passes only ever see condition+body loops.
func parseFor(l *Lexer) *ASTNode {
	pos := l.CurrPos
	l.SkipToken(FOR)

	// for { body }
	if l.CurrTokenType == LBRACE {
		cond := &ASTNode{Kind: NodeBool, Pos: pos, Bool: true}
		body := parseBlock(l)
		return &ASTNode{Kind: NodeFor, Pos: pos, Children: []*ASTNode{cond, body}}
	}

	first := parseSimpleStmt(l)

	// for cond { body }
	if l.CurrTokenType == LBRACE {
		body := parseBlock(l)
		return &ASTNode{Kind: NodeFor, Pos: pos, Children: []*ASTNode{first, body}}
	}

	// for init; cond; post { body }
	l.SkipToken(SEMICOLON)
	cond := ParseExpression(l)
	l.SkipToken(SEMICOLON)
	var post *ASTNode
	if l.CurrTokenType != LBRACE {
		post = parseSimpleStmt(l)
	}
	body := parseBlock(l)
	if post != nil {
		body.Children = append(body.Children, post)
	}
	loop := &ASTNode{Kind: NodeFor, Pos: pos, Children: []*ASTNode{cond, body}}
	return &ASTNode{Kind: NodeBlock, Pos: pos, Children: []*ASTNode{first, loop}}
}

// parseStructDecl parses `type Name struct { field T ... }`.
func parseStructDecl(l *Lexer) *StructDecl {
	pos := l.CurrPos
	l.SkipToken(TYPE)
	name := l.CurrLiteral
	l.SkipToken(IDENT)
	l.SkipToken(STRUCT)
	l.SkipToken(LBRACE)

	decl := &StructDecl{Pos: pos, Name: name}
	for l.CurrTokenType != RBRACE && l.CurrTokenType != EOF {
		fieldPos := l.CurrPos
		fieldName := l.CurrLiteral
		l.SkipToken(IDENT)
		fieldType := parseType(l)
		skipOptionalSemicolon(l)
		decl.Fields = append(decl.Fields, FieldDecl{Pos: fieldPos, Name: fieldName, Type: fieldType})
	}
	l.SkipToken(RBRACE)
	return decl
}

// parseFuncDecl parses `func name(params) [results] { body }`.
func parseFuncDecl(l *Lexer) *FuncDecl {
	pos := l.CurrPos
	l.SkipToken(FUNC)
	name := l.CurrLiteral
	l.SkipToken(IDENT)
	l.SkipToken(LPAREN)

	decl := &FuncDecl{Pos: pos, Name: name}
	for l.CurrTokenType != RPAREN && l.CurrTokenType != EOF {
		paramPos := l.CurrPos
		paramName := l.CurrLiteral
		l.SkipToken(IDENT)
		paramType := parseType(l)
		decl.Params = append(decl.Params, ParamDecl{Pos: paramPos, Name: paramName, Type: paramType})
		if l.CurrTokenType == COMMA {
			l.SkipToken(COMMA)
		}
	}
	l.SkipToken(RPAREN)

	switch {
	case l.CurrTokenType == LPAREN:
		l.SkipToken(LPAREN)
		for l.CurrTokenType != RPAREN && l.CurrTokenType != EOF {
			decl.Results = append(decl.Results, parseType(l))
			if l.CurrTokenType == COMMA {
				l.SkipToken(COMMA)
			}
		}
		l.SkipToken(RPAREN)
	case startsType(l.CurrTokenType):
		decl.Results = append(decl.Results, parseType(l))
	}

	decl.Body = parseBlock(l)
	return decl
}

// ParseProgram parses a whole compilation unit: an optional package
// clause, an optional `import "fmt"`, then struct and function
// declarations in any order.
func ParseProgram(l *Lexer) *Program {
	prog := &Program{}

	if l.CurrTokenType == PACKAGE {
		l.SkipToken(PACKAGE)
		l.SkipToken(IDENT)
	}

	if l.CurrTokenType == IMPORT {
		prog.ImportPos = l.CurrPos
		l.SkipToken(IMPORT)
		if l.CurrTokenType == STRING && l.CurrLiteral == "fmt" {
			prog.HasImport = true
		} else {
			l.Errors.Addf(l.CurrPos, "only import \"fmt\" is supported")
		}
		l.SkipToken(STRING)
		skipOptionalSemicolon(l)
	}

	for l.CurrTokenType != EOF {
		switch l.CurrTokenType {
		case TYPE:
			prog.Structs = append(prog.Structs, parseStructDecl(l))
		case FUNC:
			prog.Funcs = append(prog.Funcs, parseFuncDecl(l))
		case SEMICOLON:
			l.SkipToken(SEMICOLON)
		default:
			l.Errors.Addf(l.CurrPos, "unexpected token %s at top level", l.CurrTokenType)
			l.NextToken()
		}
	}
	return prog
}
