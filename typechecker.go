package main

// The type checker assigns a semantic type to every expression node,
// resolves identifiers against the scope stack and calls against the
// function table, and annotates the tree in place. It is fail-fast:
// the first error aborts the run.

// TypeChecker checks function bodies against the struct and function
// tables built by BuildSymbolTable.
type TypeChecker struct {
	st *SymbolTable
}

func NewTypeChecker(st *SymbolTable) *TypeChecker {
	return &TypeChecker{st: st}
}

// checkContext threads the scope stack and the enclosing function's
// expected return types through the recursive check. push returns a
// fresh context; the old context's scope stack is never mutated, so
// checking an inner block cannot disturb the outer scope.
type checkContext struct {
	scope   Scope
	results []*Type
}

func (ctx checkContext) push() checkContext {
	return checkContext{scope: ctx.scope.Push(), results: ctx.results}
}

// CheckProgram type-checks every function body. All signatures are
// already in the table, so mutual recursion and forward references
// need no special handling.
func CheckProgram(prog *Program, st *SymbolTable) error {
	tc := NewTypeChecker(st)
	for _, decl := range prog.Funcs {
		if err := tc.checkFunction(decl); err != nil {
			return err
		}
	}
	return nil
}

func (tc *TypeChecker) checkFunction(decl *FuncDecl) error {
	fn := tc.st.LookupFunc(decl.Name)

	ctx := checkContext{scope: NewScope(), results: fn.Results}
	for _, p := range fn.Params {
		if p.Name != BlankName {
			ctx.scope.declare(p)
		}
	}

	if err := tc.check(ctx, decl.Body); err != nil {
		return err
	}

	if err := tc.checkUnusedVars(decl, fn); err != nil {
		return err
	}

	if len(fn.Results) > 0 && !alwaysReturns(decl.Body) {
		return errorAt(decl.Pos, "not all paths return in function %s", decl.Name)
	}
	return nil
}

// check dispatches on the node kind, annotates node.Type, and reports
// the first error.
func (tc *TypeChecker) check(ctx checkContext, node *ASTNode) error {
	switch node.Kind {
	case NodeInteger:
		node.Type = typeInt
	case NodeBool:
		node.Type = typeBool
	case NodeString:
		node.Type = typeString
	case NodeNil:
		node.Type = typeNil

	case NodeIdent:
		if node.String == BlankName {
			return errorAt(node.Pos, "cannot use _ as value")
		}
		v := ctx.scope.Lookup(node.String)
		if v == nil {
			return errorAt(node.Pos, "undefined variable: %s", node.String)
		}
		v.Used = true
		node.Symbol = v
		node.Type = v.Type

	case NodeBinary:
		return tc.checkBinary(ctx, node)

	case NodeUnary:
		return tc.checkUnary(ctx, node)

	case NodeDot:
		return tc.checkDot(ctx, node)

	case NodeNew:
		return tc.checkNew(node)

	case NodeCall:
		return tc.checkCall(ctx, node)

	case NodeAssign:
		return tc.checkAssign(ctx, node)

	case NodeVar:
		return tc.checkVarDecl(ctx, node)

	case NodeIncDec:
		operand := node.Children[0]
		if !isLvalue(operand) {
			return errorAt(operand.Pos, "operand of %s is not an lvalue", node.Op)
		}
		if err := tc.check(ctx, operand); err != nil {
			return err
		}
		if err := wantSingle(operand); err != nil {
			return err
		}
		if operand.Type.Kind != TypeInt {
			return errorAt(operand.Pos, "operand of %s must be int, got %s", node.Op, operand.Type)
		}
		node.Type = emptyTuple

	case NodeIf:
		cond := node.Children[0]
		if err := tc.check(ctx, cond); err != nil {
			return err
		}
		if err := wantSingle(cond); err != nil {
			return err
		}
		if cond.Type.Kind != TypeBool {
			return errorAt(cond.Pos, "if condition must be bool, got %s", cond.Type)
		}
		// Branches are checked in the current scope; only their block
		// bodies push.
		for _, branch := range node.Children[1:] {
			if err := tc.check(ctx, branch); err != nil {
				return err
			}
		}
		node.Type = emptyTuple

	case NodeFor:
		// One new scope shared by the condition and the body.
		inner := ctx.push()
		cond, body := node.Children[0], node.Children[1]
		if err := tc.check(inner, cond); err != nil {
			return err
		}
		if err := wantSingle(cond); err != nil {
			return err
		}
		if cond.Type.Kind != TypeBool {
			return errorAt(cond.Pos, "for condition must be bool, got %s", cond.Type)
		}
		for _, stmt := range body.Children {
			if err := tc.check(inner, stmt); err != nil {
				return err
			}
		}
		body.Type = emptyTuple
		node.Type = emptyTuple

	case NodeReturn:
		for _, expr := range node.Children {
			if err := tc.check(ctx, expr); err != nil {
				return err
			}
		}
		actual, err := reconcileValues(node.Pos, node.Children, len(ctx.results), "return statement")
		if err != nil {
			return err
		}
		for i, typ := range actual {
			if !TypesCompatible(typ, ctx.results[i]) {
				return errorAt(node.Pos, "cannot return %s as %s", typ, ctx.results[i])
			}
		}
		node.Type = emptyTuple

	case NodeBlock:
		inner := ctx.push()
		for _, stmt := range node.Children {
			if err := tc.check(inner, stmt); err != nil {
				return err
			}
		}
		node.Type = emptyTuple

	default:
		return errorAt(node.Pos, "unexpected node kind %s", node.Kind)
	}
	return nil
}

func (tc *TypeChecker) checkBinary(ctx checkContext, node *ASTNode) error {
	lhs, rhs := node.Children[0], node.Children[1]
	if err := tc.check(ctx, lhs); err != nil {
		return err
	}
	if err := tc.check(ctx, rhs); err != nil {
		return err
	}
	if err := wantSingle(lhs); err != nil {
		return err
	}
	if err := wantSingle(rhs); err != nil {
		return err
	}

	switch node.Op {
	case "+", "-", "*", "/", "%":
		if lhs.Type.Kind != TypeInt || rhs.Type.Kind != TypeInt {
			return errorAt(node.Pos, "operator %s requires two ints, got %s and %s", node.Op, lhs.Type, rhs.Type)
		}
		node.Type = typeInt

	case "<", "<=", ">", ">=":
		if lhs.Type.Kind != TypeInt || rhs.Type.Kind != TypeInt {
			return errorAt(node.Pos, "operator %s requires two ints, got %s and %s", node.Op, lhs.Type, rhs.Type)
		}
		node.Type = typeBool

	case "==", "!=":
		if lhs.Type.Kind == TypeNil && rhs.Type.Kind == TypeNil {
			return errorAt(node.Pos, "invalid operation: comparing nil with nil")
		}
		if lhs.Type.Kind == TypeStruct || rhs.Type.Kind == TypeStruct {
			return errorAt(node.Pos, "cannot compare struct values; compare fields or pointers")
		}
		if !TypesCompatible(lhs.Type, rhs.Type) {
			return errorAt(node.Pos, "cannot compare %s with %s", lhs.Type, rhs.Type)
		}
		node.Type = typeBool

	case "&&", "||":
		if lhs.Type.Kind != TypeBool || rhs.Type.Kind != TypeBool {
			return errorAt(node.Pos, "operator %s requires two bools, got %s and %s", node.Op, lhs.Type, rhs.Type)
		}
		node.Type = typeBool

	default:
		return errorAt(node.Pos, "unknown operator %s", node.Op)
	}
	return nil
}

func (tc *TypeChecker) checkUnary(ctx checkContext, node *ASTNode) error {
	operand := node.Children[0]

	// The address-of lvalue check is syntactic and happens before the
	// operand is type-checked.
	if node.Op == "&" && !isLvalue(operand) {
		return errorAt(operand.Pos, "cannot take the address of this expression")
	}

	if err := tc.check(ctx, operand); err != nil {
		return err
	}
	if err := wantSingle(operand); err != nil {
		return err
	}

	switch node.Op {
	case "-":
		if operand.Type.Kind != TypeInt {
			return errorAt(node.Pos, "operator - requires an int, got %s", operand.Type)
		}
		node.Type = typeInt

	case "!":
		if operand.Type.Kind != TypeBool {
			return errorAt(node.Pos, "operator ! requires a bool, got %s", operand.Type)
		}
		node.Type = typeBool

	case "&":
		if operand.Type.Kind == TypeNil {
			return errorAt(node.Pos, "cannot take the address of nil")
		}
		markAddrTaken(operand)
		node.Type = pointerTo(operand.Type)

	case "*":
		if operand.Type.Kind == TypeNil {
			return errorAt(node.Pos, "cannot dereference nil (type unknown)")
		}
		if operand.Type.Kind != TypePointer {
			return errorAt(node.Pos, "cannot dereference non-pointer type %s", operand.Type)
		}
		node.Type = operand.Type.Elem

	default:
		return errorAt(node.Pos, "unknown operator %s", node.Op)
	}
	return nil
}

func (tc *TypeChecker) checkDot(ctx checkContext, node *ASTNode) error {
	base := node.Children[0]
	if err := tc.check(ctx, base); err != nil {
		return err
	}
	if err := wantSingle(base); err != nil {
		return err
	}

	baseType := base.Type
	if baseType.Kind == TypePointer {
		// One level of auto-dereference.
		baseType = baseType.Elem
	}
	if baseType.Kind != TypeStruct {
		return errorAt(node.Pos, "type %s has no field %s", base.Type, node.String)
	}
	fld := baseType.Struct.Field(node.String)
	if fld == nil {
		return errorAt(node.Pos, "unknown field %s in struct %s", node.String, baseType.Struct.Name)
	}
	node.FieldRef = fld
	node.Type = fld.Type
	return nil
}

func (tc *TypeChecker) checkNew(node *ASTNode) error {
	if len(node.Children) != 1 {
		return errorAt(node.Pos, "new expects exactly one argument")
	}
	arg := node.Children[0]
	if arg.Kind != NodeIdent {
		return errorAt(arg.Pos, "argument to new must be a struct name")
	}
	s := tc.st.LookupStruct(arg.String)
	if s == nil {
		return errorAt(arg.Pos, "undefined type: %s", arg.String)
	}
	node.StructRef = s
	node.Type = pointerTo(structType(s))
	return nil
}

func (tc *TypeChecker) checkCall(ctx checkContext, node *ASTNode) error {
	callee := node.Children[0]
	if callee.Kind != NodeIdent {
		return errorAt(callee.Pos, "called expression is not a function")
	}
	args := node.Children[1:]

	fn := tc.st.LookupFunc(callee.String)
	if fn == nil {
		return errorAt(callee.Pos, "undefined function: %s", callee.String)
	}
	node.Func = fn

	for _, arg := range args {
		if err := tc.check(ctx, arg); err != nil {
			return err
		}
	}

	if fn.IsBuiltin {
		// The print builtin accepts any number of arguments of any
		// single-valued type.
		for _, arg := range args {
			if err := wantSingle(arg); err != nil {
				return err
			}
			if arg.Type.Kind == TypeStruct {
				return errorAt(arg.Pos, "cannot print struct value of type %s", arg.Type)
			}
		}
		tc.st.printUsed = true
		node.Type = emptyTuple
		return nil
	}

	actual, err := reconcileValues(node.Pos, args, len(fn.Params),
		"arguments to function "+fn.Name)
	if err != nil {
		return err
	}
	for i, typ := range actual {
		if !TypesCompatible(typ, fn.Params[i].Type) {
			return errorAt(node.Pos, "cannot use %s as %s for parameter %s of %s",
				typ, fn.Params[i].Type, fn.Params[i].Name, fn.Name)
		}
	}

	switch len(fn.Results) {
	case 0:
		node.Type = emptyTuple
	case 1:
		node.Type = fn.Results[0]
	default:
		node.Type = tupleOf(fn.Results)
	}
	return nil
}

func (tc *TypeChecker) checkAssign(ctx checkContext, node *ASTNode) error {
	// Every target must be a syntactic lvalue; this is checked before
	// either side is type-checked.
	for _, lhs := range node.LHS {
		if !isLvalue(lhs) && !isBlank(lhs) {
			return errorAt(lhs.Pos, "cannot assign to this expression")
		}
	}

	for _, lhs := range node.LHS {
		if err := tc.checkTarget(ctx, lhs); err != nil {
			return err
		}
	}
	for _, rhs := range node.RHS {
		if err := tc.check(ctx, rhs); err != nil {
			return err
		}
	}

	actual, err := reconcileValues(node.Pos, node.RHS, len(node.LHS), "assignment")
	if err != nil {
		return err
	}
	for i, typ := range actual {
		lhs := node.LHS[i]
		if isBlank(lhs) {
			continue
		}
		if !TypesCompatible(typ, lhs.Type) {
			return errorAt(node.Pos, "cannot assign %s to %s", typ, lhs.Type)
		}
		if typ.Kind == TypeStruct {
			return errorAt(node.Pos, "cannot copy struct value of type %s; use a pointer", typ)
		}
	}
	node.Type = emptyTuple
	return nil
}

// checkTarget checks an assignment target. A plain identifier target
// is resolved without marking the variable used: being assigned to is
// not a use. Field and dereference targets read their base
// expression, which does count.
func (tc *TypeChecker) checkTarget(ctx checkContext, node *ASTNode) error {
	if isBlank(node) {
		return nil
	}
	if node.Kind == NodeIdent {
		v := ctx.scope.Lookup(node.String)
		if v == nil {
			return errorAt(node.Pos, "undefined variable: %s", node.String)
		}
		node.Symbol = v
		node.Type = v.Type
		return nil
	}
	return tc.check(ctx, node)
}

func (tc *TypeChecker) checkVarDecl(ctx checkContext, node *ASTNode) error {
	var declared *Type
	if node.TypeExpr != nil {
		typ, err := tc.st.ResolveType(node.TypeExpr)
		if err != nil {
			return err
		}
		declared = typ
	}

	var initTypes []*Type
	if len(node.Inits) > 0 {
		for _, init := range node.Inits {
			if err := tc.check(ctx, init); err != nil {
				return err
			}
		}
		types, err := reconcileValues(node.Pos, node.Inits, len(node.Names), "variable declaration")
		if err != nil {
			return err
		}
		initTypes = types
	} else if declared == nil {
		return errorAt(node.Pos, "variable declaration needs a type or an initializer")
	}

	for i, name := range node.Names {
		var typ *Type
		if declared != nil {
			typ = declared
			if initTypes != nil && !TypesCompatible(initTypes[i], declared) {
				return errorAt(node.Inits[0].Pos, "cannot use %s as %s in variable declaration", initTypes[i], declared)
			}
		} else {
			if initTypes[i].Kind == TypeNil {
				return errorAt(node.Pos, "cannot infer type of %s from nil", name.String)
			}
			typ = initTypes[i]
		}
		if initTypes != nil && initTypes[i].Kind == TypeStruct {
			return errorAt(node.Pos, "cannot copy struct value of type %s; use a pointer", initTypes[i])
		}

		v := tc.st.newVariable(name.String, name.Pos, typ)
		if name.String == BlankName {
			// Blank bindings are write-only, never entered in scope,
			// and exempt from the must-use rule.
			v.Used = true
		} else {
			if ctx.scope.DeclaredHere(name.String) {
				return errorAt(name.Pos, "variable %s already declared in this scope", name.String)
			}
			ctx.scope.declare(v)
		}
		name.Symbol = v
		name.Type = typ
	}

	node.Type = emptyTuple
	return nil
}

// reconcileValues implements the multi-value unpacking rule: an
// expected arity N matched against either N single values or exactly
// one value whose type is a Tuple of N parts.
func reconcileValues(pos Pos, exprs []*ASTNode, expected int, context string) ([]*Type, error) {
	if len(exprs) == 1 && exprs[0].Type.Kind == TypeTuple {
		parts := exprs[0].Type.Parts
		if len(parts) != expected {
			return nil, errorAt(pos, "wrong number of values in %s: expected %d, got %d",
				context, expected, len(parts))
		}
		return parts, nil
	}

	types := make([]*Type, 0, len(exprs))
	for _, expr := range exprs {
		if err := wantSingle(expr); err != nil {
			return nil, err
		}
		types = append(types, expr.Type)
	}
	if len(types) != expected {
		return nil, errorAt(pos, "wrong number of values in %s: expected %d, got %d",
			context, expected, len(types))
	}
	return types, nil
}

// wantSingle rejects a multi-valued expression in single-value
// position.
func wantSingle(node *ASTNode) error {
	if node.Type.Kind == TypeTuple {
		return errorAt(node.Pos, "multiple-value expression in single-value context")
	}
	return nil
}

// isLvalue reports whether the expression has one of the syntactic
// lvalue shapes: identifier, field access, or pointer dereference.
// Other unary expressions name no storage location.
func isLvalue(node *ASTNode) bool {
	switch node.Kind {
	case NodeIdent:
		return node.String != BlankName
	case NodeDot:
		return true
	case NodeUnary:
		return node.Op == "*"
	default:
		return false
	}
}

func isBlank(node *ASTNode) bool {
	return node.Kind == NodeIdent && node.String == BlankName
}

// markAddrTaken chases field-access and unary chains down to the base
// identifier and marks its variable. The flag is recorded for
// fidelity; named variables already live at stack addresses, so it
// does not change allocation.
func markAddrTaken(node *ASTNode) {
	switch node.Kind {
	case NodeIdent:
		if node.Symbol != nil {
			node.Symbol.AddrTaken = true
		}
	case NodeDot, NodeUnary:
		markAddrTaken(node.Children[0])
	}
}

// checkUnusedVars walks the completed typed body collecting every
// declared variable, then rejects any non-blank one never read.
// Parameters count too.
func (tc *TypeChecker) checkUnusedVars(decl *FuncDecl, fn *Function) error {
	vars := append([]*Variable{}, fn.Params...)
	collectDeclaredVars(decl.Body, &vars)
	for _, v := range vars {
		if v.Name != BlankName && !v.Used {
			return errorAt(v.Pos, "%s declared and not used", v.Name)
		}
	}
	return nil
}

func collectDeclaredVars(node *ASTNode, out *[]*Variable) {
	if node == nil {
		return
	}
	if node.Kind == NodeVar {
		for _, name := range node.Names {
			if name.Symbol != nil {
				*out = append(*out, name.Symbol)
			}
		}
	}
	for _, child := range node.Children {
		collectDeclaredVars(child, out)
	}
}

// alwaysReturns is the conservative structural check that a function
// with results returns on every path. A block counts as returning if
// any of its statements does; an if counts only when both branches
// do.
func alwaysReturns(node *ASTNode) bool {
	switch node.Kind {
	case NodeReturn:
		return true
	case NodeBlock:
		for _, stmt := range node.Children {
			if alwaysReturns(stmt) {
				return true
			}
		}
		return false
	case NodeIf:
		return len(node.Children) == 3 &&
			alwaysReturns(node.Children[1]) && alwaysReturns(node.Children[2])
	default:
		return false
	}
}
