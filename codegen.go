package main

import "strconv"

// The code generator lowers the offset-resolved typed tree to x86-64
// text, one flat instruction sequence per function. Register
// discipline: rax is the accumulator holding the value of the
// expression just evaluated; binary operators save the left operand on
// the stack across the right operand's evaluation and pop it into rcx;
// rdx is clobbered by division; r12 is the callee-saved register that
// holds a computed store address across the value pop. Calling
// convention: arguments are pushed right-to-left so the first
// parameter lands at rbp+16; the first result returns in rax and any
// extra results are written into caller-reserved slots just above the
// arguments.

// CodeGen generates code for one function at a time.
type CodeGen struct {
	ctx      *CompilationContext
	st       *SymbolTable
	fn       *Function
	retLabel string
}

// GenerateProgram lowers every function into the context's text
// section. The caller renders the final program with ctx.Assembly.
func GenerateProgram(prog *Program, st *SymbolTable, ctx *CompilationContext) {
	for _, decl := range prog.Funcs {
		g := &CodeGen{ctx: ctx, st: st}
		g.genFunction(decl)
	}
}

// r12SaveOff is the frame slot holding the caller's r12, below the
// locals.
func (g *CodeGen) r12SaveOff() int {
	return -(g.fn.FrameSize + wordSize)
}

func (g *CodeGen) genFunction(decl *FuncDecl) {
	g.fn = g.st.LookupFunc(decl.Name)
	g.retLabel = ".Lret_" + decl.Name
	ctx := g.ctx

	ctx.Label(decl.Name)
	ctx.Push("rbp")
	ctx.Mov("rbp", "rsp")
	ctx.Sub("rsp", strconv.Itoa(g.fn.FrameSize+wordSize))
	ctx.StoreMem("rbp", g.r12SaveOff(), "r12")

	g.genStmt(decl.Body)

	ctx.Label(g.retLabel)
	ctx.LoadMem("r12", "rbp", g.r12SaveOff())
	ctx.Mov("rsp", "rbp")
	ctx.Pop("rbp")
	ctx.Ret()
}

func (g *CodeGen) genStmt(node *ASTNode) {
	switch node.Kind {
	case NodeBlock:
		for _, stmt := range node.Children {
			g.genStmt(stmt)
		}

	case NodeVar:
		g.genVarDecl(node)

	case NodeAssign:
		g.genAssign(node)

	case NodeIncDec:
		g.genIncDec(node)

	case NodeIf:
		g.genIf(node)

	case NodeFor:
		g.genFor(node)

	case NodeReturn:
		g.genReturn(node)

	case NodeCall:
		if node.Func != nil && node.Func.IsBuiltin {
			g.genPrint(node)
			return
		}
		g.genCall(node)
		// Results of a statement-position call are discarded.
		if extras := len(node.Func.Results) - 1; extras > 0 {
			g.ctx.Add("rsp", strconv.Itoa(extras*wordSize))
		}

	default:
		// Bare expression statement: evaluate for effect only.
		g.genExpr(node)
	}
}

func (g *CodeGen) genVarDecl(node *ASTNode) {
	if len(node.Inits) == 0 {
		// Zero-value semantics: clear every word of each slot.
		for _, name := range node.Names {
			v := name.Symbol
			size := alignWord(sizeOfType(v.Type))
			for off := 0; off < size; off += wordSize {
				g.ctx.StoreImm("rbp", v.Offset+off, 0)
			}
		}
		return
	}

	if len(node.Inits) == 1 && len(node.Names) > 1 {
		// Tuple unpacking: one call initializing every name.
		g.genCall(node.Inits[0])
		g.ctx.StoreMem("rbp", node.Names[0].Symbol.Offset, "rax")
		for _, name := range node.Names[1:] {
			g.ctx.Pop("rax")
			g.ctx.StoreMem("rbp", name.Symbol.Offset, "rax")
		}
		return
	}

	for i, init := range node.Inits {
		g.genExpr(init)
		g.ctx.StoreMem("rbp", node.Names[i].Symbol.Offset, "rax")
	}
}

func (g *CodeGen) genAssign(node *ASTNode) {
	if len(node.RHS) == 1 && len(node.LHS) > 1 {
		// Tuple unpacking from one multi-valued call.
		g.genCall(node.RHS[0])
		g.genStore(node.LHS[0])
		for _, lhs := range node.LHS[1:] {
			g.ctx.Pop("rax")
			g.genStore(lhs)
		}
		return
	}

	// Values are evaluated left-to-right and pushed, then stored
	// right-to-left.
	for _, rhs := range node.RHS {
		g.genExpr(rhs)
		g.ctx.Push("rax")
	}
	for i := len(node.LHS) - 1; i >= 0; i-- {
		g.ctx.Pop("rax")
		g.genStore(node.LHS[i])
	}
}

// genStore writes rax into the target lvalue. Plain variables store
// directly to their frame slot; everything else computes the address
// into r12 first so rax survives.
func (g *CodeGen) genStore(target *ASTNode) {
	if isBlank(target) {
		return
	}
	if target.Kind == NodeIdent {
		g.ctx.StoreMem("rbp", target.Symbol.Offset, "rax")
		return
	}
	g.ctx.Push("rax")
	g.genAddr(target)
	g.ctx.Mov("r12", "rax")
	g.ctx.Pop("rax")
	g.ctx.StoreMem("r12", 0, "rax")
}

func (g *CodeGen) genIncDec(node *ASTNode) {
	op := "add"
	if node.Op == "--" {
		op = "sub"
	}
	target := node.Children[0]
	if target.Kind == NodeIdent {
		g.ctx.ins("%s qword ptr %s, 1", op, MemOp("rbp", target.Symbol.Offset))
		return
	}
	g.genAddr(target)
	g.ctx.ins("%s qword ptr [rax], 1", op)
}

func (g *CodeGen) genIf(node *ASTNode) {
	cond, then := node.Children[0], node.Children[1]
	endLabel := g.ctx.NewLabel()

	g.genExpr(cond)
	g.ctx.Cmp("rax", "0")

	if len(node.Children) == 3 {
		elseLabel := g.ctx.NewLabel()
		g.ctx.Je(elseLabel)
		g.genStmt(then)
		g.ctx.Jmp(endLabel)
		g.ctx.Label(elseLabel)
		g.genStmt(node.Children[2])
	} else {
		g.ctx.Je(endLabel)
		g.genStmt(then)
	}
	g.ctx.Label(endLabel)
}

func (g *CodeGen) genFor(node *ASTNode) {
	cond, body := node.Children[0], node.Children[1]
	condLabel := g.ctx.NewLabel()
	endLabel := g.ctx.NewLabel()

	g.ctx.Label(condLabel)
	g.genExpr(cond)
	g.ctx.Cmp("rax", "0")
	g.ctx.Je(endLabel)
	g.genStmt(body)
	g.ctx.Jmp(condLabel)
	g.ctx.Label(endLabel)
}

// retSlotOff is the frame offset of extra return slot i (the i+2'th
// result), reserved by the caller just above the parameters.
func (g *CodeGen) retSlotOff(i int) int {
	return paramBase + wordSize*len(g.fn.Params) + wordSize*i
}

func (g *CodeGen) genReturn(node *ASTNode) {
	results := len(g.fn.Results)

	switch {
	case results == 0:
		// Nothing to place.

	case len(node.Children) == 1 && results == 1:
		g.genExpr(node.Children[0])

	case len(node.Children) == 1:
		// Forwarding one multi-valued call: its extras are on the
		// stack top in slot order.
		g.genCall(node.Children[0])
		for i := 0; i < results-1; i++ {
			g.ctx.Pop("rcx")
			g.ctx.StoreMem("rbp", g.retSlotOff(i), "rcx")
		}

	default:
		for _, expr := range node.Children {
			g.genExpr(expr)
			g.ctx.Push("rax")
		}
		for i := results - 1; i >= 1; i-- {
			g.ctx.Pop("rcx")
			g.ctx.StoreMem("rbp", g.retSlotOff(i-1), "rcx")
		}
		g.ctx.Pop("rax")
	}

	g.ctx.Jmp(g.retLabel)
}

// genPrint lowers one print call: each argument is evaluated and
// dispatched on its static type to a printf format.
func (g *CodeGen) genPrint(node *ASTNode) {
	for _, arg := range node.Children[1:] {
		g.genExpr(arg)

		switch arg.Type.Kind {
		case TypeInt:
			g.ctx.Mov("rsi", "rax")
			g.ctx.LeaLabel("rdi", labelFmtInt)

		case TypeString:
			g.ctx.Mov("rsi", "rax")
			g.ctx.LeaLabel("rdi", labelFmtStr)

		case TypeBool:
			falseLabel := g.ctx.NewLabel()
			endLabel := g.ctx.NewLabel()
			g.ctx.Cmp("rax", "0")
			g.ctx.Je(falseLabel)
			g.ctx.LeaLabel("rsi", labelBoolTrue)
			g.ctx.Jmp(endLabel)
			g.ctx.Label(falseLabel)
			g.ctx.LeaLabel("rsi", labelBoolFalse)
			g.ctx.Label(endLabel)
			g.ctx.LeaLabel("rdi", labelFmtStr)

		default: // pointers and nil
			nilLabel := g.ctx.NewLabel()
			endLabel := g.ctx.NewLabel()
			g.ctx.Cmp("rax", "0")
			g.ctx.Je(nilLabel)
			g.ctx.Mov("rsi", "rax")
			g.ctx.LeaLabel("rdi", labelFmtInt)
			g.ctx.Jmp(endLabel)
			g.ctx.Label(nilLabel)
			g.ctx.LeaLabel("rsi", labelNilText)
			g.ctx.LeaLabel("rdi", labelFmtStr)
			g.ctx.Label(endLabel)
		}

		g.ctx.Mov("eax", "0") // no vector registers in the varargs call
		g.ctx.Call("_printf")
	}
}

func isMultiCall(node *ASTNode) bool {
	return node.Kind == NodeCall && node.Func != nil && len(node.Func.Results) > 1
}

// genCall emits a user-function call. On return rax holds the first
// result and any extra results sit on the stack top in slot order; the
// surrounding context is responsible for consuming or dropping them.
func (g *CodeGen) genCall(node *ASTNode) {
	fn := node.Func
	args := node.Children[1:]

	if extras := len(fn.Results) - 1; extras > 0 {
		g.ctx.Sub("rsp", strconv.Itoa(extras*wordSize))
	}

	if len(args) == 1 && isMultiCall(args[0]) && len(fn.Params) > 1 {
		// Forwarded multi-valued call: its first result is pushed on
		// top of its extras, lining the values up as the arguments.
		g.genCall(args[0])
		g.ctx.Push("rax")
	} else {
		for i := len(args) - 1; i >= 0; i-- {
			g.genExpr(args[i])
			g.ctx.Push("rax")
		}
	}

	g.ctx.Call(fn.Name)
	if len(fn.Params) > 0 {
		g.ctx.Add("rsp", strconv.Itoa(len(fn.Params)*wordSize))
	}
}

// genExpr evaluates an expression, leaving its value in rax.
func (g *CodeGen) genExpr(node *ASTNode) {
	ctx := g.ctx
	switch node.Kind {
	case NodeInteger:
		ctx.MovImm("rax", node.Integer)

	case NodeBool:
		if node.Bool {
			ctx.MovImm("rax", 1)
		} else {
			ctx.MovImm("rax", 0)
		}

	case NodeNil:
		ctx.MovImm("rax", 0)

	case NodeString:
		ctx.LeaLabel("rax", ctx.StringLabel(node.String))

	case NodeIdent:
		ctx.LoadMem("rax", "rbp", node.Symbol.Offset)

	case NodeDot:
		g.genAddr(node)
		ctx.LoadMem("rax", "rax", 0)

	case NodeUnary:
		g.genUnary(node)

	case NodeBinary:
		g.genBinary(node)

	case NodeCall:
		if node.Func.IsBuiltin {
			g.genPrint(node)
			return
		}
		g.genCall(node)

	case NodeNew:
		ctx.MovImm("rdi", int64(node.StructRef.Size))
		ctx.Call("_malloc")

	default:
		panic("codegen: unexpected expression kind " + string(node.Kind))
	}
}

func (g *CodeGen) genUnary(node *ASTNode) {
	operand := node.Children[0]
	switch node.Op {
	case "-":
		g.genExpr(operand)
		g.ctx.Neg("rax")
	case "!":
		g.genExpr(operand)
		g.ctx.Xor("rax", "1")
	case "&":
		g.genAddr(operand)
	case "*":
		g.genExpr(operand)
		g.ctx.LoadMem("rax", "rax", 0)
	default:
		panic("codegen: unknown unary operator " + node.Op)
	}
}

func (g *CodeGen) genBinary(node *ASTNode) {
	ctx := g.ctx
	g.genExpr(node.Children[0])
	ctx.Push("rax")
	g.genExpr(node.Children[1])
	ctx.Mov("rcx", "rax")
	ctx.Pop("rax")

	switch node.Op {
	case "+":
		ctx.Add("rax", "rcx")
	case "-":
		ctx.Sub("rax", "rcx")
	case "*":
		ctx.IMul("rax", "rcx")
	case "/":
		ctx.Cqo()
		ctx.IDiv("rcx")
	case "%":
		ctx.Cqo()
		ctx.IDiv("rcx")
		ctx.Mov("rax", "rdx")
	case "==":
		ctx.Cmp("rax", "rcx")
		ctx.SetCC("e")
	case "!=":
		ctx.Cmp("rax", "rcx")
		ctx.SetCC("ne")
	case "<":
		ctx.Cmp("rax", "rcx")
		ctx.SetCC("l")
	case "<=":
		ctx.Cmp("rax", "rcx")
		ctx.SetCC("le")
	case ">":
		ctx.Cmp("rax", "rcx")
		ctx.SetCC("g")
	case ">=":
		ctx.Cmp("rax", "rcx")
		ctx.SetCC("ge")
	case "&&":
		ctx.And("rax", "rcx")
	case "||":
		ctx.Or("rax", "rcx")
	default:
		panic("codegen: unknown binary operator " + node.Op)
	}
}

// genAddr computes the address of an lvalue into rax. A dereference
// under address-of cancels: the inner pointer expression is evaluated
// directly. A field access on a pointer base evaluates the pointer
// instead of taking an address, which covers the
// dereferenced-pointer-base shortcut.
func (g *CodeGen) genAddr(node *ASTNode) {
	switch node.Kind {
	case NodeIdent:
		g.ctx.Lea("rax", "rbp", node.Symbol.Offset)

	case NodeDot:
		base := node.Children[0]
		if base.Type.Kind == TypePointer {
			g.genExpr(base)
		} else {
			g.genAddr(base)
		}
		if node.FieldRef.Offset != 0 {
			g.ctx.Add("rax", strconv.Itoa(node.FieldRef.Offset))
		}

	case NodeUnary:
		if node.Op != "*" {
			panic("codegen: expression is not addressable")
		}
		g.genExpr(node.Children[0])

	default:
		panic("codegen: expression is not addressable")
	}
}
