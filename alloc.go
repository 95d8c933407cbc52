package main

// The storage allocator runs after type checking and assigns concrete
// byte offsets: field offsets within structures, and frame-relative
// offsets for parameters and locals. Offsets are written exactly once;
// the code generator only reads them.

const (
	// wordSize is the slot size of every primitive and pointer value.
	wordSize = 8

	// paramBase is the frame offset of the first parameter: above the
	// saved return address and the saved frame pointer.
	paramBase = 16
)

// sizeOfType returns the byte size of a value of the given type,
// laying out struct types on demand.
func sizeOfType(t *Type) int {
	if t.Kind == TypeStruct {
		layoutStruct(t.Struct)
		return t.Struct.Size
	}
	return wordSize
}

// layoutStruct assigns field offsets in declaration order starting at
// 0 and records the total size. Memoized: a structure is laid out at
// most once; every shared reference sees the result. Nested by-value
// struct fields are laid out first (the cycle check has already
// guaranteed termination).
func layoutStruct(s *Structure) {
	if s.laidOut {
		return
	}
	s.laidOut = true

	offset := 0
	for _, f := range s.Fields {
		f.Offset = offset
		offset += sizeOfType(f.Type)
	}
	s.Size = offset
}

// AllocateProgram lays out every structure, then every function frame.
func AllocateProgram(prog *Program, st *SymbolTable) {
	for _, s := range st.Structs() {
		layoutStruct(s)
	}
	for _, decl := range prog.Funcs {
		allocateFrame(decl, st.LookupFunc(decl.Name))
	}
}

// allocateFrame assigns parameter offsets upward from paramBase and
// local offsets downward from the frame base. Locals are discovered by
// one flat walk over the body in declaration order; sibling-block
// variables get distinct slots rather than sharing, a deliberate
// simplicity-over-density tradeoff. Slots are sized by the declared
// type's true size, kept word-aligned.
func allocateFrame(decl *FuncDecl, fn *Function) {
	offset := paramBase
	for _, p := range fn.Params {
		p.Offset = offset
		offset += wordSize
	}

	local := 0
	var walk func(node *ASTNode)
	walk = func(node *ASTNode) {
		if node == nil {
			return
		}
		if node.Kind == NodeVar {
			for _, name := range node.Names {
				v := name.Symbol
				if v == nil {
					continue
				}
				size := alignWord(sizeOfType(v.Type))
				if size == 0 {
					// A zero-size struct still takes one word so every
					// local keeps a distinct slot.
					size = wordSize
				}
				local -= size
				v.Offset = local
			}
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(decl.Body)

	fn.FrameSize = -local
}

func alignWord(n int) int {
	return (n + wordSize - 1) &^ (wordSize - 1)
}
