package main

import (
	"fmt"
	"strings"
)

// Field is one field of a structure. Offset starts at 0 and is fixed
// by the storage allocator.
type Field struct {
	Name   string
	Pos    Pos
	Type   *Type
	Offset int
}

// Structure owns a declared struct: its fields in declaration order
// (which determines memory layout), a name index, and the total byte
// size computed by the allocator. The same Structure object is shared
// by reference from every type value that mentions it, so offset
// computation is visible everywhere at once.
type Structure struct {
	Name   string
	Pos    Pos
	Fields []*Field
	Size   int

	fieldIndex map[string]*Field
	laidOut    bool
}

func (s *Structure) Field(name string) *Field {
	return s.fieldIndex[name]
}

func (s *Structure) addField(f *Field) {
	s.Fields = append(s.Fields, f)
	s.fieldIndex[f.Name] = f
}

// Variable is a named local or parameter. ID is a process-unique
// counter used only to tell shadowed bindings apart in debug output.
// Offset is frame-relative: negative for locals, positive for
// parameters; it is fixed by the storage allocator.
type Variable struct {
	Name      string
	ID        int
	Pos       Pos
	Type      *Type
	Used      bool
	AddrTaken bool
	Offset    int
}

// Function is a resolved function signature. FrameSize is the byte
// count of the local-variable area, fixed by the storage allocator.
type Function struct {
	Name      string
	Pos       Pos
	Params    []*Variable
	Results   []*Type
	IsBuiltin bool
	FrameSize int
}

// Signature renders the function for debug output.
func (f *Function) Signature() string {
	var sb strings.Builder
	sb.WriteString("func ")
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s %s", p.Name, p.Type)
	}
	sb.WriteByte(')')
	if len(f.Results) == 1 {
		sb.WriteString(" " + f.Results[0].String())
	} else if len(f.Results) > 1 {
		sb.WriteString(" (")
		for i, r := range f.Results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.String())
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// Scope is the lexical variable scope stack: a slice of frames with
// innermost-first lookup. Push returns a new Scope sharing the outer
// frames; only the innermost frame of a scope is ever mutated, so an
// outer context is never changed by checking an inner block.
type Scope struct {
	frames []map[string]*Variable
}

func NewScope() Scope {
	return Scope{frames: []map[string]*Variable{{}}}
}

// Push returns a child scope with a fresh innermost frame.
func (s Scope) Push() Scope {
	frames := make([]map[string]*Variable, len(s.frames)+1)
	copy(frames, s.frames)
	frames[len(s.frames)] = map[string]*Variable{}
	return Scope{frames: frames}
}

// Lookup resolves a name innermost-first. Returns nil when unbound.
func (s Scope) Lookup(name string) *Variable {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v
		}
	}
	return nil
}

// DeclaredHere reports whether name is bound in the innermost frame.
// Shadowing an outer frame is permitted; rebinding within the same
// frame is not (except for the blank name).
func (s Scope) DeclaredHere(name string) bool {
	_, ok := s.frames[len(s.frames)-1][name]
	return ok
}

func (s Scope) declare(v *Variable) {
	s.frames[len(s.frames)-1][v.Name] = v
}

// SymbolTable holds the struct and function tables for one
// compilation run, plus the variable id counter, so runs never share
// state.
type SymbolTable struct {
	structs     map[string]*Structure
	structOrder []*Structure
	funcs       map[string]*Function
	funcOrder   []*Function

	nextVarID int

	// printUsed records whether any body called the print builtin;
	// the unused-import check reads it after type checking.
	printUsed bool
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		structs: map[string]*Structure{},
		funcs:   map[string]*Function{},
	}
}

func (st *SymbolTable) LookupStruct(name string) *Structure {
	return st.structs[name]
}

func (st *SymbolTable) LookupFunc(name string) *Function {
	return st.funcs[name]
}

// Structs returns the struct table in declaration order.
func (st *SymbolTable) Structs() []*Structure {
	return st.structOrder
}

// Funcs returns the function table in declaration order.
func (st *SymbolTable) Funcs() []*Function {
	return st.funcOrder
}

func (st *SymbolTable) newVariable(name string, pos Pos, typ *Type) *Variable {
	st.nextVarID++
	return &Variable{Name: name, ID: st.nextVarID, Pos: pos, Type: typ}
}

func (st *SymbolTable) addStruct(s *Structure) {
	st.structs[s.Name] = s
	st.structOrder = append(st.structOrder, s)
}

func (st *SymbolTable) addFunc(f *Function) {
	st.funcs[f.Name] = f
	st.funcOrder = append(st.funcOrder, f)
}

// ResolveType resolves a syntactic type against the builtin names and
// the struct table.
func (st *SymbolTable) ResolveType(te *TypeExpr) (*Type, error) {
	if te.Elem != nil {
		elem, err := st.ResolveType(te.Elem)
		if err != nil {
			return nil, err
		}
		return pointerTo(elem), nil
	}
	switch te.Name {
	case "int":
		return typeInt, nil
	case "bool":
		return typeBool, nil
	case "string":
		return typeString, nil
	}
	if s := st.LookupStruct(te.Name); s != nil {
		return structType(s), nil
	}
	return nil, errorAt(te.Pos, "undefined type: %s", te.Name)
}

// BuildSymbolTable builds the struct and function tables in phases so
// that any signature may reference any struct or function regardless
// of declaration order: first one empty shell per struct name, then
// field resolution against the fully keyed table, then function
// signatures. The reserved print builtin is registered when the
// program imports "fmt".
func BuildSymbolTable(prog *Program) (*SymbolTable, error) {
	st := NewSymbolTable()

	// Phase 1: shells, so mutually referential structs resolve.
	for _, decl := range prog.Structs {
		st.addStruct(&Structure{
			Name:       decl.Name,
			Pos:        decl.Pos,
			fieldIndex: map[string]*Field{},
		})
	}

	// Phase 2: populate fields in place.
	for _, decl := range prog.Structs {
		s := st.LookupStruct(decl.Name)
		for _, fd := range decl.Fields {
			typ, err := st.ResolveType(fd.Type)
			if err != nil {
				return nil, err
			}
			s.addField(&Field{Name: fd.Name, Pos: fd.Pos, Type: typ})
		}
	}

	// Phase 3: function signatures. Structs travel by pointer only;
	// values are word-sized everywhere past this point.
	for _, decl := range prog.Funcs {
		fn := &Function{Name: decl.Name, Pos: decl.Pos}
		for _, pd := range decl.Params {
			typ, err := st.ResolveType(pd.Type)
			if err != nil {
				return nil, err
			}
			if typ.Kind == TypeStruct {
				return nil, errorAt(pd.Pos, "cannot pass struct %s by value; use *%s", typ, typ)
			}
			fn.Params = append(fn.Params, st.newVariable(pd.Name, pd.Pos, typ))
		}
		for _, rt := range decl.Results {
			typ, err := st.ResolveType(rt)
			if err != nil {
				return nil, err
			}
			if typ.Kind == TypeStruct {
				return nil, errorAt(rt.Pos, "cannot return struct %s by value; use *%s", typ, typ)
			}
			fn.Results = append(fn.Results, typ)
		}
		st.addFunc(fn)
	}

	if prog.HasImport {
		st.addFunc(&Function{Name: PrintName, IsBuiltin: true})
	}

	return st, nil
}

// DumpString renders the known structures and function signatures.
// Used by the -v debug toggle.
func (st *SymbolTable) DumpString() string {
	var sb strings.Builder
	for _, s := range st.structOrder {
		fmt.Fprintf(&sb, "struct %s {", s.Name)
		for i, f := range s.Fields {
			if i > 0 {
				sb.WriteString(";")
			}
			fmt.Fprintf(&sb, " %s %s", f.Name, f.Type)
		}
		sb.WriteString(" }\n")
	}
	for _, f := range st.funcOrder {
		sb.WriteString(f.Signature())
		sb.WriteByte('\n')
	}
	return sb.String()
}
