package main

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func buildTable(t *testing.T, input string) *SymbolTable {
	t.Helper()
	prog := parseProgramString(t, input)
	st, err := BuildSymbolTable(prog)
	be.Err(t, err, nil)
	return st
}

func TestBuildStructTable(t *testing.T) {
	st := buildTable(t, `
type Point struct {
	x int
	y int
}

func main() {}
`)
	s := st.LookupStruct("Point")
	be.True(t, s != nil)
	be.Equal(t, len(s.Fields), 2)
	be.Equal(t, s.Field("x").Type, typeInt)
	be.True(t, s.Field("z") == nil)
}

func TestMutuallyReferentialStructs(t *testing.T) {
	// Declaration order must not matter for field resolution.
	st := buildTable(t, `
type A struct {
	b *B
}

type B struct {
	a *A
}

func main() {}
`)
	a := st.LookupStruct("A")
	b := st.LookupStruct("B")
	be.Equal(t, a.Field("b").Type.Elem.Struct, b)
	be.Equal(t, b.Field("a").Type.Elem.Struct, a)
}

func TestBuildFunctionTable(t *testing.T) {
	st := buildTable(t, `
func divmod(a int, b int) (int, int) {
	return a / b, a % b
}

func main() {}
`)
	fn := st.LookupFunc("divmod")
	be.True(t, fn != nil)
	be.Equal(t, len(fn.Params), 2)
	be.Equal(t, fn.Params[0].Name, "a")
	be.Equal(t, fn.Params[0].Type, typeInt)
	be.Equal(t, len(fn.Results), 2)
	be.Equal(t, fn.Signature(), "func divmod(a int, b int) (int, int)")
}

func TestPrintBuiltinRegistration(t *testing.T) {
	st := buildTable(t, `
import "fmt"

func main() {
	fmt.Print(1)
}
`)
	fn := st.LookupFunc(PrintName)
	be.True(t, fn != nil)
	be.True(t, fn.IsBuiltin)
}

func TestPrintBuiltinAbsentWithoutImport(t *testing.T) {
	st := buildTable(t, "func main() {}")
	be.True(t, st.LookupFunc(PrintName) == nil)
}

func TestUndefinedFieldType(t *testing.T) {
	prog := parseProgramString(t, `
type T struct {
	v Missing
}

func main() {}
`)
	_, err := BuildSymbolTable(prog)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "undefined type: Missing"))
}

func TestUndefinedParamType(t *testing.T) {
	prog := parseProgramString(t, "func f(x Missing) {}\nfunc main() {}")
	_, err := BuildSymbolTable(prog)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "undefined type: Missing"))
}

func TestStructParamRejected(t *testing.T) {
	prog := parseProgramString(t, `
type Point struct {
	x int
}

func f(p Point) {}

func main() {}
`)
	_, err := BuildSymbolTable(prog)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "cannot pass struct Point by value; use *Point"))
}

func TestStructResultRejected(t *testing.T) {
	prog := parseProgramString(t, `
type Point struct {
	x int
}

func g() Point {
	var p Point
	return p
}

func main() {}
`)
	_, err := BuildSymbolTable(prog)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "cannot return struct Point by value; use *Point"))
}

func TestResolveBuiltinTypes(t *testing.T) {
	st := NewSymbolTable()
	tests := []struct {
		name     string
		expected *Type
	}{
		{"int", typeInt},
		{"bool", typeBool},
		{"string", typeString},
	}
	for _, test := range tests {
		typ, err := st.ResolveType(&TypeExpr{Name: test.name})
		be.Err(t, err, nil)
		be.Equal(t, typ, test.expected)
	}
}

func TestResolvePointerType(t *testing.T) {
	st := NewSymbolTable()
	typ, err := st.ResolveType(&TypeExpr{Elem: &TypeExpr{Name: "int"}})
	be.Err(t, err, nil)
	be.Equal(t, typ.Kind, TypePointer)
	be.Equal(t, typ.Elem, typeInt)
}

func TestScopeLookupAndShadowing(t *testing.T) {
	st := NewSymbolTable()
	outer := NewScope()

	x1 := st.newVariable("x", Pos{}, typeInt)
	outer.declare(x1)
	be.Equal(t, outer.Lookup("x"), x1)

	inner := outer.Push()
	be.Equal(t, inner.Lookup("x"), x1)
	be.True(t, !inner.DeclaredHere("x"))

	x2 := st.newVariable("x", Pos{}, typeBool)
	inner.declare(x2)
	be.Equal(t, inner.Lookup("x"), x2)
	be.True(t, inner.DeclaredHere("x"))

	// The outer scope is untouched by the inner declaration.
	be.Equal(t, outer.Lookup("x"), x1)
	be.True(t, inner.Lookup("missing") == nil)

	// Shadowed bindings are distinct variables.
	be.True(t, x1.ID != x2.ID)
}

func TestDumpString(t *testing.T) {
	st := buildTable(t, `
type Point struct {
	x int
}

func f(p *Point) int {
	return p.x
}

func main() {}
`)
	dump := st.DumpString()
	be.True(t, strings.Contains(dump, "struct Point { x int }"))
	be.True(t, strings.Contains(dump, "func f(p *Point) int"))
	be.True(t, strings.Contains(dump, "func main()"))
}
