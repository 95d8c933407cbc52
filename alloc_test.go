package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func allocate(t *testing.T, input string) (*Program, *SymbolTable) {
	t.Helper()
	prog, st := checkOK(t, input)
	AllocateProgram(prog, st)
	return prog, st
}

func TestStructLayout(t *testing.T) {
	_, st := allocate(t, `
type Point struct {
	x int
	y int
}

func main() {
	var p Point
	p.x = 1
}
`)
	s := st.LookupStruct("Point")
	be.Equal(t, s.Field("x").Offset, 0)
	be.Equal(t, s.Field("y").Offset, 8)
	be.Equal(t, s.Size, 16)
}

func TestNestedStructLayout(t *testing.T) {
	_, st := allocate(t, `
type Inner struct {
	a int
	b int
}

type Outer struct {
	first Inner
	tag   int
}

func main() {
	var o Outer
	o.tag = 1
}
`)
	outer := st.LookupStruct("Outer")
	be.Equal(t, outer.Field("first").Offset, 0)
	be.Equal(t, outer.Field("tag").Offset, 16)
	be.Equal(t, outer.Size, 24)
}

func TestPointerFieldIsOneWord(t *testing.T) {
	_, st := allocate(t, `
type List struct {
	next *List
	val  int
}

func main() {
	var l List
	l.val = 1
}
`)
	s := st.LookupStruct("List")
	be.Equal(t, s.Field("next").Offset, 0)
	be.Equal(t, s.Field("val").Offset, 8)
	be.Equal(t, s.Size, 16)
}

func TestParameterOffsets(t *testing.T) {
	_, st := allocate(t, `
func f(a int, b bool, c *int) {
	_ = a
	_ = b
	_ = c
}

func main() {
	var x = 0
	f(1, true, &x)
}
`)
	fn := st.LookupFunc("f")
	be.Equal(t, fn.Params[0].Offset, 16)
	be.Equal(t, fn.Params[1].Offset, 24)
	be.Equal(t, fn.Params[2].Offset, 32)
}

func TestLocalOffsetsAndFrameSize(t *testing.T) {
	prog, st := allocate(t, `
func main() {
	var a = 1
	var b = 2
	_ = a + b
}
`)
	body := prog.Funcs[0].Body
	a := body.Children[0].Names[0].Symbol
	b := body.Children[1].Names[0].Symbol
	be.Equal(t, a.Offset, -8)
	be.Equal(t, b.Offset, -16)
	be.Equal(t, st.LookupFunc("main").FrameSize, 16)
}

func TestStructLocalGetsFullSlot(t *testing.T) {
	prog, st := allocate(t, `
type Point struct {
	x int
	y int
}

func main() {
	var p Point
	var after = 1
	p.x = after
}
`)
	body := prog.Funcs[0].Body
	p := body.Children[0].Names[0].Symbol
	after := body.Children[1].Names[0].Symbol
	be.Equal(t, p.Offset, -16)
	be.Equal(t, after.Offset, -24)
	be.Equal(t, st.LookupFunc("main").FrameSize, 24)
}

func TestEmptyStructLocalsGetDistinctSlots(t *testing.T) {
	prog, st := allocate(t, `
type Empty struct {
}

func main() {
	var a Empty
	var b Empty
	_ = &a
	_ = &b
}
`)
	be.Equal(t, st.LookupStruct("Empty").Size, 0)

	body := prog.Funcs[0].Body
	a := body.Children[0].Names[0].Symbol
	b := body.Children[1].Names[0].Symbol
	be.Equal(t, a.Offset, -8)
	be.Equal(t, b.Offset, -16)
	be.Equal(t, st.LookupFunc("main").FrameSize, 16)
}

func TestSiblingShadowsGetDistinctSlots(t *testing.T) {
	prog, st := allocate(t, `
func main() {
	var x = 1
	if x == 1 {
		var x = 2
		_ = x
	} else {
		var x = 3
		_ = x
	}
	_ = x
}
`)
	body := prog.Funcs[0].Body
	outer := body.Children[0].Names[0].Symbol
	ifNode := body.Children[1]
	thenX := ifNode.Children[1].Children[0].Names[0].Symbol
	elseX := ifNode.Children[2].Children[0].Names[0].Symbol

	be.Equal(t, outer.Offset, -8)
	be.Equal(t, thenX.Offset, -16)
	be.Equal(t, elseX.Offset, -24)
	be.Equal(t, st.LookupFunc("main").FrameSize, 24)
}

func TestMultiNameDeclOffsets(t *testing.T) {
	prog, _ := allocate(t, `
func pair() (int, int) {
	return 1, 2
}

func main() {
	var a, b = pair()
	_ = a + b
}
`)
	decl := prog.Funcs[1].Body.Children[0]
	be.Equal(t, decl.Names[0].Symbol.Offset, -8)
	be.Equal(t, decl.Names[1].Symbol.Offset, -16)
}

func TestAlignWord(t *testing.T) {
	tests := []struct {
		in, out int
	}{
		{0, 0},
		{1, 8},
		{8, 8},
		{9, 16},
		{16, 16},
	}
	for _, test := range tests {
		be.Equal(t, alignWord(test.in), test.out)
	}
}
