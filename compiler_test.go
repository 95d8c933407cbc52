package main

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func compileErr(t *testing.T, input string) error {
	t.Helper()
	_, err := compileProgram([]byte(input+"\x00"), false)
	if err == nil {
		t.Fatalf("expected a compile error, got none")
	}
	return err
}

func TestCompileWholeProgram(t *testing.T) {
	asm, err := compileProgram([]byte(`
package main

import "fmt"

type Point struct {
	x int
	y int
}

func manhattan(p *Point) int {
	var d = p.x + p.y
	if d < 0 {
		return -d
	}
	return d
}

func main() {
	var p = new(Point)
	p.x = 3
	p.y = 4
	fmt.Print(manhattan(p))
	fmt.Print("\n")
}
`+"\x00"), false)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(asm, "manhattan:"))
	be.True(t, strings.Contains(asm, "main:"))
	be.True(t, strings.Contains(asm, ".data"))
}

func TestCompileLoopProgram(t *testing.T) {
	asm, err := compileProgram([]byte(`
package main

import "fmt"

func main() {
	var sum = 0
	for var i = 1; i <= 10; i++ {
		sum = sum + i
	}
	fmt.Print(sum)
}
`+"\x00"), false)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(asm, "jmp .L0"))
}

func TestCompileReportsParseErrors(t *testing.T) {
	err := compileErr(t, "func main() { var }")
	be.True(t, strings.Contains(err.Error(), "parsing errors:"))
}

func TestCompileRunsDuplicateChecksBeforeResolution(t *testing.T) {
	// Both f bodies reference an undefined variable; the duplicate is
	// still what gets reported.
	err := compileErr(t, `
func f() {
	ghost()
}

func f() {
	ghost()
}

func main() {}
`)
	be.True(t, strings.Contains(err.Error(), "duplicate function: f"))
}

func TestCompileRejectsCyclesBeforeBodies(t *testing.T) {
	err := compileErr(t, `
type A struct {
	b B
}

type B struct {
	a A
}

func main() {
	ghost()
}
`)
	be.True(t, strings.Contains(err.Error(), "cyclic struct dependency"))
}

func TestCompileRequiresMainBeforeBodies(t *testing.T) {
	err := compileErr(t, `
func helper() {
	ghost()
}
`)
	be.True(t, strings.Contains(err.Error(), "function main is not defined"))
}

func TestCompileReportsTypeErrorsWithPosition(t *testing.T) {
	err := compileErr(t, `func main() {
	var x = 1 + true
	_ = x
}`)
	be.True(t, strings.Contains(err.Error(), "2:"))
	be.True(t, strings.Contains(err.Error(), "operator + requires two ints"))
}

func TestCompileUnusedImportLast(t *testing.T) {
	err := compileErr(t, `
import "fmt"

func main() {
	var x = 1
	_ = x
}
`)
	be.True(t, strings.Contains(err.Error(), `imported and not used: "fmt"`))
}

func TestCompileWithoutPrintNeedsNoImport(t *testing.T) {
	_, err := compileProgram([]byte("func main() {\n\tvar x = 1\n\t_ = x\n}\x00"), false)
	be.Err(t, err, nil)
}

func TestCompileRunsAreIsolated(t *testing.T) {
	src := []byte(`
import "fmt"

func main() {
	fmt.Print("only")
	if true {
		fmt.Print(1)
	}
}
` + "\x00")
	first, err := compileProgram(src, false)
	be.Err(t, err, nil)
	second, err := compileProgram(src, false)
	be.Err(t, err, nil)

	// Label counters and the string table restart from zero each run.
	be.Equal(t, first, second)
}

func TestCompileRejectsAddressOfTemporary(t *testing.T) {
	err := compileErr(t, "func main() {\n\tvar x = 1\n\tvar p = &(-x)\n\t_ = p\n}")
	be.True(t, strings.Contains(err.Error(), "cannot take the address of this expression"))
}

func TestCompileRejectsStructCopy(t *testing.T) {
	err := compileErr(t, `
type Point struct {
	x int
	y int
}

func main() {
	var p Point
	var q Point
	q = p
}
`)
	be.True(t, strings.Contains(err.Error(), "cannot copy struct value of type Point; use a pointer"))
}

func TestAnalyzeWithoutGenerating(t *testing.T) {
	a, err := analyzeProgram([]byte(`
func f(x int) int {
	return x * 2
}

func main() {
	_ = f(21)
}
`+"\x00"), false)
	be.Err(t, err, nil)
	be.True(t, a.st.LookupFunc("f") != nil)
	be.Equal(t, len(a.prog.Funcs), 2)
}
