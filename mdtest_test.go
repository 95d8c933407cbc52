package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/gale-lang/gale/mdtest"
)

// TestMarkdownPrograms runs every test case extracted from the
// Markdown documents under testdata/.
func TestMarkdownPrograms(t *testing.T) {
	files, err := filepath.Glob("testdata/*.md")
	be.Err(t, err, nil)
	be.True(t, len(files) > 0)

	for _, file := range files {
		content, err := os.ReadFile(file)
		be.Err(t, err, nil)

		cases, err := mdtest.ExtractTestCases(string(content))
		be.Err(t, err, nil)

		for _, tc := range cases {
			tc := tc
			t.Run(tc.Name, func(t *testing.T) {
				runMarkdownCase(t, tc)
			})
		}
	}
}

func runMarkdownCase(t *testing.T, tc mdtest.TestCase) {
	t.Helper()
	input := []byte(tc.Input + "\x00")

	for _, assertion := range tc.Assertions {
		switch assertion.Type {
		case mdtest.AssertionTypeCompileError:
			_, err := compileProgram(input, false)
			if err == nil {
				t.Fatalf("expected compile error containing %q, got none", assertion.Content)
			}
			if !strings.Contains(err.Error(), assertion.Content) {
				t.Fatalf("expected compile error containing %q, got:\n%s", assertion.Content, err.Error())
			}

		case mdtest.AssertionTypeAsm:
			asm, err := compileProgram(input, false)
			be.Err(t, err, nil)
			assertAsmContains(t, asm, assertion.Content)

		case mdtest.AssertionTypeAST:
			actual, err := mainBodySExpr(input)
			be.Err(t, err, nil)
			actualNode, err := mdtest.Parse(actual)
			be.Err(t, err, nil)
			if !assertion.Pattern.Match(actualNode) {
				t.Fatalf("ast mismatch\npattern: %s\nactual:  %s", assertion.Pattern, actual)
			}
		}
	}
}

// assertAsmContains checks that every line of the expected block
// appears in the assembly, in order. Lines compare
// whitespace-trimmed.
func assertAsmContains(t *testing.T, asm, expected string) {
	t.Helper()
	asmLines := strings.Split(asm, "\n")
	next := 0
	for _, want := range strings.Split(expected, "\n") {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		found := false
		for ; next < len(asmLines); next++ {
			if strings.TrimSpace(asmLines[next]) == want {
				found = true
				next++
				break
			}
		}
		if !found {
			t.Fatalf("line %q not found (in order) in assembly:\n%s", want, asm)
		}
	}
}

// mainBodySExpr parses the input and renders the body of main as an
// s-expression.
func mainBodySExpr(input []byte) (string, error) {
	l := NewLexer(input)
	l.NextToken()
	prog := ParseProgram(l)
	if l.Errors.HasErrors() {
		return "", fmt.Errorf("parsing errors:\n%s", l.Errors.String())
	}
	for _, fn := range prog.Funcs {
		if fn.Name == "main" {
			return ToSExpr(fn.Body), nil
		}
	}
	return "", fmt.Errorf("function main is not defined")
}
