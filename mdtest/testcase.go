// Package mdtest extracts compiler test cases from Markdown
// documents. A test case is a heading starting with "Test: " followed
// by one gale-program input fence and one or more assertion fences.
package mdtest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputTypeProgram is the fence language of the program under test.
const InputTypeProgram = "gale-program"

// AssertionType names the expectation an assertion fence states.
type AssertionType string

const (
	// AssertionTypeAST matches the parsed program body against an
	// s-expression pattern.
	AssertionTypeAST AssertionType = "ast"
	// AssertionTypeAsm requires the generated assembly to contain the
	// fence's lines in order.
	AssertionTypeAsm AssertionType = "asm"
	// AssertionTypeCompileError requires compilation to fail with the
	// fence's message.
	AssertionTypeCompileError AssertionType = "compile-error"
)

// Assertion is a single assertion fence in a test case.
type Assertion struct {
	Type    AssertionType
	Content string // raw fence content
	Pattern *Node  // parsed s-expression, for ast assertions
}

// TestCase is one complete test extracted from Markdown.
type TestCase struct {
	Name       string
	Input      string
	Assertions []Assertion
}

// ExtractTestCases parses a Markdown document and collects its test
// cases. Fences with a known language outside a test case, unknown
// fence languages inside one, and tests missing an input or assertion
// are reported as errors.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)
	doc := md.Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var current *TestCase

	finish := func() error {
		if current == nil {
			return nil
		}
		if current.Input == "" {
			return fmt.Errorf("test '%s' has no input fence", current.Name)
		}
		if len(current.Assertions) == 0 {
			return fmt.Errorf("test '%s' has no assertion fences", current.Name)
		}
		testCases = append(testCases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			if strings.HasPrefix(headingText, "Test: ") {
				if err := finish(); err != nil {
					return ast.WalkStop, err
				}
				current = &TestCase{Name: strings.TrimPrefix(headingText, "Test: ")}
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			content := extractCodeBlockContent(n, source)
			lineNum := lineNumber(n, source)

			if language == "" {
				return ast.WalkContinue, nil
			}
			if current == nil {
				if language == InputTypeProgram || isAssertionFence(language) {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
				}
				return ast.WalkContinue, nil
			}
			if language == InputTypeProgram {
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences in test '%s'", lineNum, current.Name)
				}
				current.Input = strings.TrimRight(content, "\n")
				return ast.WalkContinue, nil
			}
			if !isAssertionFence(language) {
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", lineNum, language, current.Name)
			}

			assertion := Assertion{
				Type:    AssertionType(language),
				Content: strings.TrimRight(content, "\n"),
			}
			if assertion.Type == AssertionTypeAST {
				pattern, parseErr := Parse(assertion.Content)
				if parseErr != nil {
					return ast.WalkStop, fmt.Errorf("line %d: bad ast assertion in test '%s': %w", lineNum, current.Name, parseErr)
				}
				assertion.Pattern = pattern
			}
			current.Assertions = append(current.Assertions, assertion)
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	if err := finish(); err != nil {
		return nil, err
	}
	return testCases, nil
}

func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionTypeAST, AssertionTypeAsm, AssertionTypeCompileError:
		return true
	}
	return false
}

func lineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	startPos := node.Lines().At(0).Start
	lineNum := 1
	for i := 0; i < startPos && i < len(source); i++ {
		if source[i] == '\n' {
			lineNum++
		}
	}
	return lineNum
}
