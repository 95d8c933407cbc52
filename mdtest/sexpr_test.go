package mdtest

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ident", "ident"},
		{"fmt.Print", "fmt.Print"},
		{"test_var", "test_var"},
		{"x", "x"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeSymbol)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{`"hello"`, "hello", `"hello"`},
		{`"hello world"`, "hello world", `"hello world"`},
		{`""`, "", `""`},
		{`"test\"quote"`, `test"quote`, `"test\"quote"`},
		{`"line\n"`, "line\n", `"line\n"`},
		{`"a\tb"`, "a\tb", `"a\tb"`},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeString)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.output)
	}
}

func TestParseInteger(t *testing.T) {
	tests := []string{"42", "0", "-123"}

	for _, input := range tests {
		result, err := Parse(input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeInteger)
		be.Equal(t, result.Text, input)
	}
}

func TestParseList(t *testing.T) {
	result, err := Parse(`(binary "+" (ident "x") (integer 1))`)
	be.Err(t, err, nil)

	be.Equal(t, result.Type, NodeList)
	be.Equal(t, len(result.Items), 4)
	be.Equal(t, result.Items[0].Type, NodeSymbol)
	be.Equal(t, result.Items[0].Text, "binary")
	be.Equal(t, result.Items[1].Type, NodeString)
	be.Equal(t, result.Items[1].Text, "+")
	be.Equal(t, result.String(), `(binary "+" (ident "x") (integer 1))`)
}

func TestParseMultiline(t *testing.T) {
	input := `(block
  (var ("x") int)
  ; trailing statement
  (return (ident "x")))`
	result, err := Parse(input)
	be.Err(t, err, nil)

	be.Equal(t, result.Type, NodeList)
	be.Equal(t, len(result.Items), 3)
	be.Equal(t, result.Items[0].Text, "block")
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"(unterminated",
		`"unterminated`,
		`"bad \q escape"`,
		"(a) trailing",
	}

	for _, input := range tests {
		_, err := Parse(input)
		be.True(t, err != nil)
	}
}

func TestMatchExact(t *testing.T) {
	pattern, err := Parse(`(binary "+" (ident "x") (integer 1))`)
	be.Err(t, err, nil)
	actual, err := Parse(`(binary "+" (ident "x") (integer 1))`)
	be.Err(t, err, nil)

	be.True(t, pattern.Match(actual))
}

func TestMatchMismatch(t *testing.T) {
	pattern, err := Parse(`(binary "+" (ident "x") (integer 1))`)
	be.Err(t, err, nil)
	actual, err := Parse(`(binary "-" (ident "x") (integer 1))`)
	be.Err(t, err, nil)

	be.True(t, !pattern.Match(actual))
}

func TestMatchEllipsis(t *testing.T) {
	pattern, err := Parse(`(block (var ("x") int) ...)`)
	be.Err(t, err, nil)
	actual, err := Parse(`(block (var ("x") int) (assign ((ident "x")) ((integer 1))) (return))`)
	be.Err(t, err, nil)

	be.True(t, pattern.Match(actual))
}

func TestMatchLengthDiffers(t *testing.T) {
	pattern, err := Parse(`(call (ident "f") (integer 1))`)
	be.Err(t, err, nil)
	actual, err := Parse(`(call (ident "f") (integer 1) (integer 2))`)
	be.Err(t, err, nil)

	be.True(t, !pattern.Match(actual))
}
