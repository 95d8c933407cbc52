package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `Gale - a small systems language that compiles to x86-64 assembly

Usage:
    gale <command> [arguments]

Commands:
    build <file>    Compile a .gale file to an assembly file
    check <file>    Parse and type-check a .gale file
    eval <code>     Compile inline Gale code and print the assembly
    help            Show this help message

Examples:
    gale build -o prog.s hello.gale
    gale check myfile.gale
    gale eval 'package main; import "fmt"; func main() { fmt.Print(42) }'

Use "gale <command> -h" for more information about a command.
`)
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename>.s)")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gale build [-o output] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a .gale file to an assembly file\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)

	outputFile := *output
	if outputFile == "" {
		outputFile = strings.TrimSuffix(filename, ".gale") + ".s"
	}

	if *verbose {
		fmt.Printf("Compiling %s to %s...\n", filename, outputFile)
	}

	input, err := readSource(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}

	asm, err := compileProgram(input, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputFile, []byte(asm), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputFile, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s (%d bytes)\n", outputFile, len(asm))
}

func evalCommand(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gale eval [-v] <code>\n")
		fmt.Fprintf(os.Stderr, "Compile inline Gale code and print the assembly\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one code argument\n")
		fs.Usage()
		os.Exit(1)
	}

	input := []byte(fs.Arg(0) + "\x00")

	asm, err := compileProgram(input, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(asm)
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose checking details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gale check [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Parse and type-check a .gale file\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)

	input, err := readSource(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}

	if _, err := analyzeProgram(input, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
		os.Exit(1)
	}

	fmt.Printf("%s: no errors found\n", filename)
}

// readSource loads a file and appends the NUL terminator the lexer
// requires.
func readSource(filename string) ([]byte, error) {
	sourceBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return append(sourceBytes, '\x00'), nil
}

type analysis struct {
	prog *Program
	st   *SymbolTable
}

// analyzeProgram runs every front-end and semantic pass in order and
// stops at the first failing pass.
func analyzeProgram(input []byte, verbose bool) (*analysis, error) {
	l := NewLexer(input)
	l.NextToken()
	prog := ParseProgram(l)
	if l.Errors.HasErrors() {
		return nil, fmt.Errorf("parsing errors:\n%s", l.Errors.String())
	}

	checks := []func() error{
		func() error { return CheckDuplicateFuncs(prog) },
		func() error { return CheckDuplicateStructs(prog) },
		func() error { return CheckDuplicateFields(prog) },
		func() error { return CheckDuplicateParams(prog) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return nil, err
		}
	}

	st, err := BuildSymbolTable(prog)
	if err != nil {
		return nil, err
	}
	if err := CheckStructCycles(st); err != nil {
		return nil, err
	}
	if err := CheckMain(st); err != nil {
		return nil, err
	}
	if err := CheckProgram(prog, st); err != nil {
		return nil, err
	}
	if err := CheckUnusedImport(prog, st); err != nil {
		return nil, err
	}

	if verbose {
		fmt.Print(st.DumpString())
	}

	return &analysis{prog: prog, st: st}, nil
}

// compileProgram takes NUL-terminated source through the whole
// pipeline and returns the assembly text.
func compileProgram(input []byte, verbose bool) (string, error) {
	a, err := analyzeProgram(input, verbose)
	if err != nil {
		return "", err
	}

	AllocateProgram(a.prog, a.st)

	ctx := NewCompilationContext()
	GenerateProgram(a.prog, a.st, ctx)
	return ctx.Assembly(), nil
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "eval":
		evalCommand(args)
	case "check":
		checkCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
