package main

import "strings"

// The declaration validator runs structural pre-pass checks over the
// parsed program before bodies are type-checked. Duplicate-name and
// struct-cycle detection are whole-program passes: they run to
// completion and report every finding of their kind in one error.
// Everything else is fail-fast.

type namedDecl struct {
	name string
	pos  Pos
}

// checkDuplicates is the shared duplicate-detection algorithm: a
// name-to-first-occurrence map, reporting every colliding declaration.
func checkDuplicates(kind string, decls []namedDecl) error {
	seen := map[string]Pos{}
	var errs ErrorList
	for _, d := range decls {
		if d.name == BlankName {
			continue
		}
		if _, ok := seen[d.name]; ok {
			errs.Addf(d.pos, "duplicate %s: %s", kind, d.name)
			continue
		}
		seen[d.name] = d.pos
	}
	return errs.Err()
}

// CheckDuplicateFuncs rejects two functions with the same name.
func CheckDuplicateFuncs(prog *Program) error {
	var decls []namedDecl
	for _, f := range prog.Funcs {
		decls = append(decls, namedDecl{f.Name, f.Pos})
	}
	return checkDuplicates("function", decls)
}

// CheckDuplicateStructs rejects two structs with the same name.
func CheckDuplicateStructs(prog *Program) error {
	var decls []namedDecl
	for _, s := range prog.Structs {
		decls = append(decls, namedDecl{s.Name, s.Pos})
	}
	return checkDuplicates("struct", decls)
}

// CheckDuplicateFields rejects two fields with the same name within
// one struct.
func CheckDuplicateFields(prog *Program) error {
	for _, s := range prog.Structs {
		var decls []namedDecl
		for _, f := range s.Fields {
			decls = append(decls, namedDecl{f.Name, f.Pos})
		}
		if err := checkDuplicates("field", decls); err != nil {
			return err
		}
	}
	return nil
}

// CheckDuplicateParams rejects two parameters with the same name
// within one function.
func CheckDuplicateParams(prog *Program) error {
	for _, f := range prog.Funcs {
		var decls []namedDecl
		for _, p := range f.Params {
			decls = append(decls, namedDecl{p.Name, p.Pos})
		}
		if err := checkDuplicates("parameter", decls); err != nil {
			return err
		}
	}
	return nil
}

// CheckStructCycles rejects cycles in the struct dependency graph.
// Struct A depends on struct B when A has a by-value field of type B;
// pointer fields do not count, since they do not require B to be laid
// out first. Every cycle discovered from every starting struct is
// collected and reported as one error.
func CheckStructCycles(st *SymbolTable) error {
	var cycles []string

	for _, start := range st.Structs() {
		onPath := map[*Structure]bool{}
		var path []string

		var visit func(s *Structure)
		visit = func(s *Structure) {
			if onPath[s] {
				// Trim the path to the cycle itself.
				i := 0
				for path[i] != s.Name {
					i++
				}
				cycles = append(cycles, strings.Join(append(path[i:], s.Name), " -> "))
				return
			}
			onPath[s] = true
			path = append(path, s.Name)
			for _, f := range s.Fields {
				if f.Type.Kind == TypeStruct {
					visit(f.Type.Struct)
				}
			}
			path = path[:len(path)-1]
			onPath[s] = false
		}
		visit(start)
	}

	if len(cycles) > 0 {
		return errorAt(Pos{}, "cyclic struct dependency: %s", strings.Join(cycles, ", "))
	}
	return nil
}

// CheckMain requires a main function with no parameters and no return
// values.
func CheckMain(st *SymbolTable) error {
	fn := st.LookupFunc("main")
	if fn == nil {
		return errorAt(Pos{}, "function main is not defined")
	}
	if len(fn.Params) != 0 || len(fn.Results) != 0 {
		return errorAt(fn.Pos, "function main must take no parameters and return no values")
	}
	return nil
}

// CheckUnusedImport rejects a program that imports "fmt" without ever
// calling the print builtin. Runs after all bodies are checked.
func CheckUnusedImport(prog *Program, st *SymbolTable) error {
	if prog.HasImport && !st.printUsed {
		return errorAt(prog.ImportPos, "imported and not used: %q", "fmt")
	}
	return nil
}
