package main

import "fmt"

// NodeKind represents different types of AST nodes
type NodeKind string

const (
	NodeIdent   NodeKind = "NodeIdent"
	NodeString  NodeKind = "NodeString"
	NodeInteger NodeKind = "NodeInteger"
	NodeBool    NodeKind = "NodeBool"
	NodeNil     NodeKind = "NodeNil"
	NodeBinary  NodeKind = "NodeBinary"
	NodeUnary   NodeKind = "NodeUnary"
	NodeDot     NodeKind = "NodeDot"
	NodeCall    NodeKind = "NodeCall"
	NodeNew     NodeKind = "NodeNew"
	NodeVar     NodeKind = "NodeVar"
	NodeAssign  NodeKind = "NodeAssign"
	NodeIncDec  NodeKind = "NodeIncDec"
	NodeIf      NodeKind = "NodeIf"
	NodeFor     NodeKind = "NodeFor"
	NodeReturn  NodeKind = "NodeReturn"
	NodeBlock   NodeKind = "NodeBlock"
)

// ASTNode represents a node in the syntax tree. The parser builds it
// untyped; the type checker annotates it in place (Type, Symbol, Func,
// FieldRef, StructRef) and the storage allocator later fills in the
// offsets of the objects those annotations point at. The annotated
// tree is what the code generator consumes.
type ASTNode struct {
	Kind NodeKind
	Pos  Pos

	// NodeIdent: name; NodeString: decoded value; NodeDot: field name.
	String string
	// NodeInteger:
	Integer int64
	// NodeBool:
	Bool bool
	// NodeBinary, NodeUnary, NodeIncDec: "+", "==", "&", "++", ...
	Op string
	// Operands and statements:
	//   NodeBinary:  [lhs, rhs]
	//   NodeUnary:   [operand]
	//   NodeDot:     [base]
	//   NodeCall:    [callee, args...]
	//   NodeNew:     [arg]
	//   NodeIncDec:  [lvalue]
	//   NodeIf:      [cond, then] or [cond, then, else]
	//   NodeFor:     [cond, body]
	//   NodeReturn:  [results...]
	//   NodeBlock:   [stmts...]
	Children []*ASTNode

	// NodeVar:
	Names    []*ASTNode // declared identifiers, in order
	TypeExpr *TypeExpr  // explicit type, nil when inferred
	Inits    []*ASTNode // initializers, may be empty

	// NodeAssign:
	LHS []*ASTNode
	RHS []*ASTNode

	// Annotations, filled by the type checker.
	Type      *Type      // semantic type of this expression
	Symbol    *Variable  // NodeIdent: resolved variable
	Func      *Function  // NodeCall: resolved function
	FieldRef  *Field     // NodeDot: resolved field
	StructRef *Structure // NodeNew: target structure
}

// TypeExpr is an unresolved syntactic type: a bare name or a pointer
// to another syntactic type.
type TypeExpr struct {
	Pos  Pos
	Name string    // set when Elem == nil
	Elem *TypeExpr // non-nil for *T
}

func (t *TypeExpr) String() string {
	if t.Elem != nil {
		return "*" + t.Elem.String()
	}
	return t.Name
}

// FieldDecl is one field of a struct declaration.
type FieldDecl struct {
	Pos  Pos
	Name string
	Type *TypeExpr
}

// StructDecl is a `type Name struct { ... }` declaration.
type StructDecl struct {
	Pos    Pos
	Name   string
	Fields []FieldDecl
}

// ParamDecl is one parameter of a function declaration.
type ParamDecl struct {
	Pos  Pos
	Name string
	Type *TypeExpr
}

// FuncDecl is a `func name(params) (results) { body }` declaration.
type FuncDecl struct {
	Pos     Pos
	Name    string
	Params  []ParamDecl
	Results []*TypeExpr
	Body    *ASTNode // NodeBlock
}

// Program is the parsed compilation unit: the import flag plus the
// ordered struct and function declarations.
type Program struct {
	HasImport bool
	ImportPos Pos
	Structs   []*StructDecl
	Funcs     []*FuncDecl
}

// PrintName is the reserved builtin print function. It is registered
// in the function table when the program imports "fmt".
const PrintName = "fmt.Print"

// BlankName is the write-only blank identifier, exempt from the
// redeclaration and must-use rules.
const BlankName = "_"

// ToSExpr converts an AST node to an s-expression string, for tests
// and debug output.
func ToSExpr(node *ASTNode) string {
	switch node.Kind {
	case NodeIdent:
		return "(ident \"" + node.String + "\")"
	case NodeString:
		return fmt.Sprintf("(string %q)", node.String)
	case NodeInteger:
		return fmt.Sprintf("(integer %d)", node.Integer)
	case NodeBool:
		if node.Bool {
			return "(bool true)"
		}
		return "(bool false)"
	case NodeNil:
		return "(nil)"
	case NodeBinary:
		left := ToSExpr(node.Children[0])
		right := ToSExpr(node.Children[1])
		return "(binary \"" + node.Op + "\" " + left + " " + right + ")"
	case NodeUnary:
		return "(unary \"" + node.Op + "\" " + ToSExpr(node.Children[0]) + ")"
	case NodeDot:
		return "(dot " + ToSExpr(node.Children[0]) + " \"" + node.String + "\")"
	case NodeCall:
		result := "(call " + ToSExpr(node.Children[0])
		for _, arg := range node.Children[1:] {
			result += " " + ToSExpr(arg)
		}
		return result + ")"
	case NodeNew:
		result := "(new"
		for _, arg := range node.Children {
			result += " " + ToSExpr(arg)
		}
		return result + ")"
	case NodeVar:
		result := "(var ("
		for i, name := range node.Names {
			if i > 0 {
				result += " "
			}
			result += "\"" + name.String + "\""
		}
		result += ")"
		if node.TypeExpr != nil {
			result += " " + node.TypeExpr.String()
		}
		for _, init := range node.Inits {
			result += " " + ToSExpr(init)
		}
		return result + ")"
	case NodeAssign:
		result := "(assign ("
		for i, lhs := range node.LHS {
			if i > 0 {
				result += " "
			}
			result += ToSExpr(lhs)
		}
		result += ") ("
		for i, rhs := range node.RHS {
			if i > 0 {
				result += " "
			}
			result += ToSExpr(rhs)
		}
		return result + "))"
	case NodeIncDec:
		return "(incdec \"" + node.Op + "\" " + ToSExpr(node.Children[0]) + ")"
	case NodeIf:
		result := "(if"
		for _, child := range node.Children {
			result += " " + ToSExpr(child)
		}
		return result + ")"
	case NodeFor:
		return "(for " + ToSExpr(node.Children[0]) + " " + ToSExpr(node.Children[1]) + ")"
	case NodeReturn:
		result := "(return"
		for _, child := range node.Children {
			result += " " + ToSExpr(child)
		}
		return result + ")"
	case NodeBlock:
		result := "(block"
		for _, child := range node.Children {
			result += " " + ToSExpr(child)
		}
		return result + ")"
	default:
		return ""
	}
}
