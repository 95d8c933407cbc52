package main

import "strings"

// TypeKind discriminates the semantic type union.
type TypeKind int

const (
	TypeInt TypeKind = iota
	TypeBool
	TypeString
	TypeNil
	TypePointer
	TypeStruct
	TypeTuple
)

// Type is a semantic type. Tuple types represent the results of a
// multi-valued call or return group; they never nest and are never a
// first-class value type. They exist only while arities are being
// reconciled.
type Type struct {
	Kind   TypeKind
	Elem   *Type      // TypePointer
	Struct *Structure // TypeStruct
	Parts  []*Type    // TypeTuple
}

var (
	typeInt    = &Type{Kind: TypeInt}
	typeBool   = &Type{Kind: TypeBool}
	typeString = &Type{Kind: TypeString}
	typeNil    = &Type{Kind: TypeNil}

	// emptyTuple is the type of value-less expressions: statements,
	// print calls, and calls to zero-result functions.
	emptyTuple = &Type{Kind: TypeTuple}
)

func pointerTo(elem *Type) *Type {
	return &Type{Kind: TypePointer, Elem: elem}
}

func structType(s *Structure) *Type {
	return &Type{Kind: TypeStruct, Struct: s}
}

func tupleOf(parts []*Type) *Type {
	return &Type{Kind: TypeTuple, Parts: parts}
}

func (t *Type) String() string {
	switch t.Kind {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeNil:
		return "nil"
	case TypePointer:
		return "*" + t.Elem.String()
	case TypeStruct:
		return t.Struct.Name
	case TypeTuple:
		var sb strings.Builder
		sb.WriteByte('(')
		for i, part := range t.Parts {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(part.String())
		}
		sb.WriteByte(')')
		return sb.String()
	default:
		return "?"
	}
}

// TypesEqual reports structural equality. Structures compare by name
// identity; pointers recurse.
func TypesEqual(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TypePointer:
		return TypesEqual(a.Elem, b.Elem)
	case TypeStruct:
		return a.Struct.Name == b.Struct.Name
	case TypeTuple:
		if len(a.Parts) != len(b.Parts) {
			return false
		}
		for i := range a.Parts {
			if !TypesEqual(a.Parts[i], b.Parts[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// TypesCompatible is the relation used for assignment and the == / !=
// operators: structural equality, with nil compatible with any pointer
// in either direction. Two bare nils are compatible here; the operator
// rule rejects that case separately.
func TypesCompatible(a, b *Type) bool {
	if a.Kind == TypeNil && (b.Kind == TypePointer || b.Kind == TypeNil) {
		return true
	}
	if b.Kind == TypeNil && a.Kind == TypePointer {
		return true
	}
	return TypesEqual(a, b)
}
