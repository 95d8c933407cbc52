package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestTypeString(t *testing.T) {
	point := &Structure{Name: "Point"}

	tests := []struct {
		typ      *Type
		expected string
	}{
		{typeInt, "int"},
		{typeBool, "bool"},
		{typeString, "string"},
		{typeNil, "nil"},
		{pointerTo(typeInt), "*int"},
		{pointerTo(pointerTo(typeBool)), "**bool"},
		{structType(point), "Point"},
		{pointerTo(structType(point)), "*Point"},
		{emptyTuple, "()"},
		{tupleOf([]*Type{typeInt, typeBool}), "(int, bool)"},
	}

	for _, test := range tests {
		be.Equal(t, test.typ.String(), test.expected)
	}
}

func TestTypesEqual(t *testing.T) {
	point := &Structure{Name: "Point"}
	otherPoint := &Structure{Name: "Point"}
	line := &Structure{Name: "Line"}

	tests := []struct {
		a, b     *Type
		expected bool
	}{
		{typeInt, typeInt, true},
		{typeInt, typeBool, false},
		{pointerTo(typeInt), pointerTo(typeInt), true},
		{pointerTo(typeInt), pointerTo(typeBool), false},
		{pointerTo(typeInt), typeInt, false},
		// Structs compare by name, not object identity.
		{structType(point), structType(otherPoint), true},
		{structType(point), structType(line), false},
		{tupleOf([]*Type{typeInt, typeBool}), tupleOf([]*Type{typeInt, typeBool}), true},
		{tupleOf([]*Type{typeInt}), tupleOf([]*Type{typeInt, typeBool}), false},
		{typeNil, typeNil, true},
		{typeNil, pointerTo(typeInt), false},
	}

	for _, test := range tests {
		be.Equal(t, TypesEqual(test.a, test.b), test.expected)
	}
}

func TestTypesCompatible(t *testing.T) {
	point := &Structure{Name: "Point"}

	tests := []struct {
		a, b     *Type
		expected bool
	}{
		{typeInt, typeInt, true},
		{typeInt, typeBool, false},
		// nil is compatible with any pointer, in either direction.
		{typeNil, pointerTo(typeInt), true},
		{pointerTo(structType(point)), typeNil, true},
		{typeNil, typeInt, false},
		{typeNil, structType(point), false},
		{typeNil, typeNil, true},
		{pointerTo(typeInt), pointerTo(typeBool), false},
	}

	for _, test := range tests {
		be.Equal(t, TypesCompatible(test.a, test.b), test.expected)
	}
}
