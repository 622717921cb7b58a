// Package ast extracts exported declarations and their documentation from
// source files. Language parsers live in subpackages and register
// themselves with DefaultRegistry.
package ast

import (
	"fmt"
	"strings"
)

// DeclarationKind classifies an exported declaration.
type DeclarationKind int

const (
	KindFunction DeclarationKind = iota + 1
	KindMethod
	KindClass
	KindInterface
	KindTypeAlias
	KindEnum
	KindConst
	KindVariable
	KindProperty
	KindNamespace
)

var kindNames = map[DeclarationKind]string{
	KindFunction:  "Function",
	KindMethod:    "Method",
	KindClass:     "Class",
	KindInterface: "Interface",
	KindTypeAlias: "TypeAlias",
	KindEnum:      "Enum",
	KindConst:     "Const",
	KindVariable:  "Variable",
	KindProperty:  "Property",
	KindNamespace: "Namespace",
}

// AllKinds lists every declaration kind in declaration order.
func AllKinds() []DeclarationKind {
	return []DeclarationKind{
		KindFunction, KindMethod, KindClass, KindInterface, KindTypeAlias,
		KindEnum, KindConst, KindVariable, KindProperty, KindNamespace,
	}
}

func (k DeclarationKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("DeclarationKind(%d)", int(k))
}

// ParseKind parses a kind name case-insensitively.
func ParseKind(s string) (DeclarationKind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown declaration kind %q", s)
}
