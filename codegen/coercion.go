package codegen

import (
	"github.com/teranos/subgraph/errors"
)

// coercionSuffix maps a named runtime type to the suffix of its Value
// conversion functions (toX / fromX, toXArray / fromXArray).
var coercionSuffix = map[string]string{
	"Address":    "Address",
	"boolean":    "Boolean",
	"Bytes":      "Bytes",
	"BigInt":     "BigInt",
	"BigDecimal": "BigDecimal",
	"i32":        "I32",
	"string":     "String",
}

// CanCoerce reports whether t has registered Value conversion functions.
func CanCoerce(t TypeRef) bool {
	_, err := coercionName(t)
	return err == nil
}

// coercionName resolves the conversion suffix for t.
// Only Named types and arrays of Named types are registered.
func coercionName(t TypeRef) (string, error) {
	switch t := t.(type) {
	case Named:
		if s, ok := coercionSuffix[t.Name]; ok {
			return s, nil
		}
	case Array:
		if elem, ok := t.Elem.(Named); ok {
			if s, ok := coercionSuffix[elem.Name]; ok {
				return s + "Array", nil
			}
		}
	}
	return "", errors.NewCodeGenError("no value coercion registered for type %s", describe(t))
}

func describe(t TypeRef) string {
	if t == nil {
		return "<nil>"
	}
	return "\"" + RenderType(t) + "\""
}

func renderValueTo(c ValueToCoercion) (string, error) {
	name, err := coercionName(c.Type)
	if err != nil {
		return "", err
	}
	return c.Expr + ".to" + name + "()", nil
}

func renderValueFrom(c ValueFromCoercion) (string, error) {
	name, err := coercionName(c.Type)
	if err != nil {
		return "", err
	}
	return "Value.from" + name + "(" + c.Expr + ")", nil
}
