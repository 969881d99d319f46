package codegen

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/teranos/subgraph/errors"
)

// ArrayContainer is the generic container name arrays render with.
const ArrayContainer = "Array"

// TypeRef is a type expression in generated source.
// Values are immutable; build them fresh for each render.
type TypeRef interface {
	typeRef()
}

// Named is a plain type name (string, BigInt, ExampleEvent).
type Named struct {
	Name string
}

// Array is a list of Elem.
type Array struct {
	Elem TypeRef
}

// Nullable is Inner or null.
type Nullable struct {
	Inner TypeRef
}

// Union is an ordered list of alternatives. Order is kept as given.
type Union struct {
	Variants []TypeRef
}

// Maybe is the legacy optional-parameter notation (?Name).
type Maybe struct {
	Inner Named
}

func (Named) typeRef()    {}
func (Array) typeRef()    {}
func (Nullable) typeRef() {}
func (Union) typeRef()    {}
func (Maybe) typeRef()    {}

// NamedType returns Named{name}.
func NamedType(name string) Named { return Named{Name: name} }

// ArrayOf returns Array{elem}.
func ArrayOf(elem TypeRef) Array { return Array{Elem: elem} }

// NullableOf returns Nullable{inner}.
func NullableOf(inner TypeRef) Nullable { return Nullable{Inner: inner} }

// UnionOf returns a Union over the variants in the order given.
func UnionOf(variants ...TypeRef) Union {
	vs := make([]TypeRef, len(variants))
	copy(vs, variants)
	return Union{Variants: vs}
}

// RenderType renders a type expression to source text.
func RenderType(t TypeRef) string {
	var sb strings.Builder
	writeType(&sb, t)
	return sb.String()
}

// checkType fails with errors.ErrCodeGen when t or any type inside it is nil.
func checkType(t TypeRef) error {
	switch t := t.(type) {
	case nil:
		return errors.NewCodeGenError("missing type")
	case Array:
		return checkType(t.Elem)
	case Nullable:
		return checkType(t.Inner)
	case Union:
		for _, v := range t.Variants {
			if err := checkType(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeType(sb *strings.Builder, t TypeRef) {
	switch t := t.(type) {
	case Named:
		sb.WriteString(t.Name)
	case Array:
		sb.WriteString(ArrayContainer)
		sb.WriteByte('<')
		writeType(sb, t.Elem)
		sb.WriteByte('>')
	case Nullable:
		writeType(sb, t.Inner)
		sb.WriteString(" | null")
	case Union:
		for i, v := range t.Variants {
			if i > 0 {
				sb.WriteString(" | ")
			}
			writeType(sb, v)
		}
	case Maybe:
		sb.WriteByte('?')
		sb.WriteString(t.Inner.Name)
	case nil:
		sb.WriteString("void")
	}
}

// primitives are the value types that need no coercion wrapper.
var primitives = map[string]bool{
	"boolean": true,
	"u8":      true,
	"i8":      true,
	"u16":     true,
	"i16":     true,
	"u32":     true,
	"i32":     true,
	"u64":     true,
	"i64":     true,
	"f32":     true,
	"f64":     true,
	"usize":   true,
	"isize":   true,
}

// IsPrimitive reports whether t is a Named scalar value type.
func IsPrimitive(t TypeRef) bool {
	n, ok := t.(Named)
	return ok && primitives[n.Name]
}

// Capitalize returns a copy of n with the first letter upper-cased.
func Capitalize(n Named) Named {
	r, size := utf8.DecodeRuneInString(n.Name)
	if size == 0 {
		return n
	}
	return Named{Name: string(unicode.ToUpper(r)) + n.Name[size:]}
}
