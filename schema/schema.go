// Package schema reads the subgraph GraphQL schema into entity definitions.
package schema

import (
	"os"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/teranos/subgraph/codegen"
	"github.com/teranos/subgraph/errors"
)

// Field is one stored entity field.
type Field struct {
	Name string
	// Type is the non-null value type (string, BigInt, Array<Bytes>, ...)
	Type codegen.TypeRef
	// Nullable is set when the field may be absent and the value type can hold null
	Nullable bool
}

// ValueType returns the type accessors expose, including null when nullable.
func (f Field) ValueType() codegen.TypeRef {
	if f.Nullable {
		return codegen.NullableOf(f.Type)
	}
	return f.Type
}

// Entity is an object type annotated with @entity.
type Entity struct {
	Name   string
	Fields []Field
}

// Surface is the set of entities declared by a schema, in source order.
type Surface struct {
	Entities []Entity
}

// scalarTypes maps GraphQL scalars to runtime types.
var scalarTypes = map[string]string{
	"ID":         "string",
	"String":     "string",
	"Bytes":      "Bytes",
	"BigInt":     "BigInt",
	"BigDecimal": "BigDecimal",
	"Int":        "i32",
	"Boolean":    "boolean",
}

// Load reads and parses a schema file.
func Load(path string) (*Surface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema %s", path)
	}
	return Parse(path, string(data))
}

// Parse parses GraphQL SDL. name is used in error positions.
// Fields carrying @derivedFrom are virtual and are not part of the surface.
func Parse(name, source string) (*Surface, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse schema %s", name)
	}

	// Object and enum names resolve to their id when referenced from a field.
	references := make(map[string]bool)
	for _, def := range doc.Definitions {
		if def.Kind == ast.Object || def.Kind == ast.Enum || def.Kind == ast.Interface {
			references[def.Name] = true
		}
	}

	s := &Surface{}
	for _, def := range doc.Definitions {
		if def.Kind != ast.Object || def.Directives.ForName("entity") == nil {
			continue
		}
		entity := Entity{Name: def.Name}
		for _, f := range def.Fields {
			if f.Directives.ForName("derivedFrom") != nil {
				continue
			}
			t, err := typeFor(f.Type, references)
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", def.Name, f.Name)
			}
			entity.Fields = append(entity.Fields, Field{
				Name:     f.Name,
				Type:     t,
				Nullable: !f.Type.NonNull && !codegen.IsPrimitive(t),
			})
		}
		s.Entities = append(s.Entities, entity)
	}
	return s, nil
}

func typeFor(t *ast.Type, references map[string]bool) (codegen.TypeRef, error) {
	if t.Elem != nil {
		elem, err := typeFor(t.Elem, references)
		if err != nil {
			return nil, err
		}
		return codegen.ArrayOf(elem), nil
	}
	if name, ok := scalarTypes[t.NamedType]; ok {
		return codegen.NamedType(name), nil
	}
	if references[t.NamedType] {
		return codegen.NamedType("string"), nil
	}
	return nil, errors.NewCodeGenError("unsupported schema type %q", t.NamedType)
}
