package bindings

import (
	"fmt"

	"github.com/teranos/subgraph/codegen"
	"github.com/teranos/subgraph/errors"
	"github.com/teranos/subgraph/schema"
)

// EmitSchema generates one entity class per schema entity with load/save and a
// getter/setter pair per stored field.
func EmitSchema(surface *schema.Surface) (*codegen.Document, error) {
	used := imports{}
	used.use("Entity", "Value", "store")

	var classes []codegen.Decl
	for _, e := range surface.Entities {
		c, err := emitEntity(e, used)
		if err != nil {
			return nil, errors.Wrapf(err, "entity %s", e.Name)
		}
		classes = append(classes, c)
	}

	doc := &codegen.Document{}
	doc.Add(text(Header), used.decl())
	doc.Add(classes...)
	return doc, nil
}

func emitEntity(e schema.Entity, used imports) (*codegen.Class, error) {
	idType := codegen.NamedType("string")
	self := codegen.NamedType(e.Name)

	c := codegen.NewClass(e.Name, "Entity", true)
	c.AddMethod(codegen.NewMethod("constructor",
		[]codegen.Param{{Name: "id", Type: idType}}, nil,
		text("super();\nthis.set(\"id\", "),
		codegen.ValueFromCoercion{Expr: "id", Type: idType},
		text(");")))

	c.AddMethod(codegen.NewMethod("save", nil, codegen.NamedType("void"),
		text(fmt.Sprintf(`let id = this.get("id");
assert(id !== null, "Cannot save %s entity without an ID");
store.set(%s, id.toString(), this);`, e.Name, quote(e.Name)))))

	c.AddMethod(codegen.NewStaticMethod("load",
		[]codegen.Param{{Name: "id", Type: idType}},
		codegen.NullableOf(self),
		text(fmt.Sprintf("return changetype<%s | null>(store.get(%s, id));", e.Name, quote(e.Name)))))

	for _, f := range e.Fields {
		used.useType(f.Type)
		getter, setter, err := emitField(f)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		c.AddMethod(getter)
		c.AddMethod(setter)
	}
	return c, nil
}

func emitField(f schema.Field) (codegen.Method, codegen.Method, error) {
	if !codegen.CanCoerce(f.Type) {
		return codegen.Method{}, codegen.Method{}, errors.NewCodeGenError(
			"no value coercion registered for type %q", codegen.RenderType(f.Type))
	}
	key := quote(f.Name)
	valueType := f.ValueType()

	if !f.Nullable {
		getter := codegen.NewGetter(f.Name, valueType,
			text(fmt.Sprintf("let value = this.get(%s);\nreturn ", key)),
			codegen.ValueToCoercion{Expr: "value", Type: f.Type},
			text(";"))
		setter := codegen.NewSetter(f.Name, codegen.Param{Name: "value", Type: valueType},
			text(fmt.Sprintf("this.set(%s, ", key)),
			codegen.ValueFromCoercion{Expr: "value", Type: f.Type},
			text(");"))
		return getter, setter, nil
	}

	getter := codegen.NewGetter(f.Name, valueType,
		text(fmt.Sprintf("let value = this.get(%s);\nif (value === null) {\n  return null;\n}\nreturn ", key)),
		codegen.ValueToCoercion{Expr: "value", Type: f.Type},
		text(";"))
	setter := codegen.NewSetter(f.Name, codegen.Param{Name: "value", Type: valueType},
		text(fmt.Sprintf("if (value === null) {\n  this.unset(%s);\n} else {\n  this.set(%s, ", key, key)),
		codegen.ValueFromCoercion{Expr: "value as " + codegen.RenderType(f.Type), Type: f.Type},
		text(");\n}"))
	return getter, setter, nil
}
