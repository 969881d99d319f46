package bindings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/subgraph/codegen"
	"github.com/teranos/subgraph/errors"
	"github.com/teranos/subgraph/schema"
)

func TestEmitSchema(t *testing.T) {
	surface, err := schema.Parse("schema.graphql", `
type ExampleEntity @entity {
  id: ID!
  optionalString: String
  requiredBigInt: BigInt!
}`)
	require.NoError(t, err)

	doc, err := EmitSchema(surface)
	require.NoError(t, err)
	out, err := doc.Render()
	require.NoError(t, err)

	want := `// THIS IS AN AUTOGENERATED FILE. DO NOT EDIT THIS FILE DIRECTLY.

import {
  Entity,
  Value,
  store,
  BigInt
} from "@graphprotocol/graph-ts";

export class ExampleEntity extends Entity {
  constructor(id: string) {
    super();
    this.set("id", Value.fromString(id));
  }

  save(): void {
    let id = this.get("id");
    assert(id !== null, "Cannot save ExampleEntity entity without an ID");
    store.set("ExampleEntity", id.toString(), this);
  }

  static load(id: string): ExampleEntity | null {
    return changetype<ExampleEntity | null>(store.get("ExampleEntity", id));
  }

  get id(): string {
    let value = this.get("id");
    return value.toString();
  }

  set id(value: string) {
    this.set("id", Value.fromString(value));
  }

  get optionalString(): string | null {
    let value = this.get("optionalString");
    if (value === null) {
      return null;
    }
    return value.toString();
  }

  set optionalString(value: string | null) {
    if (value === null) {
      this.unset("optionalString");
    } else {
      this.set("optionalString", Value.fromString(value as string));
    }
  }

  get requiredBigInt(): BigInt {
    let value = this.get("requiredBigInt");
    return value.toBigInt();
  }

  set requiredBigInt(value: BigInt) {
    this.set("requiredBigInt", Value.fromBigInt(value));
  }
}
`
	assert.Equal(t, want, out)
}

func TestEmitSchema_UncoercibleField(t *testing.T) {
	surface := &schema.Surface{Entities: []schema.Entity{{
		Name:   "Bad",
		Fields: []schema.Field{{Name: "grid", Type: codegen.ArrayOf(codegen.ArrayOf(codegen.NamedType("string")))}},
	}}}

	_, err := EmitSchema(surface)
	require.Error(t, err)
	assert.True(t, errors.IsCodeGenError(err))
	assert.Contains(t, err.Error(), "entity Bad")
}

func TestEmitSchema_Empty(t *testing.T) {
	doc, err := EmitSchema(&schema.Surface{})
	require.NoError(t, err)
	imp := doc.Decls[1].(codegen.ModuleImports)
	assert.Equal(t, []string{"Entity", "Value", "store"}, imp.Names)
}
