package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderType(t *testing.T) {
	tests := []struct {
		name string
		typ  TypeRef
		want string
	}{
		{"named", NamedType("BigInt"), "BigInt"},
		{"array", ArrayOf(NamedType("u8")), "Array<u8>"},
		{"nested array", ArrayOf(ArrayOf(NamedType("Address"))), "Array<Array<Address>>"},
		{"nullable", NullableOf(NamedType("string")), "string | null"},
		{"nullable array", NullableOf(ArrayOf(NamedType("Bytes"))), "Array<Bytes> | null"},
		{"union keeps order", UnionOf(NamedType("i32"), NamedType("string"), NamedType("BigInt")), "i32 | string | BigInt"},
		{"union of nullable", UnionOf(NamedType("Address"), NullableOf(NamedType("Bytes"))), "Address | Bytes | null"},
		{"maybe", Maybe{Inner: NamedType("Entity")}, "?Entity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderType(tt.typ))
		})
	}
}

func TestRenderType_Idempotent(t *testing.T) {
	shared := NullableOf(ArrayOf(NamedType("BigInt")))
	tree := UnionOf(shared, NamedType("string"), shared)

	first := RenderType(tree)
	second := RenderType(tree)
	assert.Equal(t, first, second)
	assert.Equal(t, "Array<BigInt> | null | string | Array<BigInt> | null", first)
}

func TestUnionOf_CopiesVariants(t *testing.T) {
	variants := []TypeRef{NamedType("a"), NamedType("b")}
	u := UnionOf(variants...)
	variants[0] = NamedType("z")

	assert.Equal(t, "a | b", RenderType(u))
}

func TestIsPrimitive(t *testing.T) {
	for _, name := range []string{"boolean", "u8", "i8", "u16", "i16", "u32", "i32", "u64", "i64", "f32", "f64", "usize", "isize"} {
		assert.True(t, IsPrimitive(NamedType(name)), name)
	}

	assert.False(t, IsPrimitive(NamedType("string")))
	assert.False(t, IsPrimitive(NamedType("BigInt")))
	assert.False(t, IsPrimitive(ArrayOf(NamedType("i32"))))
	assert.False(t, IsPrimitive(NullableOf(NamedType("i32"))))
}

func TestCapitalize_ReturnsNewValue(t *testing.T) {
	original := NamedType("transfer")
	capitalized := Capitalize(original)

	assert.Equal(t, "Transfer", capitalized.Name)
	assert.Equal(t, "transfer", original.Name)
	assert.Equal(t, "", Capitalize(NamedType("")).Name)
}
