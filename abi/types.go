package abi

import (
	"strconv"
	"strings"

	"github.com/teranos/subgraph/codegen"
	"github.com/teranos/subgraph/errors"
)

// Runtime type names the generated bindings use.
const (
	TypeAddress = "Address"
	TypeBoolean = "boolean"
	TypeBytes   = "Bytes"
	TypeBigInt  = "BigInt"
	TypeI32     = "i32"
	TypeString  = "string"
)

// TypeFor maps a Solidity ABI type to the runtime type it decodes to.
// Integers up to 32 bits fit in i32; wider ones become BigInt.
// Tuples are not supported.
func TypeFor(solidity string) (codegen.TypeRef, error) {
	t := strings.TrimSpace(solidity)

	if strings.HasSuffix(t, "]") {
		open := strings.LastIndexByte(t, '[')
		if open < 0 {
			return nil, errors.NewCodeGenError("malformed array type %q", solidity)
		}
		if size := t[open+1 : len(t)-1]; size != "" {
			if _, err := strconv.Atoi(size); err != nil {
				return nil, errors.NewCodeGenError("malformed array length in %q", solidity)
			}
		}
		elem, err := TypeFor(t[:open])
		if err != nil {
			return nil, err
		}
		return codegen.ArrayOf(elem), nil
	}

	switch {
	case t == "address":
		return codegen.NamedType(TypeAddress), nil
	case t == "bool":
		return codegen.NamedType(TypeBoolean), nil
	case t == "string":
		return codegen.NamedType(TypeString), nil
	case t == "bytes" || (strings.HasPrefix(t, "bytes") && isSize(t[len("bytes"):], 1, 32)):
		return codegen.NamedType(TypeBytes), nil
	case strings.HasPrefix(t, "uint"):
		return intType(t, t[len("uint"):])
	case strings.HasPrefix(t, "int"):
		return intType(t, t[len("int"):])
	}
	return nil, errors.NewCodeGenError("unsupported ABI type %q", solidity)
}

func intType(full, bits string) (codegen.TypeRef, error) {
	if bits == "" {
		return codegen.NamedType(TypeBigInt), nil
	}
	n, err := strconv.Atoi(bits)
	if err != nil || n < 8 || n > 256 || n%8 != 0 {
		return nil, errors.NewCodeGenError("unsupported ABI type %q", full)
	}
	if n <= 32 {
		return codegen.NamedType(TypeI32), nil
	}
	return codegen.NamedType(TypeBigInt), nil
}

func isSize(s string, min, max int) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= min && n <= max
}
