package bindings

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/subgraph/abi"
	"github.com/teranos/subgraph/codegen"
	"github.com/teranos/subgraph/errors"
)

func exampleSurface() *abi.Surface {
	return &abi.Surface{
		Events: []abi.Event{{
			Name:   "ExampleEvent",
			Inputs: []abi.Param{{Name: "param0", Type: "string"}},
		}},
	}
}

func TestEmitContract_Example(t *testing.T) {
	doc, err := EmitContract("ExampleContract", exampleSurface())
	require.NoError(t, err)

	out, err := doc.Render()
	require.NoError(t, err)

	want := `// THIS IS AN AUTOGENERATED FILE. DO NOT EDIT THIS FILE DIRECTLY.

import {
  EthereumEvent,
  SmartContract,
  Address
} from "@graphprotocol/graph-ts";

export class ExampleEvent extends EthereumEvent {
  get params(): ExampleEvent__Params {
    return new ExampleEvent__Params(this);
  }
}

export class ExampleEvent__Params {
  _event: ExampleEvent;

  constructor(event: ExampleEvent) {
    this._event = event;
  }

  get param0(): string {
    return this._event.parameters[0].value.toString();
  }
}

export class ExampleContract extends SmartContract {
  static bind(address: Address): ExampleContract {
    return new ExampleContract("ExampleContract", address);
  }
}
`
	assert.Equal(t, want, out)
}

func TestEmitContract_AccessorIsCoercionAtPosition(t *testing.T) {
	surface := &abi.Surface{Events: []abi.Event{{
		Name: "Example",
		Inputs: []abi.Param{
			{Name: "param0", Type: "string"},
			{Name: "amount", Type: "uint256"},
		},
	}}}

	doc, err := EmitContract("Example", surface)
	require.NoError(t, err)

	params := doc.Class("Example__Params")
	require.NotNil(t, params)

	for i, want := range []struct {
		name string
		typ  string
	}{{"param0", "string"}, {"amount", "BigInt"}} {
		m, ok := params.Method(want.name)
		require.True(t, ok, want.name)
		assert.True(t, m.Getter)

		var coercion *codegen.ValueToCoercion
		for _, part := range m.Body {
			if c, ok := part.(codegen.ValueToCoercion); ok {
				coercion = &c
			}
		}
		require.NotNil(t, coercion, "accessor body must be a value coercion")
		assert.Equal(t, fmt.Sprintf("this._event.parameters[%d].value", i), coercion.Expr)
		assert.Equal(t, want.typ, codegen.RenderType(coercion.Type))
	}
}

func TestEmitContract_ImportsOnlyReferencedTypes(t *testing.T) {
	doc, err := EmitContract("Example", exampleSurface())
	require.NoError(t, err)

	imp, ok := doc.Decls[1].(codegen.ModuleImports)
	require.True(t, ok)
	assert.Equal(t, []string{"EthereumEvent", "SmartContract", "Address"}, imp.Names)

	surface := &abi.Surface{
		Events: []abi.Event{{Name: "Transfer", Inputs: []abi.Param{
			{Name: "from", Type: "address"},
			{Name: "value", Type: "uint256"},
			{Name: "data", Type: "bytes"},
		}}},
		Functions: []abi.Function{{
			Name: "totalSupply", Constant: true,
			Outputs: []abi.Param{{Name: "param0", Type: "uint256"}},
		}},
	}
	doc, err = EmitContract("Token", surface)
	require.NoError(t, err)
	imp = doc.Decls[1].(codegen.ModuleImports)
	assert.Equal(t, []string{"EthereumEvent", "SmartContract", "Value", "Address", "Bytes", "BigInt"}, imp.Names)
}

func TestEmitContract_CallWrappers(t *testing.T) {
	surface := &abi.Surface{Functions: []abi.Function{
		{Name: "balanceOf", StateMutability: "view",
			Inputs:  []abi.Param{{Name: "owner", Type: "address"}, {Name: "id", Type: "uint8"}},
			Outputs: []abi.Param{{Name: "param0", Type: "uint256"}}},
		{Name: "transfer", StateMutability: "nonpayable",
			Inputs:  []abi.Param{{Name: "to", Type: "address"}},
			Outputs: []abi.Param{{Name: "param0", Type: "bool"}}},
		{Name: "reserves", Constant: true,
			Outputs: []abi.Param{{Name: "a", Type: "uint112"}, {Name: "b", Type: "uint112"}}},
		{Name: "balanceOf", Constant: true,
			Inputs:  []abi.Param{{Name: "owner", Type: "address"}},
			Outputs: []abi.Param{{Name: "param0", Type: "uint256"}}},
	}}

	doc, err := EmitContract("Token", surface)
	require.NoError(t, err)

	c := doc.Class("Token")
	require.NotNil(t, c)
	var names []string
	for _, m := range c.Methods {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"bind", "balanceOf", "balanceOf1"}, names)

	out, err := codegen.Render(c.Methods[1])
	require.NoError(t, err)
	assert.Equal(t, `balanceOf(owner: Address, id: i32): BigInt {
  let result = super.call("balanceOf", [Value.fromAddress(owner), Value.fromI32(id)]);
  return result[0].toBigInt();
}`, out)
}

func TestEmitContract_DuplicateEvents(t *testing.T) {
	surface := &abi.Surface{Events: []abi.Event{
		{Name: "transfer", Inputs: []abi.Param{{Name: "a", Type: "address"}}},
		{Name: "Transfer", Inputs: []abi.Param{{Name: "a", Type: "address"}, {Name: "b", Type: "address"}}},
	}}

	doc, err := EmitContract("Token", surface)
	require.NoError(t, err)
	assert.NotNil(t, doc.Class("Transfer"))
	assert.NotNil(t, doc.Class("Transfer__Params"))
	assert.NotNil(t, doc.Class("Transfer1"))
	assert.NotNil(t, doc.Class("Transfer1__Params"))
}

func TestEmitContract_UnsupportedEventType(t *testing.T) {
	surface := &abi.Surface{Events: []abi.Event{{Name: "Swap", Inputs: []abi.Param{{Name: "info", Type: "tuple"}}}}}

	doc, err := EmitContract("Pair", surface)
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, errors.IsCodeGenError(err))
}

func TestEmitContract_Deterministic(t *testing.T) {
	render := func() string {
		doc, err := EmitContract("ExampleContract", exampleSurface())
		require.NoError(t, err)
		out, err := doc.Render()
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, render(), render())
}

func TestEmitContract_EmptyName(t *testing.T) {
	_, err := EmitContract("", exampleSurface())
	assert.True(t, errors.IsCodeGenError(err))
}
