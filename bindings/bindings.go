// Package bindings turns ABI and schema surfaces into generated AssemblyScript
// documents. Emission is pure: no file or network access happens here.
package bindings

import (
	"strconv"

	"github.com/teranos/subgraph/codegen"
)

// RuntimeModule is the module generated files import runtime types from.
const RuntimeModule = "@graphprotocol/graph-ts"

// Header is the first line of every generated file.
const Header = "// THIS IS AN AUTOGENERATED FILE. DO NOT EDIT THIS FILE DIRECTLY."

// runtimeOrder is the canonical order runtime imports are written in.
var runtimeOrder = []string{
	"EthereumEvent",
	"SmartContract",
	"Entity",
	"Value",
	"store",
	"Address",
	"Bytes",
	"BigInt",
	"BigDecimal",
}

var runtimeNames = func() map[string]bool {
	m := make(map[string]bool, len(runtimeOrder))
	for _, name := range runtimeOrder {
		m[name] = true
	}
	return m
}()

// imports records which runtime names the generated declarations use.
type imports map[string]bool

func (im imports) use(names ...string) {
	for _, n := range names {
		im[n] = true
	}
}

// useType records every runtime name referenced inside t.
func (im imports) useType(t codegen.TypeRef) {
	switch t := t.(type) {
	case codegen.Named:
		if runtimeNames[t.Name] {
			im[t.Name] = true
		}
	case codegen.Array:
		im.useType(t.Elem)
	case codegen.Nullable:
		im.useType(t.Inner)
	case codegen.Union:
		for _, v := range t.Variants {
			im.useType(v)
		}
	case codegen.Maybe:
		im.useType(t.Inner)
	}
}

// decl returns the import declaration in canonical order.
func (im imports) decl() codegen.ModuleImports {
	var names []string
	for _, name := range runtimeOrder {
		if im[name] {
			names = append(names, name)
		}
	}
	return codegen.NewImports(RuntimeModule, names...)
}

// uniqueNames disambiguates repeated names in order: a, a1, a2.
type uniqueNames map[string]int

func (u uniqueNames) next(name string) string {
	n := u[name]
	u[name] = n + 1
	if n == 0 {
		return name
	}
	return name + strconv.Itoa(n)
}

func text(s string) codegen.Text { return codegen.Text(s) }

func quote(s string) string { return strconv.Quote(s) }
