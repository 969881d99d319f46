package bindings

import (
	"fmt"
	"strings"

	"github.com/teranos/subgraph/abi"
	"github.com/teranos/subgraph/codegen"
	"github.com/teranos/subgraph/errors"
)

// EmitContract generates the bindings for one contract ABI: an event class and a
// params accessor class per event, then a contract wrapper with a static bind
// method and one call method per view function with a single return value.
func EmitContract(contractName string, surface *abi.Surface) (*codegen.Document, error) {
	if contractName == "" {
		return nil, errors.NewCodeGenError("contract name is empty")
	}

	used := imports{}
	var classes []codegen.Decl

	eventNames := uniqueNames{}
	for _, ev := range surface.Events {
		name := eventNames.next(codegen.Capitalize(codegen.NamedType(ev.Name)).Name)
		eventClass, paramsClass, err := emitEvent(name, ev, used)
		if err != nil {
			return nil, errors.Wrapf(err, "event %s", ev.Name)
		}
		classes = append(classes, eventClass, paramsClass)
	}

	contract, err := emitContractClass(contractName, surface.Functions, used)
	if err != nil {
		return nil, err
	}
	classes = append(classes, contract)

	doc := &codegen.Document{}
	doc.Add(text(Header), used.decl())
	doc.Add(classes...)
	return doc, nil
}

func emitEvent(name string, ev abi.Event, used imports) (*codegen.Class, *codegen.Class, error) {
	paramsName := name + "__Params"
	used.use("EthereumEvent")

	eventClass := codegen.NewClass(name, "EthereumEvent", true)
	eventClass.AddMethod(codegen.NewGetter("params", codegen.NamedType(paramsName),
		text("return new "+paramsName+"(this);")))

	paramsClass := codegen.NewClass(paramsName, "", true)
	paramsClass.AddMember(codegen.ClassMember{Name: "_event", Type: codegen.NamedType(name)})
	paramsClass.AddMethod(codegen.NewMethod("constructor",
		[]codegen.Param{{Name: "event", Type: codegen.NamedType(name)}}, nil,
		text("this._event = event;")))

	for i, p := range ev.Inputs {
		t, err := abi.TypeFor(p.Type)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "parameter %s", p.Name)
		}
		used.useType(t)
		paramsClass.AddMethod(codegen.NewGetter(p.Name, t,
			text("return "),
			codegen.ValueToCoercion{Expr: fmt.Sprintf("this._event.parameters[%d].value", i), Type: t},
			text(";")))
	}
	return eventClass, paramsClass, nil
}

func emitContractClass(name string, functions []abi.Function, used imports) (*codegen.Class, error) {
	used.use("SmartContract", "Address")

	c := codegen.NewClass(name, "SmartContract", true)
	c.AddMethod(codegen.NewStaticMethod("bind",
		[]codegen.Param{{Name: "address", Type: codegen.NamedType("Address")}},
		codegen.NamedType(name),
		text(fmt.Sprintf("return new %s(%s, address);", name, quote(name)))))

	methodNames := uniqueNames{"bind": 1}
	for _, fn := range functions {
		m, ok, err := emitCall(fn, used)
		if err != nil {
			return nil, errors.Wrapf(err, "function %s", fn.Name)
		}
		if !ok {
			continue
		}
		m.Name = methodNames.next(m.Name)
		c.AddMethod(m)
	}
	return c, nil
}

// emitCall builds the call wrapper for a view function. Functions that change
// state, return several values, or use types without a coercion are skipped.
func emitCall(fn abi.Function, used imports) (codegen.Method, bool, error) {
	if !fn.IsView() || len(fn.Outputs) != 1 || fn.Name == "" {
		return codegen.Method{}, false, nil
	}

	out, err := abi.TypeFor(fn.Outputs[0].Type)
	if err != nil || !codegen.CanCoerce(out) {
		return codegen.Method{}, false, nil
	}

	params := make([]codegen.Param, 0, len(fn.Inputs))
	args := make([]codegen.Decl, 0, 2*len(fn.Inputs))
	for i, in := range fn.Inputs {
		t, err := abi.TypeFor(in.Type)
		if err != nil || !codegen.CanCoerce(t) {
			return codegen.Method{}, false, nil
		}
		params = append(params, codegen.Param{Name: in.Name, Type: t})
		if i > 0 {
			args = append(args, text(", "))
		}
		args = append(args, codegen.ValueFromCoercion{Expr: in.Name, Type: t})
	}

	used.use("Value")
	used.useType(out)
	for _, p := range params {
		used.useType(p.Type)
	}

	body := []codegen.Decl{text(fmt.Sprintf("let result = super.call(%s, [", quote(fn.Name)))}
	body = append(body, args...)
	body = append(body,
		text("]);\n"),
		text("return "),
		codegen.ValueToCoercion{Expr: "result[0]", Type: out},
		text(";"))

	name := fn.Name
	if strings.HasPrefix(name, "_") {
		name = "call" + name
	}
	return codegen.NewMethod(name, params, out, body...), true, nil
}
