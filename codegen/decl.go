package codegen

// Decl is one declaration (or expression fragment) in a generated document.
// The set of variants is closed; Render handles each one.
type Decl interface {
	decl()
}

// Param is a method parameter: name: Type.
type Param struct {
	Name string
	Type TypeRef
}

// Method is a class method. Returns is nil when no return annotation should be
// written; pass NamedType("void") to annotate void explicitly.
// Body fragments are concatenated and then indented one level.
type Method struct {
	Name    string
	Params  []Param
	Returns TypeRef
	Body    []Decl
	Static  bool
	Getter  bool
	Setter  bool
}

// ClassMember is a field declaration: name: Type;
type ClassMember struct {
	Name string
	Type TypeRef
}

// Class is a class declaration. Members render before methods, each in insertion order.
type Class struct {
	Name    string
	Extends string
	Export  bool
	Members []ClassMember
	Methods []Method
}

// ModuleImport is a namespace import: import * as Alias from "Module";
type ModuleImport struct {
	Alias  string
	Module string
}

// ModuleImports is a named import: import { A, B } from "Module";
type ModuleImports struct {
	Names  []string
	Module string
}

// ValueToCoercion converts the boxed value Expr into Type: Expr.toX()
type ValueToCoercion struct {
	Expr string
	Type TypeRef
}

// ValueFromCoercion boxes Expr of Type into a Value: Value.fromX(Expr)
type ValueFromCoercion struct {
	Expr string
	Type TypeRef
}

// Text is pre-formatted source emitted verbatim.
type Text string

func (Param) decl()             {}
func (Method) decl()            {}
func (ClassMember) decl()       {}
func (*Class) decl()            {}
func (ModuleImport) decl()      {}
func (ModuleImports) decl()     {}
func (ValueToCoercion) decl()   {}
func (ValueFromCoercion) decl() {}
func (Text) decl()              {}

// NewClass creates an empty class declaration.
func NewClass(name string, extends string, export bool) *Class {
	return &Class{Name: name, Extends: extends, Export: export}
}

// AddMember appends a field declaration.
func (c *Class) AddMember(m ClassMember) {
	c.Members = append(c.Members, m)
}

// AddMethod appends a method.
func (c *Class) AddMethod(m Method) {
	c.Methods = append(c.Methods, m)
}

// NewMethod creates an instance method.
func NewMethod(name string, params []Param, returns TypeRef, body ...Decl) Method {
	return Method{Name: name, Params: params, Returns: returns, Body: body}
}

// NewStaticMethod creates a static method.
func NewStaticMethod(name string, params []Param, returns TypeRef, body ...Decl) Method {
	m := NewMethod(name, params, returns, body...)
	m.Static = true
	return m
}

// NewGetter creates a property accessor (get name(): T).
func NewGetter(name string, returns TypeRef, body ...Decl) Method {
	m := NewMethod(name, nil, returns, body...)
	m.Getter = true
	return m
}

// NewSetter creates a property mutator (set name(value: T)).
func NewSetter(name string, param Param, body ...Decl) Method {
	m := NewMethod(name, []Param{param}, nil, body...)
	m.Setter = true
	return m
}

// NewImports creates a named import of one or more names from module.
func NewImports(module string, names ...string) ModuleImports {
	ns := make([]string, len(names))
	copy(ns, names)
	return ModuleImports{Names: ns, Module: module}
}
