package codegen

import (
	"strings"

	"github.com/teranos/subgraph/errors"
)

// Document is an ordered list of top-level declarations rendered to one file.
type Document struct {
	Decls []Decl
}

// Add appends declarations in order.
func (d *Document) Add(decls ...Decl) {
	d.Decls = append(d.Decls, decls...)
}

// Render renders every declaration, separated by a blank line, with a trailing newline.
// If any declaration fails nothing is returned.
func (d *Document) Render() (string, error) {
	parts := make([]string, 0, len(d.Decls))
	for i, decl := range d.Decls {
		text, err := Render(decl)
		if err != nil {
			return "", errors.Wrapf(err, "declaration %d", i)
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}

// Classes returns the class declarations in document order.
func (d *Document) Classes() []*Class {
	var out []*Class
	for _, decl := range d.Decls {
		if c, ok := decl.(*Class); ok {
			out = append(out, c)
		}
	}
	return out
}

// Class returns the class called name, or nil.
func (d *Document) Class(name string) *Class {
	for _, c := range d.Classes() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Method returns the first method called name, or false.
func (c *Class) Method(name string) (Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}
