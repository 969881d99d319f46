package codegen

import (
	"strings"

	"github.com/teranos/subgraph/errors"
)

const indentUnit = "  "

// Render renders a single declaration to source text.
// It fails with errors.ErrCodeGen when a coercion names an unregistered type;
// no partial text is returned in that case.
func Render(d Decl) (string, error) {
	switch d := d.(type) {
	case Param:
		return renderParam(d)
	case Method:
		return renderMethod(d, "")
	case ClassMember:
		return renderMember(d)
	case *Class:
		return renderClass(d)
	case ModuleImport:
		return renderModuleImport(d), nil
	case ModuleImports:
		return renderModuleImports(d), nil
	case ValueToCoercion:
		return renderValueTo(d)
	case ValueFromCoercion:
		return renderValueFrom(d)
	case Text:
		return string(d), nil
	default:
		return "", errors.NewCodeGenError("unsupported declaration %T", d)
	}
}

func renderParam(p Param) (string, error) {
	if err := checkType(p.Type); err != nil {
		return "", errors.Wrapf(err, "parameter %s", p.Name)
	}
	return p.Name + ": " + RenderType(p.Type), nil
}

func renderParams(params []Param) (string, error) {
	parts := make([]string, len(params))
	for i, p := range params {
		text, err := renderParam(p)
		if err != nil {
			return "", err
		}
		parts[i] = text
	}
	return strings.Join(parts, ", "), nil
}

func renderMethod(m Method, indent string) (string, error) {
	params, err := renderParams(m.Params)
	if err != nil {
		return "", errors.Wrapf(err, "method %s", m.Name)
	}
	if m.Returns != nil {
		if err := checkType(m.Returns); err != nil {
			return "", errors.Wrapf(err, "method %s return", m.Name)
		}
	}
	body, err := renderFragments(m.Body)
	if err != nil {
		return "", errors.Wrapf(err, "method %s", m.Name)
	}

	var sb strings.Builder
	sb.WriteString(indent)
	if m.Static {
		sb.WriteString("static ")
	}
	if m.Getter {
		sb.WriteString("get ")
	}
	if m.Setter {
		sb.WriteString("set ")
	}
	sb.WriteString(m.Name)
	sb.WriteByte('(')
	sb.WriteString(params)
	sb.WriteByte(')')
	if m.Returns != nil {
		sb.WriteString(": ")
		sb.WriteString(RenderType(m.Returns))
	}

	body = strings.TrimRight(body, "\n")
	if strings.TrimSpace(body) == "" {
		sb.WriteString(" {}")
		return sb.String(), nil
	}

	sb.WriteString(" {\n")
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) != "" {
			sb.WriteString(indent)
			sb.WriteString(indentUnit)
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(indent)
	sb.WriteByte('}')
	return sb.String(), nil
}

// renderFragments concatenates body fragments in order.
func renderFragments(parts []Decl) (string, error) {
	var sb strings.Builder
	for _, part := range parts {
		text, err := Render(part)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func renderMember(m ClassMember) (string, error) {
	if err := checkType(m.Type); err != nil {
		return "", errors.Wrapf(err, "member %s", m.Name)
	}
	return m.Name + ": " + RenderType(m.Type) + ";", nil
}

func renderClass(c *Class) (string, error) {
	var sb strings.Builder
	if c.Export {
		sb.WriteString("export ")
	}
	sb.WriteString("class ")
	sb.WriteString(c.Name)
	if c.Extends != "" {
		sb.WriteString(" extends ")
		sb.WriteString(c.Extends)
	}

	if len(c.Members) == 0 && len(c.Methods) == 0 {
		sb.WriteString(" {}")
		return sb.String(), nil
	}
	sb.WriteString(" {\n")

	for _, m := range c.Members {
		text, err := renderMember(m)
		if err != nil {
			return "", errors.Wrapf(err, "class %s", c.Name)
		}
		sb.WriteString(indentUnit)
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	for i, m := range c.Methods {
		if i > 0 || len(c.Members) > 0 {
			sb.WriteByte('\n')
		}
		text, err := renderMethod(m, indentUnit)
		if err != nil {
			return "", errors.Wrapf(err, "class %s", c.Name)
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	sb.WriteByte('}')
	return sb.String(), nil
}

func renderModuleImport(i ModuleImport) string {
	return "import * as " + i.Alias + " from \"" + i.Module + "\";"
}

func renderModuleImports(i ModuleImports) string {
	if len(i.Names) <= 1 {
		return "import { " + strings.Join(i.Names, "") + " } from \"" + i.Module + "\";"
	}
	var sb strings.Builder
	sb.WriteString("import {\n")
	for n, name := range i.Names {
		sb.WriteString(indentUnit)
		sb.WriteString(name)
		if n < len(i.Names)-1 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("} from \"")
	sb.WriteString(i.Module)
	sb.WriteString("\";")
	return sb.String()
}
