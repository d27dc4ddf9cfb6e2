package phpreflect

import (
	"context"
	"strings"
)

// scriptHost exposes a Reflector to Risor scripts.
type scriptHost struct {
	r *Reflector
}

func (h *scriptHost) PHPVersion() string { return h.r.version.String() }

func (h *scriptHost) Class(ctx context.Context, name string) (map[string]any, error) {
	c, err := h.r.Class(name)
	if err != nil {
		return nil, err
	}
	file, err := c.FileName()
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"name":        c.Name(),
		"short_name":  c.ShortName(),
		"namespace":   c.NamespaceName(),
		"kind":        c.Kind(),
		"abstract":    c.IsAbstract(),
		"final":       c.IsFinal(),
		"internal":    c.IsInternal(),
		"file":        file,
		"start_line":  c.StartLine(),
		"annotations": c.Annotations(),
		"parent":      nil,
	}

	parent, err := c.ParentClass()
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if parent != nil {
		out["parent"] = parent.Name()
	}
	if out["interfaces"], err = c.InterfaceNames(); err != nil {
		return nil, err
	}
	if out["traits"], err = c.TraitNames(); err != nil {
		return nil, err
	}

	methods, err := c.Methods()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name()
	}
	out["methods"] = names

	props, err := c.Properties()
	if err != nil {
		return nil, err
	}
	propList := make([]any, len(props))
	for i, p := range props {
		doc, err := p.DocTypes(ctx)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			doc = []string{}
		}
		propList[i] = map[string]any{
			"name":      p.Name(),
			"type":      p.Type().String(),
			"doc_types": doc,
			"static":    p.IsStatic(),
			"dynamic":   p.IsDynamic(),
		}
	}
	out["properties"] = propList

	consts, err := c.Constants()
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(consts))
	for _, k := range consts {
		values[k.Name()] = k.Value()
	}
	out["constants"] = values
	return out, nil
}

func (h *scriptHost) UseStatements(ctx context.Context, className string) ([]map[string]any, error) {
	uses, err := h.r.UseStatements(ctx, className)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(uses))
	for i, u := range uses {
		out[i] = map[string]any{"name": u.Name, "alias": u.Alias, "kind": string(u.Kind)}
	}
	return out, nil
}

func (h *scriptHost) ResolveDocType(ctx context.Context, className, short string) (string, bool, error) {
	return h.r.ResolveDocType(ctx, className, short)
}

func (h *scriptHost) Annotations(_ context.Context, className, member string) ([]string, error) {
	return h.r.Annotations(className, member)
}

// Annotations returns the sanitized doc comment lines of a class, or of one
// of its members when member is set: "name()" for a method, "$name" for a
// property and a bare name for a constant.
func (r *Reflector) Annotations(className, member string) ([]string, error) {
	c, err := r.Class(className)
	if err != nil {
		return nil, err
	}
	var d Documented
	switch {
	case member == "":
		d = c
	case strings.HasSuffix(member, "()"):
		d, err = c.Method(strings.TrimSuffix(member, "()"))
	case strings.HasPrefix(member, "$"):
		d, err = c.Property(member)
	default:
		d, err = c.Constant(member)
	}
	if err != nil {
		return nil, err
	}
	return d.Annotations(), nil
}
