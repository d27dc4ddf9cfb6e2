package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// typeNodes are the grammar's type expression nodes.
var typeNodes = map[string]bool{
	"union_type":                   true,
	"intersection_type":            true,
	"disjunctive_normal_form_type": true,
	"optional_type":                true,
	"named_type":                   true,
	"primitive_type":               true,
	"bottom_type":                  true,
}

type modifierSet struct {
	visibility string
	flags      []string
}

// modifiers collects the modifier keywords among n's children. Visibility
// defaults to public.
func (e *extractor) modifiers(n *sitter.Node) modifierSet {
	mods := modifierSet{visibility: "public"}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "visibility_modifier":
			mods.visibility = strings.ToLower(e.text(c))
		case "var_modifier":
			mods.visibility = "public"
		case "abstract_modifier", "final_modifier", "static_modifier", "readonly_modifier":
			mods.flags = append(mods.flags, strings.ToLower(e.text(c)))
		}
	}
	return mods
}

// childOfType returns n's first named child of one of the given types.
func childOfType(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

// hasChild reports whether any child of n, named or not, has one of the
// given types.
func hasChild(n *sitter.Node, types ...string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		for _, t := range types {
			if c.Type() == t {
				return true
			}
		}
	}
	return false
}

// typeChild returns the type expression of n: the given field when the
// grammar names one, else the first child that is a type node.
func typeChild(n *sitter.Node, field string) *sitter.Node {
	if field != "" {
		if t := n.ChildByFieldName(field); t != nil {
			return t
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); typeNodes[c.Type()] {
			return c
		}
	}
	return nil
}

// findDescendant returns the first node of type typ under n, depth first.
func findDescendant(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == typ {
			return c
		}
		if d := findDescendant(c, typ); d != nil {
			return d
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var visibilities = map[string]bool{"public": true, "protected": true, "private": true}

func promotedVisibility(mods []string) string {
	for _, m := range mods {
		if visibilities[m] {
			return m
		}
	}
	return "public"
}

func nonVisibility(mods []string) []string {
	var out []string
	for _, m := range mods {
		if !visibilities[m] {
			out = append(out, m)
		}
	}
	return out
}
