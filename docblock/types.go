package docblock

import (
	"strings"
)

// LeadingType returns the type expression at the start of a tag value: the
// text up to the first whitespace outside of <>, (), {} and [].
func LeadingType(value string) string {
	value = strings.TrimSpace(value)
	depth := 0
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '<', '(', '{', '[':
			depth++
		case '>', ')', '}', ']':
			if depth > 0 {
				depth--
			}
		case ' ', '\t':
			if depth == 0 {
				return value[:i]
			}
		}
	}
	return value
}

// VarType returns the type of the single @var tag, or "" if there is none.
func (b Block) VarType() (string, error) {
	tag, found, err := b.Unique("var")
	if err != nil || !found {
		return "", err
	}
	typ := LeadingType(tag.Value)
	if strings.HasPrefix(typ, "$") {
		return "", nil
	}
	return typ, nil
}

// ReturnType returns the type of the single @return tag, or "" if there is
// none.
func (b Block) ReturnType() (string, error) {
	tag, found, err := b.Unique("return")
	if err != nil || !found {
		return "", err
	}
	return LeadingType(tag.Value), nil
}

// ParamType returns the type documented for the parameter $name by a
// "@param T $name" line. Two lines for the same parameter are malformed.
func (b Block) ParamType(name string) (string, error) {
	variable := "$" + strings.TrimPrefix(name, "$")
	var matches []string
	for _, tag := range b.Tags("param") {
		typ := LeadingType(tag.Value)
		rest := strings.TrimSpace(strings.TrimPrefix(tag.Value, typ))
		// "@param $name" with no type.
		if strings.HasPrefix(typ, "$") {
			rest, typ = typ, ""
		}
		v := strings.TrimLeft(LeadingType(rest), "&.")
		if v == variable {
			matches = append(matches, typ)
		}
	}
	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0], nil
	default:
		return "", &MalformedError{Tag: "param " + variable, Count: len(matches)}
	}
}

// SplitTypes splits a union type expression into its members, in order.
// Nullable "?T" becomes T and null, and the array forms "array<T>" and
// "list<T>" collapse to "T[]". Anything else is kept verbatim.
func SplitTypes(expr string) []string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}
	if strings.HasPrefix(expr, "?") {
		return append(SplitTypes(expr[1:]), "null")
	}
	expr = stripOuterParens(expr)

	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '<', '(', '{', '[':
			depth++
		case '>', ')', '}', ']':
			if depth > 0 {
				depth--
			}
		case '|':
			if depth == 0 {
				parts = appendType(parts, expr[start:i])
				start = i + 1
			}
		}
	}
	return appendType(parts, expr[start:])
}

func appendType(parts []string, t string) []string {
	t = strings.TrimSpace(t)
	if t == "" {
		return parts
	}
	return append(parts, NormalizeArray(t))
}

// NormalizeArray rewrites "array<T>" and "list<T>" as "T[]". Keyed forms
// such as "array<int, T>" are returned unchanged.
func NormalizeArray(t string) string {
	for _, prefix := range []string{"array<", "list<"} {
		if !strings.HasPrefix(strings.ToLower(t), prefix) || !strings.HasSuffix(t, ">") {
			continue
		}
		inner := strings.TrimSpace(t[len(prefix) : len(t)-1])
		if inner == "" || hasTopLevelComma(inner) || strings.Contains(inner, "|") {
			return t
		}
		return NormalizeArray(inner) + "[]"
	}
	return t
}

// ArrayElement strips every trailing "[]" from t and reports how many were
// removed.
func ArrayElement(t string) (elem string, dims int) {
	for strings.HasSuffix(t, "[]") {
		t = t[:len(t)-2]
		dims++
	}
	return t, dims
}

func hasTopLevelComma(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '{', '[':
			depth++
		case '>', ')', '}', ']':
			depth--
		case ',':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

func stripOuterParens(s string) string {
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && balanced(s[1:len(s)-1]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// pseudoTypes are documentation-only type names that never name a class.
var pseudoTypes = map[string]bool{
	"int": true, "integer": true, "float": true, "double": true, "string": true,
	"bool": true, "boolean": true, "array": true, "callable": true, "iterable": true,
	"object": true, "mixed": true, "void": true, "null": true, "never": true,
	"false": true, "true": true, "self": true, "static": true, "parent": true,
	"$this": true, "resource": true, "scalar": true, "numeric": true,
	"array-key": true, "class-string": true, "callable-string": true,
	"numeric-string": true, "non-empty-string": true, "positive-int": true,
	"negative-int": true, "non-negative-int": true, "non-empty-array": true,
	"list": true, "non-empty-list": true, "key-of": true, "value-of": true,
	"noreturn": true, "never-return": true,
}

// IsPseudoType reports whether t names a built-in or documentation-only
// type rather than a class. Generic forms such as "class-string<Foo>" count
// by their base name.
func IsPseudoType(t string) bool {
	base := t
	if i := strings.IndexAny(base, "<{("); i >= 0 {
		base = base[:i]
	}
	return pseudoTypes[strings.ToLower(strings.TrimSpace(base))]
}
