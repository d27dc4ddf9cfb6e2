package phpreflect

import (
	"fmt"
	"strings"
)

// Attribute is one #[Name(args)] attached to a declaration.
type Attribute struct {
	rec *AttributeRecord
}

func (r *Reflector) attributes(targetKind string, targetID int64) ([]*Attribute, error) {
	recs, err := r.reg.Attributes(targetKind, targetID)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: attributes: %w", err)
	}
	out := make([]*Attribute, len(recs))
	for i, rec := range recs {
		out[i] = &Attribute{rec: rec}
	}
	return out, nil
}

// Name returns the fully qualified attribute class name.
func (a *Attribute) Name() string { return a.rec.Name }

// ArgumentsText returns the argument list as written, without parentheses.
func (a *Attribute) ArgumentsText() string { return a.rec.Arguments }

// Arguments splits the argument list at top-level commas. Named arguments
// keep their "name: " prefix.
func (a *Attribute) Arguments() []string {
	args := []string{}
	text := a.rec.Arguments
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			if arg := strings.TrimSpace(text[start:i]); arg != "" {
				args = append(args, arg)
			}
			start = i + 1
		}
	}
	if arg := strings.TrimSpace(text[start:]); arg != "" {
		args = append(args, arg)
	}
	return args
}

// Line returns the source line of the attribute.
func (a *Attribute) Line() int { return a.rec.Line }

func (a *Attribute) String() string {
	if a.rec.Arguments == "" {
		return "#[" + a.rec.Name + "]"
	}
	return "#[" + a.rec.Name + "(" + a.rec.Arguments + ")]"
}
