package usestmt

import "strings"

// reserved holds the type keywords PHP never qualifies.
var reserved = map[string]bool{
	"int":      true,
	"float":    true,
	"string":   true,
	"bool":     true,
	"array":    true,
	"callable": true,
	"iterable": true,
	"object":   true,
	"mixed":    true,
	"void":     true,
	"null":     true,
	"never":    true,
	"false":    true,
	"true":     true,
	"self":     true,
	"static":   true,
	"parent":   true,
}

// IsReserved reports whether name is a PHP type keyword.
func IsReserved(name string) bool {
	return reserved[strings.ToLower(name)]
}

// Alias returns the import whose alias equals alias exactly. Only class
// imports are considered.
func (f *FileImports) Alias(alias string) (UseStatement, bool) {
	for _, u := range f.Uses {
		if u.Kind == ImportClass && u.Alias == alias {
			return u, true
		}
	}
	return UseStatement{}, false
}

// Qualify expands a class name written in this file the way PHP does at
// compile time: keywords are kept, a leading "\" marks a fully qualified
// name, the first segment is matched case-insensitively against class
// imports, and anything else is taken as relative to the file's namespace.
func (f *FileImports) Qualify(name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ""
	case strings.HasPrefix(name, `\`):
		return strings.TrimLeft(name, `\`)
	case IsReserved(name):
		return strings.ToLower(name)
	}

	if rest, ok := strings.CutPrefix(name, `namespace\`); ok {
		return Join(f.Namespace, rest)
	}

	head, tail, qualified := strings.Cut(name, `\`)
	for _, u := range f.Uses {
		if u.Kind != ImportClass || !strings.EqualFold(u.Alias, head) {
			continue
		}
		if qualified {
			return u.Name + `\` + tail
		}
		return u.Name
	}
	return Join(f.Namespace, name)
}
