// Package usestmt recovers the namespace declaration and the file-level
// `use` imports of a PHP source file.
//
// The scan runs over the tree-sitter token stream, not over raw characters.
// Every clause of a comma-separated import becomes its own UseStatement and
// group imports (`use A\{B, C as D};`) are expanded with their prefix.
// A close tag ends an import the way ";" does.
//
// FileImports.Uses lists every import of the file. PHP scopes imports to
// the namespace declaration they appear in, so files declaring several
// namespaces also get one Scope per declaration; At picks the one that
// applies to a line.
package usestmt

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ImportKind says what an import binds.
type ImportKind string

const (
	ImportClass    ImportKind = "class"
	ImportFunction ImportKind = "function"
	ImportConst    ImportKind = "const"
)

// UseStatement pairs a fully qualified name with its local alias.
type UseStatement struct {
	Name  string
	Alias string
	Kind  ImportKind
}

func (u UseStatement) String() string {
	var b strings.Builder
	b.WriteString("use ")
	if u.Kind == ImportFunction || u.Kind == ImportConst {
		b.WriteString(string(u.Kind))
		b.WriteByte(' ')
	}
	b.WriteString(u.Name)
	if u.Alias != ShortName(u.Name) {
		b.WriteString(" as ")
		b.WriteString(u.Alias)
	}
	return b.String()
}

// FileImports is the result of scanning one file. Namespace is the first
// namespace declared.
type FileImports struct {
	Namespace string
	Uses      []UseStatement
	Scopes    []Scope
}

// Scope holds the imports of one namespace declaration, which starts at
// Line.
type Scope struct {
	Namespace string
	Line      int
	Uses      []UseStatement
}

// At returns the imports in effect at line. Files with at most one
// namespace declaration return f itself.
func (f *FileImports) At(line int) *FileImports {
	if len(f.Scopes) <= 1 {
		return f
	}
	sc := f.Scopes[0]
	for _, candidate := range f.Scopes[1:] {
		if candidate.Line > line {
			break
		}
		sc = candidate
	}
	return &FileImports{Namespace: sc.Namespace, Uses: sc.Uses, Scopes: []Scope{sc}}
}

// Extract scans src and returns its namespace and imports in source order.
func Extract(ctx context.Context, src []byte) (*FileImports, error) {
	tokens, err := Tokenize(ctx, src)
	if err != nil {
		return nil, err
	}
	return ExtractTokens(tokens), nil
}

// ExtractFile reads path once and scans it. A missing or unreadable file is
// an error.
func ExtractFile(ctx context.Context, path string) (*FileImports, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("usestmt: read %s: %w", path, err)
	}
	return Extract(ctx, src)
}

type scanState int

const (
	stateIdle scanState = iota
	stateNamespace
	stateUse
	stateUseAlias
)

// scanner is the import state machine. Only the transitions in feed exist;
// there is no way to be inside a namespace and an import at once.
type scanner struct {
	state scanState

	namespace    string
	hasNamespace bool
	nsLine       int

	stmtKind   ImportKind // "use function ..." applies to every clause
	clauseKind ImportKind // "use A\{function b}" applies to one clause
	prefix     string
	inGroup    bool
	name       strings.Builder
	alias      strings.Builder

	uses   []UseStatement
	scopes []Scope
}

// ExtractTokens runs the import state machine over an already tokenized file.
func ExtractTokens(tokens []Token) *FileImports {
	s := &scanner{}
	for _, t := range tokens {
		s.feed(t)
	}
	return &FileImports{Namespace: s.namespace, Uses: s.uses, Scopes: s.scopes}
}

func (s *scanner) feed(t Token) {
	switch s.state {
	case stateIdle:
		switch t.Kind {
		case TokenNamespace:
			s.state = stateNamespace
			s.nsLine = t.Line
			s.name.Reset()
		case TokenUse:
			s.state = stateUse
			s.resetStatement()
		}

	case stateNamespace:
		switch t.Kind {
		case TokenName:
			s.name.WriteString(t.Text)
		case TokenTerminator, TokenGroupOpen:
			name := strings.TrimSpace(s.name.String())
			// The first declaration wins when a file has several.
			if !s.hasNamespace {
				s.namespace = name
				s.hasNamespace = true
			}
			s.scopes = append(s.scopes, Scope{Namespace: name, Line: s.nsLine})
			s.name.Reset()
			s.state = stateIdle
		}

	case stateUse, stateUseAlias:
		switch t.Kind {
		case TokenFunction, TokenConst:
			kind := ImportFunction
			if t.Kind == TokenConst {
				kind = ImportConst
			}
			if s.inGroup {
				s.clauseKind = kind
			} else {
				s.stmtKind = kind
			}
		case TokenAs:
			s.state = stateUseAlias
		case TokenName:
			if s.state == stateUseAlias {
				s.alias.WriteString(t.Text)
			} else {
				s.name.WriteString(t.Text)
			}
		case TokenGroupOpen:
			s.prefix = strings.TrimRight(strings.TrimSpace(s.name.String()), `\`)
			s.name.Reset()
			s.inGroup = true
			s.state = stateUse
		case TokenSeparator:
			s.emit()
			s.state = stateUse
		case TokenGroupClose:
			s.emit()
			s.inGroup = false
			s.prefix = ""
			s.state = stateUse
		case TokenTerminator:
			s.emit()
			s.resetStatement()
			s.state = stateIdle
		}
	}
}

// emit records the clause accumulated so far, if any, and clears the
// per-clause buffers.
func (s *scanner) emit() {
	defer func() {
		s.name.Reset()
		s.alias.Reset()
		s.clauseKind = ""
	}()

	name := strings.TrimSpace(s.name.String())
	if name == "" {
		return
	}
	if s.inGroup && s.prefix != "" {
		name = s.prefix + `\` + name
	}
	name = strings.TrimLeft(name, `\`)

	alias := strings.TrimSpace(s.alias.String())
	if alias == "" {
		alias = ShortName(name)
	}

	kind := ImportClass
	switch {
	case s.clauseKind != "":
		kind = s.clauseKind
	case s.stmtKind != "":
		kind = s.stmtKind
	}

	u := UseStatement{Name: name, Alias: alias, Kind: kind}
	s.uses = append(s.uses, u)
	if len(s.scopes) == 0 {
		s.scopes = append(s.scopes, Scope{Line: 1})
	}
	last := &s.scopes[len(s.scopes)-1]
	last.Uses = append(last.Uses, u)
}

func (s *scanner) resetStatement() {
	s.stmtKind = ""
	s.clauseKind = ""
	s.prefix = ""
	s.inGroup = false
	s.name.Reset()
	s.alias.Reset()
}

// ShortName returns the last segment of a namespace-qualified name.
func ShortName(name string) string {
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// NamespaceOf returns everything before the last separator of name, or "".
func NamespaceOf(name string) string {
	name = strings.TrimLeft(name, `\`)
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		return name[:i]
	}
	return ""
}

// Join concatenates a namespace and a name.
func Join(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}
