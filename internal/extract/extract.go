// Package extract walks a tree-sitter PHP parse tree and records every
// declaration (types, functions, members, parameters, relations and
// attributes) into a store.DataStore.
package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpreflect/internal/grammar"
	"github.com/jward/phpreflect/internal/store"
	"github.com/jward/phpreflect/usestmt"
)

// Result summarizes one extracted file.
type Result struct {
	// Imports are the namespace and use statements of the file.
	Imports *usestmt.FileImports
	// LineCount is the number of lines in the source.
	LineCount int
	// Symbols counts the symbols written.
	Symbols int
}

// File parses src and writes its declarations to ds. Each row carries
// fileID. Type names in native declarations are qualified the way PHP
// qualifies them at compile time.
func File(ctx context.Context, ds store.DataStore, fileID int64, src []byte) (*Result, error) {
	tree, err := grammar.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	imports := usestmt.ExtractTokens(usestmt.TokensFromTree(root, src))

	e := &extractor{
		ds:      ds,
		fileID:  fileID,
		src:     src,
		imports: imports,
		scope:   &usestmt.FileImports{Namespace: "", Uses: imports.Uses},
	}
	if err := e.walkStatements(root); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	return &Result{
		Imports:   imports,
		LineCount: strings.Count(string(src), "\n") + 1,
		Symbols:   e.symbols,
	}, nil
}

type extractor struct {
	ds      store.DataStore
	fileID  int64
	src     []byte
	imports *usestmt.FileImports
	// scope qualifies names against the namespace currently being walked.
	scope   *usestmt.FileImports
	symbols int
}

func (e *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Content(e.src))
}

func line(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }

func endLine(n *sitter.Node) int { return int(n.EndPoint().Row) + 1 }

// walkStatements records the declarations among n's direct children.
func (e *extractor) walkStatements(n *sitter.Node) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		var err error
		switch child.Type() {
		case "namespace_definition":
			err = e.namespace(child)
		case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
			err = e.typeDecl(child)
		case "function_definition":
			err = e.function(child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *extractor) namespace(n *sitter.Node) error {
	name := ""
	if nn := childOfType(n, "namespace_name"); nn != nil {
		name = e.text(nn)
	} else if nn := n.ChildByFieldName("name"); nn != nil {
		name = e.text(nn)
	}
	e.scope = &usestmt.FileImports{Namespace: strings.Trim(name, `\`), Uses: e.imports.At(line(n)).Uses}

	// Braced form: declarations live in the body.
	if body := childOfType(n, "compound_statement"); body != nil {
		return e.walkStatements(body)
	}
	return nil
}

func (e *extractor) insertSymbol(sym *store.Symbol) (int64, error) {
	sym.FileID = &e.fileID
	id, err := e.ds.InsertSymbol(sym)
	if err != nil {
		return 0, err
	}
	e.symbols++
	return id, nil
}

var declKinds = map[string]string{
	"class_declaration":     store.KindClass,
	"interface_declaration": store.KindInterface,
	"trait_declaration":     store.KindTrait,
	"enum_declaration":      store.KindEnum,
}

func (e *extractor) typeDecl(n *sitter.Node) error {
	kind := declKinds[n.Type()]
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = childOfType(n, "name")
	}
	if nameNode == nil {
		return nil
	}
	name := usestmt.Join(e.scope.Namespace, e.text(nameNode))
	mods := e.modifiers(n)

	sym := &store.Symbol{
		Name:       name,
		Kind:       kind,
		Visibility: "public",
		Modifiers:  mods.flags,
		DocComment: e.docComment(n),
		StartLine:  line(n),
		EndLine:    endLine(n),
	}
	if kind == store.KindEnum {
		// enum Suit: string
		if t := typeChild(n, ""); t != nil {
			sym.TypeExpr = e.qualifyType(e.text(t))
		}
	}
	id, err := e.insertSymbol(sym)
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, name, err)
	}

	if err := e.attributes(n, store.TargetSymbol, id); err != nil {
		return err
	}
	if err := e.relations(n, kind, id, sym.TypeExpr); err != nil {
		return fmt.Errorf("%s %s: %w", kind, name, err)
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "declaration_list", "enum_declaration_list")
	}
	if body == nil {
		return nil
	}
	return e.members(body, sym, id)
}

// relations records extends, implements and trait uses. Enums also
// implement UnitEnum, and BackedEnum when they have a backing type.
func (e *extractor) relations(n *sitter.Node, kind string, id int64, backing string) error {
	var implements []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "base_clause":
			for j, target := range e.names(child) {
				// Interfaces extend interfaces; classes extend one class.
				if _, err := e.ds.InsertRelation(&store.Relation{SymbolID: id, Target: target, Kind: store.RelExtends, Ordinal: j}); err != nil {
					return err
				}
			}
		case "class_interface_clause":
			implements = append(implements, e.names(child)...)
		}
	}
	if kind == store.KindEnum {
		implements = append(implements, "UnitEnum")
		if backing != "" {
			implements = append(implements, "BackedEnum")
		}
	}
	for i, target := range implements {
		if _, err := e.ds.InsertRelation(&store.Relation{SymbolID: id, Target: target, Kind: store.RelImplements, Ordinal: i}); err != nil {
			return err
		}
	}
	return nil
}

// names returns the qualified class names listed directly under n.
func (e *extractor) names(n *sitter.Node) []string {
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "name", "qualified_name", "named_type":
			out = append(out, e.scope.Qualify(e.text(child)))
		}
	}
	return out
}

func (e *extractor) members(body *sitter.Node, owner *store.Symbol, ownerID int64) error {
	traitOrdinal := 0
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		var err error
		switch child.Type() {
		case "method_declaration":
			err = e.method(child, owner, ownerID)
		case "property_declaration":
			err = e.properties(child, owner, ownerID)
		case "const_declaration":
			err = e.constants(child, ownerID)
		case "enum_case":
			err = e.enumCase(child, ownerID)
		case "use_declaration":
			for _, target := range e.names(child) {
				if _, err = e.ds.InsertRelation(&store.Relation{SymbolID: ownerID, Target: target, Kind: store.RelUses, Ordinal: traitOrdinal}); err != nil {
					break
				}
				traitOrdinal++
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", owner.Name, err)
		}
	}
	return nil
}

func (e *extractor) method(n *sitter.Node, owner *store.Symbol, ownerID int64) error {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	mods := e.modifiers(n)
	flags := mods.flags
	if owner.Kind == store.KindInterface && !contains(flags, "abstract") {
		flags = append([]string{"abstract"}, flags...)
	}
	if hasChild(n, "reference_modifier", "&") {
		flags = append(flags, store.ModByRef)
	}

	sym := &store.Symbol{
		Name:           e.text(nameNode),
		Kind:           store.KindMethod,
		Visibility:     mods.visibility,
		Modifiers:      flags,
		TypeExpr:       e.qualifyType(e.text(n.ChildByFieldName("return_type"))),
		DocComment:     e.docComment(n),
		StartLine:      line(n),
		EndLine:        endLine(n),
		ParentSymbolID: &ownerID,
	}
	id, err := e.insertSymbol(sym)
	if err != nil {
		return fmt.Errorf("method %s: %w", sym.Name, err)
	}
	if err := e.attributes(n, store.TargetSymbol, id); err != nil {
		return err
	}

	// Promoted constructor parameters declare properties too.
	promoted, err := e.parameters(n, id, owner.HasModifier("readonly"))
	if err != nil {
		return fmt.Errorf("method %s: %w", sym.Name, err)
	}
	for _, p := range promoted {
		if _, err := e.insertSymbol(&store.Symbol{
			Name:           p.Name,
			Kind:           store.KindProperty,
			Visibility:     promotedVisibility(p.Modifiers),
			Modifiers:      append([]string{store.ModPromoted}, nonVisibility(p.Modifiers)...),
			TypeExpr:       p.TypeExpr,
			DocComment:     p.doc,
			StartLine:      p.startLine,
			EndLine:        p.endLine,
			ParentSymbolID: &ownerID,
		}); err != nil {
			return fmt.Errorf("promoted property %s: %w", p.Name, err)
		}
	}
	return nil
}

func (e *extractor) function(n *sitter.Node) error {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	var flags []string
	if hasChild(n, "reference_modifier", "&") {
		flags = append(flags, store.ModByRef)
	}
	sym := &store.Symbol{
		Name:       usestmt.Join(e.scope.Namespace, e.text(nameNode)),
		Kind:       store.KindFunction,
		Visibility: "public",
		Modifiers:  flags,
		TypeExpr:   e.qualifyType(e.text(n.ChildByFieldName("return_type"))),
		DocComment: e.docComment(n),
		StartLine:  line(n),
		EndLine:    endLine(n),
	}
	id, err := e.insertSymbol(sym)
	if err != nil {
		return fmt.Errorf("function %s: %w", sym.Name, err)
	}
	if err := e.attributes(n, store.TargetSymbol, id); err != nil {
		return err
	}
	if _, err := e.parameters(n, id, false); err != nil {
		return fmt.Errorf("function %s: %w", sym.Name, err)
	}
	return nil
}

// promotedParam is a constructor parameter that also declares a property.
// The property's doc comment is the one written on the parameter, not the
// constructor's.
type promotedParam struct {
	*store.FunctionParam
	doc                string
	startLine, endLine int
}

// parameters records the formal parameters of a function or method and
// returns the constructor-promoted ones.
func (e *extractor) parameters(fn *sitter.Node, fnID int64, readonlyClass bool) ([]promotedParam, error) {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		params = childOfType(fn, "formal_parameters")
	}
	if params == nil {
		return nil, nil
	}

	var promoted []promotedParam
	ordinal := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		n := params.NamedChild(i)
		switch n.Type() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			continue
		}

		fp := &store.FunctionParam{
			SymbolID:   fnID,
			Name:       strings.TrimPrefix(e.text(findDescendant(n, "variable_name")), "$"),
			Ordinal:    ordinal,
			IsVariadic: n.Type() == "variadic_parameter" || hasChild(n, "..."),
			IsByRef:    hasChild(n, "reference_modifier", "&", "by_ref"),
		}
		if t := typeChild(n, "type"); t != nil {
			fp.TypeExpr = e.qualifyType(e.text(t))
		}
		if def := n.ChildByFieldName("default_value"); def != nil {
			fp.HasDefault, fp.DefaultExpr = true, e.text(def)
		} else if v, ok := e.valueAfterEquals(n); ok {
			fp.HasDefault, fp.DefaultExpr = true, v
		}
		if n.Type() == "property_promotion_parameter" {
			mods := e.modifiers(n)
			fp.Modifiers = []string{mods.visibility}
			if contains(mods.flags, "readonly") || readonlyClass {
				fp.Modifiers = append(fp.Modifiers, "readonly")
			}
		}

		id, err := e.ds.InsertFunctionParam(fp)
		if err != nil {
			return nil, fmt.Errorf("param $%s: %w", fp.Name, err)
		}
		if err := e.attributes(n, store.TargetParam, id); err != nil {
			return nil, err
		}
		if fp.IsPromoted() {
			promoted = append(promoted, promotedParam{
				FunctionParam: fp,
				doc:           e.docComment(n),
				startLine:     line(n),
				endLine:       endLine(n),
			})
		}
		ordinal++
	}
	return promoted, nil
}

func (e *extractor) properties(n *sitter.Node, owner *store.Symbol, ownerID int64) error {
	mods := e.modifiers(n)
	flags := mods.flags
	if owner.HasModifier("readonly") && !contains(flags, "readonly") {
		flags = append(flags, "readonly")
	}
	typeExpr := ""
	if t := typeChild(n, "type"); t != nil {
		typeExpr = e.qualifyType(e.text(t))
	}
	doc := e.docComment(n)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		if el.Type() != "property_element" {
			continue
		}
		sym := &store.Symbol{
			Name:           strings.TrimPrefix(e.text(findDescendant(el, "variable_name")), "$"),
			Kind:           store.KindProperty,
			Visibility:     mods.visibility,
			Modifiers:      flags,
			TypeExpr:       typeExpr,
			DocComment:     doc,
			StartLine:      line(el),
			EndLine:        endLine(el),
			ParentSymbolID: &ownerID,
		}
		if def := el.ChildByFieldName("default_value"); def != nil {
			sym.HasDefault, sym.DefaultExpr = true, e.text(def)
		} else if v, ok := e.valueAfterEquals(el); ok {
			sym.HasDefault, sym.DefaultExpr = true, v
		}
		id, err := e.insertSymbol(sym)
		if err != nil {
			return fmt.Errorf("property $%s: %w", sym.Name, err)
		}
		if err := e.attributes(n, store.TargetSymbol, id); err != nil {
			return err
		}
	}
	return nil
}

func (e *extractor) constants(n *sitter.Node, ownerID int64) error {
	mods := e.modifiers(n)
	typeExpr := ""
	if t := typeChild(n, "type"); t != nil {
		typeExpr = e.qualifyType(e.text(t))
	}
	doc := e.docComment(n)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		if el.Type() != "const_element" {
			continue
		}
		nameNode := childOfType(el, "name")
		if nameNode == nil {
			continue
		}
		value, _ := e.valueAfterEquals(el)
		id, err := e.insertSymbol(&store.Symbol{
			Name:           e.text(nameNode),
			Kind:           store.KindConstant,
			Visibility:     mods.visibility,
			Modifiers:      mods.flags,
			TypeExpr:       typeExpr,
			DefaultExpr:    value,
			HasDefault:     true,
			DocComment:     doc,
			StartLine:      line(el),
			EndLine:        endLine(el),
			ParentSymbolID: &ownerID,
		})
		if err != nil {
			return fmt.Errorf("constant %s: %w", e.text(nameNode), err)
		}
		if err := e.attributes(n, store.TargetSymbol, id); err != nil {
			return err
		}
	}
	return nil
}

func (e *extractor) enumCase(n *sitter.Node, ownerID int64) error {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = childOfType(n, "name")
	}
	if nameNode == nil {
		return nil
	}
	sym := &store.Symbol{
		Name:           e.text(nameNode),
		Kind:           store.KindCase,
		Visibility:     "public",
		DocComment:     e.docComment(n),
		StartLine:      line(n),
		EndLine:        endLine(n),
		ParentSymbolID: &ownerID,
	}
	if v := n.ChildByFieldName("value"); v != nil {
		sym.HasDefault, sym.DefaultExpr = true, e.text(v)
	} else if v, ok := e.valueAfterEquals(n); ok {
		sym.HasDefault, sym.DefaultExpr = true, v
	}
	id, err := e.insertSymbol(sym)
	if err != nil {
		return fmt.Errorf("case %s: %w", sym.Name, err)
	}
	return e.attributes(n, store.TargetSymbol, id)
}

// attributes records the #[...] attributes attached to n.
func (e *extractor) attributes(n *sitter.Node, targetKind string, targetID int64) error {
	ordinal := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		list := n.NamedChild(i)
		if list.Type() != "attribute_list" {
			continue
		}
		var walk func(*sitter.Node) error
		walk = func(node *sitter.Node) error {
			if node.Type() != "attribute" {
				for j := 0; j < int(node.NamedChildCount()); j++ {
					if err := walk(node.NamedChild(j)); err != nil {
						return err
					}
				}
				return nil
			}
			nameNode := childOfType(node, "name", "qualified_name")
			if nameNode == nil {
				return nil
			}
			args := ""
			if a := childOfType(node, "arguments"); a != nil {
				args = strings.TrimSuffix(strings.TrimPrefix(e.text(a), "("), ")")
			}
			_, err := e.ds.InsertAttribute(&store.Attribute{
				TargetKind: targetKind,
				TargetID:   targetID,
				Name:       e.scope.Qualify(e.text(nameNode)),
				Arguments:  strings.TrimSpace(args),
				Ordinal:    ordinal,
				FileID:     &e.fileID,
				Line:       line(node),
			})
			ordinal++
			return err
		}
		if err := walk(list); err != nil {
			return fmt.Errorf("attribute: %w", err)
		}
	}
	return nil
}

// docComment returns the /** */ comment immediately preceding n.
func (e *extractor) docComment(n *sitter.Node) string {
	prev := n.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := e.text(prev)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return text
}

// valueAfterEquals returns the expression following "=" among n's children,
// looking inside an initializer node when the grammar wraps it in one.
func (e *extractor) valueAfterEquals(n *sitter.Node) (string, bool) {
	seen := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case c.Type() == "property_initializer":
			return e.valueAfterEquals(c)
		case c.Type() == "=":
			seen = true
		case seen && c.IsNamed():
			return e.text(c), true
		}
	}
	return "", false
}

// qualifyType rewrites every class name inside a native type expression to
// its fully qualified form. Keywords stay as written, lowercased.
func (e *extractor) qualifyType(expr string) string {
	if expr == "" {
		return ""
	}
	var b strings.Builder
	var ident strings.Builder
	flush := func() {
		if ident.Len() > 0 {
			b.WriteString(e.scope.Qualify(ident.String()))
			ident.Reset()
		}
	}
	for _, r := range expr {
		switch r {
		case '|', '&', '?', '(', ')':
			flush()
			b.WriteRune(r)
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			ident.WriteRune(r)
		}
	}
	flush()
	return b.String()
}
