package usestmt

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpreflect/internal/grammar"
)

// TokenKind classifies a leaf of the PHP parse tree for the import scanner.
type TokenKind int

const (
	TokenOther      TokenKind = iota
	TokenNamespace            // "namespace" opening a namespace declaration
	TokenUse                  // "use" opening a file-level import
	TokenAs                   // "as" inside an import clause
	TokenFunction             // "function" qualifier of an import
	TokenConst                // "const" qualifier of an import
	TokenName                 // identifier segment or "\" separator
	TokenSeparator            // ","
	TokenGroupOpen            // "{"
	TokenGroupClose           // "}"
	TokenTerminator           // ";"
	TokenComment
)

var tokenKindNames = [...]string{
	TokenOther:      "other",
	TokenNamespace:  "namespace",
	TokenUse:        "use",
	TokenAs:         "as",
	TokenFunction:   "function",
	TokenConst:      "const",
	TokenName:       "name",
	TokenSeparator:  "separator",
	TokenGroupOpen:  "group_open",
	TokenGroupClose: "group_close",
	TokenTerminator: "terminator",
	TokenComment:    "comment",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexical unit of PHP source.
type Token struct {
	Kind TokenKind
	Text string
	Line int // 1-based
}

// Tokenize parses src and returns its leaf tokens in source order.
func Tokenize(ctx context.Context, src []byte) ([]Token, error) {
	tree, err := grammar.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("usestmt: tokenize: %w", err)
	}
	defer tree.Close()
	return TokensFromTree(tree.RootNode(), src), nil
}

// TokensFromTree returns the leaf tokens under root. src must be the source
// the tree was parsed from.
func TokensFromTree(root *sitter.Node, src []byte) []Token {
	var tokens []Token
	grammar.Leaves(root, func(n *sitter.Node) {
		tokens = append(tokens, Token{
			Kind: classify(n),
			Text: n.Content(src),
			Line: int(n.StartPoint().Row) + 1,
		})
	})
	return tokens
}

// classify maps a leaf to a token kind. Keywords only count in their
// declaration context: a trait "use" inside a class body or the "use" of a
// closure is TokenOther.
func classify(n *sitter.Node) TokenKind {
	parentType := ""
	if p := n.Parent(); p != nil {
		parentType = p.Type()
	}

	switch n.Type() {
	case "namespace":
		if parentType == "namespace_definition" {
			return TokenNamespace
		}
	case "use":
		if parentType == "namespace_use_declaration" {
			return TokenUse
		}
	case "as":
		if withinImport(n) {
			return TokenAs
		}
	case "function":
		if withinImport(n) {
			return TokenFunction
		}
	case "const":
		if withinImport(n) {
			return TokenConst
		}
	case "name", `\`:
		return TokenName
	case ",":
		return TokenSeparator
	case "{":
		return TokenGroupOpen
	case "}":
		return TokenGroupClose
	case ";", "?>":
		return TokenTerminator
	case "comment":
		return TokenComment
	}
	return TokenOther
}

// withinImport reports whether n sits inside a namespace_use_declaration.
func withinImport(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "namespace_use_declaration":
			return true
		case "program", "declaration_list", "compound_statement":
			return false
		}
	}
	return false
}
