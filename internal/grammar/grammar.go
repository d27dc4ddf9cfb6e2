// Package grammar owns the tree-sitter PHP grammar and the parse entry point
// shared by the token scanner and the declaration extractor.
package grammar

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// extensions lists the file extensions treated as PHP source.
var extensions = map[string]bool{
	".php":   true,
	".phtml": true,
	".inc":   true,
}

var (
	language     *sitter.Language
	languageOnce sync.Once
)

// Language returns the PHP grammar. Lazily initialized on first call.
func Language() *sitter.Language {
	languageOnce.Do(func() {
		language = php.GetLanguage()
	})
	return language
}

// IsPHPFile reports whether path has a PHP source extension.
func IsPHPFile(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Parse parses src as PHP. The caller owns the returned tree and must Close it.
func Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("grammar: tree-sitter parse failed: %w", err)
	}
	return tree, nil
}

// Leaves calls fn for every leaf node under n in source order.
func Leaves(n *sitter.Node, fn func(*sitter.Node)) {
	if n == nil {
		return
	}
	count := int(n.ChildCount())
	if count == 0 {
		fn(n)
		return
	}
	for i := 0; i < count; i++ {
		Leaves(n.Child(i), fn)
	}
}
