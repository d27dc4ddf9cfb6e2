package runtime

import (
	"context"

	"github.com/risor-io/risor/object"

	"github.com/jward/phpreflect/docblock"
	"github.com/jward/phpreflect/usestmt"
)

// makeTokensFn creates "tokens".
//
// tokens(source) → [{kind, text}]
func makeTokensFn() *object.Builtin {
	return object.NewBuiltin("tokens", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("tokens", 1, len(args))
		}
		src, err := toString(args[0])
		if err != nil {
			return object.Errorf("tokens: %v", err)
		}
		toks, tokErr := usestmt.Tokenize(ctx, []byte(src))
		if tokErr != nil {
			return object.Errorf("tokens: %v", tokErr)
		}
		results := make([]object.Object, 0, len(toks))
		for _, tok := range toks {
			results = append(results, object.NewMap(map[string]object.Object{
				"kind": object.NewString(tok.Kind.String()),
				"text": object.NewString(tok.Text),
			}))
		}
		return object.NewList(results)
	})
}

// makeScanUsesFn creates "scan_uses".
//
// scan_uses(source) → {namespace, uses: [{name, alias, kind}]}
func makeScanUsesFn() *object.Builtin {
	return object.NewBuiltin("scan_uses", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("scan_uses", 1, len(args))
		}
		src, err := toString(args[0])
		if err != nil {
			return object.Errorf("scan_uses: %v", err)
		}
		imports, scanErr := usestmt.Extract(ctx, []byte(src))
		if scanErr != nil {
			return object.Errorf("scan_uses: %v", scanErr)
		}
		uses := make([]any, 0, len(imports.Uses))
		for _, u := range imports.Uses {
			uses = append(uses, useToMap(u))
		}
		return toObject(map[string]any{
			"namespace": imports.Namespace,
			"uses":      uses,
		})
	})
}

// makeSanitizeFn creates "sanitize".
//
// sanitize(doc_comment) → [line]
func makeSanitizeFn() *object.Builtin {
	return object.NewBuiltin("sanitize", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("sanitize", 1, len(args))
		}
		doc, err := toString(args[0])
		if err != nil {
			return object.Errorf("sanitize: %v", err)
		}
		return toObject(docblock.Sanitize(doc))
	})
}

// makeSplitTypesFn creates "split_types".
//
// split_types(expr) → [name]
func makeSplitTypesFn() *object.Builtin {
	return object.NewBuiltin("split_types", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("split_types", 1, len(args))
		}
		expr, err := toString(args[0])
		if err != nil {
			return object.Errorf("split_types: %v", err)
		}
		parts := docblock.SplitTypes(expr)
		if parts == nil {
			parts = []string{}
		}
		return toObject(parts)
	})
}

func useToMap(u usestmt.UseStatement) map[string]any {
	return map[string]any{
		"name":  u.Name,
		"alias": u.Alias,
		"kind":  string(u.Kind),
	}
}
