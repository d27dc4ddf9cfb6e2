package runtime

import (
	"context"

	"github.com/risor-io/risor/object"
)

// makeClassFn creates "class".
//
// class(name) → map describing the class
func makeClassFn(h Host) *object.Builtin {
	return object.NewBuiltin("class", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("class", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("class: %v", err)
		}
		c, hostErr := h.Class(ctx, name)
		if hostErr != nil {
			return object.NewError(hostErr)
		}
		return toObject(c)
	})
}

// makeUsesFn creates "uses".
//
// uses(class_name) → [{name, alias, kind}]
func makeUsesFn(h Host) *object.Builtin {
	return object.NewBuiltin("uses", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("uses", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("uses: %v", err)
		}
		uses, hostErr := h.UseStatements(ctx, name)
		if hostErr != nil {
			return object.NewError(hostErr)
		}
		list := make([]any, len(uses))
		for i, u := range uses {
			list[i] = u
		}
		return toObject(list)
	})
}

// makeResolveFn creates "resolve".
//
// resolve(class_name, short_name) → fully qualified name or nil
func makeResolveFn(h Host) *object.Builtin {
	return object.NewBuiltin("resolve", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("resolve", 2, len(args))
		}
		className, err := toString(args[0])
		if err != nil {
			return object.Errorf("resolve: %v", err)
		}
		short, err := toString(args[1])
		if err != nil {
			return object.Errorf("resolve: %v", err)
		}
		fq, ok, hostErr := h.ResolveDocType(ctx, className, short)
		if hostErr != nil {
			return object.NewError(hostErr)
		}
		if !ok {
			return object.Nil
		}
		return object.NewString(fq)
	})
}

// makeAnnotationsFn creates "annotations".
//
// annotations(class_name) → [line]
// annotations(class_name, member) → [line]
func makeAnnotationsFn(h Host) *object.Builtin {
	return object.NewBuiltin("annotations", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.NewArgsRangeError("annotations", 1, 2, len(args))
		}
		className, err := toString(args[0])
		if err != nil {
			return object.Errorf("annotations: %v", err)
		}
		member := ""
		if len(args) == 2 {
			if member, err = toString(args[1]); err != nil {
				return object.Errorf("annotations: %v", err)
			}
		}
		lines, hostErr := h.Annotations(ctx, className, member)
		if hostErr != nil {
			return object.NewError(hostErr)
		}
		return toObject(lines)
	})
}
