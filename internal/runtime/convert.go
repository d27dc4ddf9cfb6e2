package runtime

import (
	"fmt"

	"github.com/risor-io/risor/object"
)

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// toObject converts the plain values a Host returns.
func toObject(v any) object.Object {
	switch v := v.(type) {
	case nil:
		return object.Nil
	case object.Object:
		return v
	case string:
		return object.NewString(v)
	case bool:
		return object.NewBool(v)
	case int:
		return object.NewInt(int64(v))
	case int64:
		return object.NewInt(v)
	case float64:
		return object.NewFloat(v)
	case []string:
		items := make([]object.Object, len(v))
		for i, s := range v {
			items[i] = object.NewString(s)
		}
		return object.NewList(items)
	case []any:
		items := make([]object.Object, len(v))
		for i, item := range v {
			items[i] = toObject(item)
		}
		return object.NewList(items)
	case []map[string]any:
		items := make([]object.Object, len(v))
		for i, item := range v {
			items[i] = toObject(item)
		}
		return object.NewList(items)
	case map[string]string:
		m := make(map[string]object.Object, len(v))
		for k, s := range v {
			m[k] = object.NewString(s)
		}
		return object.NewMap(m)
	case map[string]any:
		m := make(map[string]object.Object, len(v))
		for k, item := range v {
			m[k] = toObject(item)
		}
		return object.NewMap(m)
	default:
		return object.NewString(fmt.Sprint(v))
	}
}
