package store

import "fmt"

// builtinType describes a type provided by the PHP runtime itself. Built-ins
// have no source file.
type builtinType struct {
	name       string
	kind       string
	modifiers  []string
	extends    string
	implements []string
	methods    []builtinMethod
}

type builtinMethod struct {
	name      string
	returns   string
	modifiers []string
}

var builtinTypes = []builtinType{
	{name: "stdClass", kind: KindClass},
	{name: "Traversable", kind: KindInterface},
	{name: "Iterator", kind: KindInterface, implements: []string{"Traversable"}, methods: []builtinMethod{
		{name: "current", returns: "mixed"},
		{name: "key", returns: "mixed"},
		{name: "next", returns: "void"},
		{name: "rewind", returns: "void"},
		{name: "valid", returns: "bool"},
	}},
	{name: "IteratorAggregate", kind: KindInterface, implements: []string{"Traversable"}, methods: []builtinMethod{
		{name: "getIterator", returns: "Traversable"},
	}},
	{name: "ArrayAccess", kind: KindInterface, methods: []builtinMethod{
		{name: "offsetExists", returns: "bool"},
		{name: "offsetGet", returns: "mixed"},
		{name: "offsetSet", returns: "void"},
		{name: "offsetUnset", returns: "void"},
	}},
	{name: "Countable", kind: KindInterface, methods: []builtinMethod{{name: "count", returns: "int"}}},
	{name: "Stringable", kind: KindInterface, methods: []builtinMethod{{name: "__toString", returns: "string"}}},
	{name: "JsonSerializable", kind: KindInterface, methods: []builtinMethod{{name: "jsonSerialize", returns: "mixed"}}},
	{name: "Throwable", kind: KindInterface, implements: []string{"Stringable"}, methods: []builtinMethod{
		{name: "getMessage", returns: "string"},
		{name: "getCode", returns: "int"},
		{name: "getPrevious", returns: "?Throwable"},
	}},
	{name: "Exception", kind: KindClass, implements: []string{"Throwable"}, methods: []builtinMethod{
		{name: "getMessage", returns: "string", modifiers: []string{"final"}},
		{name: "getCode", returns: "int", modifiers: []string{"final"}},
		{name: "getPrevious", returns: "?Throwable", modifiers: []string{"final"}},
		{name: "__toString", returns: "string"},
	}},
	{name: "Error", kind: KindClass, implements: []string{"Throwable"}},
	{name: "RuntimeException", kind: KindClass, extends: "Exception"},
	{name: "LogicException", kind: KindClass, extends: "Exception"},
	{name: "InvalidArgumentException", kind: KindClass, extends: "LogicException"},
	{name: "DateTimeInterface", kind: KindInterface},
	{name: "DateTime", kind: KindClass, implements: []string{"DateTimeInterface"}},
	{name: "DateTimeImmutable", kind: KindClass, implements: []string{"DateTimeInterface"}},
	{name: "Closure", kind: KindClass, modifiers: []string{"final"}},
	{name: "Generator", kind: KindClass, modifiers: []string{"final"}, implements: []string{"Iterator"}},
	{name: "UnitEnum", kind: KindInterface, methods: []builtinMethod{
		{name: "cases", returns: "array", modifiers: []string{"static"}},
	}},
	{name: "BackedEnum", kind: KindInterface, implements: []string{"UnitEnum"}, methods: []builtinMethod{
		{name: "from", returns: "static", modifiers: []string{"static"}},
		{name: "tryFrom", returns: "?static", modifiers: []string{"static"}},
	}},
	{name: "Attribute", kind: KindClass, modifiers: []string{"final"}},
	{name: "AllowDynamicProperties", kind: KindClass, modifiers: []string{"final"}},
}

// seedBuiltins inserts the built-in types once. A built-in is recognized by
// its missing file.
func (s *Store) seedBuiltins() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM symbols WHERE file_id IS NULL AND parent_symbol_id IS NULL").Scan(&count); err != nil {
		return fmt.Errorf("seed builtins: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("seed builtins: begin: %w", err)
	}
	defer tx.Rollback()

	for _, bt := range builtinTypes {
		id, err := insertSymbolTx(tx, &Symbol{
			Name:       bt.name,
			Kind:       bt.kind,
			Visibility: "public",
			Modifiers:  bt.modifiers,
		})
		if err != nil {
			return fmt.Errorf("seed builtins: %s: %w", bt.name, err)
		}

		if bt.extends != "" {
			if _, err := insertRelationTx(tx, &Relation{SymbolID: id, Target: bt.extends, Kind: RelExtends}); err != nil {
				return fmt.Errorf("seed builtins: %s: %w", bt.name, err)
			}
		}
		relKind := RelImplements
		if bt.kind == KindInterface {
			relKind = RelExtends
		}
		for i, iface := range bt.implements {
			if _, err := insertRelationTx(tx, &Relation{SymbolID: id, Target: iface, Kind: relKind, Ordinal: i}); err != nil {
				return fmt.Errorf("seed builtins: %s: %w", bt.name, err)
			}
		}

		parent := id
		for _, m := range bt.methods {
			mods := m.modifiers
			if bt.kind == KindInterface {
				mods = append([]string{"abstract"}, mods...)
			}
			if _, err := insertSymbolTx(tx, &Symbol{
				Name:           m.name,
				Kind:           KindMethod,
				Visibility:     "public",
				Modifiers:      mods,
				TypeExpr:       m.returns,
				ParentSymbolID: &parent,
			}); err != nil {
				return fmt.Errorf("seed builtins: %s::%s: %w", bt.name, m.name, err)
			}
		}
	}

	return tx.Commit()
}
