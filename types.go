package phpreflect

import "github.com/jward/phpreflect/internal/store"

// Public type aliases for the registry records the Reflector reads. These
// are Go type aliases (=), identical to the internal types at compile time.

type Store = store.Store
type Symbol = store.Symbol
type File = store.File
type FunctionParam = store.FunctionParam
type Relation = store.Relation
type AttributeRecord = store.Attribute

// MemoryPath makes New use a private in-memory registry.
const MemoryPath = store.MemoryPath

// Registry is the native introspection oracle the wrappers decorate: it
// knows every declared type and member, their native types and raw doc
// comments. *Store implements it.
//
// Lookups that match nothing return nil with no error.
type Registry interface {
	TopLevelSymbol(name string, kinds ...string) (*Symbol, error)
	SymbolByID(id int64) (*Symbol, error)
	SymbolChildren(symbolID int64) ([]*Symbol, error)
	SymbolsByKind(kind string) ([]*Symbol, error)
	FunctionParams(symbolID int64) ([]*FunctionParam, error)
	Relations(symbolID int64) ([]*Relation, error)
	Attributes(targetKind string, targetID int64) ([]*AttributeRecord, error)
	FileByID(id int64) (*File, error)
	StaticValue(symbolID int64) (string, error)
	SetStaticValue(symbolID int64, value string) error
}

// Compile-time check: *Store satisfies Registry.
var _ Registry = (*Store)(nil)
