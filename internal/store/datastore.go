package store

// DataStore is the interface for extraction-phase writes. Both Store (direct
// SQLite) and BatchedStore (in-memory buffering for parallel extraction)
// implement it.
type DataStore interface {
	// Inserts return the assigned ID.
	InsertSymbol(sym *Symbol) (int64, error)
	InsertFunctionParam(fp *FunctionParam) (int64, error)
	InsertRelation(r *Relation) (int64, error)
	InsertAttribute(a *Attribute) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
