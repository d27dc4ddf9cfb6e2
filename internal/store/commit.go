package store

import (
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real IDs
// and every reference within the batch is rewritten.
//
// Insert order respects FK dependencies:
//  1. Symbols (types before their members)
//  2. FunctionParams (depend on symbol_id)
//  3. Relations (depend on symbol_id)
//  4. Attributes (depend on a symbol or parameter id)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)
	remap := func(id int64) (int64, error) {
		if id >= 0 {
			return id, nil
		}
		realID, ok := fakeToReal[id]
		if !ok {
			return 0, fmt.Errorf("id %d not in batch", id)
		}
		return realID, nil
	}

	for _, sym := range batch.Symbols {
		if sym.ParentSymbolID != nil {
			realID, err := remap(*sym.ParentSymbolID)
			if err != nil {
				return fmt.Errorf("commit batch: symbol %q parent: %w", sym.Name, err)
			}
			sym.ParentSymbolID = &realID
		}
		realID, err := insertSymbolTx(tx, &sym)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		fakeToReal[sym.ID] = realID
	}

	for _, fp := range batch.FunctionParams {
		if fp.SymbolID, err = remap(fp.SymbolID); err != nil {
			return fmt.Errorf("commit batch: function param %q: %w", fp.Name, err)
		}
		realID, err := insertFunctionParamTx(tx, &fp)
		if err != nil {
			return fmt.Errorf("commit batch: function param %q: %w", fp.Name, err)
		}
		fakeToReal[fp.ID] = realID
	}

	for _, r := range batch.Relations {
		if r.SymbolID, err = remap(r.SymbolID); err != nil {
			return fmt.Errorf("commit batch: relation %q: %w", r.Target, err)
		}
		if _, err := insertRelationTx(tx, &r); err != nil {
			return fmt.Errorf("commit batch: relation %q: %w", r.Target, err)
		}
	}

	for _, a := range batch.Attributes {
		if a.TargetID, err = remap(a.TargetID); err != nil {
			return fmt.Errorf("commit batch: attribute %q: %w", a.Name, err)
		}
		if _, err := insertAttributeTx(tx, &a); err != nil {
			return fmt.Errorf("commit batch: attribute %q: %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	return nil
}
