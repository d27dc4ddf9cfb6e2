package store

import (
	"database/sql"
	"fmt"
	"strings"
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, hash, namespace, line_count, last_indexed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Hash, f.Namespace, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// UpdateFileNamespace records the namespace declared by a file.
func (s *Store) UpdateFileNamespace(fileID int64, namespace string) error {
	if _, err := s.db.Exec("UPDATE files SET namespace = ? WHERE id = ?", namespace, fileID); err != nil {
		return fmt.Errorf("update file namespace: %w", err)
	}
	return nil
}

const fileCols = "id, path, hash, namespace, line_count, last_indexed"

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var hash, ns sql.NullString
	if err := scanner.Scan(&f.ID, &f.Path, &hash, &ns, &f.LineCount, &f.LastIndexed); err != nil {
		return nil, err
	}
	f.Hash = hash.String
	f.Namespace = ns.String
	return f, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) FileByID(id int64) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT " + fileCols + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbolTx(s.db, sym)
	if err != nil {
		return 0, err
	}
	sym.ID = id
	return id, nil
}

func insertSymbolTx(db execer, sym *Symbol) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO symbols (file_id, name, kind, visibility, modifiers, type_expr, default_expr,
			has_default, doc_comment, start_line, end_line, parent_symbol_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, sym.Kind, sym.Visibility, marshalModifiers(sym.Modifiers),
		sym.TypeExpr, sym.DefaultExpr, sym.HasDefault, sym.DocComment,
		sym.StartLine, sym.EndLine, sym.ParentSymbolID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// SymbolCols is the column list for symbol queries.
const SymbolCols = `id, file_id, name, kind, visibility, modifiers, type_expr, default_expr,
	has_default, doc_comment, start_line, end_line, parent_symbol_id`

func scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	var vis, mods, typ, def, doc sql.NullString
	err := scanner.Scan(
		&sym.ID, &sym.FileID, &sym.Name, &sym.Kind, &vis, &mods, &typ, &def,
		&sym.HasDefault, &doc, &sym.StartLine, &sym.EndLine, &sym.ParentSymbolID,
	)
	if err != nil {
		return nil, err
	}
	sym.Visibility = vis.String
	sym.Modifiers = unmarshalModifiers(mods.String)
	sym.TypeExpr = typ.String
	sym.DefaultExpr = def.String
	sym.DocComment = doc.String
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	sym, err := scanSymbol(s.db.QueryRow("SELECT "+SymbolCols+" FROM symbols WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by id: %w", err)
	}
	return sym, nil
}

// TopLevelSymbol finds a class-like type or function by fully qualified
// name. Matching is case-insensitive, as PHP class and function names are.
// Returns nil with no error when nothing matches.
func (s *Store) TopLevelSymbol(name string, kinds ...string) (*Symbol, error) {
	name = strings.TrimLeft(name, `\`)
	query := "SELECT " + SymbolCols + " FROM symbols WHERE parent_symbol_id IS NULL AND name = ? COLLATE NOCASE"
	args := []any{name}
	if len(kinds) > 0 {
		query += " AND kind IN (" + placeholderList(len(kinds)) + ")"
		for _, k := range kinds {
			args = append(args, k)
		}
	}
	// User code shadows built-ins.
	query += " ORDER BY file_id IS NULL, id LIMIT 1"
	syms, err := s.querySymbols(query, args...)
	if err != nil {
		return nil, fmt.Errorf("top level symbol: %w", err)
	}
	if len(syms) == 0 {
		return nil, nil
	}
	return syms[0], nil
}

// SymbolsByFile returns the symbols declared in a file, in declaration order.
func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE file_id = ? ORDER BY id", fileID)
}

// SymbolsByKind returns top-level symbols of a kind ordered by name.
func (s *Store) SymbolsByKind(kind string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE parent_symbol_id IS NULL AND kind = ? ORDER BY name", kind)
}

// SymbolChildren returns the members of a type in declaration order.
func (s *Store) SymbolChildren(symbolID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE parent_symbol_id = ? ORDER BY id", symbolID)
}

// --- Function parameter operations ---

func (s *Store) InsertFunctionParam(fp *FunctionParam) (int64, error) {
	id, err := insertFunctionParamTx(s.db, fp)
	if err != nil {
		return 0, err
	}
	fp.ID = id
	return id, nil
}

func insertFunctionParamTx(db execer, fp *FunctionParam) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO function_parameters (symbol_id, name, ordinal, type_expr, has_default, default_expr,
			is_variadic, is_by_ref, modifiers)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fp.SymbolID, fp.Name, fp.Ordinal, fp.TypeExpr, fp.HasDefault, fp.DefaultExpr,
		fp.IsVariadic, fp.IsByRef, marshalModifiers(fp.Modifiers),
	)
	if err != nil {
		return 0, fmt.Errorf("insert function param: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FunctionParams returns a function's parameters ordered by position.
func (s *Store) FunctionParams(symbolID int64) ([]*FunctionParam, error) {
	rows, err := s.db.Query(
		`SELECT id, symbol_id, name, ordinal, type_expr, has_default, default_expr,
			is_variadic, is_by_ref, modifiers
		 FROM function_parameters WHERE symbol_id = ? ORDER BY ordinal`, symbolID,
	)
	if err != nil {
		return nil, fmt.Errorf("function params: %w", err)
	}
	defer rows.Close()
	var params []*FunctionParam
	for rows.Next() {
		fp := &FunctionParam{}
		var typ, def, mods sql.NullString
		if err := rows.Scan(&fp.ID, &fp.SymbolID, &fp.Name, &fp.Ordinal, &typ, &fp.HasDefault, &def,
			&fp.IsVariadic, &fp.IsByRef, &mods); err != nil {
			return nil, fmt.Errorf("scan function param: %w", err)
		}
		fp.TypeExpr = typ.String
		fp.DefaultExpr = def.String
		fp.Modifiers = unmarshalModifiers(mods.String)
		params = append(params, fp)
	}
	return params, rows.Err()
}

// --- Relation operations ---

func (s *Store) InsertRelation(r *Relation) (int64, error) {
	id, err := insertRelationTx(s.db, r)
	if err != nil {
		return 0, err
	}
	r.ID = id
	return id, nil
}

func insertRelationTx(db execer, r *Relation) (int64, error) {
	res, err := db.Exec(
		"INSERT INTO relations (symbol_id, target, kind, ordinal) VALUES (?, ?, ?, ?)",
		r.SymbolID, r.Target, r.Kind, r.Ordinal,
	)
	if err != nil {
		return 0, fmt.Errorf("insert relation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Relations returns the extends/implements/uses edges of a type.
func (s *Store) Relations(symbolID int64) ([]*Relation, error) {
	rows, err := s.db.Query(
		"SELECT id, symbol_id, target, kind, ordinal FROM relations WHERE symbol_id = ? ORDER BY kind, ordinal",
		symbolID,
	)
	if err != nil {
		return nil, fmt.Errorf("relations: %w", err)
	}
	defer rows.Close()
	var rels []*Relation
	for rows.Next() {
		r := &Relation{}
		if err := rows.Scan(&r.ID, &r.SymbolID, &r.Target, &r.Kind, &r.Ordinal); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// --- Attribute operations ---

func (s *Store) InsertAttribute(a *Attribute) (int64, error) {
	id, err := insertAttributeTx(s.db, a)
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

func insertAttributeTx(db execer, a *Attribute) (int64, error) {
	res, err := db.Exec(
		"INSERT INTO attributes (target_kind, target_id, name, arguments, ordinal, file_id, line) VALUES (?, ?, ?, ?, ?, ?, ?)",
		a.TargetKind, a.TargetID, a.Name, a.Arguments, a.Ordinal, a.FileID, a.Line,
	)
	if err != nil {
		return 0, fmt.Errorf("insert attribute: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Attributes returns the attributes attached to a symbol or parameter.
func (s *Store) Attributes(targetKind string, targetID int64) ([]*Attribute, error) {
	rows, err := s.db.Query(
		`SELECT id, target_kind, target_id, name, arguments, ordinal, file_id, line
		 FROM attributes WHERE target_kind = ? AND target_id = ? ORDER BY ordinal`,
		targetKind, targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	defer rows.Close()
	var attrs []*Attribute
	for rows.Next() {
		a := &Attribute{}
		var args sql.NullString
		if err := rows.Scan(&a.ID, &a.TargetKind, &a.TargetID, &a.Name, &args, &a.Ordinal, &a.FileID, &a.Line); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		a.Arguments = args.String
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// --- Static property values ---

// StaticValue returns the current value expression of a static property:
// the last value set, or its declared default.
func (s *Store) StaticValue(symbolID int64) (string, error) {
	s.staticsMu.RLock()
	v, ok := s.statics[symbolID]
	s.staticsMu.RUnlock()
	if ok {
		return v, nil
	}
	sym, err := s.SymbolByID(symbolID)
	if err != nil {
		return "", err
	}
	if sym == nil {
		return "", fmt.Errorf("static value: no symbol %d", symbolID)
	}
	if !sym.HasDefault {
		return "null", nil
	}
	return sym.DefaultExpr, nil
}

// SetStaticValue replaces the value expression of a static property for the
// lifetime of the Store.
func (s *Store) SetStaticValue(symbolID int64, value string) error {
	s.staticsMu.Lock()
	s.statics[symbolID] = value
	s.staticsMu.Unlock()
	return nil
}
