package store

import "time"

// Symbol kinds.
const (
	KindClass     = "class"
	KindInterface = "interface"
	KindTrait     = "trait"
	KindEnum      = "enum"
	KindFunction  = "function"
	KindMethod    = "method"
	KindProperty  = "property"
	KindConstant  = "constant"
	KindCase      = "case"
)

// TypeKinds are the kinds that declare a class-like type.
var TypeKinds = []string{KindClass, KindInterface, KindTrait, KindEnum}

// Relation kinds.
const (
	RelExtends    = "extends"
	RelImplements = "implements"
	RelUses       = "uses"
)

// Modifiers recorded beyond the PHP keywords.
const (
	ModByRef    = "&"        // function returns by reference
	ModPromoted = "promoted" // property declared by a constructor parameter
)

// Attribute targets.
const (
	TargetSymbol = "symbol"
	TargetParam  = "param"
)

type File struct {
	ID          int64
	Path        string
	Hash        string
	Namespace   string
	LineCount   int
	LastIndexed time.Time
}

// Symbol is any declaration: a class-like type or function (top level, Name
// is fully qualified), or a member of a type (Name is the bare member name,
// without "$" for properties).
type Symbol struct {
	ID             int64
	FileID         *int64
	Name           string
	Kind           string
	Visibility     string
	Modifiers      []string
	TypeExpr       string // declared type, already qualified
	DefaultExpr    string // property default, constant value, case value
	HasDefault     bool
	DocComment     string
	StartLine      int
	EndLine        int
	ParentSymbolID *int64
}

// HasModifier reports whether m is among the symbol's modifiers.
func (s *Symbol) HasModifier(m string) bool {
	for _, mod := range s.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

type FunctionParam struct {
	ID          int64
	SymbolID    int64
	Name        string
	Ordinal     int
	TypeExpr    string
	HasDefault  bool
	DefaultExpr string
	IsVariadic  bool
	IsByRef     bool
	// Modifiers are set for constructor-promoted parameters (visibility,
	// readonly).
	Modifiers []string
}

// IsPromoted reports whether the parameter declares a property.
func (p *FunctionParam) IsPromoted() bool {
	return len(p.Modifiers) > 0
}

type Relation struct {
	ID       int64
	SymbolID int64
	Target   string
	Kind     string
	Ordinal  int
}

type Attribute struct {
	ID         int64
	TargetKind string
	TargetID   int64
	Name       string
	Arguments  string
	Ordinal    int
	FileID     *int64
	Line       int
}
