package phpreflect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/phpreflect/docblock"
	"github.com/jward/phpreflect/internal/store"
)

// Constant wraps a class constant.
type Constant struct {
	r      *Reflector
	sym    *Symbol
	class  *Class
	source *Symbol
}

func (k *Constant) Name() string { return k.sym.Name }

// Class returns the declaring class.
func (k *Constant) Class() *Class { return k.class }

// Value returns the value expression as written.
func (k *Constant) Value() string { return k.sym.DefaultExpr }

func (k *Constant) IsPublic() bool    { return k.sym.Visibility == "public" || k.sym.Visibility == "" }
func (k *Constant) IsProtected() bool { return k.sym.Visibility == "protected" }
func (k *Constant) IsPrivate() bool   { return k.sym.Visibility == "private" }

// IsFinal reports a final constant. Interface constants are final only
// when declared so.
func (k *Constant) IsFinal() (bool, error) {
	if err := k.r.version.require(FeatureFinalConstants); err != nil {
		return false, err
	}
	return k.sym.HasModifier("final"), nil
}

// HasType reports a typed constant.
func (k *Constant) HasType() (bool, error) {
	if err := k.r.version.require(FeatureTypedConstants); err != nil {
		return false, err
	}
	return k.sym.TypeExpr != "", nil
}

// Type returns the declared type of a typed constant.
func (k *Constant) Type() (TypeDescriptor, error) {
	if err := k.r.version.require(FeatureTypedConstants); err != nil {
		return TypeDescriptor{}, err
	}
	return NewTypeDescriptor(k.sym.TypeExpr, nil), nil
}

// DocTypes returns the names documented by the @var tag, resolved.
func (k *Constant) DocTypes(ctx context.Context) ([]string, error) {
	expr, err := docblock.Parse(k.sym.DocComment).VarType()
	if err != nil {
		return nil, fmt.Errorf("phpreflect: %s::%s: %w", k.class.Name(), k.sym.Name, err)
	}
	return k.r.docTypeNames(ctx, k.source, expr)
}

func (k *Constant) DocComment() string { return k.sym.DocComment }

func (k *Constant) Annotations() []string { return docblock.Sanitize(k.sym.DocComment) }

// Attributes returns the attributes of the constant.
func (k *Constant) Attributes() ([]*Attribute, error) {
	if err := k.r.version.require(FeatureAttributes); err != nil {
		return nil, err
	}
	return k.r.attributes(store.TargetSymbol, k.sym.ID)
}

func (k *Constant) String() string {
	var b strings.Builder
	b.WriteString("Constant [ ")
	if k.sym.HasModifier("final") {
		b.WriteString("final ")
	}
	b.WriteString(k.sym.Visibility)
	if k.sym.TypeExpr != "" {
		b.WriteByte(' ')
		b.WriteString(k.sym.TypeExpr)
	}
	fmt.Fprintf(&b, " %s = %s ]", k.sym.Name, k.sym.DefaultExpr)
	return b.String()
}
