package phpreflect

// Instance is an object created by Class.NewInstanceWithoutConstructor.
// Property values are PHP expressions as text; an absent key is an
// uninitialized property.
type Instance struct {
	class  *Class
	values map[string]string
}

// Class returns the class the instance was created from.
func (i *Instance) Class() *Class { return i.class }
