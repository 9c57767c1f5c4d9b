package metadata

// Special method names.
const (
	CtorName       = ".ctor"
	StaticCtorName = ".cctor"
)

// TypeDef is a type declared in a module.
type TypeDef struct {
	Module        *Module
	Namespace     string
	Name          string
	GenericParams []string
	Base          *TypeRef
	Methods       []*MethodDef
	Properties    []*PropertyDef
	Fields        []*FieldDef
}

// NewTypeDef creates a detached definition; attach it with Module.AddType.
func NewTypeDef(ns, name string, genericParams ...string) *TypeDef {
	return &TypeDef{Namespace: ns, Name: name, GenericParams: genericParams}
}

// FullName returns "Namespace.Name".
func (t *TypeDef) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Ref returns an open named reference to t.
func (t *TypeDef) Ref() *TypeRef {
	scope := ""
	if t.Module != nil && t.Module.Assembly != nil {
		scope = t.Module.Assembly.Name
	}
	return Named(scope, t.Namespace, t.Name)
}

// AddMethod appends md in declaration order.
func (t *TypeDef) AddMethod(md *MethodDef) *MethodDef {
	md.DeclaringType = t
	t.Methods = append(t.Methods, md)
	if t.Module != nil {
		t.qualifyMethod(md)
	}
	return md
}

// AddProperty appends p and registers its accessors as methods.
func (t *TypeDef) AddProperty(p *PropertyDef) *PropertyDef {
	p.DeclaringType = t
	t.Properties = append(t.Properties, p)
	if p.Getter != nil {
		t.AddMethod(p.Getter)
	}
	if p.Setter != nil {
		t.AddMethod(p.Setter)
	}
	if t.Module != nil {
		p.Type = Qualify(p.Type, t.Module.Assembly.Name)
	}
	return p
}

// AddField appends f in declaration order.
func (t *TypeDef) AddField(f *FieldDef) *FieldDef {
	f.DeclaringType = t
	t.Fields = append(t.Fields, f)
	if t.Module != nil {
		f.Type = Qualify(f.Type, t.Module.Assembly.Name)
	}
	return f
}

func (t *TypeDef) qualifyMethod(md *MethodDef) {
	scope := t.Module.Assembly.Name
	md.Return = Qualify(md.Return, scope)
	for i := range md.Params {
		md.Params[i].Type = Qualify(md.Params[i].Type, scope)
	}
}

// Param is a named method parameter.
type Param struct {
	Name string
	Type *TypeRef
}

// MethodDef is a method declared on a type. Return is nil for void.
type MethodDef struct {
	Name          string
	Static        bool
	Private       bool
	Params        []Param
	Return        *TypeRef
	DeclaringType *TypeDef
}

// IsConstructor reports whether md is an instance or type initializer.
func (md *MethodDef) IsConstructor() bool {
	return md.Name == CtorName || md.Name == StaticCtorName
}

// NewCtor builds an instance constructor with the given parameter types.
func NewCtor(params ...*TypeRef) *MethodDef {
	return &MethodDef{Name: CtorName, Params: paramsOf(params)}
}

// NewMethod builds an instance method.
func NewMethod(name string, ret *TypeRef, params ...*TypeRef) *MethodDef {
	return &MethodDef{Name: name, Return: ret, Params: paramsOf(params)}
}

func paramsOf(types []*TypeRef) []Param {
	if len(types) == 0 {
		return nil
	}
	out := make([]Param, len(types))
	for i, t := range types {
		out[i] = Param{Type: t}
	}
	return out
}

// PropertyDef is a property with optional accessors.
type PropertyDef struct {
	Name          string
	Type          *TypeRef
	Getter        *MethodDef
	Setter        *MethodDef
	DeclaringType *TypeDef
}

// NewProperty builds a property and its get_/set_ accessors.
func NewProperty(name string, typ *TypeRef, get, set, static bool) *PropertyDef {
	p := &PropertyDef{Name: name, Type: typ}
	if get {
		p.Getter = &MethodDef{Name: "get_" + name, Return: typ, Static: static}
	}
	if set {
		p.Setter = &MethodDef{
			Name:   "set_" + name,
			Params: []Param{{Name: "value", Type: typ}},
			Static: static,
		}
	}
	return p
}

// FieldDef is a field declared on a type.
type FieldDef struct {
	Name          string
	Type          *TypeRef
	Static        bool
	Private       bool
	DeclaringType *TypeDef
}
