package metadata

import (
	"strconv"
	"strings"
)

// TypeKind tags the shape of a TypeRef.
type TypeKind uint8

const (
	// KindNamed is a reference to a type definition by scope and name.
	KindNamed TypeKind = iota + 1
	// KindGenericInstance binds arguments to an open named type.
	KindGenericInstance
	// KindArray is a single-dimension array of Elem.
	KindArray
	// KindGenericParam is the Position-th generic parameter of the declaring type.
	KindGenericParam
)

func (k TypeKind) String() string {
	switch k {
	case KindNamed:
		return "named"
	case KindGenericInstance:
		return "generic-instance"
	case KindArray:
		return "array"
	case KindGenericParam:
		return "generic-param"
	default:
		return "invalid"
	}
}

// TypeRef is a structural type reference. References obtained from a
// Module's import methods are canonical for that module and must not be
// mutated.
type TypeRef struct {
	Kind      TypeKind
	Scope     string // assembly name, named types only
	Namespace string
	Name      string
	Elem      *TypeRef   // open type for instances, element for arrays
	Args      []*TypeRef // generic arguments
	Position  int        // generic parameter index
	Token     Token      // set once imported into a module
}

// Named returns a reference to scope's ns.name.
func Named(scope, ns, name string) *TypeRef {
	return &TypeRef{Kind: KindNamed, Scope: scope, Namespace: ns, Name: name}
}

// Instance closes open over args.
func Instance(open *TypeRef, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: KindGenericInstance, Elem: open, Args: args}
}

// ArrayOf returns elem[].
func ArrayOf(elem *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindArray, Elem: elem}
}

// GenericParam returns the reference !pos.
func GenericParam(pos int) *TypeRef {
	return &TypeRef{Kind: KindGenericParam, Position: pos}
}

// InstanceArgs returns the bound arguments when t is a generic instance.
func InstanceArgs(t *TypeRef) []*TypeRef {
	if t == nil || t.Kind != KindGenericInstance {
		return nil
	}
	return t.Args
}

// Equal reports whether a and b denote the same type. Named types match on
// scope, namespace and name; instances additionally on every argument.
func Equal(a, b *TypeRef) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNamed:
		return a.Scope == b.Scope && a.Namespace == b.Namespace && a.Name == b.Name
	case KindGenericInstance:
		if !Equal(a.Elem, b.Elem) || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case KindArray:
		return Equal(a.Elem, b.Elem)
	case KindGenericParam:
		return a.Position == b.Position
	}
	return false
}

// Subst replaces generic parameters in t with args. Parameters outside the
// range of args are kept. t itself is returned when nothing changes.
func Subst(t *TypeRef, args []*TypeRef) *TypeRef {
	if t == nil || len(args) == 0 {
		return t
	}
	switch t.Kind {
	case KindGenericParam:
		if t.Position >= 0 && t.Position < len(args) {
			return args[t.Position]
		}
		return t
	case KindArray:
		elem := Subst(t.Elem, args)
		if elem == t.Elem {
			return t
		}
		return ArrayOf(elem)
	case KindGenericInstance:
		changed := false
		out := make([]*TypeRef, len(t.Args))
		for i, a := range t.Args {
			out[i] = Subst(a, args)
			changed = changed || out[i] != a
		}
		if !changed {
			return t
		}
		return Instance(t.Elem, out...)
	}
	return t
}

// Qualify fills an empty Scope on every named type inside t.
func Qualify(t *TypeRef, scope string) *TypeRef {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case KindNamed:
		if t.Scope != "" {
			return t
		}
		return Named(scope, t.Namespace, t.Name)
	case KindArray:
		elem := Qualify(t.Elem, scope)
		if elem == t.Elem {
			return t
		}
		return ArrayOf(elem)
	case KindGenericInstance:
		open := Qualify(t.Elem, scope)
		changed := open != t.Elem
		out := make([]*TypeRef, len(t.Args))
		for i, a := range t.Args {
			out[i] = Qualify(a, scope)
			changed = changed || out[i] != a
		}
		if !changed {
			return t
		}
		return Instance(open, out...)
	}
	return t
}

// String renders t in the form accepted by ParseTypeRef.
func (t *TypeRef) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *TypeRef) write(sb *strings.Builder) {
	if t == nil {
		sb.WriteString("void")
		return
	}
	switch t.Kind {
	case KindNamed:
		if t.Scope != "" {
			sb.WriteByte('[')
			sb.WriteString(t.Scope)
			sb.WriteByte(']')
		}
		if t.Namespace != "" {
			sb.WriteString(t.Namespace)
			sb.WriteByte('.')
		}
		sb.WriteString(t.Name)
	case KindGenericInstance:
		t.Elem.write(sb)
		sb.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.write(sb)
		}
		sb.WriteByte('>')
	case KindArray:
		t.Elem.write(sb)
		sb.WriteString("[]")
	case KindGenericParam:
		sb.WriteByte('!')
		sb.WriteString(strconv.Itoa(t.Position))
	default:
		sb.WriteString("<invalid>")
	}
}
