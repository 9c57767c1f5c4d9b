package resolve

import (
	"errors"

	"mdref/internal/metadata"
	"mdref/internal/trace"
)

var errNilModule = errors.New("resolve: nil destination module")

// ResolveType imports the type named by d into m. Generic arguments are
// resolved independently and the closed instance is imported; Array wraps
// the result in an array reference.
func (c *Context) ResolveType(m *metadata.Module, d TypeDesc) (*metadata.TypeRef, bool, error) {
	if m == nil {
		return nil, false, errNilModule
	}
	ref, ok, err := c.resolveType(m, d)
	return ref, ok, annotate(err, d)
}

func (c *Context) resolveType(m *metadata.Module, d TypeDesc) (*metadata.TypeRef, bool, error) {
	return c.types.get(typeKey{module: m, desc: c.descs.intern(d)}, func() (*metadata.TypeRef, bool, error) {
		span := trace.Begin(c.tracer, trace.ScopeLookup, "resolve-type", 0)
		ref, ok, err := c.importType(m, d)
		span.WithExtra("desc", d.String()).End(outcome(ok, err))
		return ref, ok, err
	})
}

func (c *Context) importType(m *metadata.Module, d TypeDesc) (*metadata.TypeRef, bool, error) {
	if d.Array {
		elem, ok, err := c.resolveType(m, d.element())
		if !ok || err != nil {
			return nil, false, err
		}
		return m.ImportType(metadata.ArrayOf(elem)), true, nil
	}
	def, ok, err := c.typeDef(m, d.TypeName)
	if !ok || err != nil {
		return nil, false, err
	}
	open := m.ImportType(def.Ref())
	if len(d.Args) == 0 {
		return open, true, nil
	}
	if len(d.Args) != len(def.GenericParams) {
		trace.Point(c.tracer, trace.ScopeMember, 0, "arity-mismatch", d.String())
		return nil, false, nil
	}
	args := make([]*metadata.TypeRef, len(d.Args))
	for i, a := range d.Args {
		arg, ok, err := c.resolveType(m, a)
		if !ok || err != nil {
			return nil, false, err
		}
		args[i] = arg
	}
	return m.ImportType(metadata.Instance(open, args...)), true, nil
}

// ResolveConstructor imports the instance constructor of d chosen by sel.
// Private and static constructors are never candidates.
func (c *Context) ResolveConstructor(m *metadata.Module, d TypeDesc, sel Selector) (*metadata.MethodRef, bool, error) {
	if m == nil {
		return nil, false, errNilModule
	}
	if err := sel.validate(); err != nil {
		return nil, false, err
	}
	key := ctorKey{module: m, desc: c.descs.intern(d), sel: c.selectorKey(sel)}
	ref, ok, err := c.ctors.get(key, func() (*metadata.MethodRef, bool, error) {
		return c.findMethod(m, d, sel, "ctor", func(md *metadata.MethodDef) bool {
			return md.IsConstructor() && !md.Private && !md.Static
		})
	})
	return ref, ok, annotate(err, d)
}

// ResolveMethod imports the first non-constructor method of d named name
// that satisfies sel, in declaration order.
func (c *Context) ResolveMethod(m *metadata.Module, d TypeDesc, name string, sel Selector) (*metadata.MethodRef, bool, error) {
	if m == nil {
		return nil, false, errNilModule
	}
	if err := sel.validate(); err != nil {
		return nil, false, err
	}
	key := memberKey{module: m, kind: memberMethod, desc: c.descs.intern(d), name: name, sel: c.selectorKey(sel)}
	ref, ok, err := c.methods.get(key, func() (*metadata.MethodRef, bool, error) {
		return c.findMethod(m, d, sel, name, func(md *metadata.MethodDef) bool {
			return !md.IsConstructor() && md.Name == name
		})
	})
	return ref, ok, annotate(err, d)
}

// ResolvePropertyGetter imports the getter of the first property of d named
// name accepted by q. A matching property without a getter is absent.
func (c *Context) ResolvePropertyGetter(m *metadata.Module, d TypeDesc, name string, q PropertyQuery) (*metadata.MethodRef, bool, error) {
	return c.resolveAccessor(m, d, name, q, memberGetter)
}

// ResolvePropertySetter is ResolvePropertyGetter for the setter.
func (c *Context) ResolvePropertySetter(m *metadata.Module, d TypeDesc, name string, q PropertyQuery) (*metadata.MethodRef, bool, error) {
	return c.resolveAccessor(m, d, name, q, memberSetter)
}

func (c *Context) resolveAccessor(m *metadata.Module, d TypeDesc, name string, q PropertyQuery, kind memberKind) (*metadata.MethodRef, bool, error) {
	if m == nil {
		return nil, false, errNilModule
	}
	if err := q.Filter.validate(); err != nil {
		return nil, false, err
	}
	key := memberKey{
		module:  m,
		kind:    kind,
		desc:    c.descs.intern(d),
		name:    name,
		sel:     selectorKey{filter: q.Filter.cacheName()},
		flatten: q.Flatten,
	}
	ref, ok, err := c.methods.get(key, func() (*metadata.MethodRef, bool, error) {
		owner, def, ok, err := c.declaring(m, d)
		if !ok || err != nil {
			return nil, false, err
		}
		chain, err := c.propertyChain(m, owner, def, q.Flatten)
		if err != nil {
			return nil, false, err
		}
		for _, p := range chain {
			if p.member.Name != name || !q.Filter.accepts(p.member) {
				continue
			}
			acc := p.member.Getter
			if kind == memberSetter {
				acc = p.member.Setter
			}
			if acc == nil {
				break
			}
			return m.ImportMethod(acc, p.owner), true, nil
		}
		trace.Point(c.tracer, trace.ScopeMember, 0, "absent-property", d.String()+"::"+name)
		return nil, false, nil
	})
	return ref, ok, annotate(err, d)
}

// ResolveField imports the first field declared directly on d named name
// and accepted by filter.
func (c *Context) ResolveField(m *metadata.Module, d TypeDesc, name string, filter Filter[*metadata.FieldDef]) (*metadata.FieldRef, bool, error) {
	if m == nil {
		return nil, false, errNilModule
	}
	if err := filter.validate(); err != nil {
		return nil, false, err
	}
	key := memberKey{module: m, kind: memberField, desc: c.descs.intern(d), name: name, sel: selectorKey{filter: filter.cacheName()}}
	ref, ok, err := c.fields.get(key, func() (*metadata.FieldRef, bool, error) {
		owner, def, ok, err := c.declaring(m, d)
		if !ok || err != nil {
			return nil, false, err
		}
		for _, f := range def.Fields {
			if f.Name == name && filter.accepts(f) {
				return m.ImportField(f, owner), true, nil
			}
		}
		trace.Point(c.tracer, trace.ScopeMember, 0, "absent-field", d.String()+"::"+name)
		return nil, false, nil
	})
	return ref, ok, annotate(err, d)
}

// declaring resolves d to its imported reference and definition. Arrays
// have no member table of their own and are reported absent.
func (c *Context) declaring(m *metadata.Module, d TypeDesc) (*metadata.TypeRef, *metadata.TypeDef, bool, error) {
	if d.Array {
		return nil, nil, false, nil
	}
	owner, ok, err := c.resolveType(m, d)
	if !ok || err != nil {
		return nil, nil, false, err
	}
	def, ok, err := c.typeDef(m, d.TypeName)
	if !ok || err != nil {
		return nil, nil, false, err
	}
	return owner, def, true, nil
}

func (c *Context) findMethod(m *metadata.Module, d TypeDesc, sel Selector, label string, candidate func(*metadata.MethodDef) bool) (*metadata.MethodRef, bool, error) {
	owner, def, ok, err := c.declaring(m, d)
	if !ok || err != nil {
		return nil, false, err
	}
	var want []*metadata.TypeRef
	if sel.kind == selectParamTypes {
		want = make([]*metadata.TypeRef, len(sel.params))
		for i, p := range sel.params {
			ref, ok, err := c.resolveType(m, p)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				// No overload can take a parameter of an absent type.
				trace.Point(c.tracer, trace.ScopeMember, 0, "absent-param-type", p.String())
				return nil, false, nil
			}
			want[i] = ref
		}
	}
	bound := metadata.InstanceArgs(owner)
	canon := func(t *metadata.TypeRef) *metadata.TypeRef { return c.canonical(m, t) }
	for _, md := range def.Methods {
		if candidate(md) && sel.matches(md, want, bound, canon) {
			return m.ImportMethod(md, owner), true, nil
		}
	}
	trace.Point(c.tracer, trace.ScopeMember, 0, "absent-method", d.String()+"::"+label+sel.String())
	return nil, false, nil
}

type declared[T any] struct {
	owner  *metadata.TypeRef
	member T
}

// propertyChain lists def's properties followed, when flatten is set, by
// those of each base type in turn toward the root. Base references are
// bound to the arguments of the type that names them.
func (c *Context) propertyChain(m *metadata.Module, owner *metadata.TypeRef, def *metadata.TypeDef, flatten bool) ([]declared[*metadata.PropertyDef], error) {
	var out []declared[*metadata.PropertyDef]
	seen := map[*metadata.TypeDef]bool{}
	for def != nil && !seen[def] {
		seen[def] = true
		for _, p := range def.Properties {
			out = append(out, declared[*metadata.PropertyDef]{owner: owner, member: p})
		}
		if !flatten || def.Base == nil {
			break
		}
		base := metadata.Subst(def.Base, metadata.InstanceArgs(owner))
		next, ok, err := c.definitionOf(m, base)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		owner, def = base, next
	}
	return out, nil
}

func (c *Context) selectorKey(sel Selector) selectorKey {
	return selectorKey{
		kind:   sel.kind,
		count:  sel.count,
		params: c.descs.encode(sel.params),
		filter: sel.filter.cacheName(),
	}
}

func outcome(found bool, err error) string {
	switch {
	case err != nil:
		return err.Error()
	case !found:
		return "absent"
	default:
		return "found"
	}
}
