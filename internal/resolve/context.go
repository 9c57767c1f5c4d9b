// Package resolve turns symbolic descriptors into references imported into a
// destination module, memoizing every resolution for the lifetime of a
// Context.
//
// A Context is created once per compilation run and shared by every lookup
// in that run. Each (module, descriptor) pair is resolved at most once; the
// first result, positive or negative, is returned to every later or
// concurrent caller. Absent types and members are not errors: operations
// return found == false. Assemblies that cannot be loaded are fatal and are
// reported as *AssemblyResolutionError.
package resolve

import (
	"errors"
	"fmt"

	"mdref/internal/metadata"
	"mdref/internal/trace"
)

// Redirect retries a missing type of Assembly/Namespace in Target. It covers
// runtimes that split one assembly's namespace into another.
type Redirect struct {
	Assembly  string
	Namespace string
	Target    string
}

// DefaultRedirects is used when Options.Redirects is nil.
var DefaultRedirects = []Redirect{
	{Assembly: "mscorlib", Namespace: "System.Reflection", Target: "System.Reflection"},
}

// Options configures a Context.
type Options struct {
	Resolver  metadata.AssemblyResolver
	Redirects []Redirect // nil selects DefaultRedirects; empty disables
	Tracer    trace.Tracer
}

// Context owns every resolution cache of a compilation run.
type Context struct {
	resolver  metadata.AssemblyResolver
	redirects []Redirect
	tracer    trace.Tracer

	descs      descTable
	assemblies cache[string, *metadata.Assembly]
	typeDefs   cache[typeDefKey, *metadata.TypeDef]
	types      cache[typeKey, *metadata.TypeRef]
	ctors      cache[ctorKey, *metadata.MethodRef]
	methods    cache[memberKey, *metadata.MethodRef]
	fields     cache[memberKey, *metadata.FieldRef]
}

type typeDefKey struct {
	module *metadata.Module
	name   TypeName
}

type typeKey struct {
	module *metadata.Module
	desc   descID
}

type ctorKey struct {
	module *metadata.Module
	desc   descID
	sel    selectorKey
}

type memberKind uint8

const (
	memberMethod memberKind = iota + 1
	memberGetter
	memberSetter
	memberField
)

type memberKey struct {
	module  *metadata.Module
	kind    memberKind
	desc    descID
	name    string
	sel     selectorKey
	flatten bool
}

// NewContext creates an empty Context.
func NewContext(opts Options) *Context {
	redirects := opts.Redirects
	if redirects == nil {
		redirects = DefaultRedirects
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Context{
		resolver:  opts.Resolver,
		redirects: append([]Redirect(nil), redirects...),
		tracer:    tracer,
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Context) Stats() Stats {
	return Stats{
		Assemblies:   c.assemblies.stats(),
		TypeDefs:     c.typeDefs.stats(),
		Types:        c.types.stats(),
		Constructors: c.ctors.stats(),
		Methods:      c.methods.stats(),
		Fields:       c.fields.stats(),
	}
}

// assembly returns the assembly named name as seen from m. The destination's
// own assembly never goes through the resolver.
func (c *Context) assembly(m *metadata.Module, name string) (*metadata.Assembly, error) {
	name = metadata.SimpleName(name)
	if m.Assembly != nil && m.Assembly.Name == name {
		return m.Assembly, nil
	}
	asm, _, err := c.assemblies.get(name, func() (*metadata.Assembly, bool, error) {
		span := trace.Begin(c.tracer, trace.ScopeLookup, "load:"+name, 0)
		asm, err := c.load(name)
		if err != nil {
			span.End(err.Error())
			return nil, false, &AssemblyResolutionError{Assembly: name, Err: err}
		}
		span.WithExtra("version", asm.Version).End("")
		return asm, true, nil
	})
	return asm, err
}

func (c *Context) load(name string) (*metadata.Assembly, error) {
	if c.resolver == nil {
		return nil, fmt.Errorf("no assembly resolver configured: %w", metadata.ErrAssemblyNotFound)
	}
	asm, err := c.resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	if asm == nil || asm.Main == nil {
		return nil, metadata.ErrAssemblyNotFound
	}
	return asm, nil
}

// typeDef finds the definition for name as seen from m. Negative results are
// cached like positive ones.
func (c *Context) typeDef(m *metadata.Module, name TypeName) (*metadata.TypeDef, bool, error) {
	return c.typeDefs.get(typeDefKey{module: m, name: name}, func() (*metadata.TypeDef, bool, error) {
		def, err := c.findTypeDef(m, name)
		if err != nil {
			return nil, false, err
		}
		if def == nil {
			if def, err = c.redirect(m, name); err != nil {
				return nil, false, err
			}
		}
		if def == nil {
			trace.Point(c.tracer, trace.ScopeMember, 0, "absent-type", name.String())
			return nil, false, nil
		}
		return def, true, nil
	})
}

// findTypeDef looks name up directly, then through forwarder chains.
func (c *Context) findTypeDef(m *metadata.Module, name TypeName) (*metadata.TypeDef, error) {
	asm, err := c.assembly(m, name.Assembly)
	if err != nil {
		return nil, err
	}
	visited := map[*metadata.Assembly]bool{}
	for {
		if def := asm.Main.Type(name.Namespace, name.Name); def != nil {
			return def, nil
		}
		visited[asm] = true
		fwd, ok := asm.Main.Forwarder(name.Namespace, name.Name)
		if !ok {
			return nil, nil
		}
		next, err := c.assembly(m, fwd.Scope)
		if err != nil {
			return nil, err
		}
		if visited[next] {
			trace.Point(c.tracer, trace.ScopeMember, 0, "forwarder-cycle", name.String())
			return nil, nil
		}
		asm = next
	}
}

// redirect applies the first matching redirect. An unloadable target means
// the type is absent: the descriptor's own assembly was found.
func (c *Context) redirect(m *metadata.Module, name TypeName) (*metadata.TypeDef, error) {
	for _, r := range c.redirects {
		if r.Assembly != metadata.SimpleName(name.Assembly) || r.Namespace != name.Namespace {
			continue
		}
		target := name
		target.Assembly = r.Target
		def, err := c.findTypeDef(m, target)
		if err != nil && errors.Is(err, metadata.ErrAssemblyNotFound) {
			return nil, nil
		}
		return def, err
	}
	return nil, nil
}

// definitionOf maps a named or instantiated reference back to its definition.
func (c *Context) definitionOf(m *metadata.Module, ref *metadata.TypeRef) (*metadata.TypeDef, bool, error) {
	switch ref.Kind {
	case metadata.KindNamed:
		return c.typeDef(m, TypeName{Assembly: ref.Scope, Namespace: ref.Namespace, Name: ref.Name})
	case metadata.KindGenericInstance:
		return c.definitionOf(m, ref.Elem)
	default:
		return nil, false, nil
	}
}

// canonical rewrites every named type inside t to the scope of the assembly
// that defines it, so a signature declared against a forwarding facade
// compares equal to the resolved descriptor. Names that cannot be found keep
// their declared scope.
func (c *Context) canonical(m *metadata.Module, t *metadata.TypeRef) *metadata.TypeRef {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case metadata.KindNamed:
		def, ok, err := c.typeDef(m, TypeName{Assembly: t.Scope, Namespace: t.Namespace, Name: t.Name})
		if !ok || err != nil {
			return t
		}
		if ref := def.Ref(); ref.Scope != t.Scope {
			return ref
		}
		return t
	case metadata.KindArray:
		elem := c.canonical(m, t.Elem)
		if elem == t.Elem {
			return t
		}
		return metadata.ArrayOf(elem)
	case metadata.KindGenericInstance:
		open := c.canonical(m, t.Elem)
		changed := open != t.Elem
		args := make([]*metadata.TypeRef, len(t.Args))
		for i, a := range t.Args {
			args[i] = c.canonical(m, a)
			changed = changed || args[i] != a
		}
		if !changed {
			return t
		}
		return metadata.Instance(open, args...)
	}
	return t
}
