package metadata

import (
	"errors"
	"strings"
)

// ErrAssemblyNotFound is returned by resolvers when no image exists for a name.
var ErrAssemblyNotFound = errors.New("assembly not found")

// AssemblyResolver locates assemblies by simple name.
type AssemblyResolver interface {
	Resolve(name string) (*Assembly, error)
}

// ResolverFunc adapts a function to AssemblyResolver.
type ResolverFunc func(name string) (*Assembly, error)

// Resolve calls f(name).
func (f ResolverFunc) Resolve(name string) (*Assembly, error) { return f(name) }

// Assembly is a named, versioned unit holding one main module.
type Assembly struct {
	Name    string
	Version string // semantic version, e.g. "v8.0.0"; may be empty
	Main    *Module
}

// NewAssembly creates an assembly with an empty main module.
func NewAssembly(name, version string) *Assembly {
	a := &Assembly{Name: name, Version: version}
	a.Main = &Module{
		Name:     name + ".dll",
		Assembly: a,
		byName:   make(map[qualName]*TypeDef),
		refs:     newRefTable(),
	}
	return a
}

// SimpleName strips display-name attributes ("Name, Version=..., Culture=...").
func SimpleName(display string) string {
	if i := strings.IndexByte(display, ','); i >= 0 {
		display = display[:i]
	}
	return strings.TrimSpace(display)
}

type qualName struct{ ns, name string }

// ExportedType is an entry of a module's exported-type table.
type ExportedType struct {
	Namespace string
	Name      string
	Forwarder bool
	Scope     string // assembly that defines the type when Forwarder is set
}

// Module holds type definitions, the exported-type table and the
// reference table used when the module is a compilation destination.
type Module struct {
	Name          string
	Assembly      *Assembly
	Types         []*TypeDef
	ExportedTypes []ExportedType

	byName map[qualName]*TypeDef
	refs   *refTable
}

// AddType registers def in declaration order and returns it.
func (m *Module) AddType(def *TypeDef) *TypeDef {
	def.Module = m
	m.Types = append(m.Types, def)
	m.byName[qualName{def.Namespace, def.Name}] = def
	if def.Base != nil {
		def.Base = Qualify(def.Base, m.Assembly.Name)
	}
	for _, md := range def.Methods {
		def.qualifyMethod(md)
	}
	for _, p := range def.Properties {
		p.Type = Qualify(p.Type, m.Assembly.Name)
	}
	for _, f := range def.Fields {
		f.Type = Qualify(f.Type, m.Assembly.Name)
	}
	return def
}

// Type returns the definition for ns.name declared directly in m, or nil.
func (m *Module) Type(ns, name string) *TypeDef {
	return m.byName[qualName{ns, name}]
}

// Forward appends a forwarder for ns.name pointing at scope.
func (m *Module) Forward(ns, name, scope string) {
	m.ExportedTypes = append(m.ExportedTypes, ExportedType{
		Namespace: ns,
		Name:      name,
		Forwarder: true,
		Scope:     scope,
	})
}

// Forwarder returns the first forwarder entry matching ns.name.
func (m *Module) Forwarder(ns, name string) (ExportedType, bool) {
	for _, et := range m.ExportedTypes {
		if et.Forwarder && et.Namespace == ns && et.Name == name {
			return et, true
		}
	}
	return ExportedType{}, false
}
