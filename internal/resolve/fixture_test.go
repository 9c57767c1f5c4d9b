package resolve_test

import (
	"fmt"
	"sync"

	"mdref/internal/metadata"
	"mdref/internal/resolve"
)

const coreLib = "System.Private.CoreLib"

var (
	int32Desc  = resolve.Type(coreLib, "System", "Int32")
	stringDesc = resolve.Type(coreLib, "System", "String")
	listDesc   = resolve.Type(coreLib, "System.Collections.Generic", "List")
)

func ref(s string) *metadata.TypeRef { return metadata.MustParseTypeRef(s) }

// countingResolver serves a fixed set of assemblies and counts every call.
type countingResolver struct {
	mu    sync.Mutex
	asms  map[string]*metadata.Assembly
	calls map[string]int
}

func (r *countingResolver) Resolve(name string) (*metadata.Assembly, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[name]++
	if a, ok := r.asms[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%s: %w", name, metadata.ErrAssemblyNotFound)
}

func (r *countingResolver) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func newUniverse(skip ...string) *countingResolver {
	r := &countingResolver{asms: map[string]*metadata.Assembly{}, calls: map[string]int{}}
	for _, a := range []*metadata.Assembly{
		buildCoreLib(), buildRuntimeFacade(), buildNetStandard(),
		buildMscorlib(), buildReflection(), buildMyAssembly(),
	} {
		r.asms[a.Name] = a
	}
	for _, name := range skip {
		delete(r.asms, name)
	}
	return r
}

func buildCoreLib() *metadata.Assembly {
	core := metadata.NewAssembly(coreLib, "v8.0.0")
	mod := core.Main
	mod.AddType(metadata.NewTypeDef("System", "Object")).AddMethod(metadata.NewCtor())
	mod.AddType(metadata.NewTypeDef("System", "Int32"))
	mod.AddType(metadata.NewTypeDef("System", "String"))

	enumerable := metadata.NewTypeDef("System.Collections.Generic", "IEnumerable", "T")
	mod.AddType(enumerable)

	list := metadata.NewTypeDef("System.Collections.Generic", "List", "T")
	list.Base = ref("System.Object")
	mod.AddType(list)
	list.AddMethod(&metadata.MethodDef{Name: metadata.StaticCtorName, Static: true})
	list.AddMethod(&metadata.MethodDef{Name: metadata.CtorName, Private: true,
		Params: []metadata.Param{{Name: "tag", Type: ref("System.String")}}})
	list.AddMethod(metadata.NewCtor())
	list.AddMethod(metadata.NewCtor(ref("System.Int32")))
	list.AddMethod(metadata.NewCtor(ref("System.Collections.Generic.IEnumerable<!0>")))
	list.AddMethod(metadata.NewMethod("Add", nil, metadata.GenericParam(0)))
	list.AddMethod(metadata.NewMethod("Contains", ref("System.Boolean"), metadata.GenericParam(0)))
	list.AddMethod(metadata.NewMethod("Add", ref("System.Int32"), ref("System.String")))
	list.AddProperty(metadata.NewProperty("Count", ref("System.Int32"), true, false, false))
	list.AddProperty(metadata.NewProperty("Item", metadata.GenericParam(0), true, true, false))
	list.AddField(&metadata.FieldDef{Name: "_items", Type: metadata.ArrayOf(metadata.GenericParam(0)), Private: true})
	list.AddField(&metadata.FieldDef{Name: "_size", Type: ref("System.Int32"), Private: true})
	return core
}

// System.Runtime forwards Int32 to CoreLib; netstandard forwards to System.Runtime.
func buildRuntimeFacade() *metadata.Assembly {
	rt := metadata.NewAssembly("System.Runtime", "v8.0.0")
	rt.Main.Forward("System", "Int32", coreLib)
	rt.Main.Forward("System", "String", coreLib)
	return rt
}

func buildNetStandard() *metadata.Assembly {
	ns := metadata.NewAssembly("netstandard", "v2.1.0")
	ns.Main.Forward("System", "Int32", "System.Runtime")
	ns.Main.Forward("System", "Loop", "netstandard")
	return ns
}

func buildMscorlib() *metadata.Assembly {
	ms := metadata.NewAssembly("mscorlib", "v4.0.0")
	ms.Main.AddType(metadata.NewTypeDef("System", "Object"))
	return ms
}

func buildReflection() *metadata.Assembly {
	refl := metadata.NewAssembly("System.Reflection", "v4.0.0")
	refl.Main.AddType(metadata.NewTypeDef("System.Reflection", "MethodInfo"))
	return refl
}

func buildMyAssembly() *metadata.Assembly {
	my := metadata.NewAssembly("MyAssembly", "v1.0.0")
	mod := my.Main

	element := metadata.NewTypeDef("MyNs", "Element")
	element.Base = ref("[System.Private.CoreLib]System.Object")
	mod.AddType(element)
	element.AddProperty(metadata.NewProperty("Name", ref("[System.Private.CoreLib]System.String"), true, true, false))
	element.AddProperty(metadata.NewProperty("Id", ref("[System.Private.CoreLib]System.Int32"), true, false, false))
	element.AddField(&metadata.FieldDef{Name: "NameProperty", Type: ref("[System.Private.CoreLib]System.Object"), Static: true})

	widget := metadata.NewTypeDef("MyNs", "Widget")
	widget.Base = ref("MyNs.Element")
	mod.AddType(widget)
	widget.AddProperty(metadata.NewProperty("Size", ref("[System.Private.CoreLib]System.Int32"), true, false, false))
	widget.AddProperty(metadata.NewProperty("Id", ref("[System.Private.CoreLib]System.String"), false, true, false))

	holder := metadata.NewTypeDef("MyNs", "Holder", "T")
	mod.AddType(holder)
	holder.AddProperty(metadata.NewProperty("Value", metadata.GenericParam(0), true, true, false))

	intHolder := metadata.NewTypeDef("MyNs", "IntHolder")
	intHolder.Base = ref("MyNs.Holder<[System.Private.CoreLib]System.Int32>")
	mod.AddType(intHolder)

	// Box declares its signatures through the System.Runtime facade.
	box := metadata.NewTypeDef("MyNs", "Box")
	mod.AddType(box)
	box.AddMethod(metadata.NewCtor(ref("[System.Runtime]System.String")))
	box.AddMethod(metadata.NewCtor(ref("[System.Runtime]System.Int32")))
	box.AddMethod(metadata.NewMethod("Fill", nil, metadata.ArrayOf(ref("[netstandard]System.Int32"))))
	return my
}

func newDestination() *metadata.Module {
	app := metadata.NewAssembly("App", "v0.1.0")
	app.Main.AddType(metadata.NewTypeDef("App", "MainPage"))
	return app.Main
}
