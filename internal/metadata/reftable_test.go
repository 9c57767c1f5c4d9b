package metadata

import "testing"

func newCoreLib() *Assembly {
	core := NewAssembly("Core", "v1.0.0")
	core.Main.AddType(NewTypeDef("System", "Int32"))
	list := core.Main.AddType(NewTypeDef("System.Collections", "List", "T"))
	list.AddMethod(NewCtor())
	list.AddMethod(NewMethod("Add", nil, GenericParam(0)))
	list.AddField(&FieldDef{Name: "items", Type: ArrayOf(GenericParam(0)), Private: true})
	return core
}

func TestImportTypeInterns(t *testing.T) {
	dest := NewAssembly("App", "").Main
	a := dest.ImportType(MustParseTypeRef("[Core]System.Collections.List<[Core]System.Int32>"))
	b := dest.ImportType(MustParseTypeRef("[Core]System.Collections.List<[Core]System.Int32>"))
	if a != b {
		t.Fatalf("importing the same structure twice must return the same row")
	}
	if a.Token.Table() != TableTypeSpec || a.Elem.Token.Table() != TableTypeRef {
		t.Fatalf("unexpected tables: %v %v", a.Token, a.Elem.Token)
	}
	types, _ := dest.RefCounts()
	if types != 3 {
		t.Fatalf("expected 3 type rows (List, Int32, List<Int32>), got %d", types)
	}
}

func TestImportMethodBindsInstanceSignature(t *testing.T) {
	core := newCoreLib()
	dest := NewAssembly("App", "").Main
	list := core.Main.Type("System.Collections", "List")
	closed := Instance(list.Ref(), core.Main.Type("System", "Int32").Ref())

	add := dest.ImportMethod(list.Methods[1], closed)
	if got, want := add.String(), "void [Core]System.Collections.List<[Core]System.Int32>::Add([Core]System.Int32)"; got != want {
		t.Fatalf("ImportMethod = %q, want %q", got, want)
	}
	if again := dest.ImportMethod(list.Methods[1], closed); again != add {
		t.Fatalf("method import must be interned")
	}
	field := dest.ImportField(list.Fields[0], closed)
	if got, want := field.Type.String(), "[Core]System.Int32[]"; got != want {
		t.Fatalf("field type = %q, want %q", got, want)
	}
	if field.Token.Table() != TableMemberRef || add.Token == field.Token {
		t.Fatalf("member tokens must be distinct member-ref rows")
	}
}

func TestForwarderLookup(t *testing.T) {
	facade := NewAssembly("Facade", "")
	facade.Main.Forward("System", "Int32", "Core")
	et, ok := facade.Main.Forwarder("System", "Int32")
	if !ok || et.Scope != "Core" {
		t.Fatalf("forwarder not found: %+v", et)
	}
	if _, ok := facade.Main.Forwarder("System", "Int64"); ok {
		t.Fatalf("unexpected forwarder")
	}
}
