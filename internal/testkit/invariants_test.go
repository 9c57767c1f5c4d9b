package testkit

import (
	"strings"
	"testing"

	"mdref/internal/metadata"
)

func destination() *metadata.Module { return metadata.NewAssembly("App", "").Main }

func TestCheckTypeRefAcceptsImportedRows(t *testing.T) {
	m := destination()
	ref := m.ImportType(metadata.MustParseTypeRef("[A]N.List<[A]N.X[]>"))
	if err := CheckTypeRef(m, ref); err != nil {
		t.Fatal(err)
	}
}

func TestCheckTypeRefRejectsForeignRows(t *testing.T) {
	m := destination()
	other := destination()
	foreign := other.ImportType(metadata.MustParseTypeRef("[A]N.X"))
	m.ImportType(metadata.MustParseTypeRef("[A]N.Y"))
	err := CheckTypeRef(m, foreign)
	if err == nil || !strings.Contains(err.Error(), "re-import") {
		t.Fatalf("expected a canonical-row error, got %v", err)
	}
}

func TestCheckMethodRef(t *testing.T) {
	asm := metadata.NewAssembly("A", "")
	def := asm.Main.AddType(metadata.NewTypeDef("N", "Box", "T"))
	put := def.AddMethod(metadata.NewMethod("Put", nil, metadata.GenericParam(0)))

	m := destination()
	owner := metadata.Instance(def.Ref(), metadata.Named("A", "N", "X"))
	ref := m.ImportMethod(put, owner)
	if err := CheckMethodRef(m, ref); err != nil {
		t.Fatal(err)
	}

	broken := *ref
	broken.Params = []*metadata.TypeRef{m.ImportType(metadata.GenericParam(0))}
	if err := CheckMethodRef(m, &broken); err == nil || !strings.Contains(err.Error(), "unbound") {
		t.Fatalf("expected an unbound parameter error, got %v", err)
	}
	broken = *ref
	broken.HasThis = false
	if err := CheckMethodRef(m, &broken); err == nil {
		t.Fatal("expected a HasThis error")
	}
}
