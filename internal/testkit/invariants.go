// Package testkit checks structural invariants of imported references. It
// is used by tests across packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"mdref/internal/metadata"
)

// CheckTypeRef verifies that t is m's canonical row for itself, that it
// lives in the table matching its kind, and that the same holds for every
// component type.
func CheckTypeRef(m *metadata.Module, t *metadata.TypeRef) error {
	if t == nil {
		return nil
	}
	types, _ := m.RefCounts()
	return checkType(m, t, types)
}

func checkType(m *metadata.Module, t *metadata.TypeRef, rows int) error {
	if t == nil {
		return nil
	}
	want := metadata.TableTypeSpec
	if t.Kind == metadata.KindNamed {
		want = metadata.TableTypeRef
	}
	if t.Token.Table() != want {
		return fmt.Errorf("%s: token %s in table %s, want %s", t, t.Token, t.Token.Table(), want)
	}
	if err := checkRow(t.Token, rows); err != nil {
		return fmt.Errorf("%s: %w", t, err)
	}
	if again := m.ImportType(t); again != t {
		return fmt.Errorf("%s: re-import returned a different row (%s)", t, again.Token)
	}
	if err := checkType(m, t.Elem, rows); err != nil {
		return err
	}
	for _, a := range t.Args {
		if err := checkType(m, a, rows); err != nil {
			return err
		}
	}
	return nil
}

// CheckMethodRef verifies the member row of r and that its signature agrees
// with the definition it was imported from, bound to the declaring instance.
func CheckMethodRef(m *metadata.Module, r *metadata.MethodRef) error {
	if r == nil || r.Def == nil {
		return fmt.Errorf("method reference without definition")
	}
	if err := checkMember(m, r.Token, r.DeclaringType); err != nil {
		return fmt.Errorf("%s: %w", r, err)
	}
	if r.Name != r.Def.Name {
		return fmt.Errorf("%s: name differs from definition %q", r, r.Def.Name)
	}
	if r.HasThis == r.Def.Static {
		return fmt.Errorf("%s: HasThis=%v for static=%v", r, r.HasThis, r.Def.Static)
	}
	if len(r.Params) != len(r.Def.Params) {
		return fmt.Errorf("%s: %d params, definition has %d", r, len(r.Params), len(r.Def.Params))
	}
	sig := append([]*metadata.TypeRef{r.Return}, r.Params...)
	for _, p := range sig {
		if err := CheckTypeRef(m, p); err != nil {
			return err
		}
		if err := checkBound(r.DeclaringType, p); err != nil {
			return fmt.Errorf("%s: %w", r, err)
		}
	}
	return nil
}

// CheckFieldRef is CheckMethodRef for fields.
func CheckFieldRef(m *metadata.Module, r *metadata.FieldRef) error {
	if r == nil || r.Def == nil {
		return fmt.Errorf("field reference without definition")
	}
	if err := checkMember(m, r.Token, r.DeclaringType); err != nil {
		return fmt.Errorf("%s: %w", r, err)
	}
	if err := CheckTypeRef(m, r.Type); err != nil {
		return err
	}
	if err := checkBound(r.DeclaringType, r.Type); err != nil {
		return fmt.Errorf("%s: %w", r, err)
	}
	return nil
}

func checkMember(m *metadata.Module, tok metadata.Token, owner *metadata.TypeRef) error {
	if tok.Table() != metadata.TableMemberRef {
		return fmt.Errorf("token %s is not a member reference", tok)
	}
	_, members := m.RefCounts()
	if err := checkRow(tok, members); err != nil {
		return err
	}
	if owner == nil {
		return fmt.Errorf("no declaring type")
	}
	return CheckTypeRef(m, owner)
}

func checkRow(tok metadata.Token, rows int) error {
	limit, err := safecast.Conv[uint32](rows)
	if err != nil {
		return fmt.Errorf("row count overflow: %w", err)
	}
	if row := tok.Row(); row == 0 || row > limit {
		return fmt.Errorf("row %d outside 1..%d", row, limit)
	}
	return nil
}

// checkBound rejects class type parameters left in a signature whose
// declaring type is a closed instance.
func checkBound(owner, t *metadata.TypeRef) error {
	if owner == nil || owner.Kind != metadata.KindGenericInstance || t == nil {
		return nil
	}
	if t.Kind == metadata.KindGenericParam {
		return fmt.Errorf("unbound type parameter %s on %s", t, owner)
	}
	if err := checkBound(owner, t.Elem); err != nil {
		return err
	}
	for _, a := range t.Args {
		if err := checkBound(owner, a); err != nil {
			return err
		}
	}
	return nil
}
