package metadata

import (
	"encoding/binary"
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Token identifies a row in a module's reference table. The high byte names
// the table, the low 24 bits the 1-based row.
type Token uint32

// Reference table tags.
const (
	TableTypeRef   Token = 0x01 << 24
	TableMemberRef Token = 0x0a << 24
	TableTypeSpec  Token = 0x1b << 24

	rowMask Token = 0x00ffffff
)

// Table returns the table tag of tok.
func (tok Token) Table() Token { return tok &^ rowMask }

// Row returns the 1-based row of tok.
func (tok Token) Row() uint32 { return uint32(tok & rowMask) }

func (tok Token) String() string { return fmt.Sprintf("0x%08x", uint32(tok)) }

// MethodRef is an imported method. Params and Return are expressed against
// DeclaringType, so members of closed generic instances carry bound types.
type MethodRef struct {
	DeclaringType *TypeRef
	Name          string
	HasThis       bool
	Return        *TypeRef
	Params        []*TypeRef
	Def           *MethodDef
	Token         Token
}

func (r *MethodRef) String() string {
	var sb []byte
	sb = append(sb, r.Return.String()...)
	sb = append(sb, ' ')
	sb = append(sb, r.DeclaringType.String()...)
	sb = append(sb, "::"...)
	sb = append(sb, r.Name...)
	sb = append(sb, '(')
	for i, p := range r.Params {
		if i > 0 {
			sb = append(sb, ',')
		}
		sb = append(sb, p.String()...)
	}
	sb = append(sb, ')')
	return string(sb)
}

// FieldRef is an imported field.
type FieldRef struct {
	DeclaringType *TypeRef
	Name          string
	Type          *TypeRef
	Def           *FieldDef
	Token         Token
}

func (r *FieldRef) String() string {
	return r.Type.String() + " " + r.DeclaringType.String() + "::" + r.Name
}

type typeKey struct {
	kind  TypeKind
	scope string
	ns    string
	name  string
	elem  Token
	args  string // little-endian tokens of the arguments
	pos   int
}

type memberKey struct {
	field bool
	owner Token
	name  string
	sig   string // return token followed by parameter tokens
}

// refTable interns imported references so every structurally distinct
// reference occupies exactly one row.
type refTable struct {
	mu      sync.Mutex
	types   map[typeKey]*TypeRef
	members map[memberKey]any
	named   int
	specs   int
	memRows int
}

func newRefTable() *refTable {
	return &refTable{
		types:   make(map[typeKey]*TypeRef, 64),
		members: make(map[memberKey]any, 64),
	}
}

func nextRow(counter *int, table Token) Token {
	*counter++
	row, err := safecast.Conv[uint32](*counter)
	if err != nil || Token(row) > rowMask {
		panic(fmt.Errorf("reference table overflow: %v", err))
	}
	return table | Token(row)
}

func appendToken(buf []byte, tok Token) []byte {
	return binary.LittleEndian.AppendUint32(buf, uint32(tok))
}

func (r *refTable) importType(t *TypeRef) *TypeRef {
	if t == nil {
		return nil
	}
	key := typeKey{kind: t.Kind, scope: t.Scope, ns: t.Namespace, name: t.Name, pos: t.Position}
	var elem *TypeRef
	if t.Elem != nil {
		elem = r.importType(t.Elem)
		key.elem = elem.Token
	}
	var args []*TypeRef
	if len(t.Args) > 0 {
		args = make([]*TypeRef, len(t.Args))
		buf := make([]byte, 0, 4*len(t.Args))
		for i, a := range t.Args {
			args[i] = r.importType(a)
			buf = appendToken(buf, args[i].Token)
		}
		key.args = string(buf)
	}
	if got, ok := r.types[key]; ok {
		return got
	}
	row := &TypeRef{
		Kind:      t.Kind,
		Scope:     t.Scope,
		Namespace: t.Namespace,
		Name:      t.Name,
		Elem:      elem,
		Args:      args,
		Position:  t.Position,
	}
	if t.Kind == KindNamed {
		row.Token = nextRow(&r.named, TableTypeRef)
	} else {
		row.Token = nextRow(&r.specs, TableTypeSpec)
	}
	r.types[key] = row
	return row
}

// ImportType returns m's canonical reference for t.
func (m *Module) ImportType(t *TypeRef) *TypeRef {
	m.refs.mu.Lock()
	defer m.refs.mu.Unlock()
	return m.refs.importType(t)
}

// ImportMethod imports def as a member of owner. When owner is a generic
// instance the signature is bound to its arguments.
func (m *Module) ImportMethod(def *MethodDef, owner *TypeRef) *MethodRef {
	m.refs.mu.Lock()
	defer m.refs.mu.Unlock()

	decl := m.refs.importType(owner)
	bound := InstanceArgs(decl)
	ret := m.refs.importType(Subst(def.Return, bound))
	params := make([]*TypeRef, len(def.Params))
	sig := make([]byte, 0, 4*(len(def.Params)+1))
	if ret != nil {
		sig = appendToken(sig, ret.Token)
	} else {
		sig = appendToken(sig, 0)
	}
	for i, p := range def.Params {
		params[i] = m.refs.importType(Subst(p.Type, bound))
		sig = appendToken(sig, params[i].Token)
	}
	key := memberKey{owner: decl.Token, name: def.Name, sig: string(sig)}
	if got, ok := m.refs.members[key]; ok {
		return got.(*MethodRef)
	}
	ref := &MethodRef{
		DeclaringType: decl,
		Name:          def.Name,
		HasThis:       !def.Static,
		Return:        ret,
		Params:        params,
		Def:           def,
		Token:         nextRow(&m.refs.memRows, TableMemberRef),
	}
	m.refs.members[key] = ref
	return ref
}

// ImportField imports def as a member of owner.
func (m *Module) ImportField(def *FieldDef, owner *TypeRef) *FieldRef {
	m.refs.mu.Lock()
	defer m.refs.mu.Unlock()

	decl := m.refs.importType(owner)
	typ := m.refs.importType(Subst(def.Type, InstanceArgs(decl)))
	var typTok Token
	if typ != nil {
		typTok = typ.Token
	}
	key := memberKey{field: true, owner: decl.Token, name: def.Name, sig: string(appendToken(nil, typTok))}
	if got, ok := m.refs.members[key]; ok {
		return got.(*FieldRef)
	}
	ref := &FieldRef{
		DeclaringType: decl,
		Name:          def.Name,
		Type:          typ,
		Def:           def,
		Token:         nextRow(&m.refs.memRows, TableMemberRef),
	}
	m.refs.members[key] = ref
	return ref
}

// RefCounts reports the number of type and member rows imported into m.
func (m *Module) RefCounts() (types, members int) {
	m.refs.mu.Lock()
	defer m.refs.mu.Unlock()
	return len(m.refs.types), len(m.refs.members)
}
