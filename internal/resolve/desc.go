package resolve

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"fortio.org/safecast"

	"mdref/internal/metadata"
)

// TypeName is the (assembly, namespace, name) triple of a descriptor.
type TypeName struct {
	Assembly  string
	Namespace string
	Name      string
}

func (n TypeName) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(n.Assembly)
	sb.WriteByte(']')
	if n.Namespace != "" {
		sb.WriteString(n.Namespace)
		sb.WriteByte('.')
	}
	sb.WriteString(n.Name)
	return sb.String()
}

// TypeDesc symbolically names a type, optionally closed over generic
// arguments and optionally wrapped in an array. Equality is exact on every
// field.
type TypeDesc struct {
	TypeName
	Args  []TypeDesc
	Array bool
}

// Type returns the descriptor of a plain named type.
func Type(assembly, ns, name string) TypeDesc {
	return TypeDesc{TypeName: TypeName{Assembly: assembly, Namespace: ns, Name: name}}
}

// Of returns a copy of d closed over args.
func (d TypeDesc) Of(args ...TypeDesc) TypeDesc {
	d.Args = append([]TypeDesc(nil), args...)
	return d
}

// ArrayOf returns a copy of d wrapped in an array.
func (d TypeDesc) ArrayOf() TypeDesc {
	d.Array = true
	return d
}

func (d TypeDesc) element() TypeDesc {
	d.Array = false
	return d
}

func (d TypeDesc) String() string {
	var sb strings.Builder
	d.write(&sb)
	return sb.String()
}

func (d TypeDesc) write(sb *strings.Builder) {
	sb.WriteString(d.TypeName.String())
	if len(d.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range d.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.write(sb)
		}
		sb.WriteByte('>')
	}
	if d.Array {
		sb.WriteString("[]")
	}
}

// ParseTypeDesc parses the textual type form (see metadata.ParseTypeRef).
// Every named type must carry an assembly scope; generic parameters and
// nested arrays are rejected.
func ParseTypeDesc(s string) (TypeDesc, error) {
	ref, err := metadata.ParseTypeRef(s)
	if err != nil {
		return TypeDesc{}, err
	}
	return descFromRef(ref)
}

func descFromRef(ref *metadata.TypeRef) (TypeDesc, error) {
	switch ref.Kind {
	case metadata.KindNamed:
		if ref.Scope == "" {
			return TypeDesc{}, fmt.Errorf("type %q has no assembly scope", ref.String())
		}
		return Type(ref.Scope, ref.Namespace, ref.Name), nil
	case metadata.KindGenericInstance:
		open, err := descFromRef(ref.Elem)
		if err != nil {
			return TypeDesc{}, err
		}
		open.Args = make([]TypeDesc, len(ref.Args))
		for i, a := range ref.Args {
			if open.Args[i], err = descFromRef(a); err != nil {
				return TypeDesc{}, err
			}
		}
		return open, nil
	case metadata.KindArray:
		elem, err := descFromRef(ref.Elem)
		if err != nil {
			return TypeDesc{}, err
		}
		if elem.Array {
			return TypeDesc{}, fmt.Errorf("type %q: nested arrays are not supported", ref.String())
		}
		return elem.ArrayOf(), nil
	default:
		return TypeDesc{}, fmt.Errorf("type %q: generic parameters are not descriptors", ref.String())
	}
}

// descID is the interned identity of a TypeDesc within one Context.
type descID uint32

type descKey struct {
	name  TypeName
	args  string // little-endian descIDs of the arguments
	array bool
}

// descTable assigns structural identities to descriptors so cache keys stay
// comparable without stringifying them.
type descTable struct {
	mu    sync.Mutex
	index map[descKey]descID
}

func (t *descTable) intern(d TypeDesc) descID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.internLocked(d)
}

func (t *descTable) internLocked(d TypeDesc) descID {
	key := descKey{name: d.TypeName, array: d.Array}
	if len(d.Args) > 0 {
		buf := make([]byte, 0, 4*len(d.Args))
		for _, a := range d.Args {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(t.internLocked(a)))
		}
		key.args = string(buf)
	}
	if id, ok := t.index[key]; ok {
		return id
	}
	next, err := safecast.Conv[uint32](len(t.index) + 1)
	if err != nil {
		panic(fmt.Errorf("descriptor table overflow: %w", err))
	}
	if t.index == nil {
		t.index = make(map[descKey]descID, 64)
	}
	t.index[key] = descID(next)
	return descID(next)
}

func (t *descTable) encode(ds []TypeDesc) string {
	if len(ds) == 0 {
		return ""
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	buf := make([]byte, 0, 4*len(ds))
	for _, d := range ds {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(t.internLocked(d)))
	}
	return string(buf)
}
