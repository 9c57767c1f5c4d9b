package resolve

import (
	"errors"
	"fmt"

	"mdref/internal/metadata"
)

// ErrAnonymousFilter is returned when a filter has a Match function but no
// Name. The name is the filter's identity in the caches.
var ErrAnonymousFilter = errors.New("filter with Match must have a Name")

// Filter narrows candidate members. Two filters with the same Name must
// accept the same members; results are cached under that name.
type Filter[T any] struct {
	Name  string
	Match func(T) bool
}

func (f Filter[T]) accepts(v T) bool {
	return f.Match == nil || f.Match(v)
}

func (f Filter[T]) validate() error {
	if f.Match != nil && f.Name == "" {
		return ErrAnonymousFilter
	}
	return nil
}

// cacheName is the filter's cache identity; an unset filter is "".
func (f Filter[T]) cacheName() string {
	if f.Match == nil {
		return ""
	}
	return f.Name
}

type selectorKind uint8

const (
	selectParamCount selectorKind = iota + 1
	selectParamTypes
)

// Selector chooses among overloads. Build one with ParamTypes or
// ParamCount and optionally narrow it with Where.
type Selector struct {
	kind   selectorKind
	params []TypeDesc
	count  int
	filter Filter[*metadata.MethodDef]
}

// ParamTypes selects the overload whose parameter types match params
// exactly, in order.
func ParamTypes(params ...TypeDesc) Selector {
	return Selector{
		kind:   selectParamTypes,
		params: append([]TypeDesc(nil), params...),
		count:  len(params),
	}
}

// ParamCount selects the first overload, in declaration order, with n
// parameters.
func ParamCount(n int) Selector {
	return Selector{kind: selectParamCount, count: n}
}

// Where adds a custom filter to s.
func (s Selector) Where(f Filter[*metadata.MethodDef]) Selector {
	s.filter = f
	return s
}

func (s Selector) validate() error {
	switch s.kind {
	case selectParamCount:
		if s.count < 0 {
			return fmt.Errorf("negative parameter count %d", s.count)
		}
	case selectParamTypes:
	default:
		return errors.New("selector must be built with ParamTypes or ParamCount")
	}
	return s.filter.validate()
}

func (s Selector) String() string {
	var out string
	if s.kind == selectParamTypes {
		out = "("
		for i, p := range s.params {
			if i > 0 {
				out += ","
			}
			out += p.String()
		}
		out += ")"
	} else {
		out = fmt.Sprintf("(#%d)", s.count)
	}
	if name := s.filter.cacheName(); name != "" {
		out += " where " + name
	}
	return out
}

type selectorKey struct {
	kind   selectorKind
	count  int
	params string
	filter string
}

// matches reports whether md satisfies s. want holds the resolved parameter
// types for ParamTypes selectors; bound holds the declaring instance's
// arguments so open signatures are compared after binding. canon maps a
// bound parameter to its defining scope before the comparison.
func (s Selector) matches(md *metadata.MethodDef, want, bound []*metadata.TypeRef, canon func(*metadata.TypeRef) *metadata.TypeRef) bool {
	if len(md.Params) != s.count {
		return false
	}
	if s.kind == selectParamTypes {
		for i, p := range md.Params {
			if !metadata.Equal(canon(metadata.Subst(p.Type, bound)), want[i]) {
				return false
			}
		}
	}
	return s.filter.accepts(md)
}

// PropertyQuery narrows a property lookup. Flatten also searches base
// types, most-derived first.
type PropertyQuery struct {
	Filter  Filter[*metadata.PropertyDef]
	Flatten bool
}
