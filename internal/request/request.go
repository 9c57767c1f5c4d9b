// Package request reads batches of symbolic lookups from YAML and compiles
// them into resolver queries.
package request

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"mdref/internal/metadata"
	"mdref/internal/resolve"
)

// Kind selects the resolver operation a request runs.
type Kind string

const (
	KindType   Kind = "type"
	KindCtor   Kind = "ctor"
	KindMethod Kind = "method"
	KindGetter Kind = "getter"
	KindSetter Kind = "setter"
	KindField  Kind = "field"
)

// Kinds lists every request kind in display order.
var Kinds = []Kind{KindType, KindCtor, KindMethod, KindGetter, KindSetter, KindField}

var (
	ErrNoModule    = errors.New("request file needs a module")
	ErrUnknownKind = errors.New("unknown request kind")
	ErrMissingName = errors.New("member requests need a name")
	ErrSelector    = errors.New("give either params or count, not both")
	ErrNotApplies  = errors.New("field does not apply to this kind")
)

// File is a request file: the destination module and the lookups to run
// against it.
type File struct {
	Module   string    `yaml:"module"`
	Requests []Request `yaml:"requests"`
}

// Request is one symbolic lookup as written in YAML. Params selects an
// overload by exact parameter types and Count by arity; with neither the
// parameterless overload is chosen. Returns filters on the method return
// type, or on the property or field type. Static, when set, keeps only
// static (true) or instance (false) members.
type Request struct {
	ID      string   `yaml:"id,omitempty"`
	Kind    Kind     `yaml:"kind"`
	Type    string   `yaml:"type"`
	Of      []string `yaml:"of,omitempty"`
	Name    string   `yaml:"name,omitempty"`
	Params  []string `yaml:"params,omitempty"`
	Count   *int     `yaml:"count,omitempty"`
	Returns string   `yaml:"returns,omitempty"`
	Flatten bool     `yaml:"flatten,omitempty"`
	Static  *bool    `yaml:"static,omitempty"`
}

// Query is a compiled request.
type Query struct {
	ID       string
	Kind     Kind
	Type     resolve.TypeDesc
	Name     string
	Selector resolve.Selector
	Property resolve.PropertyQuery
	Field    resolve.Filter[*metadata.FieldDef]
}

// Label names q in output: its ID, or the lookup itself.
func (q Query) Label() string {
	if q.ID != "" {
		return q.ID
	}
	return q.String()
}

func (q Query) String() string {
	switch q.Kind {
	case KindType:
		return q.Type.String()
	case KindCtor:
		return q.Type.String() + "::.ctor" + q.Selector.String()
	case KindMethod:
		return q.Type.String() + "::" + q.Name + q.Selector.String()
	default:
		return string(q.Kind) + " " + q.Type.String() + "::" + q.Name
	}
}

// Read loads a request file from path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a request file, rejecting unknown keys.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	f.Module = nfc(f.Module)
	if f.Module == "" {
		return nil, ErrNoModule
	}
	return &f, nil
}

// Compile compiles every request, collecting one error per bad entry.
func (f *File) Compile() ([]Query, error) {
	out := make([]Query, 0, len(f.Requests))
	var errs []error
	for i, r := range f.Requests {
		q, err := r.Compile()
		if err != nil {
			label := r.ID
			if label == "" {
				label = fmt.Sprintf("#%d", i+1)
			}
			errs = append(errs, fmt.Errorf("request %s: %w", label, err))
			continue
		}
		out = append(out, q)
	}
	return out, errors.Join(errs...)
}

// Compile validates r and builds its query.
func (r Request) Compile() (Query, error) {
	q := Query{ID: r.ID, Kind: Kind(strings.ToLower(strings.TrimSpace(string(r.Kind)))), Name: nfc(r.Name)}
	if !validKind(q.Kind) {
		return Query{}, fmt.Errorf("%w %q", ErrUnknownKind, r.Kind)
	}
	typ, err := resolve.ParseTypeDesc(nfc(r.Type))
	if err != nil {
		return Query{}, fmt.Errorf("type: %w", err)
	}
	if len(r.Of) > 0 {
		if len(typ.Args) > 0 {
			return Query{}, fmt.Errorf("of: type %s is already closed", typ)
		}
		args, err := parseDescs(r.Of)
		if err != nil {
			return Query{}, fmt.Errorf("of: %w", err)
		}
		typ = typ.Of(args...)
	}
	q.Type = typ

	if q.Kind == KindType {
		if q.Name != "" || r.Params != nil || r.Count != nil || r.Returns != "" || r.Flatten || r.Static != nil {
			return Query{}, fmt.Errorf("%w: type requests take only type and of", ErrNotApplies)
		}
		return q, nil
	}
	if q.Kind != KindCtor && q.Name == "" {
		return Query{}, ErrMissingName
	}
	if q.Kind == KindCtor && q.Name != "" && q.Name != metadata.CtorName {
		return Query{}, fmt.Errorf("%w: name on ctor", ErrNotApplies)
	}
	if r.Flatten && q.Kind != KindGetter && q.Kind != KindSetter {
		return Query{}, fmt.Errorf("%w: flatten on %s", ErrNotApplies, q.Kind)
	}

	returns, err := returnsText(r.Returns)
	if err != nil {
		return Query{}, fmt.Errorf("returns: %w", err)
	}
	if q.Kind == KindCtor && (returns != "" || r.Static != nil) {
		return Query{}, fmt.Errorf("%w: returns or static on ctor", ErrNotApplies)
	}

	switch q.Kind {
	case KindCtor, KindMethod:
		if r.Params != nil && r.Count != nil {
			return Query{}, ErrSelector
		}
		if r.Count != nil {
			q.Selector = resolve.ParamCount(*r.Count)
		} else {
			params, err := parseDescs(r.Params)
			if err != nil {
				return Query{}, fmt.Errorf("params: %w", err)
			}
			q.Selector = resolve.ParamTypes(params...)
		}
		var preds []predicate[*metadata.MethodDef]
		if r.Static != nil {
			want := *r.Static
			preds = append(preds, predicate[*metadata.MethodDef]{staticName(want), func(md *metadata.MethodDef) bool { return md.Static == want }})
		}
		if returns != "" {
			preds = append(preds, predicate[*metadata.MethodDef]{"returns " + returns, func(md *metadata.MethodDef) bool { return md.Return.String() == returns }})
		}
		if len(preds) > 0 {
			q.Selector = q.Selector.Where(combine(preds))
		}
	case KindGetter, KindSetter:
		if r.Params != nil || r.Count != nil {
			return Query{}, fmt.Errorf("%w: params on %s", ErrNotApplies, q.Kind)
		}
		q.Property.Flatten = r.Flatten
		var preds []predicate[*metadata.PropertyDef]
		if r.Static != nil {
			want := *r.Static
			preds = append(preds, predicate[*metadata.PropertyDef]{staticName(want), func(p *metadata.PropertyDef) bool { return staticProperty(p) == want }})
		}
		if returns != "" {
			preds = append(preds, predicate[*metadata.PropertyDef]{"type " + returns, func(p *metadata.PropertyDef) bool { return p.Type.String() == returns }})
		}
		q.Property.Filter = combine(preds)
	case KindField:
		if r.Params != nil || r.Count != nil {
			return Query{}, fmt.Errorf("%w: params on field", ErrNotApplies)
		}
		var preds []predicate[*metadata.FieldDef]
		if r.Static != nil {
			want := *r.Static
			preds = append(preds, predicate[*metadata.FieldDef]{staticName(want), func(f *metadata.FieldDef) bool { return f.Static == want }})
		}
		if returns != "" {
			preds = append(preds, predicate[*metadata.FieldDef]{"type " + returns, func(f *metadata.FieldDef) bool { return f.Type.String() == returns }})
		}
		q.Field = combine(preds)
	}
	return q, nil
}

// predicate is one named condition of a request filter.
type predicate[T any] struct {
	name  string
	match func(T) bool
}

// combine joins preds into one filter accepting what all of them accept.
// Its name lists the conditions in order, so equal requests share a cache
// entry. No predicates give the empty filter.
func combine[T any](preds []predicate[T]) resolve.Filter[T] {
	if len(preds) == 0 {
		return resolve.Filter[T]{}
	}
	names := make([]string, len(preds))
	for i, p := range preds {
		names[i] = p.name
	}
	return resolve.Filter[T]{
		Name: strings.Join(names, ", "),
		Match: func(v T) bool {
			for _, p := range preds {
				if !p.match(v) {
					return false
				}
			}
			return true
		},
	}
}

func staticName(static bool) string {
	if static {
		return "static"
	}
	return "instance"
}

// staticProperty reports whether p's accessors are static.
func staticProperty(p *metadata.PropertyDef) bool {
	return (p.Getter != nil && p.Getter.Static) || (p.Setter != nil && p.Setter.Static)
}

func validKind(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func parseDescs(src []string) ([]resolve.TypeDesc, error) {
	out := make([]resolve.TypeDesc, len(src))
	for i, s := range src {
		d, err := resolve.ParseTypeDesc(nfc(s))
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// returnsText canonicalizes a type filter. Definitions may mention generic
// parameters, so the filter compares rendered references.
func returnsText(s string) (string, error) {
	s = strings.TrimSpace(nfc(s))
	if s == "" || s == "void" {
		return s, nil
	}
	t, err := metadata.ParseTypeRef(s)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

func nfc(s string) string { return norm.NFC.String(s) }
