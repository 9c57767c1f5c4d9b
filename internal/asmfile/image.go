// Package asmfile reads and writes assembly images: the on-disk form of a
// metadata.Assembly. Images are authored as TOML (".asm.toml") and may be
// packed to msgpack (".asm.mp") for faster loading.
package asmfile

import (
	"errors"
	"fmt"

	"golang.org/x/mod/semver"
	"golang.org/x/text/unicode/norm"

	"mdref/internal/metadata"
)

// SchemaVersion is written to every image; readers reject newer schemas.
const SchemaVersion uint16 = 1

var (
	// ErrSchema reports an image written by a newer mdref.
	ErrSchema = errors.New("unsupported image schema")
	// ErrInvalidImage reports structurally invalid image content.
	ErrInvalidImage = errors.New("invalid assembly image")
)

// Image is the serialized form of one assembly.
type Image struct {
	Schema     uint16           `toml:"schema" msgpack:"schema"`
	Name       string           `toml:"name" msgpack:"name"`
	Version    string           `toml:"version,omitempty" msgpack:"version,omitempty"`
	Types      []TypeImage      `toml:"types,omitempty" msgpack:"types,omitempty"`
	Forwarders []ForwarderImage `toml:"forwarders,omitempty" msgpack:"forwarders,omitempty"`
}

// TypeImage describes a type definition. Type expressions use the
// metadata.ParseTypeRef grammar; unscoped names belong to the image's own
// assembly.
type TypeImage struct {
	Namespace  string          `toml:"namespace" msgpack:"ns"`
	Name       string          `toml:"name" msgpack:"name"`
	Generic    []string        `toml:"generic,omitempty" msgpack:"generic,omitempty"`
	Base       string          `toml:"base,omitempty" msgpack:"base,omitempty"`
	Methods    []MethodImage   `toml:"methods,omitempty" msgpack:"methods,omitempty"`
	Properties []PropertyImage `toml:"properties,omitempty" msgpack:"props,omitempty"`
	Fields     []FieldImage    `toml:"fields,omitempty" msgpack:"fields,omitempty"`
}

// MethodImage describes a method; constructors are named ".ctor".
type MethodImage struct {
	Name    string       `toml:"name" msgpack:"name"`
	Static  bool         `toml:"static,omitempty" msgpack:"static,omitempty"`
	Private bool         `toml:"private,omitempty" msgpack:"private,omitempty"`
	Params  []ParamImage `toml:"params,omitempty" msgpack:"params,omitempty"`
	Returns string       `toml:"returns,omitempty" msgpack:"returns,omitempty"`
}

type ParamImage struct {
	Name string `toml:"name,omitempty" msgpack:"name,omitempty"`
	Type string `toml:"type" msgpack:"type"`
}

// PropertyImage describes a property. Accessors are synthesized as
// get_Name and set_Name and placed after the first Slot ordinary methods;
// without a Slot they follow every ordinary method. Slots never decrease
// in property order.
type PropertyImage struct {
	Name   string `toml:"name" msgpack:"name"`
	Type   string `toml:"type" msgpack:"type"`
	Get    bool   `toml:"get,omitempty" msgpack:"get,omitempty"`
	Set    bool   `toml:"set,omitempty" msgpack:"set,omitempty"`
	Static bool   `toml:"static,omitempty" msgpack:"static,omitempty"`
	Slot   *int   `toml:"slot,omitempty" msgpack:"slot,omitempty"`
}

type FieldImage struct {
	Name    string `toml:"name" msgpack:"name"`
	Type    string `toml:"type" msgpack:"type"`
	Static  bool   `toml:"static,omitempty" msgpack:"static,omitempty"`
	Private bool   `toml:"private,omitempty" msgpack:"private,omitempty"`
}

// ForwarderImage is an exported-type entry forwarding Namespace.Name to the
// assembly Scope.
type ForwarderImage struct {
	Namespace string `toml:"namespace" msgpack:"ns"`
	Name      string `toml:"name" msgpack:"name"`
	Scope     string `toml:"scope" msgpack:"scope"`
}

// Build validates img and constructs the assembly it describes. Identifiers
// are normalized to NFC so descriptors match regardless of how the file
// was authored.
func (img *Image) Build() (*metadata.Assembly, error) {
	if img.Schema > SchemaVersion {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrSchema, img.Schema, SchemaVersion)
	}
	name := nfc(img.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing assembly name", ErrInvalidImage)
	}
	if img.Version != "" && !semver.IsValid(img.Version) {
		return nil, fmt.Errorf("%w: %s: version %q is not a semantic version", ErrInvalidImage, name, img.Version)
	}
	asm := metadata.NewAssembly(name, img.Version)
	for i := range img.Types {
		if err := buildType(asm.Main, &img.Types[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	for _, f := range img.Forwarders {
		if f.Name == "" || f.Scope == "" {
			return nil, fmt.Errorf("%w: %s: forwarder needs name and scope", ErrInvalidImage, name)
		}
		asm.Main.Forward(nfc(f.Namespace), nfc(f.Name), nfc(f.Scope))
	}
	return asm, nil
}

func buildType(m *metadata.Module, ti *TypeImage) error {
	if ti.Name == "" {
		return fmt.Errorf("%w: type without a name", ErrInvalidImage)
	}
	generic := make([]string, len(ti.Generic))
	for i, g := range ti.Generic {
		generic[i] = nfc(g)
	}
	def := metadata.NewTypeDef(nfc(ti.Namespace), nfc(ti.Name), generic...)
	if m.Type(def.Namespace, def.Name) != nil {
		return fmt.Errorf("%w: duplicate type %s", ErrInvalidImage, def.FullName())
	}
	var err error
	if ti.Base != "" {
		if def.Base, err = parseType(ti.Base); err != nil {
			return fmt.Errorf("%s base: %w", def.FullName(), err)
		}
	}
	m.AddType(def)

	methods := make([]*metadata.MethodDef, 0, len(ti.Methods))
	for _, mi := range ti.Methods {
		md := &metadata.MethodDef{Name: nfc(mi.Name), Static: mi.Static, Private: mi.Private}
		if md.Name == "" {
			return fmt.Errorf("%w: %s: method without a name", ErrInvalidImage, def.FullName())
		}
		if mi.Returns != "" {
			if md.Return, err = parseType(mi.Returns); err != nil {
				return fmt.Errorf("%s::%s: %w", def.FullName(), md.Name, err)
			}
		}
		for _, pi := range mi.Params {
			pt, err := parseType(pi.Type)
			if err != nil {
				return fmt.Errorf("%s::%s: %w", def.FullName(), md.Name, err)
			}
			md.Params = append(md.Params, metadata.Param{Name: nfc(pi.Name), Type: pt})
		}
		methods = append(methods, md)
	}

	props := make([]*metadata.PropertyDef, len(ti.Properties))
	slots := make([]int, len(ti.Properties))
	for i, pi := range ti.Properties {
		pt, err := parseType(pi.Type)
		if err != nil {
			return fmt.Errorf("%s::%s: %w", def.FullName(), pi.Name, err)
		}
		props[i] = metadata.NewProperty(nfc(pi.Name), pt, pi.Get, pi.Set, pi.Static)
		slots[i] = len(methods)
		if pi.Slot != nil {
			slots[i] = *pi.Slot
		}
		if slots[i] < 0 || slots[i] > len(methods) || (i > 0 && slots[i] < slots[i-1]) {
			return fmt.Errorf("%w: %s::%s: slot %d out of order", ErrInvalidImage, def.FullName(), pi.Name, slots[i])
		}
	}

	// Interleave so accessors keep their declaration position.
	next := 0
	for i := 0; i <= len(methods); i++ {
		for ; next < len(props) && slots[next] == i; next++ {
			def.AddProperty(props[next])
		}
		if i < len(methods) {
			def.AddMethod(methods[i])
		}
	}
	for _, fi := range ti.Fields {
		ft, err := parseType(fi.Type)
		if err != nil {
			return fmt.Errorf("%s::%s: %w", def.FullName(), fi.Name, err)
		}
		def.AddField(&metadata.FieldDef{Name: nfc(fi.Name), Type: ft, Static: fi.Static, Private: fi.Private})
	}
	return nil
}

func parseType(s string) (*metadata.TypeRef, error) {
	t, err := metadata.ParseTypeRef(nfc(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return t, nil
}

func nfc(s string) string { return norm.NFC.String(s) }

// FromAssembly captures asm as an image. Property accessors are folded back
// into their properties.
func FromAssembly(asm *metadata.Assembly) *Image {
	img := &Image{Schema: SchemaVersion, Name: asm.Name, Version: asm.Version}
	for _, def := range asm.Main.Types {
		img.Types = append(img.Types, typeImage(def))
	}
	for _, et := range asm.Main.ExportedTypes {
		if et.Forwarder {
			img.Forwarders = append(img.Forwarders, ForwarderImage{Namespace: et.Namespace, Name: et.Name, Scope: et.Scope})
		}
	}
	return img
}

func typeImage(def *metadata.TypeDef) TypeImage {
	scope := def.Module.Assembly.Name
	ti := TypeImage{
		Namespace: def.Namespace,
		Name:      def.Name,
		Generic:   append([]string(nil), def.GenericParams...),
		Base:      typeString(def.Base, scope),
	}
	// slot counts the ordinary methods declared before each accessor.
	slot := map[*metadata.MethodDef]int{}
	ordinary := 0
	for _, md := range def.Methods {
		if isAccessor(def, md) {
			slot[md] = ordinary
			continue
		}
		ordinary++
		mi := MethodImage{Name: md.Name, Static: md.Static, Private: md.Private, Returns: typeString(md.Return, scope)}
		for _, p := range md.Params {
			mi.Params = append(mi.Params, ParamImage{Name: p.Name, Type: typeString(p.Type, scope)})
		}
		ti.Methods = append(ti.Methods, mi)
	}
	for _, p := range def.Properties {
		pi := PropertyImage{
			Name: p.Name,
			Type: typeString(p.Type, scope),
			Get:  p.Getter != nil,
			Set:  p.Setter != nil,
		}
		first := p.Getter
		if first == nil {
			first = p.Setter
		}
		if first != nil {
			pi.Static = (p.Getter != nil && p.Getter.Static) || (p.Setter != nil && p.Setter.Static)
			if at := slot[first]; at < ordinary {
				pi.Slot = &at
			}
		}
		ti.Properties = append(ti.Properties, pi)
	}
	for _, f := range def.Fields {
		ti.Fields = append(ti.Fields, FieldImage{Name: f.Name, Type: typeString(f.Type, scope), Static: f.Static, Private: f.Private})
	}
	return ti
}

func isAccessor(def *metadata.TypeDef, md *metadata.MethodDef) bool {
	for _, p := range def.Properties {
		if p.Getter == md || p.Setter == md {
			return true
		}
	}
	return false
}

// typeString renders t, dropping the scope of the image's own assembly.
func typeString(t *metadata.TypeRef, own string) string {
	if t == nil {
		return ""
	}
	return unscope(t, own).String()
}

func unscope(t *metadata.TypeRef, own string) *metadata.TypeRef {
	cp := *t
	if cp.Kind == metadata.KindNamed && cp.Scope == own {
		cp.Scope = ""
	}
	if cp.Elem != nil {
		cp.Elem = unscope(cp.Elem, own)
	}
	if len(cp.Args) > 0 {
		cp.Args = make([]*metadata.TypeRef, len(t.Args))
		for i, a := range t.Args {
			cp.Args[i] = unscope(a, own)
		}
	}
	return &cp
}
