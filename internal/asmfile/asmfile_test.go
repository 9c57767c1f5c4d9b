package asmfile_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mdref/internal/asmfile"
	"mdref/internal/metadata"
)

const widgetsTOML = `
schema = 1
name = "Widgets"
version = "v1.2.0"

[[types]]
namespace = "Ui"
name = "Element"
base = "[System.Private.CoreLib]System.Object"

  [[types.methods]]
  name = ".ctor"

  [[types.methods]]
  name = "Measure"
  returns = "[System.Private.CoreLib]System.Double"
    [[types.methods.params]]
    name = "width"
    type = "[System.Private.CoreLib]System.Double"

  [[types.properties]]
  name = "Name"
  type = "[System.Private.CoreLib]System.String"
  get = true
  set = true

  [[types.fields]]
  name = "NameProperty"
  type = "Ui.Property"
  static = true

[[types]]
namespace = "Ui"
name = "Property"

[[types]]
namespace = "Ui"
name = "Box"
generic = ["T"]
base = "Ui.Element"

  [[types.properties]]
  name = "Content"
  type = "!0"
  get = true

[[forwarders]]
namespace = "Ui.Legacy"
name = "Panel"
scope = "Widgets.Compat"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTOML(t *testing.T) {
	asm, err := asmfile.Load(writeFile(t, "Widgets"+asmfile.TOMLExt, widgetsTOML))
	if err != nil {
		t.Fatal(err)
	}
	if asm.Name != "Widgets" || asm.Version != "v1.2.0" || len(asm.Main.Types) != 3 {
		t.Fatalf("unexpected assembly %+v", asm)
	}
	element := asm.Main.Type("Ui", "Element")
	if element == nil {
		t.Fatal("Ui.Element missing")
	}
	// .ctor, Measure, get_Name, set_Name
	if len(element.Methods) != 4 || element.Methods[2].Name != "get_Name" {
		t.Fatalf("unexpected methods: %d", len(element.Methods))
	}
	if got := element.Fields[0].Type.String(); got != "[Widgets]Ui.Property" {
		t.Fatalf("own-assembly type not qualified: %s", got)
	}
	box := asm.Main.Type("Ui", "Box")
	if box.Base.String() != "[Widgets]Ui.Element" || len(box.GenericParams) != 1 {
		t.Fatalf("unexpected Box %s %v", box.Base, box.GenericParams)
	}
	fwd, ok := asm.Main.Forwarder("Ui.Legacy", "Panel")
	if !ok || fwd.Scope != "Widgets.Compat" {
		t.Fatalf("forwarder missing: %+v", fwd)
	}
}

func TestPackRoundTrip(t *testing.T) {
	asm, err := asmfile.Load(writeFile(t, "Widgets"+asmfile.TOMLExt, widgetsTOML))
	if err != nil {
		t.Fatal(err)
	}
	packed := filepath.Join(t.TempDir(), "out", "Widgets"+asmfile.PackExt)
	if err := asmfile.WritePack(packed, asmfile.FromAssembly(asm)); err != nil {
		t.Fatal(err)
	}
	again, err := asmfile.Load(packed)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(asmfile.FromAssembly(asm), asmfile.FromAssembly(again)) {
		t.Fatalf("packed image differs from source")
	}
	entries, _ := os.ReadDir(filepath.Dir(packed))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestFromAssemblyFoldsAccessors(t *testing.T) {
	asm, err := asmfile.Load(writeFile(t, "Widgets"+asmfile.TOMLExt, widgetsTOML))
	if err != nil {
		t.Fatal(err)
	}
	img := asmfile.FromAssembly(asm)
	element := img.Types[0]
	if len(element.Methods) != 2 || len(element.Properties) != 1 {
		t.Fatalf("accessors leaked into methods: %+v", element.Methods)
	}
	if element.Fields[0].Type != "Ui.Property" {
		t.Fatalf("own scope should be dropped, got %q", element.Fields[0].Type)
	}

	var sb strings.Builder
	if err := asmfile.WriteTOML(&sb, img); err != nil {
		t.Fatal(err)
	}
	back, err := asmfile.DecodeTOML(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("re-decoding written TOML: %v", err)
	}
	if !reflect.DeepEqual(back, img) {
		t.Fatalf("TOML rendering is lossy")
	}
}

func TestPackKeepsAccessorPositions(t *testing.T) {
	asm := metadata.NewAssembly("Widgets", "v1.0.0")
	def := asm.Main.AddType(metadata.NewTypeDef("Ui", "Label"))
	text := metadata.Named("System.Private.CoreLib", "System", "String")
	def.AddMethod(metadata.NewCtor())
	def.AddProperty(metadata.NewProperty("Text", text, true, true, false))
	def.AddMethod(metadata.NewMethod("Measure", nil))
	def.AddProperty(metadata.NewProperty("Tail", text, true, false, false))

	packed := filepath.Join(t.TempDir(), "Widgets"+asmfile.PackExt)
	if err := asmfile.WritePack(packed, asmfile.FromAssembly(asm)); err != nil {
		t.Fatal(err)
	}
	again, err := asmfile.Load(packed)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, md := range again.Main.Type("Ui", "Label").Methods {
		names = append(names, md.Name)
	}
	want := []string{".ctor", "get_Text", "set_Text", "Measure", "get_Tail"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("methods = %v, want %v", names, want)
	}

	img := asmfile.FromAssembly(again)
	props := img.Types[0].Properties
	if props[0].Slot == nil || *props[0].Slot != 1 || props[1].Slot != nil {
		t.Fatalf("slots = %v, %v", props[0].Slot, props[1].Slot)
	}
}

func TestRejectsInvalidImages(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown key", "name = \"A\"\nbogus = 1\n", asmfile.ErrInvalidImage},
		{"bad version", "name = \"A\"\nversion = \"1.0\"\n", asmfile.ErrInvalidImage},
		{"newer schema", "schema = 99\nname = \"A\"\n", asmfile.ErrSchema},
		{"missing name", "version = \"v1.0.0\"\n", asmfile.ErrInvalidImage},
		{"bad type", "name = \"A\"\n[[types]]\nname = \"T\"\nbase = \"List<\"\n", asmfile.ErrInvalidImage},
		{"duplicate type", "name = \"A\"\n[[types]]\nname = \"T\"\n[[types]]\nname = \"T\"\n", asmfile.ErrInvalidImage},
		{"slot past methods", "name = \"A\"\n[[types]]\nname = \"T\"\n[[types.properties]]\nname = \"P\"\ntype = \"T\"\nget = true\nslot = 1\n", asmfile.ErrInvalidImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := asmfile.Load(writeFile(t, "A"+asmfile.TOMLExt, tt.src))
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIdentifiersAreNFC(t *testing.T) {
	// Decomposed accents in the file, precomposed in the metadata.
	src := "name = \"Cafe\\u0301\"\n[[types]]\nnamespace = \"Me\\u0301nu\"\nname = \"Item\"\n"
	asm, err := asmfile.Load(writeFile(t, "Cafe"+asmfile.TOMLExt, src))
	if err != nil {
		t.Fatal(err)
	}
	if asm.Name != "Caf\u00e9" || asm.Main.Type("M\u00e9nu", "Item") == nil {
		t.Fatalf("identifiers not normalized: %q", asm.Name)
	}
}

func TestNameFromPath(t *testing.T) {
	for in, want := range map[string]string{
		"lib/System.Runtime.asm.mp": "System.Runtime",
		"System.Runtime.asm.toml":   "System.Runtime",
		"/x/y/netstandard.asm.toml": "netstandard",
		"readme.txt":                "readme.txt",
	} {
		if got := asmfile.NameFromPath(in); got != want {
			t.Errorf("NameFromPath(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := asmfile.Read(writeFile(t, "a.json", "{}")); !errors.Is(err, asmfile.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}
