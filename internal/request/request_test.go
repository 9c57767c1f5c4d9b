package request_test

import (
	"errors"
	"strings"
	"testing"

	"mdref/internal/metadata"
	"mdref/internal/request"
)

const sample = `
module: App
requests:
  - id: list-type
    kind: type
    type: "[System.Private.CoreLib]System.Collections.Generic.List"
    of: ["[System.Private.CoreLib]System.Int32"]
  - kind: ctor
    type: "[System.Private.CoreLib]System.Collections.Generic.List<[System.Private.CoreLib]System.Int32>"
    params: ["[System.Private.CoreLib]System.Int32"]
  - kind: method
    type: "[System.Private.CoreLib]System.Collections.Generic.List<[System.Private.CoreLib]System.Int32>"
    name: Add
    count: 1
    returns: void
  - kind: getter
    type: "[MyAssembly]MyNs.Widget"
    name: Name
    flatten: true
  - kind: field
    type: "[MyAssembly]MyNs.Element"
    name: NameProperty
`

func TestParseAndCompile(t *testing.T) {
	f, err := request.Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if f.Module != "App" || len(f.Requests) != 5 {
		t.Fatalf("unexpected file %+v", f)
	}
	qs, err := f.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if got := qs[0].Type.String(); got != "[System.Private.CoreLib]System.Collections.Generic.List<[System.Private.CoreLib]System.Int32>" {
		t.Fatalf("of not applied: %s", got)
	}
	if qs[0].Label() != "list-type" {
		t.Fatalf("label = %q", qs[0].Label())
	}
	if !strings.HasSuffix(qs[1].Label(), "::.ctor([System.Private.CoreLib]System.Int32)") {
		t.Fatalf("ctor label = %q", qs[1].Label())
	}
	if got := qs[2].Selector.String(); got != "(#1) where returns void" {
		t.Fatalf("method selector = %q", got)
	}
	if !qs[3].Property.Flatten || qs[3].Kind != request.KindGetter {
		t.Fatalf("getter query = %+v", qs[3])
	}
	if qs[4].Field.Name != "" {
		t.Fatalf("field filter should be unset")
	}
}

func TestReturnsFilterMatchesRenderedType(t *testing.T) {
	q, err := request.Request{
		Kind:    request.KindMethod,
		Type:    "[A]N.T",
		Name:    "Get",
		Count:   new(int),
		Returns: " [System.Private.CoreLib]System.Int32 ",
	}.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if got := q.Selector.String(); got != "(#0) where returns [System.Private.CoreLib]System.Int32" {
		t.Fatalf("selector = %q", got)
	}
}

func TestStaticFilterCombinesWithReturns(t *testing.T) {
	yes, no := true, false
	q, err := request.Request{
		Kind:    request.KindMethod,
		Type:    "[A]N.T",
		Name:    "Parse",
		Count:   new(int),
		Static:  &yes,
		Returns: "[A]N.T",
	}.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if got := q.Selector.String(); got != "(#0) where static, returns [A]N.T" {
		t.Fatalf("selector = %q", got)
	}

	f, err := request.Request{Kind: request.KindField, Type: "[A]N.T", Name: "Empty", Static: &no}.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if f.Field.Name != "instance" {
		t.Fatalf("field filter = %q", f.Field.Name)
	}
	if !f.Field.Match(&metadata.FieldDef{Name: "Empty"}) || f.Field.Match(&metadata.FieldDef{Name: "Empty", Static: true}) {
		t.Fatal("instance filter accepted the wrong field")
	}

	g, err := request.Request{Kind: request.KindGetter, Type: "[A]N.T", Name: "Default", Static: &yes}.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if !g.Property.Filter.Match(metadata.NewProperty("Default", metadata.Named("A", "N", "T"), true, false, true)) {
		t.Fatal("static filter rejected a static property")
	}
}

func TestCompileErrors(t *testing.T) {
	one := 1
	tests := []struct {
		name string
		req  request.Request
		want error
	}{
		{"unknown kind", request.Request{Kind: "event", Type: "[A]N.T"}, request.ErrUnknownKind},
		{"missing name", request.Request{Kind: request.KindMethod, Type: "[A]N.T"}, request.ErrMissingName},
		{"params and count", request.Request{Kind: request.KindCtor, Type: "[A]N.T", Params: []string{"[A]N.U"}, Count: &one}, request.ErrSelector},
		{"flatten on method", request.Request{Kind: request.KindMethod, Type: "[A]N.T", Name: "M", Flatten: true}, request.ErrNotApplies},
		{"name on type", request.Request{Kind: request.KindType, Type: "[A]N.T", Name: "M"}, request.ErrNotApplies},
		{"count on field", request.Request{Kind: request.KindField, Type: "[A]N.T", Name: "F", Count: &one}, request.ErrNotApplies},
		{"returns on ctor", request.Request{Kind: request.KindCtor, Type: "[A]N.T", Returns: "[A]N.U"}, request.ErrNotApplies},
		{"static on ctor", request.Request{Kind: request.KindCtor, Type: "[A]N.T", Static: new(bool)}, request.ErrNotApplies},
		{"static on type", request.Request{Kind: request.KindType, Type: "[A]N.T", Static: new(bool)}, request.ErrNotApplies},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.req.Compile(); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := (request.Request{Kind: request.KindType, Type: "N.T"}).Compile(); err == nil {
		t.Fatal("unscoped type accepted")
	}
}

func TestFileCompileCollectsErrors(t *testing.T) {
	f := &request.File{Module: "App", Requests: []request.Request{
		{ID: "ok", Kind: request.KindType, Type: "[A]N.T"},
		{ID: "bad", Kind: "nope", Type: "[A]N.T"},
		{Kind: request.KindMethod, Type: "[A]N.T"},
	}}
	qs, err := f.Compile()
	if len(qs) != 1 {
		t.Fatalf("compiled %d queries", len(qs))
	}
	if err == nil || !strings.Contains(err.Error(), "request bad") || !strings.Contains(err.Error(), "request #3") {
		t.Fatalf("unexpected error %v", err)
	}
	if !errors.Is(err, request.ErrUnknownKind) || !errors.Is(err, request.ErrMissingName) {
		t.Fatalf("joined error lost its causes: %v", err)
	}
}

func TestParseRejectsUnknownKeysAndMissingModule(t *testing.T) {
	if _, err := request.Parse([]byte("module: App\nrequests:\n  - kind: type\n    typ: x\n")); err == nil {
		t.Fatal("unknown key accepted")
	}
	if _, err := request.Parse([]byte("requests: []\n")); !errors.Is(err, request.ErrNoModule) {
		t.Fatalf("expected ErrNoModule, got %v", err)
	}
}

func TestCtorNameIsOptional(t *testing.T) {
	q, err := request.Request{Kind: request.KindCtor, Type: "[A]N.T", Name: metadata.CtorName}.Compile()
	if err != nil || q.Selector.String() != "()" {
		t.Fatalf("ctor with explicit name: %v %q", err, q.Selector.String())
	}
}
