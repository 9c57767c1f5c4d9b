package main

import (
	"reflect"
	"testing"

	"mdref/internal/request"
)

func TestParseShellLine(t *testing.T) {
	two, yes := 2, true
	tests := []struct {
		line string
		want request.Request
	}{
		{
			line: "type [A]N.List<[A]N.X, [A]N.Y>",
			want: request.Request{Kind: request.KindType, Type: "[A]N.List<[A]N.X, [A]N.Y>"},
		},
		{
			line: "ctor [A]N.T ([A]N.X, [A]N.Map<[A]N.K,[A]N.V>)",
			want: request.Request{Kind: request.KindCtor, Type: "[A]N.T", Params: []string{"[A]N.X", "[A]N.Map<[A]N.K,[A]N.V>"}},
		},
		{
			line: "ctor [A]N.T ()",
			want: request.Request{Kind: request.KindCtor, Type: "[A]N.T", Params: []string{}},
		},
		{
			line: "method [A]N.T Add #2 returns void",
			want: request.Request{Kind: request.KindMethod, Type: "[A]N.T", Name: "Add", Count: &two, Returns: "void"},
		},
		{
			line: "get [A]N.T Count flatten",
			want: request.Request{Kind: request.KindGetter, Type: "[A]N.T", Name: "Count", Flatten: true},
		},
		{
			line: "field [A]N.T Empty static",
			want: request.Request{Kind: request.KindField, Type: "[A]N.T", Name: "Empty", Static: &yes},
		},
		{
			line: "field  [A]N.T  _items",
			want: request.Request{Kind: request.KindField, Type: "[A]N.T", Name: "_items"},
		},
	}
	for _, tt := range tests {
		got, err := parseShellLine(tt.line)
		if err != nil {
			t.Errorf("%q: %v", tt.line, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q:\n got %+v\nwant %+v", tt.line, got, tt.want)
		}
	}
}

func TestParseShellLineErrors(t *testing.T) {
	for _, line := range []string{
		"lookup [A]N.T",
		"type",
		"method [A]N.T",
		"ctor [A]N.T #x",
		"ctor [A]N.T (",
		"ctor [A]N.T ([A]N.X,)",
		"get [A]N.T Count returns",
		"type [A]N.T>",
		"field [A]N.T x extra",
	} {
		if _, err := parseShellLine(line); err == nil {
			t.Errorf("%q: expected an error", line)
		}
	}
}

func TestCompleteKind(t *testing.T) {
	if got := completeKind("f"); !reflect.DeepEqual(got, []string{"field "}) {
		t.Fatalf("completeKind(f) = %v", got)
	}
	if got := completeKind(":"); len(got) != 3 {
		t.Fatalf("completeKind(:) = %v", got)
	}
}
