package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mdref/internal/resolve"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%v err=%v", ok, err)
	}
	want, _ := filepath.Abs(filepath.Join(root, ManifestName))
	if got != want {
		t.Fatalf("manifest = %q, want %q", got, want)
	}
}

func TestLoadManifest(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, `
[resolver]
search_paths = ["lib", "/opt/refs"]
jobs = 3

[[resolver.redirects]]
assembly = "System"
namespace = "System.Xml"
target = "System.Xml"

[trace]
level = "detail"
output = "out/trace.ndjson"
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Resolver.Jobs != 3 {
		t.Fatalf("jobs = %d", m.Resolver.Jobs)
	}
	if len(m.Resolver.SearchPaths) != 2 || m.Resolver.SearchPaths[0] != filepath.Join(m.Root, "lib") {
		t.Fatalf("search paths = %v", m.Resolver.SearchPaths)
	}
	if m.Trace.Output != filepath.Join(m.Root, "out", "trace.ndjson") {
		t.Fatalf("trace output = %q", m.Trace.Output)
	}
	redirects := m.Redirects()
	if len(redirects) != 1+len(resolve.DefaultRedirects) || redirects[0].Target != "System.Xml" {
		t.Fatalf("redirects = %+v", redirects)
	}
}

func TestRedirectDefaults(t *testing.T) {
	var none *Manifest
	if none.Redirects() != nil {
		t.Fatal("nil manifest must keep the defaults")
	}
	m := &Manifest{}
	if m.Redirects() != nil {
		t.Fatal("empty manifest must keep the defaults")
	}
	m.Resolver.NoDefaultRedirects = true
	if got := m.Redirects(); got == nil || len(got) != 0 {
		t.Fatalf("no_default_redirects must disable redirects, got %v", got)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"negative jobs", "[resolver]\njobs = -1\n", ErrInvalidJobs},
		{"empty redirect", "[[resolver.redirects]]\nassembly = \"A\"\n", ErrInvalidRedirect},
		{"escaping output", "[trace]\noutput = \"../x.log\"\n", ErrOutputEscapesRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(writeManifest(t, t.TempDir(), tt.src))
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := LoadManifest(writeManifest(t, t.TempDir(), "[resolver\n")); err == nil {
		t.Fatal("malformed TOML accepted")
	}
}
