package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"mdref/internal/resolve"
)

var (
	// ErrInvalidRedirect indicates a [[resolver.redirects]] entry with an empty field.
	ErrInvalidRedirect = errors.New("redirect needs assembly, namespace and target")
	// ErrInvalidJobs indicates a negative [resolver].jobs.
	ErrInvalidJobs = errors.New("jobs must not be negative")
	// ErrOutputEscapesRoot indicates a relative [trace].output that leaves the project root.
	ErrOutputEscapesRoot = errors.New("trace output escapes project root")
)

// RedirectSpec is one [[resolver.redirects]] entry.
type RedirectSpec struct {
	Assembly  string `toml:"assembly"`
	Namespace string `toml:"namespace"`
	Target    string `toml:"target"`
}

// ResolverConfig is the [resolver] section.
type ResolverConfig struct {
	SearchPaths        []string       `toml:"search_paths"`
	Jobs               int            `toml:"jobs"`
	Redirects          []RedirectSpec `toml:"redirects"`
	NoDefaultRedirects bool           `toml:"no_default_redirects"`
}

// TraceConfig is the [trace] section; flags override it.
type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

// Manifest is a parsed mdref.toml. Paths are absolute after loading.
type Manifest struct {
	Path     string         `toml:"-"`
	Root     string         `toml:"-"`
	Resolver ResolverConfig `toml:"resolver"`
	Trace    TraceConfig    `toml:"trace"`
}

// LoadManifest parses the manifest at path and anchors its relative paths at
// the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	m.Path = abs
	m.Root = filepath.Dir(abs)

	if meta.IsDefined("resolver", "jobs") && m.Resolver.Jobs < 0 {
		return nil, fmt.Errorf("%s: %w (got %d)", path, ErrInvalidJobs, m.Resolver.Jobs)
	}
	for i, r := range m.Resolver.Redirects {
		if strings.TrimSpace(r.Assembly) == "" || strings.TrimSpace(r.Namespace) == "" || strings.TrimSpace(r.Target) == "" {
			return nil, fmt.Errorf("%s: redirects[%d]: %w", path, i, ErrInvalidRedirect)
		}
	}
	paths := make([]string, 0, len(m.Resolver.SearchPaths))
	for _, p := range m.Resolver.SearchPaths {
		if p = anchor(m.Root, p); p != "" {
			paths = append(paths, p)
		}
	}
	m.Resolver.SearchPaths = paths

	if out := strings.TrimSpace(m.Trace.Output); out != "" && out != "-" && out != "stderr" {
		resolved := anchor(m.Root, out)
		if !filepath.IsAbs(filepath.FromSlash(out)) && !inside(m.Root, resolved) {
			return nil, fmt.Errorf("%s: %w: %q", path, ErrOutputEscapesRoot, out)
		}
		m.Trace.Output = resolved
	}
	return &m, nil
}

// LoadNearest finds and loads the manifest above startDir. ok is false when
// there is none.
func LoadNearest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := LoadManifest(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Redirects returns the redirect list for resolve.Options: nil keeps the
// defaults, and manifest entries are tried before them.
func (m *Manifest) Redirects() []resolve.Redirect {
	if m == nil {
		return nil
	}
	if len(m.Resolver.Redirects) == 0 && !m.Resolver.NoDefaultRedirects {
		return nil
	}
	out := make([]resolve.Redirect, 0, len(m.Resolver.Redirects)+len(resolve.DefaultRedirects))
	for _, r := range m.Resolver.Redirects {
		out = append(out, resolve.Redirect{
			Assembly:  strings.TrimSpace(r.Assembly),
			Namespace: strings.TrimSpace(r.Namespace),
			Target:    strings.TrimSpace(r.Target),
		})
	}
	if !m.Resolver.NoDefaultRedirects {
		out = append(out, resolve.DefaultRedirects...)
	}
	return out
}
