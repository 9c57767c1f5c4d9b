// Package loader resolves assembly names to images found on a list of search
// directories. It implements metadata.AssemblyResolver.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/singleflight"

	"mdref/internal/asmfile"
	"mdref/internal/metadata"
	"mdref/internal/trace"
)

// Options configures a Loader.
type Options struct {
	SearchPaths []string
	Tracer      trace.Tracer
}

type result struct {
	asm  *metadata.Assembly
	path string
	err  error
}

// Loader loads each assembly name at most once, caching failures too.
// When several images share a name the highest version wins; equal
// versions go to the earlier search path.
type Loader struct {
	paths  []string
	tracer trace.Tracer

	group singleflight.Group
	mu    sync.RWMutex
	done  map[string]result
	loads atomic.Int64
}

// New creates a Loader over opts.SearchPaths.
func New(opts Options) *Loader {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Loader{
		paths:  append([]string(nil), opts.SearchPaths...),
		tracer: tracer,
		done:   make(map[string]result, 16),
	}
}

// SearchPaths returns the directories searched, in order.
func (l *Loader) SearchPaths() []string {
	return append([]string(nil), l.paths...)
}

// Register makes asm resolvable without touching the file system.
func (l *Loader) Register(asm *metadata.Assembly) {
	l.mu.Lock()
	l.done[asm.Name] = result{asm: asm}
	l.mu.Unlock()
}

// Loads reports how many assemblies were read from disk, successfully or not.
func (l *Loader) Loads() int { return int(l.loads.Load()) }

// Resolve implements metadata.AssemblyResolver.
func (l *Loader) Resolve(name string) (*metadata.Assembly, error) {
	name = metadata.SimpleName(name)
	if r, ok := l.cached(name); ok {
		return r.asm, r.err
	}
	v, _, _ := l.group.Do(name, func() (any, error) {
		if r, ok := l.cached(name); ok {
			return r, nil
		}
		r := l.load(name)
		l.mu.Lock()
		l.done[name] = r
		l.mu.Unlock()
		return r, nil
	})
	r := v.(result)
	return r.asm, r.err
}

// Path returns the image file an assembly was loaded from, if any.
func (l *Loader) Path(name string) (string, bool) {
	r, ok := l.cached(metadata.SimpleName(name))
	return r.path, ok && r.path != ""
}

func (l *Loader) cached(name string) (result, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.done[name]
	return r, ok
}

func (l *Loader) load(name string) result {
	l.loads.Add(1)
	span := trace.Begin(l.tracer, trace.ScopeLookup, "image:"+name, 0)

	var best result
	for _, path := range l.candidates(name) {
		asm, err := asmfile.Load(path)
		if err != nil {
			span.End(err.Error())
			return result{err: err}
		}
		if asm.Name != name {
			err := fmt.Errorf("%s: image declares assembly %q", path, asm.Name)
			span.End(err.Error())
			return result{err: err}
		}
		if best.asm == nil || newer(asm.Version, best.asm.Version) {
			best = result{asm: asm, path: path}
		}
	}
	if best.asm == nil {
		span.End("not found")
		return result{err: fmt.Errorf("%s (searched %s): %w", name, strings.Join(l.paths, string(os.PathListSeparator)), metadata.ErrAssemblyNotFound)}
	}
	span.WithExtra("path", best.path).End(best.asm.Version)
	return best
}

// newer reports whether version a sorts strictly after b. Unversioned
// images lose to versioned ones.
func newer(a, b string) bool {
	switch {
	case a == b:
		return false
	case b == "":
		return true
	case a == "":
		return false
	}
	return semver.Compare(a, b) > 0
}

func (l *Loader) candidates(name string) []string {
	var out []string
	for _, dir := range l.paths {
		for _, ext := range []string{asmfile.PackExt, asmfile.TOMLExt} {
			p := filepath.Join(dir, name+ext)
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				out = append(out, p)
			}
		}
	}
	return out
}

// Available lists the assembly names present on the search paths, sorted.
// Missing directories are skipped.
func (l *Loader) Available() ([]string, error) {
	seen := map[string]bool{}
	for _, dir := range l.paths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && asmfile.IsImage(e.Name()) {
				seen[asmfile.NameFromPath(e.Name())] = true
			}
		}
	}
	l.mu.RLock()
	for name := range l.done {
		if l.done[name].asm != nil {
			seen[name] = true
		}
	}
	l.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
