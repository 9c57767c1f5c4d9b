package driver

import (
	"errors"
	"fmt"

	"mdref/internal/loader"
	"mdref/internal/metadata"
	"mdref/internal/resolve"
	"mdref/internal/trace"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	SearchPaths []string
	Redirects   []resolve.Redirect // nil keeps resolve.DefaultRedirects
	Tracer      trace.Tracer
}

// Session pairs an assembly loader with the resolver context of one run.
type Session struct {
	Loader  *loader.Loader
	Context *resolve.Context
}

// NewSession builds a loader over opts.SearchPaths and a fresh Context on it.
func NewSession(opts SessionOptions) *Session {
	l := loader.New(loader.Options{SearchPaths: opts.SearchPaths, Tracer: opts.Tracer})
	return &Session{
		Loader: l,
		Context: resolve.NewContext(resolve.Options{
			Resolver:  l,
			Redirects: opts.Redirects,
			Tracer:    opts.Tracer,
		}),
	}
}

// Destination returns the main module of the assembly being compiled. An
// assembly absent from the search paths starts out empty and is registered
// so later lookups of its own types use the fast path.
func (s *Session) Destination(name string) (*metadata.Module, error) {
	name = metadata.SimpleName(name)
	if name == "" {
		return nil, errors.New("destination assembly name is empty")
	}
	asm, err := s.Loader.Resolve(name)
	switch {
	case err == nil:
		return asm.Main, nil
	case errors.Is(err, metadata.ErrAssemblyNotFound):
		asm = metadata.NewAssembly(name, "")
		s.Loader.Register(asm)
		return asm.Main, nil
	default:
		return nil, fmt.Errorf("destination %s: %w", name, err)
	}
}
