package resolve

import (
	"errors"
	"fmt"
)

// AssemblyResolutionError reports an assembly that could not be loaded.
// It is fatal: resolution cannot continue without the assembly.
type AssemblyResolutionError struct {
	Assembly   string
	Descriptor string // the lookup that needed the assembly
	Err        error
}

func (e *AssemblyResolutionError) Error() string {
	if e.Descriptor == "" {
		return fmt.Sprintf("cannot resolve assembly %q: %v", e.Assembly, e.Err)
	}
	return fmt.Sprintf("cannot resolve assembly %q (needed by %s): %v", e.Assembly, e.Descriptor, e.Err)
}

func (e *AssemblyResolutionError) Unwrap() error { return e.Err }

// IsFatal reports whether err aborts resolution.
func IsFatal(err error) bool {
	var are *AssemblyResolutionError
	return errors.As(err, &are)
}

// annotate names the public descriptor on assembly errors raised while
// resolving it. Cached errors are copied, never modified.
func annotate(err error, desc fmt.Stringer) error {
	var are *AssemblyResolutionError
	if err == nil || !errors.As(err, &are) || are.Descriptor != "" {
		return err
	}
	cp := *are
	cp.Descriptor = desc.String()
	return &cp
}
