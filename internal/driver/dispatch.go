package driver

import (
	"fmt"
	"time"

	"mdref/internal/metadata"
	"mdref/internal/request"
	"mdref/internal/resolve"
)

// Outcome classifies a lookup.
type Outcome uint8

const (
	OutcomeFound Outcome = iota + 1
	OutcomeAbsent
	OutcomeFailed
	// OutcomeSkipped marks lookups abandoned after a fatal error.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeAbsent:
		return "absent"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	}
	return "unknown"
}

// Result is the outcome of one query.
type Result struct {
	Query   request.Query
	Outcome Outcome
	Ref     string // rendered reference when found
	Token   metadata.Token
	Err     error
	Elapsed time.Duration
}

// Fatal reports whether the lookup hit an assembly failure.
func (r Result) Fatal() bool { return r.Err != nil && resolve.IsFatal(r.Err) }

// Dispatch runs q against rc for destination m.
func Dispatch(rc *resolve.Context, m *metadata.Module, q request.Query) Result {
	start := time.Now()
	res := Result{Query: q}
	var (
		ref   fmt.Stringer
		tok   metadata.Token
		found bool
		err   error
	)
	switch q.Kind {
	case request.KindType:
		var t *metadata.TypeRef
		if t, found, err = rc.ResolveType(m, q.Type); found {
			ref, tok = t, t.Token
		}
	case request.KindCtor:
		var mr *metadata.MethodRef
		if mr, found, err = rc.ResolveConstructor(m, q.Type, q.Selector); found {
			ref, tok = mr, mr.Token
		}
	case request.KindMethod:
		var mr *metadata.MethodRef
		if mr, found, err = rc.ResolveMethod(m, q.Type, q.Name, q.Selector); found {
			ref, tok = mr, mr.Token
		}
	case request.KindGetter:
		var mr *metadata.MethodRef
		if mr, found, err = rc.ResolvePropertyGetter(m, q.Type, q.Name, q.Property); found {
			ref, tok = mr, mr.Token
		}
	case request.KindSetter:
		var mr *metadata.MethodRef
		if mr, found, err = rc.ResolvePropertySetter(m, q.Type, q.Name, q.Property); found {
			ref, tok = mr, mr.Token
		}
	case request.KindField:
		var fr *metadata.FieldRef
		if fr, found, err = rc.ResolveField(m, q.Type, q.Name, q.Field); found {
			ref, tok = fr, fr.Token
		}
	default:
		err = fmt.Errorf("%w %q", request.ErrUnknownKind, q.Kind)
	}
	res.Elapsed = time.Since(start)
	switch {
	case err != nil:
		res.Outcome, res.Err = OutcomeFailed, err
	case !found:
		res.Outcome = OutcomeAbsent
	default:
		res.Outcome, res.Ref, res.Token = OutcomeFound, ref.String(), tok
	}
	return res
}
