package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"mdref/internal/diag"
	"mdref/internal/metadata"
	"mdref/internal/observ"
	"mdref/internal/request"
	"mdref/internal/resolve"
	"mdref/internal/trace"
)

// Options configures Run.
type Options struct {
	Jobs           int // <= 0 uses GOMAXPROCS
	Sink           ProgressSink
	MaxDiagnostics int
	Timer          *observ.Timer
}

// Report is the outcome of a batch run. Results follow query order.
type Report struct {
	Results []Result
	Bag     *diag.Bag
	Stats   resolve.Stats
}

// Count returns how many results have outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Outcome == o {
			n++
		}
	}
	return n
}

// Run resolves every query against m in parallel. Absent lookups become
// warnings. The first assembly failure cancels the remaining lookups and is
// returned alongside the partial report.
func Run(ctx context.Context, rc *resolve.Context, m *metadata.Module, queries []request.Query, opts Options) (*Report, error) {
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tracer := trace.FromContext(ctx)
	batch := trace.Begin(tracer, trace.ScopeBatch, "resolve", 0)
	batch.WithExtra("requests", strconv.Itoa(len(queries)))
	phase := opts.Timer.Track("resolve")

	results := make([]Result, len(queries))
	for i, q := range queries {
		results[i] = Result{Query: q, Outcome: OutcomeSkipped}
		sink.OnEvent(Event{Item: q.Label(), Stage: StageResolve, Status: StatusQueued})
	}

	var failed atomic.Int64
	if len(queries) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(queries)))
		for i, q := range queries {
			g.Go(func() error {
				label := q.Label()
				if gctx.Err() != nil {
					sink.OnEvent(Event{Item: label, Stage: StageResolve, Status: StatusSkipped})
					return nil
				}
				sink.OnEvent(Event{Item: label, Stage: StageResolve, Status: StatusWorking})
				span := trace.Begin(tracer, trace.ScopeLookup, "request", batch.ID())
				res := Dispatch(rc, m, q)
				span.WithExtra("label", label).End(res.Outcome.String())
				results[i] = res

				evt := Event{Item: label, Stage: StageResolve, Elapsed: res.Elapsed, Err: res.Err}
				switch res.Outcome {
				case OutcomeFound:
					evt.Status = StatusDone
				case OutcomeAbsent:
					evt.Status = StatusAbsent
				default:
					evt.Status = StatusError
					failed.Add(1)
				}
				sink.OnEvent(evt)
				if res.Fatal() {
					return res.Err
				}
				return nil
			})
		}
		err := g.Wait()
		if err == nil {
			err = ctx.Err()
		}
		if err != nil && !resolve.IsFatal(err) {
			// Cancelled by the caller.
			phase("cancelled")
			batch.End(err.Error())
			return &Report{Results: results, Bag: collect(results, opts.MaxDiagnostics), Stats: rc.Stats()}, err
		}
	}

	report := &Report{Results: results, Bag: collect(results, opts.MaxDiagnostics), Stats: rc.Stats()}
	summary := fmt.Sprintf("%d found, %d absent, %d failed",
		report.Count(OutcomeFound), report.Count(OutcomeAbsent), failed.Load())
	phase(summary)
	batch.End(summary)

	if err := firstFatal(results); err != nil {
		return report, err
	}
	return report, nil
}

func firstFatal(results []Result) error {
	for _, r := range results {
		if r.Fatal() {
			return r.Err
		}
	}
	return nil
}

// collect turns results into diagnostics, one per unsuccessful lookup.
func collect(results []Result, max int) *diag.Bag {
	bag := diag.NewBag(max)
	rep := diag.NewDedupReporter(&diag.BagReporter{Bag: bag})
	for _, r := range results {
		label := r.Query.Label()
		switch r.Outcome {
		case OutcomeAbsent:
			code, what := diag.ResAbsentMember, "member"
			if r.Query.Kind == request.KindType {
				code, what = diag.ResAbsentType, "type"
			}
			rep.Report(code, diag.SevWarning, label, fmt.Sprintf("%s not found: %s", what, r.Query))
		case OutcomeFailed:
			var are *resolve.AssemblyResolutionError
			if errors.As(r.Err, &are) {
				rep.Report(diag.ResAssemblyFailed, diag.SevError, label, r.Err.Error(), "assembly "+are.Assembly)
			} else {
				rep.Report(diag.ResInvalidQuery, diag.SevError, label, r.Err.Error())
			}
		}
	}
	bag.Sort()
	return bag
}
