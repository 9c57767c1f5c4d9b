package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mdref/internal/asmfile"
	"mdref/internal/diag"
	"mdref/internal/driver"
	"mdref/internal/metadata"
	"mdref/internal/observ"
	"mdref/internal/request"
	"mdref/internal/resolve"
)

const coreImage = `
name = "System.Private.CoreLib"
version = "v8.0.0"

[[types]]
namespace = "System"
name = "Int32"

[[types]]
namespace = "System"
name = "String"

[[types]]
namespace = "System.Collections.Generic"
name = "List"
generic = ["T"]

  [[types.methods]]
  name = ".ctor"

  [[types.methods]]
  name = ".ctor"
    [[types.methods.params]]
    type = "System.Int32"

  [[types.methods]]
  name = "Add"
    [[types.methods.params]]
    type = "!0"

  [[types.properties]]
  name = "Count"
  type = "System.Int32"
  get = true
`

const requests = `
module: App
requests:
  - id: list
    kind: type
    type: "[System.Private.CoreLib]System.Collections.Generic.List<[System.Private.CoreLib]System.Int32>"
  - id: list-ctor
    kind: ctor
    type: "[System.Private.CoreLib]System.Collections.Generic.List<[System.Private.CoreLib]System.Int32>"
  - id: list-add
    kind: method
    type: "[System.Private.CoreLib]System.Collections.Generic.List<[System.Private.CoreLib]System.Int32>"
    name: Add
    params: ["[System.Private.CoreLib]System.Int32"]
  - id: count
    kind: getter
    type: "[System.Private.CoreLib]System.Collections.Generic.List"
    of: ["[System.Private.CoreLib]System.String"]
    name: Count
  - id: missing
    kind: type
    type: "[System.Private.CoreLib]System.DoesNotExist"
  - id: missing-again
    kind: type
    type: "[System.Private.CoreLib]System.DoesNotExist"
  - id: no-setter
    kind: setter
    type: "[System.Private.CoreLib]System.Collections.Generic.List<[System.Private.CoreLib]System.Int32>"
    name: Count
`

func newSession(t *testing.T) *driver.Session {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "System.Private.CoreLib"+asmfile.TOMLExt), []byte(coreImage), 0o600); err != nil {
		t.Fatal(err)
	}
	return driver.NewSession(driver.SessionOptions{SearchPaths: []string{dir}})
}

func compile(t *testing.T, src string) (string, []request.Query) {
	t.Helper()
	f, err := request.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	qs, err := f.Compile()
	if err != nil {
		t.Fatal(err)
	}
	return f.Module, qs
}

func TestRunResolvesBatch(t *testing.T) {
	s := newSession(t)
	module, qs := compile(t, requests)
	dest, err := s.Destination(module)
	if err != nil {
		t.Fatal(err)
	}

	events := make(chan driver.Event, 64)
	timer := observ.NewTimer()
	report, err := driver.Run(context.Background(), s.Context, dest, qs, driver.Options{
		Jobs:  4,
		Sink:  driver.ChannelSink{Ch: events},
		Timer: timer,
	})
	close(events)
	if err != nil {
		t.Fatal(err)
	}

	want := []driver.Outcome{
		driver.OutcomeFound, driver.OutcomeFound, driver.OutcomeFound, driver.OutcomeFound,
		driver.OutcomeAbsent, driver.OutcomeAbsent, driver.OutcomeAbsent,
	}
	for i, r := range report.Results {
		if r.Outcome != want[i] {
			t.Errorf("%s: outcome %s, want %s (err %v)", r.Query.Label(), r.Outcome, want[i], r.Err)
		}
	}
	if got := report.Results[2].Ref; got != "void [System.Private.CoreLib]System.Collections.Generic.List<[System.Private.CoreLib]System.Int32>::Add([System.Private.CoreLib]System.Int32)" {
		t.Errorf("Add ref = %q", got)
	}
	if report.Results[0].Token.Table() != metadata.TableTypeSpec {
		t.Errorf("closed generic should be a type spec, got %s", report.Results[0].Token)
	}

	if report.Bag.Len() != 3 || report.Bag.HasErrors() {
		t.Errorf("expected 3 warnings, got %d (errors=%v)", report.Bag.Len(), report.Bag.HasErrors())
	}
	if report.Stats.TypeDefs.Misses == 0 || report.Stats.Types.Hits == 0 {
		t.Errorf("stats not collected: %+v", report.Stats)
	}
	if s.Loader.Loads() != 2 {
		// CoreLib plus the absent destination probe.
		t.Errorf("loader read %d images, want 2", s.Loader.Loads())
	}

	counts := map[driver.Status]int{}
	for ev := range events {
		counts[ev.Status]++
	}
	if counts[driver.StatusQueued] != len(qs) || counts[driver.StatusDone] != 4 || counts[driver.StatusAbsent] != 3 {
		t.Errorf("unexpected event counts %v", counts)
	}
	if len(timer.Report().Phases) != 1 {
		t.Errorf("resolve phase not timed")
	}
}

func TestRunStopsOnMissingAssembly(t *testing.T) {
	s := newSession(t)
	module, qs := compile(t, `
module: App
requests:
  - id: gone
    kind: type
    type: "[Gone]N.T"
`)
	dest, err := s.Destination(module)
	if err != nil {
		t.Fatal(err)
	}
	report, err := driver.Run(context.Background(), s.Context, dest, qs, driver.Options{Jobs: 1})
	if !resolve.IsFatal(err) || !errors.Is(err, metadata.ErrAssemblyNotFound) {
		t.Fatalf("expected a fatal assembly error, got %v", err)
	}
	if report.Results[0].Outcome != driver.OutcomeFailed || !report.Bag.HasErrors() {
		t.Fatalf("failure not reported: %+v", report.Results[0])
	}
	if d := report.Bag.Items()[0]; d.Code != diag.ResAssemblyFailed || d.Subject != "gone" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	s := newSession(t)
	module, qs := compile(t, requests)
	dest, err := s.Destination(module)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := driver.Run(ctx, s.Context, dest, qs, driver.Options{Jobs: 2})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Count(driver.OutcomeSkipped) != len(qs) {
		t.Fatalf("expected every lookup skipped, got %d", report.Count(driver.OutcomeSkipped))
	}
}

func TestDestinationFromSearchPath(t *testing.T) {
	s := newSession(t)
	dest, err := s.Destination("System.Private.CoreLib")
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Context.ResolveType(dest, resolve.Type("System.Private.CoreLib", "System", "Int32"))
	if err != nil || !ok || got.Scope != "System.Private.CoreLib" {
		t.Fatalf("own type: %v ok=%v err=%v", got, ok, err)
	}
	if s.Loader.Loads() != 1 {
		t.Fatalf("own assembly reloaded")
	}
}
