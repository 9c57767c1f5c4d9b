package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestRingTracerKeepsLatestEvents(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeMember, 0, name, "")
	}
	got := ring.Snapshot()
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelPhase, FormatText)
	span := Begin(st, ScopeBatch, "resolve", 0)
	Point(st, ScopeLookup, span.ID(), "miss", "hidden at phase level")
	span.WithExtra("requests", "3").End("ok")

	out := buf.String()
	if !strings.Contains(out, "→ batch resolve") || !strings.Contains(out, "requests=3") {
		t.Fatalf("missing batch span in %q", out)
	}
	if strings.Contains(out, "miss") {
		t.Fatalf("lookup scope must be filtered at phase level: %q", out)
	}
}

func TestNDJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(st, ScopeMember, 0, "absent", "[A]N.T")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"detail":"[A]N.T"`) {
		t.Fatalf("unexpected ndjson: %q", buf.String())
	}
}

func TestContextDefaultsToNop(t *testing.T) {
	if FromContext(context.Background()).Enabled() {
		t.Fatalf("expected nop tracer")
	}
	ctx := WithTracer(context.Background(), NewRingTracer(4, LevelPhase))
	if !FromContext(ctx).Enabled() {
		t.Fatalf("expected attached tracer")
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DETAIL")
	if err != nil || lvl != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewSelectsSinks(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDetail, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*MultiTracer); !ok {
		t.Fatalf("both mode built %T", tr)
	}
	Point(tr, ScopeLookup, 0, "image:A", "")
	if !strings.Contains(buf.String(), "image:A") {
		t.Fatalf("stream half did not write: %q", buf.String())
	}
	if tr, _ := New(Config{Level: LevelOff, Mode: ModeStream}); tr.Enabled() {
		t.Fatal("off level must build a disabled tracer")
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Fatal("expected an invalid mode error")
	}
}

func TestHeartbeatStopsCleanly(t *testing.T) {
	ring := NewRingTracer(8, LevelPhase)
	h := StartHeartbeat(ring, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	h.Stop()
	h.Stop()
	n := len(ring.Snapshot())
	if n == 0 {
		t.Fatal("no heartbeats recorded")
	}
	time.Sleep(5 * time.Millisecond)
	if len(ring.Snapshot()) != n {
		t.Fatal("heartbeat kept running after Stop")
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("heartbeat on a disabled tracer")
	}
}
