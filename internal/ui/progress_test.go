package ui

import (
	"strings"
	"testing"

	"mdref/internal/driver"
)

func TestProgressModelTracksEvents(t *testing.T) {
	m := NewProgressModel("resolve App", []string{"list", "dup", "dup"}, nil).(*progressModel)
	for _, ev := range []driver.Event{
		{Item: "list", Status: driver.StatusWorking},
		{Item: "list", Status: driver.StatusDone},
		{Item: "dup", Status: driver.StatusWorking},
		{Item: "dup", Status: driver.StatusAbsent},
		{Item: "unknown", Status: driver.StatusDone},
	} {
		m.Update(eventMsg(ev))
	}
	if m.items[1].status != driver.StatusAbsent || m.items[2].status != driver.StatusQueued {
		t.Fatalf("duplicate labels advanced out of order: %+v", m.items)
	}
	view := m.View()
	if !strings.Contains(view, "(2/3)") || !strings.Contains(view, "found") || !strings.Contains(view, "absent") {
		t.Fatalf("unexpected view:\n%s", view)
	}
	m.Update(doneMsg{})
	if !strings.Contains(m.View(), "done: resolve App") {
		t.Fatalf("done header missing")
	}
}

func TestVisibleKeepsActiveRequests(t *testing.T) {
	labels := make([]string, maxVisible+5)
	for i := range labels {
		labels[i] = strings.Repeat("x", i+1)
	}
	m := NewProgressModel("batch", labels, nil).(*progressModel)
	last := labels[len(labels)-1]
	m.Update(eventMsg(driver.Event{Item: last, Status: driver.StatusWorking}))
	vis := m.visible()
	if len(vis) != maxVisible || vis[0].label != last {
		t.Fatalf("in-flight request not shown first")
	}
	if !strings.Contains(m.View(), "5 more") {
		t.Fatalf("hidden count missing")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}
