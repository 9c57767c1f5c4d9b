package diag

import "sync"

// Reporter receives diagnostics from producers.
type Reporter interface {
	Report(code Code, sev Severity, subject, msg string, notes ...string)
}

// BagReporter stores into Bag under a lock.
type BagReporter struct {
	mu  sync.Mutex
	Bag *Bag
}

func (r *BagReporter) Report(code Code, sev Severity, subject, msg string, notes ...string) {
	if r == nil || r.Bag == nil {
		return
	}
	r.mu.Lock()
	r.Bag.Add(Diagnostic{Severity: sev, Code: code, Subject: subject, Message: msg, Notes: notes})
	r.mu.Unlock()
}

// DedupReporter forwards only the first of each repeated diagnostic.
type DedupReporter struct {
	next Reporter
	mu   sync.Mutex
	seen map[identity]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[identity]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, subject, msg string, notes ...string) {
	id := identity{code: code, sev: sev, subject: subject, msg: msg}
	r.mu.Lock()
	_, dup := r.seen[id]
	r.seen[id] = struct{}{}
	r.mu.Unlock()
	if !dup && r.next != nil {
		r.next.Report(code, sev, subject, msg, notes...)
	}
}
