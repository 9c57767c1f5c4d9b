package diag

import (
	"cmp"
	"slices"
)

// Bag stores diagnostics up to an optional limit. It is not safe for
// concurrent use; producers share it through a BagReporter.
type Bag struct {
	items   []Diagnostic
	limit   int
	dropped int
}

// NewBag returns a bag keeping at most limit diagnostics; limit <= 0 keeps
// everything.
func NewBag(limit int) *Bag { return &Bag{limit: limit} }

// Add stores d and reports whether it was kept. Diagnostics past the limit
// are counted in Dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if b.limit > 0 && len(b.items) == b.limit {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Len() int { return len(b.items) }

// Dropped is the number of diagnostics refused by the limit.
func (b *Bag) Dropped() int { return b.dropped }

// Items aliases the stored diagnostics.
func (b *Bag) Items() []Diagnostic { return b.items }

// Count returns how many stored diagnostics have severity sev.
func (b *Bag) Count(sev Severity) int {
	n := 0
	for _, d := range b.items {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors reports whether a stored diagnostic is an error.
func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevError })
}

// Sort puts errors first, then orders by subject and code. Equal keys keep
// their insertion order.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		if x.Severity != y.Severity {
			return cmp.Compare(y.Severity, x.Severity)
		}
		return cmp.Or(cmp.Compare(x.Subject, y.Subject), cmp.Compare(x.Code, y.Code))
	})
}

// Dedup removes repeats, keeping the first of each.
func (b *Bag) Dedup() {
	seen := make(map[identity]struct{}, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		id := d.identity()
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		return false
	})
}
