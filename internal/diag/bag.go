package diag

import "sort"

// Bag accumulates diagnostics for one compilation unit, capping at a
// caller-chosen maximum the way the CLI's --max-diagnostics flag expects.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag returns an empty Bag capped at max diagnostics (0 means unlimited).
func NewBag(max int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, 8), max: max}
}

// Add appends d unless the cap has been reached, returning whether it was kept.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasErrors reports whether any diagnostic is at or above SevError.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity >= SevError {
			return true
		}
	}
	return false
}

// Len returns the number of accumulated diagnostics.
func (b *Bag) Len() int { return len(b.items) }

// Items returns the accumulated diagnostics. Callers must not mutate the slice.
func (b *Bag) Items() []Diagnostic { return b.items }

// Merge appends other's diagnostics onto b, growing the cap if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	total := len(b.items) + len(other.items)
	if b.max > 0 && total > b.max {
		b.max = total
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by (file, start, end, severity desc, code asc) so
// output is deterministic across runs, per Testable Property 3.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		a, c := b.items[i], b.items[j]
		if a.Primary.File != c.Primary.File {
			return a.Primary.File < c.Primary.File
		}
		if a.Primary.Start != c.Primary.Start {
			return a.Primary.Start < c.Primary.Start
		}
		if a.Primary.End != c.Primary.End {
			return a.Primary.End < c.Primary.End
		}
		if a.Severity != c.Severity {
			return a.Severity > c.Severity
		}
		return a.Code < c.Code
	})
}
