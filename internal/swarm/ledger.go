package swarm

import "sort"

// Entry is one distinct failure line and the workers that reported it.
type Entry struct {
	Failure  string
	Prefixes []string
}

// Count is the number of reproductions.
func (e Entry) Count() int {
	return len(e.Prefixes)
}

// Ledger maps failure lines to the prefixes of workers that reported them.
// It is owned by the scheduler goroutine and not safe for concurrent use.
type Ledger struct {
	order   []string
	entries map[string][]string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string][]string)}
}

// Record appends prefix to the entry for failure and reports whether the
// failure was seen for the first time.
func (l *Ledger) Record(failure, prefix string) bool {
	prefixes, seen := l.entries[failure]
	if !seen {
		l.order = append(l.order, failure)
	}
	l.entries[failure] = append(prefixes, prefix)
	return !seen
}

// Len is the number of distinct failures.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Prefixes returns the workers that reported failure.
func (l *Ledger) Prefixes(failure string) []string {
	return append([]string(nil), l.entries[failure]...)
}

// Entries returns all entries in first-seen order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l.order))
	for _, f := range l.order {
		out = append(out, Entry{Failure: f, Prefixes: l.Prefixes(f)})
	}
	return out
}

// Sorted returns entries by ascending reproduction count; ties keep
// first-seen order.
func (l *Ledger) Sorted() []Entry {
	out := l.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count() < out[j].Count()
	})
	return out
}
