package swarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger_Record(t *testing.T) {
	l := NewLedger()
	assert.Equal(t, 0, l.Len())

	assert.True(t, l.Record("P failed", "h/gen.1.0"))
	assert.False(t, l.Record("P failed", "h/gen.1.1"))
	assert.True(t, l.Record("Q failed", "h/gen.1.1"))
	assert.False(t, l.Record("P failed", "h/gen.1.1"))

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []string{"h/gen.1.0", "h/gen.1.1", "h/gen.1.1"}, l.Prefixes("P failed"))
	assert.Equal(t, []string{"h/gen.1.1"}, l.Prefixes("Q failed"))
	assert.Empty(t, l.Prefixes("R failed"))
}

func TestLedger_PrefixesIsACopy(t *testing.T) {
	l := NewLedger()
	l.Record("P failed", "a")

	got := l.Prefixes("P failed")
	got[0] = "mutated"
	assert.Equal(t, []string{"a"}, l.Prefixes("P failed"))
}

func TestLedger_Sorted(t *testing.T) {
	l := NewLedger()
	l.Record("common", "w1")
	l.Record("common", "w2")
	l.Record("common", "w3")
	l.Record("rare", "w2")
	l.Record("middle", "w1")
	l.Record("middle", "w3")
	l.Record("also rare", "w3")

	sorted := l.Sorted()
	var order []string
	for _, e := range sorted {
		order = append(order, e.Failure)
	}
	assert.Equal(t, []string{"rare", "also rare", "middle", "common"}, order)
	assert.Equal(t, 3, sorted[3].Count())

	entries := l.Entries()
	assert.Equal(t, "common", entries[0].Failure)
	assert.Equal(t, "also rare", entries[3].Failure)
}
