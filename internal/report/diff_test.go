package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withFailures(lines ...string) *Report {
	r := &Report{}
	for _, l := range lines {
		r.Properties = append(r.Properties, Property{Failure: l, Count: 1})
	}
	return r
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name       string
		old, cur   *Report
		fixed      []string
		added      []string
		persisting []string
	}{
		{
			name:       "identical",
			old:        withFailures("a failed", "b failed"),
			cur:        withFailures("b failed", "a failed"),
			persisting: []string{"a failed", "b failed"},
		},
		{
			name:       "fixed and new",
			old:        withFailures("a failed", "b failed", "c failed"),
			cur:        withFailures("b failed", "d failed"),
			fixed:      []string{"a failed", "c failed"},
			added:      []string{"d failed"},
			persisting: []string{"b failed"},
		},
		{
			name:  "from clean",
			old:   withFailures(),
			cur:   withFailures("x failed"),
			added: []string{"x failed"},
		},
		{
			name: "both clean",
			old:  withFailures(),
			cur:  withFailures(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Compare(tt.old, tt.cur)
			assert.Equal(t, tt.fixed, c.Fixed)
			assert.Equal(t, tt.added, c.New)
			assert.Equal(t, tt.persisting, c.Persisting)
			assert.Equal(t, len(tt.added) > 0, c.Regressed())
		})
	}
}

func TestComparison_Unified(t *testing.T) {
	c := Compare(withFailures("a failed", "b failed"), withFailures("b failed", "c failed"))
	assert.Equal(t, "- a failed\n  b failed\n+ c failed\n", c.Unified())
	assert.Equal(t, "", Comparison{}.Unified())
}
