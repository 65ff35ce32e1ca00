// Package swarm implements swarm testing campaigns: per-worker configuration
// generation, engine process launching, failure scanning and the generation
// scheduler that ties them together.
package swarm

import (
	"errors"

	"swarmhammer/internal/config"
)

// Generator errors. Both are configuration errors.
var (
	ErrEmptyUniverse = errors.New("function universe is empty")
	ErrNoIncludable  = errors.New("every function would always be excluded")
)

// seqLenOverrideProb is the chance a non-initial worker gets a random seqLen.
const seqLenOverrideProb = 0.5

// Rand is the random stream a Generator consumes. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// WorkerConfig is the engine configuration of a single worker.
type WorkerConfig struct {
	// Values holds every key written to the worker's config file.
	Values config.BaseConfig
	// Excluded is the filterFunctions list; never the whole universe.
	Excluded []string
	// Blacklist mirrors filterBlacklist, which is always true.
	Blacklist bool
	// SeqLen is the effective sequence length.
	SeqLen int
	// SeqLenOverridden is set when SeqLen was drawn for this worker.
	SeqLenOverridden bool
	// Attempts counts generation rounds; more than one means degenerate
	// draws were discarded.
	Attempts int
}

// Generator derives worker configurations from the base config, the function
// universe and a random stream. It performs no I/O.
type Generator struct {
	rng       Rand
	universe  []string
	base      config.BaseConfig
	basic     map[string]struct{}
	blacklist bool
	always    map[string]struct{}
	prob      float64
	minSeqLen int
	maxSeqLen int
}

// NewGenerator validates its inputs and returns a Generator. It rejects an
// empty universe and inputs for which every draw would exclude everything,
// since Generate retries degenerate results without a cap.
func NewGenerator(rng Rand, universe []string, base config.BaseConfig, params *config.RunParameters) (*Generator, error) {
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}

	g := &Generator{
		rng:       rng,
		base:      base,
		basic:     toSet(base.FilterFunctions()),
		blacklist: base.FilterBlacklist(),
		always:    toSet(params.Always),
		prob:      params.Prob,
		minSeqLen: params.MinSeqLen,
		maxSeqLen: params.MaxSeqLen,
	}

	seen := make(map[string]struct{}, len(universe))
	for _, f := range universe {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		g.universe = append(g.universe, f)
	}

	if !g.canInclude(true) || !g.canInclude(false) {
		return nil, ErrNoIncludable
	}
	return g, nil
}

// Universe returns the de-duplicated function universe.
func (g *Generator) Universe() []string {
	return append([]string(nil), g.universe...)
}

// WhitelistRequested reports whether the base config asked for whitelist
// filtering. Generated configs still carry filterBlacklist: true.
func (g *Generator) WhitelistRequested() bool {
	return !g.blacklist
}

// Generate produces the next worker configuration. Initial configurations only
// exclude what the explicit list demands and keep the base seqLen.
func (g *Generator) Generate(initial bool) WorkerConfig {
	attempts := 1
	excluded := g.exclusions(initial)
	for len(excluded) == len(g.universe) {
		attempts++
		excluded = g.exclusions(initial)
	}

	values := g.base.Clone()
	values[config.KeyFilterFunctions] = excluded
	values[config.KeyFilterBlacklist] = true

	wc := WorkerConfig{
		Values:    values,
		Excluded:  excluded,
		Blacklist: true,
		Attempts:  attempts,
	}

	if !initial && g.rng.Float64() < seqLenOverrideProb {
		values[config.KeySeqLen] = g.minSeqLen + g.rng.IntN(g.maxSeqLen-g.minSeqLen)
		wc.SeqLenOverridden = true
	}
	wc.SeqLen = values.SeqLen()

	return wc
}

// exclusions runs one round of per-function decisions in universe order.
func (g *Generator) exclusions(initial bool) []string {
	excluded := make([]string, 0, len(g.universe))
	for _, f := range g.universe {
		if _, ok := g.always[f]; ok {
			continue
		}
		_, listed := g.basic[f]

		if g.blacklist {
			if listed || (!initial && g.drop()) {
				excluded = append(excluded, f)
			}
			continue
		}

		if !listed || (!initial && g.drop()) {
			excluded = append(excluded, f)
		}
	}
	return excluded
}

// drop excludes with probability 1-p.
func (g *Generator) drop() bool {
	return g.rng.Float64() >= g.prob
}

// canInclude reports whether some function has a non-zero chance of being
// kept by a single round.
func (g *Generator) canInclude(initial bool) bool {
	for _, f := range g.universe {
		if _, ok := g.always[f]; ok {
			return true
		}
		_, listed := g.basic[f]
		// Blacklist keeps unlisted functions, whitelist keeps listed ones.
		if listed != g.blacklist && (initial || g.prob > 0) {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
