// Package testutils provides deterministic random sources and fake external
// tools for swarmhammer tests.
package testutils

import (
	"fmt"
	"sync"
)

// ScriptedRand replays fixed draws so tests can steer every probabilistic
// decision. It panics when a script runs dry, which points at a test that
// consumed more randomness than it planned for.
type ScriptedRand struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int

	FloatDraws int
	IntDraws   int
}

// NewScriptedRand creates a source replaying floats for Float64 and ints for IntN.
func NewScriptedRand(floats []float64, ints []int) *ScriptedRand {
	return &ScriptedRand{Floats: floats, Ints: ints}
}

// Float64 returns the next scripted float.
func (r *ScriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FloatDraws >= len(r.Floats) {
		panic(fmt.Sprintf("ScriptedRand: float script exhausted after %d draws", r.FloatDraws))
	}
	v := r.Floats[r.FloatDraws]
	r.FloatDraws++
	return v
}

// IntN returns the next scripted int, which must lie in [0, n).
func (r *ScriptedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.IntDraws >= len(r.Ints) {
		panic(fmt.Sprintf("ScriptedRand: int script exhausted after %d draws", r.IntDraws))
	}
	v := r.Ints[r.IntDraws]
	r.IntDraws++
	if v < 0 || v >= n {
		panic(fmt.Sprintf("ScriptedRand: scripted int %d outside [0, %d)", v, n))
	}
	return v
}

// ConstantRand always returns the same float; IntN returns 0.
type ConstantRand float64

// Float64 implements the generator's random source.
func (c ConstantRand) Float64() float64 { return float64(c) }

// IntN implements the generator's random source.
func (c ConstantRand) IntN(int) int { return 0 }
