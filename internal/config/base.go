package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Engine configuration keys the swarm reads or writes.
const (
	KeyFilterFunctions = "filterFunctions"
	KeyFilterBlacklist = "filterBlacklist"
	KeySeqLen          = "seqLen"
	KeyEngineTimeout   = "timeout"
	KeyEngineCorpusDir = "corpusDir"
	KeyStopOnFail      = "stopOnFail"
	KeyCoverage        = "coverage"
	KeyTestLimit       = "testLimit"
	KeyPropertyPrefix  = "prefix"
)

// DefaultPropertyPrefix marks engine property functions, which are never
// part of the function universe.
const DefaultPropertyPrefix = "echidna_"

// droppedKeys are removed from the operator's file before the forced values
// are applied.
var droppedKeys = []string{KeyEngineTimeout, KeyTestLimit, KeyStopOnFail, KeyEngineCorpusDir, KeyCoverage}

// BaseConfig is the engine configuration every worker inherits. Treat it as
// immutable; derive worker configs from Clone.
type BaseConfig map[string]any

// Clone returns a shallow copy with list values copied.
func (b BaseConfig) Clone() BaseConfig {
	out := make(BaseConfig, len(b))
	for k, v := range b {
		if list, ok := v.([]string); ok {
			v = append([]string(nil), list...)
		}
		out[k] = v
	}
	return out
}

// FilterFunctions is the operator's explicit function list, if any.
func (b BaseConfig) FilterFunctions() []string {
	return stringList(b[KeyFilterFunctions])
}

// FilterBlacklist reports whether the explicit list is a blacklist. It
// defaults to true, and filterBlacklist is only honoured next to a
// filterFunctions list.
func (b BaseConfig) FilterBlacklist() bool {
	if _, listed := b[KeyFilterFunctions]; !listed {
		return true
	}
	if v, ok := b[KeyFilterBlacklist].(bool); ok {
		return v
	}
	return true
}

// PropertyPrefix returns the configured property prefix.
func (b BaseConfig) PropertyPrefix() string {
	if v, ok := b[KeyPropertyPrefix].(string); ok && v != "" {
		return v
	}
	return DefaultPropertyPrefix
}

// SeqLen returns the configured sequence length.
func (b BaseConfig) SeqLen() int {
	switch v := b[KeySeqLen].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// LoadBaseConfig reads the operator's engine config (path may be empty) and
// applies the forced campaign values.
func LoadBaseConfig(path string, params *RunParameters) (BaseConfig, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read engine config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse engine config %s: %w", path, err)
		}
	}
	return NewBaseConfig(raw, params)
}

// NewBaseConfig builds the base config from already decoded values.
// timeout, stopOnFail, corpusDir and coverage are always overridden.
func NewBaseConfig(raw map[string]any, params *RunParameters) (BaseConfig, error) {
	base := make(BaseConfig, len(raw)+4)
	for k, v := range raw {
		base[k] = v
	}
	for _, k := range droppedKeys {
		delete(base, k)
	}

	if list, ok := base[KeyFilterFunctions]; ok {
		base[KeyFilterFunctions] = stringList(list)
	}

	base[KeyEngineTimeout] = int(params.GenTime.Seconds())
	if _, ok := base[KeySeqLen]; !ok {
		base[KeySeqLen] = min(max(params.MinSeqLen, 100), params.MaxSeqLen)
	}

	corpus := params.CorpusDir
	if corpus == "" {
		abs, err := filepath.Abs(filepath.Join(params.Name, "corpus"))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve corpus dir: %w", err)
		}
		corpus = abs
	}
	base[KeyEngineCorpusDir] = corpus
	base[KeyStopOnFail] = false
	base[KeyCoverage] = true

	return base, nil
}

// Bootstrap creates the campaign results directory and the corpus directory.
// An existing results directory is an error.
func Bootstrap(params *RunParameters, base BaseConfig) error {
	if _, err := os.Stat(params.Name); err == nil {
		return fmt.Errorf("%w: %s", ErrResultsExist, params.Name)
	}
	if err := os.Mkdir(params.Name, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	corpus, _ := base[KeyEngineCorpusDir].(string)
	if corpus == "" {
		return nil
	}
	if err := os.MkdirAll(corpus, 0755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}
	return nil
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}
