// Package config resolves the campaign configuration: the immutable run
// parameters (flags, hammer.yaml, HAMMER_* environment, .env) and the base
// engine configuration every worker inherits.
package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration errors. They are fatal and reported before a campaign starts.
var (
	ErrNoFiles        = errors.New("no target files specified")
	ErrMissingFile    = errors.New("target file does not exist")
	ErrInvalidParam   = errors.New("invalid run parameter")
	ErrResultsExist   = errors.New("refusing to overwrite existing directory")
	ErrEngineNotFound = errors.New("fuzzing engine not found")
)

// Viper keys, shared with the flag bindings in cmd/hammer.
const (
	KeyName      = "name"
	KeyContract  = "contract"
	KeyConfig    = "config"
	KeyCorpusDir = "corpus-dir"
	KeyEngine    = "engine"
	KeySlither   = "slither"
	KeyNCores    = "ncores"
	KeyTimeout   = "timeout"
	KeyGenTime   = "gen-time"
	KeySeed      = "seed"
	KeyMinSeqLen = "min-seq-len"
	KeyMaxSeqLen = "max-seq-len"
	KeyProb      = "prob"
	KeyAlways    = "always"
	KeyFunctions = "functions"
	KeyLogLevel  = "log-level"
	KeyLogFile   = "log-file"
	KeyNoColor   = "no-color"
)

// Default configuration values
const (
	DefaultEngineCmd  = "echidna-test"
	DefaultSlitherCmd = "slither"
	DefaultTimeout    = 3600
	DefaultGenTime    = 3600
	DefaultMinSeqLen  = 10
	DefaultMaxSeqLen  = 300
	DefaultProb       = 0.5
)

// RunParameters is the fully resolved campaign configuration. It is built
// once by Load and only read afterwards.
type RunParameters struct {
	Name       string
	Files      []string
	Contract   string
	ConfigPath string
	CorpusDir  string
	EngineCmd  string
	SlitherCmd string

	Timeout   time.Duration
	GenTime   time.Duration
	NCores    int
	MinSeqLen int
	MaxSeqLen int
	Prob      float64
	Always    []string
	Functions []string
	Seed      uint64
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyName, fmt.Sprintf("hammer.%d", os.Getpid()))
	v.SetDefault(KeyEngine, DefaultEngineCmd)
	v.SetDefault(KeySlither, DefaultSlitherCmd)
	v.SetDefault(KeyNCores, runtime.NumCPU())
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyGenTime, DefaultGenTime)
	v.SetDefault(KeyMinSeqLen, DefaultMinSeqLen)
	v.SetDefault(KeyMaxSeqLen, DefaultMaxSeqLen)
	v.SetDefault(KeyProb, DefaultProb)
}

// ConfigureViper wires environment lookup (HAMMER_GEN_TIME etc.) and the
// optional hammer.yaml in the working directory.
func ConfigureViper(v *viper.Viper) {
	v.SetEnvPrefix("HAMMER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("hammer")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
}

// ReadConfigFile loads hammer.yaml, or path when given. A missing default file
// is not an error.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
	}
	return nil
}

// Load resolves RunParameters from v and the positional target files. Paths
// are made absolute because workers run inside their own directories.
func Load(v *viper.Viper, files []string) (*RunParameters, error) {
	params := &RunParameters{
		Name:       v.GetString(KeyName),
		Contract:   v.GetString(KeyContract),
		ConfigPath: v.GetString(KeyConfig),
		CorpusDir:  v.GetString(KeyCorpusDir),
		EngineCmd:  v.GetString(KeyEngine),
		SlitherCmd: v.GetString(KeySlither),
		Timeout:    time.Duration(v.GetInt(KeyTimeout)) * time.Second,
		GenTime:    time.Duration(v.GetInt(KeyGenTime)) * time.Second,
		NCores:     v.GetInt(KeyNCores),
		MinSeqLen:  v.GetInt(KeyMinSeqLen),
		MaxSeqLen:  v.GetInt(KeyMaxSeqLen),
		Prob:       v.GetFloat64(KeyProb),
		Always:     splitList(v.GetStringSlice(KeyAlways)),
		Functions:  splitList(v.GetStringSlice(KeyFunctions)),
	}

	if v.IsSet(KeySeed) {
		params.Seed = v.GetUint64(KeySeed)
	} else {
		params.Seed = rand.Uint64()
	}

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		params.Files = append(params.Files, abs)
	}
	if params.CorpusDir != "" {
		abs, err := filepath.Abs(params.CorpusDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve corpus dir: %w", err)
		}
		params.CorpusDir = abs
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks parameter ranges and that every target file exists.
func (p *RunParameters) Validate() error {
	if len(p.Files) == 0 {
		return ErrNoFiles
	}
	for _, f := range p.Files {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingFile, f)
		}
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidParam)
	}
	if p.NCores < 1 {
		return fmt.Errorf("%w: ncores must be at least 1, got %d", ErrInvalidParam, p.NCores)
	}
	if p.Timeout < 0 || p.GenTime < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidParam)
	}
	if p.MinSeqLen < 1 || p.MinSeqLen >= p.MaxSeqLen {
		return fmt.Errorf("%w: need 1 <= min-seq-len < max-seq-len, got [%d, %d)", ErrInvalidParam, p.MinSeqLen, p.MaxSeqLen)
	}
	if p.Prob < 0 || p.Prob > 1 {
		return fmt.Errorf("%w: prob must be within [0, 1], got %v", ErrInvalidParam, p.Prob)
	}
	return nil
}

// splitList accepts both repeated flags and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
