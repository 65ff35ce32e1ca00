package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	return v
}

func writeTarget(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Token.sol")
	require.NoError(t, os.WriteFile(path, []byte("contract Token {}"), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	target := writeTarget(t)
	v := newTestViper(t)
	v.Set(KeySeed, 7)

	params, err := Load(v, []string{target})
	require.NoError(t, err)

	assert.Equal(t, []string{target}, params.Files)
	assert.Equal(t, DefaultEngineCmd, params.EngineCmd)
	assert.Equal(t, time.Duration(DefaultTimeout)*time.Second, params.Timeout)
	assert.Equal(t, time.Duration(DefaultGenTime)*time.Second, params.GenTime)
	assert.Equal(t, DefaultMinSeqLen, params.MinSeqLen)
	assert.Equal(t, DefaultMaxSeqLen, params.MaxSeqLen)
	assert.Equal(t, DefaultProb, params.Prob)
	assert.Equal(t, uint64(7), params.Seed)
	assert.GreaterOrEqual(t, params.NCores, 1)
	assert.Contains(t, params.Name, "hammer.")
}

func TestLoad_ListsAcceptCommaSeparatedValues(t *testing.T) {
	target := writeTarget(t)
	v := newTestViper(t)
	v.Set(KeyAlways, []string{"deposit,withdraw", " mint "})
	v.Set(KeyFunctions, "a,b")

	params, err := Load(v, []string{target})
	require.NoError(t, err)
	assert.Equal(t, []string{"deposit", "withdraw", "mint"}, params.Always)
	assert.Equal(t, []string{"a", "b"}, params.Functions)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	target := writeTarget(t)
	t.Setenv("HAMMER_GEN_TIME", "120")
	t.Setenv("HAMMER_NCORES", "3")

	v := newTestViper(t)
	ConfigureViper(v)

	params, err := Load(v, []string{target})
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, params.GenTime)
	assert.Equal(t, 3, params.NCores)
}

func TestValidate(t *testing.T) {
	target := writeTarget(t)
	valid := func() *RunParameters {
		return &RunParameters{
			Name:      "hammer.test",
			Files:     []string{target},
			NCores:    2,
			Timeout:   time.Minute,
			GenTime:   time.Minute,
			MinSeqLen: 10,
			MaxSeqLen: 300,
			Prob:      0.5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *RunParameters)
		wantErr error
	}{
		{name: "valid", mutate: func(*RunParameters) {}},
		{name: "no files", mutate: func(p *RunParameters) { p.Files = nil }, wantErr: ErrNoFiles},
		{name: "missing file", mutate: func(p *RunParameters) { p.Files = []string{target + ".missing"} }, wantErr: ErrMissingFile},
		{name: "zero cores", mutate: func(p *RunParameters) { p.NCores = 0 }, wantErr: ErrInvalidParam},
		{name: "empty seq len range", mutate: func(p *RunParameters) { p.MaxSeqLen = p.MinSeqLen }, wantErr: ErrInvalidParam},
		{name: "prob above one", mutate: func(p *RunParameters) { p.Prob = 1.5 }, wantErr: ErrInvalidParam},
		{name: "negative timeout", mutate: func(p *RunParameters) { p.Timeout = -time.Second }, wantErr: ErrInvalidParam},
		{name: "zero timeout is allowed", mutate: func(p *RunParameters) { p.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hammer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ncores: 5\nprob: 0.25\n"), 0644))

	v := newTestViper(t)
	require.NoError(t, ReadConfigFile(v, path))
	assert.Equal(t, 5, v.GetInt(KeyNCores))
	assert.Equal(t, 0.25, v.GetFloat64(KeyProb))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("ncores: [\n"), 0644))
	assert.Error(t, ReadConfigFile(newTestViper(t), bad))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("HAMMER_DOTENV_PROBE=from-file\nHAMMER_DOTENV_KEPT=from-file\n"), 0644))

	t.Setenv("HAMMER_DOTENV_KEPT", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("HAMMER_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "from-file", os.Getenv("HAMMER_DOTENV_PROBE"))
	assert.Equal(t, "from-env", os.Getenv("HAMMER_DOTENV_KEPT"))

	assert.NoError(t, LoadDotEnv(t.TempDir()), "missing .env is not an error")
}
