package app

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blackdeer1524/lrand/src/audit"
	"github.com/Blackdeer1524/lrand/src/config"
)

func testConfig() config.Config {
	return config.Config{
		Environment:  config.EnvDev,
		LogLevel:     "error",
		DataDir:      "data",
		ReferenceDir: "reference",
		OutputFile:   config.DefaultOutputFile,
		DomainMin:    1_010_001,
		DomainMax:    1_012_001,
		ChunkLength:  300,
		BlockSize:    64,
		Variant:      "exact",
	}
}

func TestEntrypointRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	e := &Entrypoint{Config: testConfig(), Fs: fs}
	require.NoError(t, e.Init(context.Background()))
	defer func() { assert.NoError(t, e.Close()) }()

	rep, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2_000), rep.Rows)
	assert.Equal(t, 7, rep.Chunks)

	check, err := audit.VerifyFile(e.Sink(), e.Config.OutputPath(), 2_000, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000), check.Rows)
}

func TestEntrypointRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Variant = "nope"

	e := &Entrypoint{Config: cfg, Fs: afero.NewMemMapFs()}
	assert.ErrorIs(t, e.Init(context.Background()), config.ErrInvalidConfig)
	assert.NoError(t, e.Close())
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(config.EnvProd, "warn")
	assert.NoError(t, err)

	_, err = NewLogger(config.EnvDev, "chatty")
	assert.Error(t, err)
}
