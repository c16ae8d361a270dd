package app

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Blackdeer1524/lrand/src"
	"github.com/Blackdeer1524/lrand/src/batch"
	"github.com/Blackdeer1524/lrand/src/config"
	"github.com/Blackdeer1524/lrand/src/pipeline"
	"github.com/Blackdeer1524/lrand/src/storage"
)

// Entrypoint wires configuration into the evaluator, the sink and the pipeline.
// Config must be set before Init; Fs defaults to the OS filesystem.
type Entrypoint struct {
	Config config.Config
	Fs     afero.Fs

	log  *zap.SugaredLogger
	eval *batch.Evaluator
	sink *storage.CSVSink
	pipe *pipeline.Pipeline
}

func NewLogger(env config.Environment, level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if env == config.EnvDev {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return l.Sugar(), nil
}

func (e *Entrypoint) Init(_ context.Context) error {
	if err := e.Config.Validate(); err != nil {
		return err
	}

	if e.Fs == nil {
		e.Fs = afero.NewOsFs()
	}

	log, err := NewLogger(e.Config.Environment, e.Config.LogLevel)
	if err != nil {
		return err
	}
	e.log = log

	e.eval, err = batch.NewEvaluator(e.Config.KernelWorkers, e.Config.BlockSize, log)
	if err != nil {
		return fmt.Errorf("failed to setup evaluator: %w", err)
	}

	e.sink = storage.NewCSVSink(e.Fs)
	e.pipe = pipeline.New(e.eval, e.sink, log)

	return nil
}

func (e *Entrypoint) SweepRequest() pipeline.Request {
	return pipeline.Request{
		Low:          e.Config.DomainMin,
		High:         e.Config.DomainMax,
		ChunkLength:  e.Config.ChunkLength,
		Variant:      e.Config.KernelVariant(),
		Parallelism:  e.Config.ChunkWorkers,
		Path:         e.Config.OutputPath(),
		IncludeWhole: e.Config.IncludeWhole,
	}
}

// Run sweeps the configured domain.
func (e *Entrypoint) Run(ctx context.Context) (*pipeline.Report, error) {
	return e.pipe.Run(ctx, e.SweepRequest())
}

func (e *Entrypoint) Logger() src.Logger {
	return e.log
}

func (e *Entrypoint) Evaluator() *batch.Evaluator {
	return e.eval
}

func (e *Entrypoint) Sink() *storage.CSVSink {
	return e.sink
}

func (e *Entrypoint) Pipeline() *pipeline.Pipeline {
	return e.pipe
}

func (e *Entrypoint) Close() (err error) {
	if e.eval != nil {
		e.eval.Close()
	}

	if e.log != nil {
		logErr := e.log.Sync()
		// stdout and stderr refuse fsync on most terminals
		if errors.Is(logErr, syscall.EINVAL) || errors.Is(logErr, syscall.ENOTTY) {
			logErr = nil
		}
		err = errors.Join(err, logErr)
	}

	return
}
