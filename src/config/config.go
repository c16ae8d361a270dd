// Package config loads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Blackdeer1524/lrand/src/kernel"
)

const Prefix = "LRAND"

type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

const (
	DefaultDomainMin   int64 = 1_010_001
	DefaultDomainMax   int64 = 899_999_999
	DefaultChunkLength int64 = 100_000
	DefaultBlockSize         = 4096
	DefaultOutputFile        = "identifier_output.csv.gz"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config fields map to LRAND_* environment variables.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"prod"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	DataDir      string `envconfig:"DATA_DIR" default:"data"`
	ReferenceDir string `envconfig:"REFERENCE_DIR" default:"reference"`
	OutputFile   string `envconfig:"OUTPUT_FILE" default:"identifier_output.csv.gz"`

	DomainMin   int64 `envconfig:"DOMAIN_MIN" default:"1010001"`
	DomainMax   int64 `envconfig:"DOMAIN_MAX" default:"899999999"`
	ChunkLength int64 `envconfig:"CHUNK_LENGTH" default:"100000"`

	// zero means runtime.NumCPU()
	ChunkWorkers  int `envconfig:"CHUNK_WORKERS" default:"0"`
	KernelWorkers int `envconfig:"KERNEL_WORKERS" default:"0"`
	BlockSize     int `envconfig:"BLOCK_SIZE" default:"4096"`

	Variant      string `envconfig:"VARIANT" default:"exact"`
	IncludeWhole bool   `envconfig:"INCLUDE_WHOLE" default:"false"`
}

// LoadDotEnv loads path (".env" when empty) into the environment. A missing file is
// not an error; variables already set are kept.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	return nil
}

func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process environment: %w", err)
	}

	return cfg, nil
}

func Load(envFile string) (Config, error) {
	if err := LoadDotEnv(envFile); err != nil {
		return Config{}, err
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.Environment {
	case EnvDev, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("environment %q is neither %q nor %q", c.Environment, EnvDev, EnvProd))
	}

	if c.DomainMax <= c.DomainMin {
		errs = append(errs, fmt.Errorf("domain [%d, %d) is empty", c.DomainMin, c.DomainMax))
	}
	if c.DomainMin < kernel.MinIdentifier || c.DomainMax-1 > kernel.MaxIdentifier {
		errs = append(errs, fmt.Errorf("domain [%d, %d) exceeds [%d, %d]",
			c.DomainMin, c.DomainMax, kernel.MinIdentifier, kernel.MaxIdentifier))
	}
	if c.ChunkLength <= 0 {
		errs = append(errs, fmt.Errorf("chunk length %d is not positive", c.ChunkLength))
	}
	if c.ChunkWorkers < 0 || c.KernelWorkers < 0 || c.BlockSize < 0 {
		errs = append(errs, errors.New("worker counts and block size must not be negative"))
	}
	if _, err := kernel.ParseVariant(c.Variant); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		errs = append(errs, errors.New("output file is empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

func (c Config) KernelVariant() kernel.Variant {
	v, err := kernel.ParseVariant(c.Variant)
	if err != nil {
		return kernel.Exact
	}

	return v
}

// OutputPath is DATA_DIR/REFERENCE_DIR/OUTPUT_FILE; absolute REFERENCE_DIR or
// OUTPUT_FILE values are used as they are.
func (c Config) OutputPath() string {
	if filepath.IsAbs(c.OutputFile) {
		return filepath.Clean(c.OutputFile)
	}

	dir := c.ReferenceDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.DataDir, dir)
	}

	return filepath.Join(dir, c.OutputFile)
}
