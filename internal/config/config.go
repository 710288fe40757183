package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/accelforge/vecadd/internal/accel"
)

// DefaultPath is where the CLI looks for a config file when --config is not
// given. A missing file at this path is not an error; built-in defaults
// apply.
const DefaultPath = "vecadd.yaml"

type Config struct {
	Vector struct {
		// Length is the element count of each vector.
		Length int `yaml:"length"`
		// WorkgroupSize is the work-items per work-group of the dispatch.
		// Length must be divisible by it.
		WorkgroupSize int   `yaml:"workgroupSize"`
		FillA         int32 `yaml:"fillA"`
		FillB         int32 `yaml:"fillB"`
	} `yaml:"vector"`
	// Backend pins the compute backend ("opencl", "occa", "sim"); empty
	// selects the first available.
	Backend string `yaml:"backend"`
	// Verify recomputes the expected result on the host after readback.
	Verify bool `yaml:"verify"`
	Logger struct {
		Verbosity string `yaml:"verbosity"`
	} `yaml:"logger"`
	Metrics struct {
		// ListenAddress serves /metrics when non-empty, e.g. ":9090".
		ListenAddress string `yaml:"listenAddress"`
	} `yaml:"metrics"`
	Node struct {
		KeystorePath string `yaml:"keystorePath"`
	} `yaml:"node"`
	// Attest signs the run report with the node key.
	Attest bool `yaml:"attest"`
}

// Default returns the configuration of the canonical run: 2048 elements
// filled with ones, dispatched in groups of 256.
func Default() *Config {
	var c Config
	c.Vector.Length = 2048
	c.Vector.WorkgroupSize = 256
	c.Vector.FillA = 1
	c.Vector.FillB = 1
	c.Verify = true
	c.Logger.Verbosity = "info"
	c.Node.KeystorePath = "keyfile.json"
	return &c
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist. Any other read or parse failure is an error.
func LoadOrDefault(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}

// Validate rejects configurations the pipeline cannot dispatch.
func (c *Config) Validate() error {
	if c.Vector.Length <= 0 {
		return fmt.Errorf("vector.length must be positive, got %d", c.Vector.Length)
	}
	if c.Vector.WorkgroupSize <= 0 {
		return fmt.Errorf("vector.workgroupSize must be positive, got %d", c.Vector.WorkgroupSize)
	}
	if c.Vector.Length%c.Vector.WorkgroupSize != 0 {
		return fmt.Errorf("vector.length %d is not divisible by vector.workgroupSize %d",
			c.Vector.Length, c.Vector.WorkgroupSize)
	}
	if c.Backend != "" && !accel.KnownBackend(c.Backend) {
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// WorkGroups returns the work-group count of the dispatch.
func (c *Config) WorkGroups() int {
	return c.Vector.Length / c.Vector.WorkgroupSize
}
