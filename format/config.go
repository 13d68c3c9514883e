package format

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/keyfmt/internal/types"
)

// DefaultConfigFile is looked up in the working directory when no
// configuration path is given.
const DefaultConfigFile = ".keyfmt.yaml"

// LoadConfig reads a YAML configuration on top of types.DefaultConfig.
// A missing file yields the defaults.
func LoadConfig(configurationPath string) (types.Config, error) {
	config := types.DefaultConfig()
	if configurationPath == "" {
		configurationPath = DefaultConfigFile
	}

	f, err := os.Open(configurationPath)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("%w: %s: %v", types.ErrInvalidConfig, configurationPath, err)
	}

	return config, config.Validate()
}

// WriteConfig writes config as YAML to configurationPath.
func WriteConfig(configurationPath string, config types.Config) error {
	if configurationPath == "" {
		configurationPath = DefaultConfigFile
	}

	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	f, err := os.Create(configurationPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(d)
	return err
}
