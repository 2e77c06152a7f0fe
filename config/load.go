package config

import (
	// Go Internal Packages
	"fmt"
	"os"

	// External Packages
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
)

// NewKoanf loads DefaultConfig and overrides it with the YAML file at path.
// A missing file is not an error; the defaults are used as they are.
func NewKoanf(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("cannot load default config: %w", err)
	}

	if path == "" {
		return k, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return k, nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("cannot load config file %s: %w", path, err)
	}
	return k, nil
}

// Parse unmarshals k into a Config.
func Parse(k *koanf.Koanf) (Config, error) {
	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
