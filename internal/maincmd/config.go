package maincmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultMaxIterations bounds lang/driver.RunToFixedPoint when the CLI user
// does not request a cap of their own; spec.md's termination proof applies
// to a single pass, so this is a defensive ceiling, not a limit expected to
// be hit.
const defaultMaxIterations = 100

// fileConfig is the shape of the optional --config YAML file: the subset of
// Cmd's fields that make sense to externalize. It intentionally mirrors
// lang/inline.Config's emptiness today - there is nothing the pass itself
// takes as configuration yet, only the driver/render options around it.
type fileConfig struct {
	MaxIterations int    `yaml:"max_iterations"`
	Indent        string `yaml:"indent"`
}

// loadConfigFile reads c.ConfigFile, when set, and applies it on top of
// whatever flags/environment already set - spec.md §6's precedence order
// with the explicit file last, so it always wins over flags or env vars.
func (c *Cmd) loadConfigFile() error {
	if c.ConfigFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if fc.MaxIterations != 0 {
		c.MaxIterations = fc.MaxIterations
	}
	if fc.Indent != "" {
		c.Indent = fc.Indent
	}
	return nil
}
