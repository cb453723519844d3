package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mindburn-labs/gtk-core/pkg/params"
)

// loadParams reads a Params instance from a YAML config file. An empty path
// falls back to DefaultGMIParams, the same default the test suite builds
// against, so gtkctl is usable with zero configuration on the grid kernel.
func loadParams(path string) (params.Params, error) {
	if path == "" {
		return params.DefaultGMIParams(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return params.Params{}, fmt.Errorf("gtkctl: reading config %q: %w", path, err)
	}
	p := params.DefaultGMIParams()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return params.Params{}, fmt.Errorf("gtkctl: parsing config %q: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return params.Params{}, fmt.Errorf("gtkctl: config %q failed validation: %w", path, err)
	}
	return p, nil
}
