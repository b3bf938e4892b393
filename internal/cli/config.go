package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline"
)

// configFileName is the per-project configuration file looked up in the
// working directory.
const configFileName = "markdown3d.toml"

// projectConfig carries defaults from markdown3d.toml. Pointer fields
// distinguish "not set" from zero values; explicit flags always win.
type projectConfig struct {
	Template      string   `toml:"template"`
	Format        string   `toml:"format"`
	Seed          *uint64  `toml:"seed"`
	Separation    *float64 `toml:"separation"`
	Spacing       *float64 `toml:"spacing"`
	MaxIterations *int     `toml:"max_iterations"`
	NoForce       *bool    `toml:"no_force"`
	NoCollision   *bool    `toml:"no_collision"`
	Detailed      *bool    `toml:"detailed"`
}

// loadProjectConfig reads markdown3d.toml from dir. A missing file is not
// an error; a malformed one is.
func loadProjectConfig(dir string) (*projectConfig, error) {
	path := filepath.Join(dir, configFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg projectConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configFileName, err)
	}
	return &cfg, nil
}

// apply copies configured values into opts for every flag the user did not
// set on the command line. formatsStr is the raw --format value, handled
// separately because it is parsed after config application.
func (cfg *projectConfig) apply(cmd *cobra.Command, opts *pipeline.Options, formatsStr *string) {
	if cfg == nil {
		return
	}
	flags := cmd.Flags()

	if cfg.Template != "" && !flags.Changed("template") {
		opts.Template = cfg.Template
	}
	if cfg.Format != "" && formatsStr != nil && !flags.Changed("format") {
		*formatsStr = cfg.Format
	}
	if cfg.Seed != nil && !flags.Changed("seed") {
		opts.Seed = *cfg.Seed
	}
	if cfg.Separation != nil && !flags.Changed("separation") {
		opts.Separation = *cfg.Separation
	}
	if cfg.Spacing != nil && !flags.Changed("spacing") {
		opts.Spacing = *cfg.Spacing
	}
	if cfg.MaxIterations != nil && !flags.Changed("max-iterations") {
		opts.MaxIterations = *cfg.MaxIterations
	}
	if cfg.NoForce != nil && !flags.Changed("no-force") {
		opts.NoForce = *cfg.NoForce
	}
	if cfg.NoCollision != nil && !flags.Changed("no-collision") {
		opts.NoCollision = *cfg.NoCollision
	}
	if cfg.Detailed != nil && !flags.Changed("detailed") {
		opts.Detailed = *cfg.Detailed
	}
}
