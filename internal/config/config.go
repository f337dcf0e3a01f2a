package config

import (
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"

	"github.com/stoptool/stop/internal/logging"
	"github.com/stoptool/stop/internal/proc"
)

// ConfigFile is the optional YAML configuration of the tool. CLI flags
// override whatever is loaded here.
type ConfigFile struct {
	// Interval is the refresh interval of watch mode.
	Interval time.Duration `yaml:"interval" default:"2s"`
	// TopN limits how many processes a snapshot displays.
	TopN int `yaml:"top-n" default:"20"`
	// SortBy orders the process list: cpu, mem, pid or name.
	SortBy string `yaml:"sort-by" default:"cpu"`
	// Listen enables the HTTP snapshot endpoint when non-empty.
	Listen  string         `yaml:"listen"`
	Logging logging.Config `yaml:"logging"`
}

// Default returns a ConfigFile with all defaults applied.
func Default() (*ConfigFile, error) {
	var c ConfigFile
	if err := defaults.Set(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// FromFile loads the configuration from the YAML file at path, applying
// defaults for everything the file leaves out.
func FromFile(path string) (*ConfigFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open config file")
	}
	defer func() { _ = f.Close() }()

	var c ConfigFile

	if err := defaults.Set(&c); err != nil {
		return nil, err
	}

	d := yaml.NewDecoder(f)
	if err := d.Decode(&c); err != nil {
		return nil, errors.Wrap(err, "cannot parse config file")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks the entire configuration on startup.
func (c *ConfigFile) Validate() error {
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.TopN <= 0 {
		return errors.New("top-n must be positive")
	}
	if !proc.ValidSortKey(c.SortBy) {
		return errors.Errorf("unknown sort key %q, valid keys: cpu, mem, pid, name", c.SortBy)
	}

	return c.Logging.Validate()
}
