// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Server configuration tree.

package control

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Dispatch strategies.
const (
	StrategyProactor = "proactor"
	StrategyReactor  = "reactor"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerSection   `koanf:"server" yaml:"server"`
	Dispatch DispatchSection `koanf:"dispatch" yaml:"dispatch"`
	Log      LogSection      `koanf:"log" yaml:"log"`
	Store    StoreSection    `koanf:"store" yaml:"store"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics"`
}

// ServerSection configures the listening endpoint and the event loop.
type ServerSection struct {
	Addr    string `koanf:"addr" yaml:"addr"`
	Port    int    `koanf:"port" yaml:"port"`
	Backlog int    `koanf:"backlog" yaml:"backlog"`
	// Linger selects SO_LINGER {1,1} on the listening socket.
	Linger bool `koanf:"linger" yaml:"linger"`
	// TrigMode: 0 LT listener/LT conns, 1 LT/ET, 2 ET/LT, 3 ET/ET.
	TrigMode int           `koanf:"trigmode" yaml:"trigmode"`
	MaxConns int           `koanf:"maxconns" yaml:"maxconns"`
	TimeSlot time.Duration `koanf:"timeslot" yaml:"timeslot"`
	DocRoot  string        `koanf:"docroot" yaml:"docroot"`
	Index    string        `koanf:"index" yaml:"index"`
	// ReadBuffer is the maximum request buffer per connection in bytes.
	ReadBuffer int  `koanf:"readbuffer" yaml:"readbuffer"`
	PinLoop    bool `koanf:"pinloop" yaml:"pinloop"`
}

// DispatchSection configures the worker pool.
type DispatchSection struct {
	Strategy   string `koanf:"strategy" yaml:"strategy"`
	Workers    int    `koanf:"workers" yaml:"workers"`
	Queue      int    `koanf:"queue" yaml:"queue"`
	PinWorkers bool   `koanf:"pinworkers" yaml:"pinworkers"`
}

// LogSection configures the log sink.
type LogSection struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Async   bool   `koanf:"async" yaml:"async"`
	Level   string `koanf:"level" yaml:"level"`
	Format  string `koanf:"format" yaml:"format"`
	File    string `koanf:"file" yaml:"file"`
	Buffer  int    `koanf:"buffer" yaml:"buffer"`
}

// StoreSection configures the credential store.
type StoreSection struct {
	// Path is the badger directory; empty keeps users in memory.
	Path           string        `koanf:"path" yaml:"path"`
	Conns          int           `koanf:"conns" yaml:"conns"`
	AcquireTimeout time.Duration `koanf:"acquiretimeout" yaml:"acquiretimeout"`
	Cost           int           `koanf:"cost" yaml:"cost"`
}

// MetricsSection configures metrics export.
type MetricsSection struct {
	// Textfile receives the prometheus text exposition on shutdown when set.
	Textfile string `koanf:"textfile" yaml:"textfile"`
}

// EdgeListener reports whether the listening socket uses edge triggering.
func (s ServerSection) EdgeListener() bool { return s.TrigMode == 2 || s.TrigMode == 3 }

// EdgeConns reports whether accepted connections use edge triggering.
func (s ServerSection) EdgeConns() bool { return s.TrigMode == 1 || s.TrigMode == 3 }

// Encode writes cfg as YAML.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// Save writes cfg as YAML to path, replacing the file atomically.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := c.Encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
