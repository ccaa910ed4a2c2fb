package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/calibench/calibench/internal/preset"
)

// File models the optional configuration file: global defaults plus
// per-profile preset overrides, e.g.
//
//	{
//	  "target": "http://127.0.0.1:8000/",
//	  "presets": {
//	    "smoke": {"closed": {"total_per_c": 500}, "open": {"duration": 5}}
//	  }
//	}
type File struct {
	Target  string                     `mapstructure:"target"`
	Timeout time.Duration              `mapstructure:"timeout"`
	CSV     string                     `mapstructure:"csv"`
	DB      string                     `mapstructure:"db"`
	Presets map[string]preset.Override `mapstructure:"presets"`
}

// LoadFile reads and decodes a JSON or YAML configuration file.
func LoadFile(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &f, nil
}

// ApplyFileDefaults lays file-level values underneath the flag set: a file
// value only takes effect for flags the operator did not set explicitly.
func ApplyFileDefaults(flags *pflag.FlagSet, f *File) error {
	if f == nil {
		return nil
	}
	set := func(name, value string) error {
		if flag := flags.Lookup(name); flag == nil || flags.Changed(name) {
			return nil
		}
		return flags.Set(name, value)
	}
	if f.Target != "" {
		if err := set("url", f.Target); err != nil {
			return err
		}
	}
	if f.Timeout > 0 {
		if err := set("timeout", f.Timeout.String()); err != nil {
			return err
		}
	}
	if f.CSV != "" {
		if err := set("csv", f.CSV); err != nil {
			return err
		}
	}
	if f.DB != "" {
		if err := set("db", f.DB); err != nil {
			return err
		}
	}
	return nil
}
