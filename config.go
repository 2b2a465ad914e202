package main

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vasyahuyasa/apachelog/apachelog"
	"github.com/vasyahuyasa/apachelog/resolver"
)

const (
	defaultFormat     = "extended"
	stdinLogfile      = "-"
	friendlyIPField   = "remote_host"
	friendlyTimeField = "time"
)

type filterConfig interface{}

type resolveConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Smart     bool                `yaml:"smart"`
	Verify    bool                `yaml:"verify"`
	Fields    []string            `yaml:"fields"`
	CacheFile string              `yaml:"cache_file"`
	Servers   []string            `yaml:"servers"`
	Timeout   time.Duration       `yaml:"timeout"`
	Rules     map[string][]string `yaml:"rules"`
}

type config struct {
	Logfile       string              `yaml:"logfile"`
	Follow        bool                `yaml:"follow"`
	Format        string              `yaml:"format"`
	FriendlyNames bool                `yaml:"friendly_names"`
	Debug         bool                `yaml:"debug"`
	Template      string              `yaml:"template"`
	Output        string              `yaml:"output"`
	MetricsAddr   string              `yaml:"metrics_addr"`
	IPField       string              `yaml:"ip_field"`
	TimeField     string              `yaml:"time_field"`
	Resolve       resolveConfig       `yaml:"resolve"`
	Networks      map[string][]string `yaml:"networks"`
	GeoIP         geoIPConfig         `yaml:"geoip"`
	Filters       []filterConfig      `yaml:"filters"`
}

func loadConfig(r io.Reader) (config, error) {
	decoder := yaml.NewDecoder(r)

	cfg := config{}

	err := decoder.Decode(&cfg)
	if err != nil {
		return config{}, fmt.Errorf("cannot decode config: %w", err)
	}

	cfg.setDefaults()

	return cfg, nil
}

func (cfg *config) setDefaults() {
	if cfg.Logfile == "" {
		cfg.Logfile = stdinLogfile
	}

	if cfg.Format == "" {
		cfg.Format = defaultFormat
	}

	if cfg.IPField == "" {
		cfg.IPField = "%h"
		if cfg.FriendlyNames {
			cfg.IPField = friendlyIPField
		}
	}

	if cfg.TimeField == "" {
		cfg.TimeField = "%t"
		if cfg.FriendlyNames {
			cfg.TimeField = friendlyTimeField
		}
	}

	if len(cfg.Resolve.Fields) == 0 {
		cfg.Resolve.Fields = []string{cfg.IPField}
	}

	if cfg.Resolve.CacheFile == "" {
		cfg.Resolve.CacheFile = resolver.DefaultCachePath()
	}
}

// compileFormat accepts a predefined format name or a LogFormat string.
func (cfg config) compileFormat() (*apachelog.Format, error) {
	return apachelog.Compile(apachelog.Lookup(cfg.Format), cfg.FriendlyNames)
}
