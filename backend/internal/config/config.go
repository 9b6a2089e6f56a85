// Package config reads the program settings from flags, environment
// variables, an optional .env file and an optional config file, in that order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Backend names.
const (
	BackendSDL3    = "sdl3"
	BackendLinuxJS = "linuxjs"
	BackendReplay  = "replay"
)

// EnvPrefix prefixes every environment variable, PADINPUT_LISTEN for listen.
const EnvPrefix = "PADINPUT"

type Config struct {
	Listen       string
	Backend      string
	ReplayFile   string
	ReplayLoop   bool
	Record       string
	Mappings     []string
	Store        string
	Deadzone     float64
	PollInterval time.Duration
	Tray         bool
	Verbose      bool

	// ConfigFile is the file the settings were read from, if any
	ConfigFile string
}

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

func flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("padinput", pflag.ContinueOnError)
	// the caller prints Usage() for --help
	f.Usage = func() {}
	f.String("config", "", "config file (default: padinput.{yaml,toml,json} in the working directory)")
	f.String("env-file", ".env", "environment file")
	f.String("listen", ":8080", "HTTP listen address")
	f.String("backend", BackendSDL3, "input backend: sdl3, linuxjs or replay")
	f.String("replay-file", "", "capture to play back with the replay backend")
	f.Bool("replay-loop", false, "restart the capture at its end")
	f.String("record", "", "write every input event to this capture file")
	f.StringSlice("mappings", nil, "gamecontrollerdb files to load")
	f.String("store", "padinput.db", "database of mappings added at run time, empty to disable")
	f.Float64("deadzone", 0.05, "stick and trigger deadzone (0-1)")
	f.Duration("poll-interval", 16*time.Millisecond, "input poll interval")
	f.Bool("tray", runtime.GOOS == "windows", "show a system tray icon")
	f.BoolP("verbose", "v", false, "log every input event")
	return f
}

// Load reads the configuration for the command line args, without the
// program name.
func Load(args []string) (*Config, error) {
	f := flags()
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := f.GetString("env-file")
	if envFile != "" {
		// variables already set win over the file
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(f); err != nil {
		return nil, err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("padinput")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	cfg := &Config{
		Listen:       v.GetString("listen"),
		Backend:      strings.ToLower(v.GetString("backend")),
		ReplayFile:   v.GetString("replay-file"),
		ReplayLoop:   v.GetBool("replay-loop"),
		Record:       v.GetString("record"),
		Mappings:     v.GetStringSlice("mappings"),
		Store:        v.GetString("store"),
		Deadzone:     v.GetFloat64("deadzone"),
		PollInterval: v.GetDuration("poll-interval"),
		Tray:         v.GetBool("tray"),
		Verbose:      v.GetBool("verbose"),
		ConfigFile:   v.ConfigFileUsed(),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendSDL3, BackendLinuxJS:
	case BackendReplay:
		if c.ReplayFile == "" {
			return fmt.Errorf("%w: the replay backend needs a replay-file", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, c.Backend)
	}
	if c.Deadzone < 0 || c.Deadzone >= 1 {
		return fmt.Errorf("%w: deadzone %v outside 0-1", ErrInvalid, c.Deadzone)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll-interval must be positive", ErrInvalid)
	}
	return nil
}

// Usage returns the flag help text.
func Usage() string {
	return flags().FlagUsages()
}
