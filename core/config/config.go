package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	// DefaultPath is where the configuration is read from when no path is
	// given.
	DefaultPath = "~/.mush.yaml"
	// EnvPrefix prefixes environment variables overriding the file, e.g.
	// MUSH_PROMPT.
	EnvPrefix = "mush"
)

// Configuration holds the shell's settings.
type Configuration struct {
	Prompt      string `json:"prompt" envconfig:"PROMPT"`
	ColorPrompt bool   `json:"color_prompt" envconfig:"COLOR_PROMPT"`
	KillSignal  string `json:"kill_signal" envconfig:"KILL_SIGNAL" validate:"required,oneof=SIGKILL SIGTERM SIGINT SIGHUP SIGQUIT"`
	EventLog    string `json:"event_log" envconfig:"EVENT_LOG"`
	LogLevel    string `json:"log_level" envconfig:"LOG_LEVEL" validate:"required,oneof=debug info warn error"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Signal returns the configured kill signal.
func (c *Configuration) Signal() (syscall.Signal, error) {
	sig := unix.SignalNum(c.KillSignal)
	if sig == 0 {
		return 0, fmt.Errorf("unknown signal %q", c.KillSignal)
	}
	return sig, nil
}

// Default returns the built-in configuration.
func Default() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Load reads the configuration at path from fsys, applies environment
// overrides and validates the result. A leading "~" in path is the user's
// home directory. If path is DefaultPath and does not exist, the defaults
// are used.
func Load(fsys afero.Fs, path string) (*Configuration, error) {
	out := Default()

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	contents, err := afero.ReadFile(fsys, expanded)
	switch {
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	case err != nil:
		return nil, err
	default:
		if err := yaml.UnmarshalStrict(contents, out); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
