// Package config loads tmagick defaults from a YAML file, a .env file and
// TMAGICK_* environment variables. Command-line flags override all of them.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/geometry"
	"github.com/Fepozopo/tmagick/pkg/stdimg"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TMAGICK_"

// Config holds defaults for the manipulate and identify commands.
type Config struct {
	// Quality is the JPEG quality. Zero means the encoder default.
	Quality float64 `yaml:"quality"`
	// Format is the output format used when the destination has no
	// recognizable extension.
	Format       string  `yaml:"format"`
	Font         string  `yaml:"font"`
	FontSize     float64 `yaml:"font_size"`
	TextColor    string  `yaml:"text_color"`
	TextGravity  string  `yaml:"text_gravity"`
	ImageGravity string  `yaml:"image_gravity"`
	ImageOpacity float64 `yaml:"image_opacity"`
	LogLevel     string  `yaml:"log_level"`
	LogFormat    string  `yaml:"log_format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		FontSize:     24,
		TextColor:    "0,0,0,255",
		TextGravity:  "center",
		ImageGravity: "center",
		ImageOpacity: 1,
		LogLevel:     "warn",
		LogFormat:    "text",
	}
}

// DefaultPath is $TMAGICK_CONFIG, or config.yaml in the user config
// directory.
func DefaultPath() string {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tmagick", "config.yaml")
}

// LoadDotEnv loads the given .env files (".env" when none are named) into
// the process environment. Missing files are skipped and variables already
// set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errs.Wrapf(errs.InvalidArgument, err, "load %s", p)
		}
	}
	return nil
}

// Load builds the configuration. An explicitly named file must exist; when
// path is empty DefaultPath is read if present.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.decode(bytes.NewReader(data)); err != nil {
				return nil, errs.Wrapf(errs.InvalidArgument, err, "config %s", path)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, errs.Wrapf(errs.InvalidArgument, err, "config %s", path)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"FORMAT":        &c.Format,
		"FONT":          &c.Font,
		"TEXT_COLOR":    &c.TextColor,
		"TEXT_GRAVITY":  &c.TextGravity,
		"IMAGE_GRAVITY": &c.ImageGravity,
		"LOG_LEVEL":     &c.LogLevel,
		"LOG_FORMAT":    &c.LogFormat,
	}
	for k, dst := range str {
		if v, ok := lookup(EnvPrefix + k); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	num := map[string]*float64{
		"QUALITY":       &c.Quality,
		"FONT_SIZE":     &c.FontSize,
		"IMAGE_OPACITY": &c.ImageOpacity,
	}
	for k, dst := range num {
		v, ok := lookup(EnvPrefix + k)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return errs.Wrapf(errs.InvalidArgument, err, "%s%s", EnvPrefix, k)
		}
		*dst = f
	}
	return nil
}

// Validate checks value ranges and that gravities and colors parse.
func (c *Config) Validate() error {
	if c.Quality < 0 || c.Quality > 100 {
		return errs.New(errs.InvalidArgument, "quality %v is outside 1..100", c.Quality)
	}
	if c.FontSize <= 0 {
		return errs.New(errs.InvalidArgument, "font size must be positive, got %v", c.FontSize)
	}
	if _, err := geometry.ParseGravity(c.TextGravity); err != nil {
		return err
	}
	if _, err := geometry.ParseGravity(c.ImageGravity); err != nil {
		return err
	}
	if _, err := stdimg.ParseColor(c.TextColor); err != nil {
		return err
	}
	return nil
}
