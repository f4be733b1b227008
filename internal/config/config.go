package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	RulesFile string `mapstructure:"rules_file" yaml:"rules_file"`
	OnError   string `mapstructure:"on_error" yaml:"on_error" validate:"oneof=abort skip"`
	TopN      int    `mapstructure:"top_n" yaml:"top_n" validate:"min=1"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Charts    bool   `mapstructure:"charts" yaml:"charts"`

	// Input columns
	RegionColumn   string `mapstructure:"region_column" yaml:"region_column" validate:"required"`
	Age0To5Column  string `mapstructure:"age_0_5_column" yaml:"age_0_5_column" validate:"required"`
	Age5To17Column string `mapstructure:"age_5_17_column" yaml:"age_5_17_column" validate:"required"`
	Age18Column    string `mapstructure:"age_18_column" yaml:"age_18_column" validate:"required"`
	Sheet          string `mapstructure:"sheet" yaml:"sheet"`

	// SQL source
	SQLDriver string `mapstructure:"sql_driver" yaml:"sql_driver" validate:"omitempty,oneof=sqlite postgres"`
	SQLDSN    string `mapstructure:"sql_dsn" yaml:"sql_dsn"`
	SQLTable  string `mapstructure:"sql_table" yaml:"sql_table"`

	// Logging
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// Charts
	ChartFormat string  `mapstructure:"chart_format" yaml:"chart_format" validate:"oneof=png svg pdf jpg"`
	ChartScale  float64 `mapstructure:"chart_scale" yaml:"chart_scale" validate:"gt=0"`
}

const dirName = ".enrolpulse"

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		OnError:        "abort",
		TopN:           10,
		OutputDir:      ".",
		RegionColumn:   "state",
		Age0To5Column:  "age_0_5",
		Age5To17Column: "age_5_17",
		Age18Column:    "age_18_greater",
		LogLevel:       "info",
		ChartFormat:    "png",
		ChartScale:     1,
	}
}

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.enrolpulse/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	return SaveFS(afero.NewOsFs(), c, cfgFile)
}

// SaveFS is Save on an explicit filesystem.
func SaveFS(fs afero.Fs, c *Global, cfgFile string) error {
	if err := Validate(c); err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := afero.WriteFile(fs, path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	return LoadFS(afero.NewOsFs(), cfgFile)
}

// LoadFS is Load on an explicit filesystem.
func LoadFS(fs afero.Fs, cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix("ENROLPULSE")
	v.AutomaticEnv()

	// Defaults
	d := Default()
	v.SetDefault("rules_file", d.RulesFile)
	v.SetDefault("on_error", d.OnError)
	v.SetDefault("top_n", d.TopN)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("charts", d.Charts)
	v.SetDefault("region_column", d.RegionColumn)
	v.SetDefault("age_0_5_column", d.Age0To5Column)
	v.SetDefault("age_5_17_column", d.Age5To17Column)
	v.SetDefault("age_18_column", d.Age18Column)
	v.SetDefault("sheet", d.Sheet)
	v.SetDefault("sql_driver", d.SQLDriver)
	v.SetDefault("sql_dsn", d.SQLDSN)
	v.SetDefault("sql_table", d.SQLTable)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("chart_format", d.ChartFormat)
	v.SetDefault("chart_scale", d.ChartScale)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		// An explicit file that is present but broken is an error; absence is not.
		if cfgFile != "" && !errors.As(err, &nf) {
			if ok, _ := afero.Exists(fs, cfgFile); ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.OnError = strings.ToLower(strings.TrimSpace(c.OnError))
	c.ChartFormat = strings.ToLower(strings.TrimSpace(c.ChartFormat))
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks value constraints and reports them by config key.
func Validate(c *Global) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), describe(fe)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%v is not one of [%s]", fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "required":
		return "must not be empty"
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}
