// Package config loads userstore settings from defaults, an optional YAML
// file and USERSTORE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the resolved settings.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string
	// Tiered puts an in-memory read cache in front of the database.
	Tiered bool
	// LogLevel is one of debug, info, warn, error.
	LogLevel slog.Level
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db.path", "./userstore.db")
	v.SetDefault("db.tiered", false)
	v.SetDefault("log.level", "info")
}

// Load reads configuration into a Config. When file is empty, userstore.yaml
// is looked up in the working directory and its absence is not an error.
func Load(file string) (Config, error) {
	return LoadFrom(viper.New(), file)
}

// LoadFrom is Load on a caller-supplied viper instance.
func LoadFrom(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("USERSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("userstore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return Config{}, fmt.Errorf("log.level: %w", err)
	}

	return Config{
		DBPath:   v.GetString("db.path"),
		Tiered:   v.GetBool("db.tiered"),
		LogLevel: level,
	}, nil
}
