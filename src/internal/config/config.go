package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files
func Load() (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	v.SetEnvPrefix("CASSUPPLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for _, path := range []string{v.GetString("paths.config"), ".", "/etc/cassupply"} {
		v.AddConfigPath(path)
	}
	v.SetConfigName("config")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	// Path defaults
	v.SetDefault("paths.data", "/var/lib/cassupply")
	v.SetDefault("paths.config", "/etc/cassupply")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_time", 300)

	// Backup defaults
	v.SetDefault("backup.directory", "")
	v.SetDefault("backup.strict_collections", false)

	// Rate limiting defaults
	v.SetDefault("ratelimit.requests_per_minute", 120)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("debug", false)
}

// BackupDir resolves the artifact directory, defaulting under the data path.
func BackupDir(v *viper.Viper) string {
	dir := v.GetString("backup.directory")
	if dir == "" {
		dir = filepath.Join(v.GetString("paths.data"), "backups")
	}
	return dir
}

// DatabaseDSN resolves the datastore DSN, defaulting to a sqlite file under
// the data path.
func DatabaseDSN(v *viper.Viper) string {
	dsn := v.GetString("database.dsn")
	if dsn == "" && v.GetString("database.type") == "sqlite" {
		dsn = filepath.Join(v.GetString("paths.data"), "data.db")
	}
	return dsn
}
