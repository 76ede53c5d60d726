package config

import (
	"errors"
	"reflect"
	"strings"

	"netbox-sync/core/database"
	"netbox-sync/core/logger"
	"netbox-sync/core/metrics"
	"netbox-sync/core/server"
	"netbox-sync/core/storage"
	"netbox-sync/feature/registry"
	"netbox-sync/feature/source"
	netboxsync "netbox-sync/feature/sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// NetBox holds the registry endpoint and the scope every run works in.
	NetBox registry.Config `mapstructure:"netbox"`
	// Source holds where the source inventory document is read from.
	Source source.Config `mapstructure:"source"`
	// Sync holds run behaviour (dry run, delays, hypervisor map).
	Sync netboxsync.Config `mapstructure:"sync"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Database holds configuration for the run journal.
	Database database.Config `mapstructure:"database"`
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Metrics holds configuration for the prometheus collectors.
	Metrics metrics.Config `mapstructure:"metrics"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." || path == "" {
		envPath = ".env"
	}

	// A missing .env is normal in production.
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// NETBOX_URL -> netbox.url
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings every registry-facing command needs.
func (c *Config) Validate() error {
	var errs []error
	if c.NetBox.URL == "" {
		errs = append(errs, errors.New("netbox.url is required (NETBOX_URL)"))
	}
	if c.NetBox.Token == "" {
		errs = append(errs, errors.New("netbox.token is required (NETBOX_TOKEN)"))
	}
	if c.NetBox.Cluster == "" {
		errs = append(errs, errors.New("netbox.cluster is required (NETBOX_CLUSTER)"))
	}
	if c.Sync.MutationDelaySeconds < 0 || c.Sync.CleanupDelaySeconds < 0 {
		errs = append(errs, errors.New("sync delays must not be negative"))
	}
	return errors.Join(errs...)
}

// bindValues walks the struct and registers every 'mapstructure' key with its
// 'default' tag value in Viper.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Registering an empty default still makes the key visible to AutomaticEnv.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
