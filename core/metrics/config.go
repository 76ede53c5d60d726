package metrics

// Config holds configuration for the prometheus collectors.
type Config struct {
	// Enabled turns collection on.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Pushgateway is the URL CLI runs push to. Empty disables pushing.
	Pushgateway string `mapstructure:"pushgateway" default:""`
	// Job is the pushgateway job label.
	Job string `mapstructure:"job" default:"netbox_sync"`
}
