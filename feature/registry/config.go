package registry

// Config holds the registry endpoint and the scope this tool manages.
type Config struct {
	// URL is the registry base URL, e.g. https://netbox.example.com.
	URL string `mapstructure:"url" default:""`
	// Token is the API token sent as "Authorization: Token <token>".
	Token string `mapstructure:"token" default:""`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// PageSize is the list page limit.
	PageSize int `mapstructure:"page_size" default:"1000"`
	// Cluster is the registry cluster instance-shaped objects belong to.
	Cluster string `mapstructure:"cluster" default:""`
	// ClusterType is the cluster type preflight expects to exist.
	ClusterType string `mapstructure:"cluster_type" default:"OpenStack"`
	// Tag is the provenance tag slug placed on every object this tool creates.
	Tag string `mapstructure:"tag" default:"openstack-api-script"`
}
