package source

// Config holds where the source inventory document comes from.
type Config struct {
	// Path is the local document path, used when Object is empty.
	Path string `mapstructure:"path" default:"inventory.json"`
	// Object is a key in the storage bucket. When set, the document is read from storage.
	Object string `mapstructure:"object" default:""`
	// Format is json, yaml or auto (by extension, then by content).
	Format string `mapstructure:"format" default:"auto"`
}
