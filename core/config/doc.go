// Package config provides configuration management for netbox-sync.
//
// It uses Viper to load settings from environment variables and an optional .env file.
// Defaults come from the `default` struct tags of every section.
//
// # Configuration Structure
//
//   - Log: logging level and format
//   - NetBox: registry URL, token, page size, cluster scope and provenance tag
//   - Source: path or bucket object of the source inventory document
//   - Sync: dry run, mutation and cleanup delays, hypervisor node map
//   - Storage: S3/MinIO credentials and bucket for documents and report archives
//   - Database: optional run journal connection
//   - Server: HTTP port and API key for the serve command
//   - Metrics: prometheus collection and pushgateway target
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.NetBox.Cluster)
package config
