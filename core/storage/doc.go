// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so the source inventory document can be read from a
// bucket and run reports can be archived next to it. It works with AWS S3 and
// self-hosted MinIO alike.
//
// # Client Interface
//
// The Client interface abstracts the provider so tests can use core/storage/mocks.
//
// # Helpers
//
//   - EnsureBucket: creates the bucket on first use.
//   - ReadObject / WriteObject: whole-object download and upload.
//   - ListKeys: keys under a prefix (archived reports).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	data, err := storage.ReadObject(ctx, client, cfg.Storage.Bucket, "inventory.json")
package storage
