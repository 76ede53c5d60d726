package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"netbox-sync/core/storage"

	"gopkg.in/yaml.v3"
)

// Load reads the inventory document from storage when cfg.Object is set,
// otherwise from cfg.Path.
func Load(ctx context.Context, cfg Config, client storage.Client, bucket string) (*Document, error) {
	var (
		data []byte
		name string
		err  error
	)
	if cfg.Object != "" {
		if client == nil {
			return nil, fmt.Errorf("source object %s configured but storage is unavailable", cfg.Object)
		}
		name = cfg.Object
		data, err = storage.ReadObject(ctx, client, bucket, cfg.Object)
	} else {
		name = cfg.Path
		data, err = os.ReadFile(cfg.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory %s: %w", name, err)
	}

	doc, err := Decode(data, detectFormat(cfg.Format, name, data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode inventory %s: %w", name, err)
	}
	return doc, nil
}

// Decode parses a document in the given format (json or yaml).
func Decode(data []byte, format string) (*Document, error) {
	var doc Document
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown inventory format %q", format)
	}
	return &doc, nil
}

func detectFormat(format, name string, data []byte) string {
	if format != "" && format != "auto" {
		return format
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return "json"
	}
	return "yaml"
}
