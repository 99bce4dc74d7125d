// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files.
// The filename is the key and the trimmed contents are the value.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// AssetStoreToken is the key file holding the asset store bearer token.
const AssetStoreToken = "asset-store-token"

// DefaultDir is where secrets are looked up unless configured otherwise.
const DefaultDir = ".secrets"

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error. Unreadable files are logged and skipped.
func Load(dir string, logger *slog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if logger != nil {
				logger.Warn("skipping unreadable secret", "name", name, "error", err)
			}
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Token returns the asset store token. A non-empty configured value wins
// over the secrets directory.
func Token(configured, dir string, logger *slog.Logger) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if dir == "" {
		dir = DefaultDir
	}
	s, err := Load(dir, logger)
	if err != nil {
		return "", err
	}
	return s[AssetStoreToken], nil
}
