// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata reads article records exported from the metadata service
// and writes registration results next to them. Records are YAML files, one
// article per file.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/asset-registrar/pkg/types"
)

// resultSuffix marks result files so LoadDir does not read them as articles.
const resultSuffix = ".result.yaml"

// LoadArticle reads one article record. An article without a UUID gets a
// fresh one; the identity must locate files.
func LoadArticle(path string) (types.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Article{}, fmt.Errorf("reading article %s: %w", path, err)
	}

	var article types.Article
	if err := yaml.Unmarshal(data, &article); err != nil {
		return types.Article{}, fmt.Errorf("parsing article %s: %w", path, err)
	}
	if strings.TrimSpace(article.UUID) == "" {
		article.UUID = uuid.NewString()
	}
	if err := article.Validate(); err != nil {
		return types.Article{}, fmt.Errorf("%s: %w", path, err)
	}
	return article, nil
}

// LoadDir reads every *.yaml and *.yml article record in dir, sorted by
// filename. The first invalid record aborts the load.
func LoadDir(dir string) ([]types.Article, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading article directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isRecord(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	articles := make([]types.Article, 0, len(names))
	for _, name := range names {
		a, err := LoadArticle(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// Load reads path as a single record or, for a directory, every record in it.
func Load(path string) ([]types.Article, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	a, err := LoadArticle(path)
	if err != nil {
		return nil, err
	}
	return []types.Article{a}, nil
}

// WriteResult writes result as <dir>/<bucket>.result.yaml and returns the path.
func WriteResult(dir string, result *types.RegistrationResult) (string, error) {
	if result == nil || result.Bucket == "" {
		return "", fmt.Errorf("writing result: empty result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating result directory: %w", err)
	}
	data, err := yaml.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshaling result %s: %w", result.Bucket, err)
	}
	path := filepath.Join(dir, result.Bucket+resultSuffix)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing result %s: %w", path, err)
	}
	return path, nil
}

func isRecord(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, resultSuffix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
