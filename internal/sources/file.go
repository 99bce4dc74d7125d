// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/pdiddy/asset-registrar/pkg/types"
)

// SourceFile is a candidate content file of an article. Its location is
// computed on first access and memoized: an existing local file is used as
// is; otherwise a remote source is downloaded into the cache folder and the
// file is marked generated.
type SourceFile struct {
	// Kind is the asset kind this file registers as.
	Kind types.AssetKind

	// Label is the language (pdf) or media filename (media) or "xml".
	Label string

	// Filename is the logical file name (e.g. "en_07.pdf").
	Filename string

	// Source is the declared location: a local path or a remote URL.
	Source string

	folder   string // expected local folder
	cacheDir string // download target folder; empty disables downloads
	fetcher  *fetcher

	mu        sync.Mutex
	resolved  bool
	location  string
	err       error
	generated bool
}

// Location returns the local path of the file, downloading it when only a
// remote source is available. It returns "" when the file is unavailable;
// Err reports why.
func (f *SourceFile) Location(ctx context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.resolved {
		f.location, f.generated, f.err = f.resolve(ctx)
		f.resolved = true
	}
	return f.location
}

// Err returns the reason the file is unavailable, once Location was called.
func (f *SourceFile) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Generated reports whether the registrar itself wrote the file.
func (f *SourceFile) Generated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generated
}

// Open resolves the file and opens it for reading. The error wraps
// types.ErrFileUnreadable.
func (f *SourceFile) Open(ctx context.Context) (io.ReadCloser, error) {
	loc := f.Location(ctx)
	if loc == "" {
		return nil, types.Wrap(types.ErrFileUnreadable, "sources", "open",
			fmt.Sprintf("%s %s (%s) not found", f.Kind, f.Label, f.displaySource()), f.Err())
	}
	r, err := os.Open(loc)
	if errors.Is(err, fs.ErrNotExist) && f.cached(loc) {
		// Another pass removed the cache entry it wrote; fetch it again.
		f.reset()
		if loc = f.Location(ctx); loc == "" {
			return nil, types.Wrap(types.ErrFileUnreadable, "sources", "open", f.displaySource(), f.Err())
		}
		r, err = os.Open(loc)
	}
	if err != nil {
		return nil, types.Wrap(types.ErrFileUnreadable, "sources", "open", loc, err)
	}
	return r, nil
}

// cached reports whether loc is this file's cache entry.
func (f *SourceFile) cached(loc string) bool {
	return f.cacheDir != "" && loc == filepath.Join(f.cacheDir, f.Filename)
}

func (f *SourceFile) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = false
	f.location = ""
	f.generated = false
	f.err = nil
}

// Delete removes the file when the registrar downloaded it. Files that
// existed before the pass are never touched.
func (f *SourceFile) Delete() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.generated || f.location == "" {
		return nil
	}
	if err := os.Remove(f.location); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", f.location, err)
	}
	f.generated = false
	f.location = ""
	f.resolved = false
	return nil
}

func (f *SourceFile) displaySource() string {
	if f.Source != "" {
		return f.Source
	}
	return filepath.Join(f.folder, f.Filename)
}

func (f *SourceFile) resolve(ctx context.Context) (string, bool, error) {
	if f.Source != "" && !isRemote(f.Source) && isFile(f.Source) {
		return f.Source, false, nil
	}
	if f.folder != "" {
		candidate := filepath.Join(f.folder, f.Filename)
		if isFile(candidate) {
			return candidate, false, nil
		}
	}
	if !isRemote(f.Source) {
		return "", false, fmt.Errorf("no local file at %s", f.displaySource())
	}
	if f.fetcher == nil || f.cacheDir == "" {
		return "", false, fmt.Errorf("remote source %s not downloaded: downloads disabled", f.Source)
	}

	dest := filepath.Join(f.cacheDir, f.Filename)
	if isFile(dest) {
		// Written by another pass, which owns its deletion.
		return dest, false, nil
	}
	wrote, err := f.fetcher.download(ctx, f.Source, dest)
	if err != nil {
		return "", false, err
	}
	return dest, wrote, nil
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// fetcher downloads remote fallbacks into the cache.
type fetcher struct {
	client    *http.Client
	userAgent string
}

// download fetches url to destPath using a temporary file renamed on success.
// A lock file next to the destination keeps concurrent passes from writing
// the same cache entry. The lock file stays in place: unlinking it would let
// a waiter on the old inode and a newcomer on a new one both hold the lock.
// It reports whether this call wrote the file.
func (d *fetcher) download(ctx context.Context, url, destPath string) (bool, error) {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	lock := flock.New(destPath + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return false, fmt.Errorf("locking %s: %w", destPath, err)
	}
	if !locked {
		return false, fmt.Errorf("locking %s: not acquired", destPath)
	}
	defer func() { _ = lock.Unlock() }()

	if isFile(destPath) {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return false, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("renaming temp file: %w", err)
	}
	return true, nil
}
