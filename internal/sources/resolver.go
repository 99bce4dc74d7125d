// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources computes where the content files of an article live.
// Resolution never fails for a missing file: it yields a SourceFile whose
// location is empty, and callers record the asset as unavailable.
package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/asset-registrar/pkg/types"
)

const (
	// mediaHTMLSubdir holds media referenced from legacy HTML fulltexts.
	mediaHTMLSubdir = "html"
	xmlLabel        = "xml"
	lockRetryDelay  = 100 * time.Millisecond
)

// FileSet is every candidate content file of one article.
type FileSet struct {
	// PDFs maps language to the PDF of that language.
	PDFs map[string]*SourceFile

	// Media maps media filename to the media file.
	Media map[string]*SourceFile

	// XML is the structured-markup source; nil unless the article is markup-native.
	XML *SourceFile
}

// Len returns the number of candidate files.
func (s *FileSet) Len() int {
	n := len(s.PDFs) + len(s.Media)
	if s.XML != nil {
		n++
	}
	return n
}

// Files returns every candidate file ordered by kind, then label.
func (s *FileSet) Files() []*SourceFile {
	files := make([]*SourceFile, 0, s.Len())
	files = append(files, sortedFiles(s.PDFs)...)
	files = append(files, sortedFiles(s.Media)...)
	if s.XML != nil {
		files = append(files, s.XML)
	}
	return files
}

// Cleanup deletes every file the registrar downloaded, returning the first
// error encountered.
func (s *FileSet) Cleanup() error {
	var first error
	for _, f := range s.Files() {
		if err := f.Delete(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func sortedFiles(m map[string]*SourceFile) []*SourceFile {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*SourceFile, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// Resolver maps an article identity to its candidate files under the
// configured roots.
type Resolver struct {
	cfg     types.SourcesConfig
	fetcher *fetcher
	logger  *slog.Logger
}

// NewResolver builds a resolver. A nil client disables remote fallbacks.
func NewResolver(cfg types.SourcesConfig, client *http.Client, logger *slog.Logger) *Resolver {
	r := &Resolver{cfg: cfg, logger: logger}
	if client != nil && !cfg.DisableDownloads {
		r.fetcher = &fetcher{client: client, userAgent: cfg.UserAgent}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Resolve computes the candidate files of an article. It only fails when
// the identity itself is invalid.
func (r *Resolver) Resolve(article types.ArticleIdentity) (*FileSet, error) {
	if err := article.Validate(); err != nil {
		return nil, err
	}
	set := &FileSet{
		PDFs:  r.pdfFiles(article),
		Media: r.mediaFiles(article),
		XML:   r.xmlFile(article),
	}
	r.logger.Debug("resolved source files",
		slog.String("bucket", article.BucketName()),
		slog.Int("pdf", len(set.PDFs)),
		slog.Int("media", len(set.Media)),
		slog.Bool("xml", set.XML != nil),
	)
	return set, nil
}

// PDFFilename returns the PDF filename of an article in lang. The original
// language has no prefix; every other language is prefixed with "<lang>_".
func PDFFilename(article types.ArticleIdentity, lang string) string {
	return languagePrefix(article, lang) + article.FileCode + ".pdf"
}

func languagePrefix(article types.ArticleIdentity, lang string) string {
	if lang == article.OriginalLanguage {
		return ""
	}
	return lang + "_"
}

func (r *Resolver) issueFolder(root string, article types.ArticleIdentity) string {
	if root == "" {
		return ""
	}
	return filepath.Join(root, article.JournalFolder(), article.IssueCode)
}

func (r *Resolver) newFile(kind types.AssetKind, label, filename, source, folder string, article types.ArticleIdentity) *SourceFile {
	f := &SourceFile{
		Kind:     kind,
		Label:    label,
		Filename: filename,
		Source:   source,
		folder:   folder,
	}
	if r.fetcher != nil {
		if cache := r.issueFolder(r.cfg.CacheRoot, article); cache != "" {
			f.fetcher = r.fetcher
			f.cacheDir = cache
		}
	}
	return f
}

func (r *Resolver) pdfFiles(article types.ArticleIdentity) map[string]*SourceFile {
	folder := r.issueFolder(r.cfg.PDFRoot, article)
	files := map[string]*SourceFile{}

	// Legacy articles list their PDFs with remote URLs.
	for lang, url := range article.Fulltexts["pdf"] {
		if lang = strings.TrimSpace(lang); lang == "" {
			continue
		}
		files[lang] = r.newFile(types.KindPDF, lang, PDFFilename(article, lang), url, folder, article)
	}

	// Markup-native articles have one PDF per available language.
	if article.MarkupNative() {
		for _, lang := range article.Languages {
			if lang = strings.TrimSpace(lang); lang == "" {
				continue
			}
			if _, ok := files[lang]; ok {
				continue
			}
			filename := PDFFilename(article, lang)
			files[lang] = r.newFile(types.KindPDF, lang, filename, remotePDFURL(article, filename), folder, article)
		}
	}
	return files
}

func remotePDFURL(article types.ArticleIdentity, filename string) string {
	if article.Domain == "" {
		return ""
	}
	return fmt.Sprintf("http://%s/pdf/%s/%s/%s", article.Domain, article.JournalFolder(), article.IssueCode, filename)
}

// mediaFiles lists every file of the media folder and its html sub-folder
// whose name starts with the article file code.
func (r *Resolver) mediaFiles(article types.ArticleIdentity) map[string]*SourceFile {
	files := map[string]*SourceFile{}
	base := r.issueFolder(r.cfg.MediaRoot, article)
	if base == "" {
		return files
	}
	for _, dir := range []string{base, filepath.Join(base, mediaHTMLSubdir)} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				r.logger.Warn("media folder unreadable", slog.String("folder", dir), slog.String("error", err.Error()))
			}
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasPrefix(name, article.FileCode) {
				continue
			}
			path := filepath.Join(dir, name)
			files[name] = r.newFile(types.KindMedia, name, name, path, dir, article)
		}
	}
	return files
}

func (r *Resolver) xmlFile(article types.ArticleIdentity) *SourceFile {
	if !article.MarkupNative() {
		return nil
	}
	folder := r.issueFolder(r.cfg.XMLRoot, article)
	filename := article.FileCode + ".xml"
	return r.newFile(types.KindXML, xmlLabel, filename, "", folder, article)
}

// Locate resolves every file, returning those that are unavailable. It is
// a convenience for callers that want to report missing files up front.
func (s *FileSet) Locate(ctx context.Context) []*SourceFile {
	var missing []*SourceFile
	for _, f := range s.Files() {
		if f.Location(ctx) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}
