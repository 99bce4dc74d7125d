// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package record shapes the article document written after a registration
// pass and persists it in a SQLite document store keyed by article UUID.
package record

import (
	"slices"
	"sort"
	"time"

	"github.com/pdiddy/asset-registrar/pkg/types"
)

// Link is one fulltext entry of the article document.
type Link struct {
	Type     string `json:"type" yaml:"type"`
	Language string `json:"language" yaml:"language"`
	URL      string `json:"url" yaml:"url"`
}

// Record is the persisted article document.
type Record struct {
	UUID     string `json:"uuid" yaml:"uuid"`
	PID      string `json:"pid" yaml:"pid"`
	Journal  string `json:"journal" yaml:"journal"`
	Issue    string `json:"issue" yaml:"issue"`
	FileCode string `json:"file_code" yaml:"file_code"`
	Bucket   string `json:"bucket" yaml:"bucket"`

	OriginalLanguage string   `json:"original_language,omitempty" yaml:"original_language,omitempty"`
	Languages        []string `json:"languages,omitempty" yaml:"languages,omitempty"`

	Title             string            `json:"title,omitempty" yaml:"title,omitempty"`
	TranslatedTitles  map[string]string `json:"translated_titles,omitempty" yaml:"translated_titles,omitempty"`
	Abstract          string            `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	AbstractLanguages []string          `json:"abstract_languages,omitempty" yaml:"abstract_languages,omitempty"`
	DOI               string            `json:"doi,omitempty" yaml:"doi,omitempty"`
	Authors           []string          `json:"authors,omitempty" yaml:"authors,omitempty"`
	Section           string            `json:"section,omitempty" yaml:"section,omitempty"`
	Order             int               `json:"order,omitempty" yaml:"order,omitempty"`
	FirstPage         string            `json:"fpage,omitempty" yaml:"fpage,omitempty"`
	LastPage          string            `json:"lpage,omitempty" yaml:"lpage,omitempty"`
	ELocation         string            `json:"elocation,omitempty" yaml:"elocation,omitempty"`
	AheadOfPrint      bool              `json:"is_aop,omitempty" yaml:"is_aop,omitempty"`

	// Assets maps asset kind name to label to outcome.
	Assets map[string]map[string]types.AssetOutcome `json:"assets" yaml:"assets"`

	PDFs  []Link `json:"pdfs,omitempty" yaml:"pdfs,omitempty"`
	HTMLs []Link `json:"htmls,omitempty" yaml:"htmls,omitempty"`
	XML   string `json:"xml,omitempty" yaml:"xml,omitempty"`

	Errors []types.AssetError `json:"errors,omitempty" yaml:"errors,omitempty"`

	Registered int `json:"registered" yaml:"registered"`
	Failed     int `json:"failed" yaml:"failed"`
	Pending    int `json:"pending" yaml:"pending"`

	Updated time.Time `json:"updated" yaml:"updated"`
}

// Build combines the article metadata and the outcome of its registration
// pass. Registered URLs take precedence over the fulltext URLs of the
// metadata record.
func Build(article types.Article, result *types.RegistrationResult) Record {
	rec := Record{
		UUID:              article.UUID,
		PID:               article.PID,
		Journal:           article.JournalFolder(),
		Issue:             article.IssueCode,
		FileCode:          article.FileCode,
		Bucket:            article.BucketName(),
		OriginalLanguage:  article.OriginalLanguage,
		Languages:         mergeLanguages(article.Languages, article.AbstractLanguages),
		Title:             article.Title,
		TranslatedTitles:  article.TranslatedTitles,
		Abstract:          article.Abstract,
		AbstractLanguages: article.AbstractLanguages,
		DOI:               article.DOI,
		Section:           article.Section,
		Order:             article.Order,
		FirstPage:         article.FirstPage,
		LastPage:          article.LastPage,
		ELocation:         article.ELocation,
		AheadOfPrint:      article.AheadOfPrint,
		Assets:            map[string]map[string]types.AssetOutcome{},
		Updated:           time.Now().UTC(),
	}
	for _, a := range article.Authors {
		rec.Authors = append(rec.Authors, a.String())
	}

	if result == nil {
		rec.PDFs = links("pdf", article.Fulltexts["pdf"], nil)
		rec.HTMLs = links("html", article.Fulltexts["html"], nil)
		return rec
	}

	for _, kind := range types.AssetKinds() {
		if outcomes := result.Outcomes(kind); len(outcomes) > 0 {
			rec.Assets[kind.String()] = outcomes
		}
	}
	rec.PDFs = links("pdf", article.Fulltexts["pdf"], result.URLs(types.KindPDF))
	rec.HTMLs = links("html", article.Fulltexts["html"], result.URLs(types.KindHTML))
	rec.XML = result.URLs(types.KindXML)["xml"]
	rec.Errors = result.Errors
	rec.Registered = result.Registered()
	rec.Failed = result.Failed()
	rec.Pending = result.Pending()
	if !result.FinishedAt.IsZero() {
		rec.Updated = result.FinishedAt
	}
	return rec
}

// links merges fulltext URLs with registered ones, sorted by language.
func links(kind string, fulltexts, registered map[string]string) []Link {
	urls := map[string]string{}
	for lang, url := range fulltexts {
		if url != "" {
			urls[lang] = url
		}
	}
	for lang, url := range registered {
		urls[lang] = url
	}
	if len(urls) == 0 {
		return nil
	}
	out := make([]Link, 0, len(urls))
	for lang, url := range urls {
		out = append(out, Link{Type: kind, Language: lang, URL: url})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

func mergeLanguages(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, l := range list {
			if l != "" && !slices.Contains(out, l) {
				out = append(out, l)
			}
		}
	}
	return out
}
