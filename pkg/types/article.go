// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// DataModelXML marks articles whose source of truth is a structured-markup
// document. Only these articles carry an XML asset and generated HTML.
const DataModelXML = "xml"

// ArticleIdentity identifies an article and the location of its content files.
// It is read once from the metadata record and never modified afterwards.
type ArticleIdentity struct {
	// UUID is the article key in the document database.
	UUID string `json:"uuid" yaml:"uuid"`

	// PID is the publisher identifier (e.g. "S0034-89102006000300007").
	PID string `json:"pid" yaml:"pid"`

	// JournalAcronym is the journal short name (e.g. "rsp").
	JournalAcronym string `json:"journal_acronym" yaml:"journal_acronym"`

	// IssueCode is the issue folder name (e.g. "v40n3").
	IssueCode string `json:"issue_code" yaml:"issue_code"`

	// FileCode is the article file stem shared by all its files (e.g. "07").
	FileCode string `json:"file_code" yaml:"file_code"`

	// OriginalLanguage is the language the article was written in.
	OriginalLanguage string `json:"original_language" yaml:"original_language"`

	// Languages lists the languages the article is available in.
	Languages []string `json:"languages" yaml:"languages"`

	// DataModelVersion is "xml" for markup-native articles; anything else
	// means a legacy article with pre-rendered fulltexts.
	DataModelVersion string `json:"data_model_version,omitempty" yaml:"data_model_version,omitempty"`

	// Domain is the public site domain used to build remote PDF URLs.
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`

	// Fulltexts maps format ("pdf", "html") to language to remote URL.
	Fulltexts map[string]map[string]string `json:"fulltexts,omitempty" yaml:"fulltexts,omitempty"`
}

// JournalFolder returns the lower-cased journal acronym used in folder names.
func (a ArticleIdentity) JournalFolder() string {
	return strings.ToLower(strings.TrimSpace(a.JournalAcronym))
}

// BucketName returns the grouping key shared by every asset of the article
// in the asset store: journal-issue-article.
func (a ArticleIdentity) BucketName() string {
	return strings.Join([]string{a.JournalFolder(), a.IssueCode, a.FileCode}, "-")
}

// MarkupNative reports whether the article has a structured-markup source.
func (a ArticleIdentity) MarkupNative() bool {
	return strings.EqualFold(strings.TrimSpace(a.DataModelVersion), DataModelXML)
}

// Validate checks that the identity carries enough information to locate
// files. The returned error wraps ErrIdentity.
func (a ArticleIdentity) Validate() error {
	var missing []string
	if a.JournalFolder() == "" {
		missing = append(missing, "journal acronym")
	}
	if strings.TrimSpace(a.IssueCode) == "" {
		missing = append(missing, "issue code")
	}
	if strings.TrimSpace(a.FileCode) == "" {
		missing = append(missing, "file code")
	}
	if len(missing) > 0 {
		return Wrap(ErrIdentity, "article", "validate",
			fmt.Sprintf("article %q missing %s", a.PID, strings.Join(missing, ", ")), nil)
	}
	for _, part := range []string{a.JournalFolder(), a.IssueCode, a.FileCode} {
		if strings.ContainsAny(part, `/\`) || part == "." || part == ".." {
			return Wrap(ErrIdentity, "article", "validate",
				fmt.Sprintf("article %q has unsafe path component %q", a.PID, part), nil)
		}
	}
	return nil
}

// Author is one article author.
type Author struct {
	Surname    string `json:"surname" yaml:"surname"`
	GivenNames string `json:"given_names" yaml:"given_names"`
}

// String formats the author as "Surname, Given Names".
func (a Author) String() string {
	if a.GivenNames == "" {
		return a.Surname
	}
	return a.Surname + ", " + a.GivenNames
}

// Article holds the identity of an article plus the bibliographic fields
// carried into the registered record.
type Article struct {
	ArticleIdentity `yaml:",inline"`

	// Title is the title in the original language.
	Title string `json:"title" yaml:"title"`

	// TranslatedTitles maps language to title.
	TranslatedTitles map[string]string `json:"translated_titles,omitempty" yaml:"translated_titles,omitempty"`

	// Abstract is the abstract in the original language.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// AbstractLanguages lists languages with a translated abstract.
	AbstractLanguages []string `json:"abstract_languages,omitempty" yaml:"abstract_languages,omitempty"`

	// DOI is the digital object identifier, if any.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Authors lists the authors in source order.
	Authors []Author `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Section is the journal section in the original language.
	Section string `json:"section,omitempty" yaml:"section,omitempty"`

	// Order is the article position inside the issue.
	Order int `json:"order,omitempty" yaml:"order,omitempty"`

	FirstPage string `json:"fpage,omitempty" yaml:"fpage,omitempty"`
	LastPage  string `json:"lpage,omitempty" yaml:"lpage,omitempty"`
	ELocation string `json:"elocation,omitempty" yaml:"elocation,omitempty"`

	// AheadOfPrint marks articles published before their issue.
	AheadOfPrint bool `json:"is_aop,omitempty" yaml:"is_aop,omitempty"`
}
