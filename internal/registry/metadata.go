// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"maps"

	"github.com/pdiddy/asset-registrar/pkg/types"
)

// Metadata keys sent with every asset.
const (
	MetaArticleFolder = "article-folder"
	MetaIssueFolder   = "issue-folder"
	MetaJournalFolder = "journal-folder"
	MetaBucketName    = "bucket-name"
	MetaArticlePID    = "article-pid"
	MetaArticleUUID   = "article-uuid"

	MetaLang  = "lang"
	MetaHref  = "href"
	MetaLabel = "label"
)

func articleMetadata(id types.ArticleIdentity) map[string]string {
	return map[string]string{
		MetaArticleFolder: id.FileCode,
		MetaIssueFolder:   id.IssueCode,
		MetaJournalFolder: id.JournalFolder(),
		MetaBucketName:    id.BucketName(),
		MetaArticlePID:    id.PID,
		MetaArticleUUID:   id.UUID,
	}
}

// assetMetadata adds the kind-specific key to the shared article metadata.
func assetMetadata(base map[string]string, kind types.AssetKind, label string) map[string]string {
	meta := maps.Clone(base)
	switch kind {
	case types.KindPDF, types.KindHTML:
		meta[MetaLang] = label
	case types.KindMedia:
		meta[MetaHref] = label
	case types.KindXML:
		meta[MetaLabel] = label
	}
	return meta
}
