// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestBucketName(t *testing.T) {
	id := ArticleIdentity{JournalAcronym: "RSP", IssueCode: "v40n3", FileCode: "07"}
	assert.Equal(t, "rsp", id.JournalFolder())
	assert.Equal(t, "rsp-v40n3-07", id.BucketName())
	assert.Equal(t, id.BucketName(), id.BucketName())
}

func TestMarkupNative(t *testing.T) {
	assert.True(t, ArticleIdentity{DataModelVersion: "xml"}.MarkupNative())
	assert.True(t, ArticleIdentity{DataModelVersion: " XML "}.MarkupNative())
	assert.False(t, ArticleIdentity{DataModelVersion: "html"}.MarkupNative())
	assert.False(t, ArticleIdentity{}.MarkupNative())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      ArticleIdentity
		wantErr bool
	}{
		{"complete", ArticleIdentity{JournalAcronym: "rsp", IssueCode: "v40n3", FileCode: "07"}, false},
		{"no journal", ArticleIdentity{IssueCode: "v40n3", FileCode: "07"}, true},
		{"blank issue", ArticleIdentity{JournalAcronym: "rsp", IssueCode: "  ", FileCode: "07"}, true},
		{"no file code", ArticleIdentity{JournalAcronym: "rsp", IssueCode: "v40n3"}, true},
		{"path separator", ArticleIdentity{JournalAcronym: "rsp", IssueCode: "v40/n3", FileCode: "07"}, true},
		{"dot dot", ArticleIdentity{JournalAcronym: "rsp", IssueCode: "..", FileCode: "07"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrIdentity)
			assert.Equal(t, ErrorIdentity, KindOf(err))
		})
	}
}

func TestArticleYAMLInline(t *testing.T) {
	doc := `
uuid: 3f1c
pid: S0034-89102006000300007
journal_acronym: rsp
issue_code: v40n3
file_code: "07"
original_language: pt
languages: [pt, en]
data_model_version: xml
title: Sobre saude
authors:
  - surname: Silva
    given_names: Ana
`
	var a Article
	require.NoError(t, yaml.Unmarshal([]byte(doc), &a))
	assert.Equal(t, "rsp-v40n3-07", a.BucketName())
	assert.Equal(t, []string{"pt", "en"}, a.Languages)
	assert.True(t, a.MarkupNative())
	require.Len(t, a.Authors, 1)
	assert.Equal(t, "Silva, Ana", a.Authors[0].String())
}

func TestAuthorString(t *testing.T) {
	assert.Equal(t, "Silva", Author{Surname: "Silva"}.String())
}
