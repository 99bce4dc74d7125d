// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/asset-registrar/pkg/types"
)

const articleYAML = `uuid: 3f1c9a
pid: S0034-89102006000300007
journal_acronym: RSP
issue_code: v40n3
file_code: "07"
original_language: pt
languages: [pt, en]
data_model_version: xml
fulltexts:
  pdf:
    en: http://www.example.org/pdf/rsp/v40n3/en_07.pdf
title: Sobre saude
authors:
  - surname: Silva
    given_names: Ana
order: 7
`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadArticle(t *testing.T) {
	path := write(t, t.TempDir(), "07.yaml", articleYAML)

	a, err := LoadArticle(path)
	require.NoError(t, err)
	assert.Equal(t, "3f1c9a", a.UUID)
	assert.Equal(t, "rsp-v40n3-07", a.BucketName())
	assert.True(t, a.MarkupNative())
	assert.Equal(t, []string{"pt", "en"}, a.Languages)
	assert.Equal(t, "http://www.example.org/pdf/rsp/v40n3/en_07.pdf", a.Fulltexts["pdf"]["en"])
	assert.Equal(t, "Silva, Ana", a.Authors[0].String())
	assert.Equal(t, 7, a.Order)
}

func TestLoadArticle_FillsUUID(t *testing.T) {
	path := write(t, t.TempDir(), "a.yaml", "journal_acronym: rsp\nissue_code: v1\nfile_code: '01'\n")

	a, err := LoadArticle(path)
	require.NoError(t, err)
	_, err = uuid.Parse(a.UUID)
	assert.NoError(t, err)
}

func TestLoadArticle_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadArticle(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadArticle(write(t, dir, "bad.yaml", "pid: [unterminated"))
	assert.Error(t, err)

	_, err = LoadArticle(write(t, dir, "noid.yaml", "pid: x\njournal_acronym: rsp\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIdentity)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b.yml", "journal_acronym: rsp\nissue_code: v1\nfile_code: '02'\n")
	write(t, dir, "a.yaml", "journal_acronym: rsp\nissue_code: v1\nfile_code: '01'\n")
	write(t, dir, "rsp-v1-01.result.yaml", "bucket: rsp-v1-01\n")
	write(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	articles, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "01", articles[0].FileCode)
	assert.Equal(t, "02", articles[1].FileCode)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "07.yaml", articleYAML)

	one, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	all, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = Load(filepath.Join(dir, "absent"))
	assert.Error(t, err)
}

func TestWriteResult(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	r := types.NewRegistrationResult("3f1c9a", "rsp-v40n3-07")
	r.PDF["pt"] = types.AssetOutcome{Filename: "07.pdf", Status: types.StatusRegistered, URL: "https://a/07.pdf"}

	path, err := WriteResult(dir, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rsp-v40n3-07.result.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got types.RegistrationResult
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "https://a/07.pdf", got.PDF["pt"].URL)

	_, err = WriteResult(dir, nil)
	assert.Error(t, err)
}
