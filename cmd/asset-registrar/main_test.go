// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/asset-registrar/internal/record"
	"github.com/pdiddy/asset-registrar/pkg/types"
)

func TestSummaryRows(t *testing.T) {
	r := types.NewRegistrationResult("u1", "rsp-v40n3-07")
	r.PDF["pt"] = types.AssetOutcome{Filename: "07.pdf", Status: types.StatusRegistered, URL: "https://a/07.pdf"}
	r.Media["f1.jpg"] = types.AssetOutcome{Filename: "f1.jpg", Status: types.StatusFailed,
		Error: &types.AssetError{Kind: types.ErrorRegistrationTimeout, Message: "still queued"}}

	fatal := types.NewRegistrationResult("u2", "rsp-v40n3-08")
	fatal.Errors = []types.AssetError{{Kind: types.ErrorStoreUnavailable, Message: "connection refused"}}

	rows := summaryRows([]*types.RegistrationResult{r, nil, fatal})
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"rsp-v40n3-07", "pdf", "pt", "registered", "https://a/07.pdf"}, rows[0])
	assert.Equal(t, []string{"rsp-v40n3-07", "media", "f1.jpg", "failed", "registration_timeout: still queued"}, rows[1])
	assert.Equal(t, []string{"rsp-v40n3-08", "", "", "store_unavailable", "connection refused"}, rows[2])
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"x"}, {"y", "z"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "z")
	assert.Equal(t, "", renderTable(nil, nil, nil))
}

func TestWriteRecord(t *testing.T) {
	rec := record.Record{
		UUID:    "u1",
		PID:     "S1",
		Bucket:  "rsp-v40n3-07",
		PDFs:    []record.Link{{Type: "pdf", Language: "pt", URL: "https://a/07.pdf"}},
		XML:     "https://a/07.xml",
		Errors:  []types.AssetError{{Kind: types.ErrorRender, Asset: types.KindHTML, Label: "en", Message: "boom"}},
		Updated: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	for _, format := range []string{"table", "json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeRecord(&buf, rec, format))
			assert.Contains(t, buf.String(), "https://a/07.xml")
		})
	}

	var buf bytes.Buffer
	assert.Error(t, writeRecord(&buf, rec, "xml"))
}

func TestListRows(t *testing.T) {
	rows := listRows([]record.Summary{{UUID: "u1", Bucket: "b", Registered: 3, Errors: 1}})
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0][3])
	assert.Equal(t, "1", rows[0][6])
}

func TestLoadConfig_Defaults(t *testing.T) {
	setDefaults(types.DefaultConfig())
	c, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig().Gateway.BaseURL, c.Gateway.BaseURL)
	assert.Equal(t, 5*time.Minute, c.Registration.MediaTimeout)
	assert.True(t, strings.HasSuffix(c.Store.Path, "articles.db"))
}
