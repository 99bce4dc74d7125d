// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *RegistrationResult {
	r := NewRegistrationResult("uuid-1", "rsp-v40n3-07")
	r.PDF["pt"] = AssetOutcome{Filename: "07.pdf", Status: StatusRegistered, URL: "https://x/07.pdf"}
	r.PDF["en"] = AssetOutcome{Filename: "en_07.pdf", Status: StatusFailed,
		Error: &AssetError{Kind: ErrorFileUnreadable, Asset: KindPDF, Label: "en", Message: "missing"}}
	r.Media["07f1.jpg"] = AssetOutcome{Filename: "07f1.jpg", Status: StatusQueued, JobID: "t3"}
	r.XML["xml"] = AssetOutcome{Filename: "07.xml", Status: StatusRegistered, URL: "https://x/07.xml"}
	r.Errors = append(r.Errors, *r.PDF["en"].Error)
	return r
}

func TestRegistrationResult_Counters(t *testing.T) {
	r := sampleResult()
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, 2, r.Registered())
	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, 1, r.Pending())
	assert.True(t, r.HasErrors())
	assert.Nil(t, r.Fatal())
	assert.Len(t, r.ErrorsOf(ErrorFileUnreadable), 1)
	assert.Empty(t, r.ErrorsOf(ErrorRender))
}

func TestRegistrationResult_URLsAndLabels(t *testing.T) {
	r := sampleResult()
	assert.Equal(t, map[string]string{"pt": "https://x/07.pdf"}, r.URLs(KindPDF))
	assert.Equal(t, []string{"en", "pt"}, r.Labels(KindPDF))
	assert.Empty(t, r.URLs(KindHTML))
	assert.Nil(t, r.Outcomes(AssetKind(0)))
}

func TestRegistrationResult_Fatal(t *testing.T) {
	r := NewRegistrationResult("uuid-1", "b")
	r.Errors = append(r.Errors,
		AssetError{Kind: ErrorRender, Message: "r"},
		AssetError{Kind: ErrorStoreUnavailable, Message: "down"})
	f := r.Fatal()
	require.NotNil(t, f)
	assert.Equal(t, ErrorStoreUnavailable, f.Kind)
}

func TestNewAssetError(t *testing.T) {
	ae := NewAssetError(KindMedia, "07f1.jpg", Wrap(ErrRegistrationTimeout, "registry", "await", "waited 5m", nil))
	assert.Equal(t, ErrorRegistrationTimeout, ae.Kind)
	assert.Equal(t, KindMedia, ae.Asset)
	assert.Contains(t, ae.Error(), "registration_timeout (media 07f1.jpg)")

	pass := NewAssetError(0, "", errors.New("boom"))
	assert.Equal(t, "unknown: boom", pass.Error())
}

func TestRegistrationResult_JSON(t *testing.T) {
	r := sampleResult()
	r.Errors = append(r.Errors, AssetError{Kind: ErrorInterrupted, Message: "stopped"})

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"asset":"pdf"`)

	var back RegistrationResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, KindPDF, back.Errors[0].Asset)
	assert.Equal(t, AssetKind(0), back.Errors[1].Asset)
	assert.Equal(t, r.Registered(), back.Registered())
}

func TestAssetKind(t *testing.T) {
	for _, k := range AssetKinds() {
		parsed, err := ParseAssetKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseAssetKind("video")
	assert.Error(t, err)

	assert.Equal(t, "pdf", KindPDF.FileType())
	assert.Equal(t, "", KindMedia.FileType())
	assert.False(t, AssetKind(0).Valid())
	_, err = AssetKind(9).MarshalText()
	assert.Error(t, err)
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, StatusUnsubmitted.IsTerminal())
	assert.False(t, StatusQueued.IsTerminal())
	assert.True(t, StatusRegistered.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestRegistrationConfigWithDefaults(t *testing.T) {
	c := RegistrationConfig{Timeout: 0, MaxConcurrentUploads: 8}.WithDefaults()
	d := DefaultConfig().Registration
	assert.Equal(t, d.Timeout, c.Timeout)
	assert.Equal(t, d.PollInterval, c.PollInterval)
	assert.Equal(t, 8, c.MaxConcurrentUploads)
}
