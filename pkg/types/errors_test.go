// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrStoreUnavailable, "gateway", "probe", "GET /health", cause)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "asset store unavailable: gateway: probe: GET /health: connection refused", err.Error())
}

func TestWrap_NoMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	assert.Equal(t, "registration failure", err.Error())
	assert.Equal(t, ErrorUnknown, KindOf(err))
}

func TestKindOf(t *testing.T) {
	unavailable := Wrap(ErrStoreUnavailable, "gateway", "submit", "", nil)

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"plain", errors.New("x"), ErrorUnknown},
		{"identity", Wrap(ErrIdentity, "", "", "bad", nil), ErrorIdentity},
		{"unavailable", unavailable, ErrorStoreUnavailable},
		{"rejected wrapping unavailable", Wrap(ErrSubmissionRejected, "job", "submit", "", unavailable), ErrorSubmissionRejected},
		{"fmt wrapped", fmt.Errorf("outer: %w", Wrap(ErrRender, "", "", "", nil)), ErrorRender},
		{"timeout", Wrap(ErrRegistrationTimeout, "", "", "", nil), ErrorRegistrationTimeout},
		{"interrupted", Wrap(ErrInterrupted, "", "", "", nil), ErrorInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorKindFatal(t *testing.T) {
	assert.True(t, ErrorIdentity.Fatal())
	assert.True(t, ErrorStoreUnavailable.Fatal())
	for _, k := range []ErrorKind{ErrorFileUnreadable, ErrorRender, ErrorSubmissionRejected,
		ErrorRegistrationFailed, ErrorRegistrationTimeout, ErrorInterrupted, ErrorUnknown} {
		assert.False(t, k.Fatal(), k)
	}
}
