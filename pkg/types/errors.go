// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a registration error.
type ErrorKind string

const (
	ErrorIdentity            ErrorKind = "identity"
	ErrorStoreUnavailable    ErrorKind = "store_unavailable"
	ErrorFileUnreadable      ErrorKind = "file_unreadable"
	ErrorRender              ErrorKind = "render"
	ErrorSubmissionRejected  ErrorKind = "submission_rejected"
	ErrorRegistrationFailed  ErrorKind = "registration_failed"
	ErrorRegistrationTimeout ErrorKind = "registration_timeout"
	ErrorInterrupted         ErrorKind = "interrupted"
	ErrorUnknown             ErrorKind = "unknown"
)

// Fatal reports whether errors of this kind abort a whole pass.
func (k ErrorKind) Fatal() bool {
	return k == ErrorIdentity || k == ErrorStoreUnavailable
}

// Sentinel markers. Wrap tags an error with one of them so KindOf can
// classify it after it crossed package boundaries.
var (
	ErrIdentity            = errors.New("invalid article identity")
	ErrStoreUnavailable    = errors.New("asset store unavailable")
	ErrFileUnreadable      = errors.New("file unreadable")
	ErrRender              = errors.New("html rendering failed")
	ErrSubmissionRejected  = errors.New("submission rejected")
	ErrRegistrationFailed  = errors.New("registration failed")
	ErrRegistrationTimeout = errors.New("registration timed out")
	ErrInterrupted         = errors.New("registration interrupted")
)

// markers is ordered so per-asset kinds win over the fatal kinds they may
// wrap (a submission rejected because the store went away is still a
// submission_rejected for that asset).
var markers = []struct {
	err  error
	kind ErrorKind
}{
	{ErrFileUnreadable, ErrorFileUnreadable},
	{ErrRender, ErrorRender},
	{ErrSubmissionRejected, ErrorSubmissionRejected},
	{ErrRegistrationFailed, ErrorRegistrationFailed},
	{ErrRegistrationTimeout, ErrorRegistrationTimeout},
	{ErrInterrupted, ErrorInterrupted},
	{ErrIdentity, ErrorIdentity},
	{ErrStoreUnavailable, ErrorStoreUnavailable},
}

// Wrap builds an error message that includes component context while tagging
// it with marker for later classification.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		if err != nil {
			return fmt.Errorf("%s: %w", detail, err)
		}
		return errors.New(detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf maps an error to its ErrorKind. Unmarked errors are ErrorUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, m := range markers {
		if errors.Is(err, m.err) {
			return m.kind
		}
	}
	return ErrorUnknown
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{component, operation, message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "registration failure"
	}
	return strings.Join(parts, ": ")
}
