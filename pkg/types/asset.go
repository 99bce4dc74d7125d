// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// AssetKind is the closed set of asset kinds an article can register.
// The zero value is not a valid kind.
type AssetKind uint8

const (
	KindPDF AssetKind = iota + 1
	KindMedia
	KindXML
	KindHTML
)

// AssetKinds returns every valid kind in registration order.
func AssetKinds() []AssetKind {
	return []AssetKind{KindPDF, KindMedia, KindXML, KindHTML}
}

func (k AssetKind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindMedia:
		return "media"
	case KindXML:
		return "xml"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the declared kinds.
func (k AssetKind) Valid() bool {
	return k >= KindPDF && k <= KindHTML
}

// FileType returns the file type sent to the asset store. Media items are
// registered without a type so the store infers it from the content.
func (k AssetKind) FileType() string {
	switch k {
	case KindPDF, KindXML, KindHTML:
		return k.String()
	case KindMedia:
		return ""
	default:
		return ""
	}
}

// ParseAssetKind converts a kind name back to an AssetKind.
func ParseAssetKind(s string) (AssetKind, error) {
	for _, k := range AssetKinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown asset kind %q", s)
}

// MarshalText encodes the kind by name.
func (k AssetKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid asset kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *AssetKind) UnmarshalText(text []byte) error {
	parsed, err := ParseAssetKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// JobStatus is the lifecycle state of one registration job.
// Transitions only move forward: unsubmitted → queued → registered | failed.
type JobStatus string

const (
	StatusUnsubmitted JobStatus = "unsubmitted"
	StatusQueued      JobStatus = "queued"
	StatusRegistered  JobStatus = "registered"
	StatusFailed      JobStatus = "failed"
)

// IsTerminal reports whether the status can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == StatusRegistered || s == StatusFailed
}
