// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"time"
)

// AssetOutcome is the final state of one asset after a registration pass.
type AssetOutcome struct {
	// Filename is the name the asset was (or would have been) registered under.
	Filename string `json:"filename" yaml:"filename"`

	// Source is the local path or remote URL the content came from. Empty for
	// generated HTML.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Status is the terminal (or, for interrupted passes, last known) job status.
	Status JobStatus `json:"status" yaml:"status"`

	// JobID is the asset store task identifier, when the job was submitted.
	JobID string `json:"job_id,omitempty" yaml:"job_id,omitempty"`

	// URL is the public URL of a registered asset.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Metadata is the descriptor metadata returned by the store, or the
	// metadata that was submitted when the asset did not register.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Error describes why the asset is missing. Nil for registered assets.
	Error *AssetError `json:"error,omitempty" yaml:"error,omitempty"`
}

// Registered reports whether the asset has a public URL.
func (o AssetOutcome) Registered() bool {
	return o.Status == StatusRegistered && o.URL != ""
}

// AssetError is one accumulated, non-aborting (or pass-level fatal) error.
type AssetError struct {
	Kind ErrorKind `json:"kind" yaml:"kind"`

	// Asset is the asset kind the error belongs to; zero for pass-level errors.
	Asset AssetKind `json:"asset,omitempty" yaml:"asset,omitempty"`

	// Label is the language or media filename the error belongs to.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	Message string `json:"message" yaml:"message"`
}

func (e AssetError) Error() string {
	if e.Asset.Valid() {
		return string(e.Kind) + " (" + e.Asset.String() + " " + e.Label + "): " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

// NewAssetError classifies err and attaches the asset it belongs to.
func NewAssetError(kind AssetKind, label string, err error) AssetError {
	return AssetError{
		Kind:    KindOf(err),
		Asset:   kind,
		Label:   label,
		Message: err.Error(),
	}
}

// RegistrationResult aggregates the outcome of every asset of one article.
type RegistrationResult struct {
	ArticleUUID string `json:"article_uuid" yaml:"article_uuid"`
	Bucket      string `json:"bucket" yaml:"bucket"`

	PDF   map[string]AssetOutcome `json:"pdf" yaml:"pdf"`
	Media map[string]AssetOutcome `json:"media" yaml:"media"`
	XML   map[string]AssetOutcome `json:"xml" yaml:"xml"`
	HTML  map[string]AssetOutcome `json:"html" yaml:"html"`

	Errors []AssetError `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Phases lists the orchestrator states visited, in order.
	Phases []string `json:"phases,omitempty" yaml:"phases,omitempty"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// NewRegistrationResult returns an empty result with every kind map allocated.
func NewRegistrationResult(uuid, bucket string) *RegistrationResult {
	return &RegistrationResult{
		ArticleUUID: uuid,
		Bucket:      bucket,
		PDF:         map[string]AssetOutcome{},
		Media:       map[string]AssetOutcome{},
		XML:         map[string]AssetOutcome{},
		HTML:        map[string]AssetOutcome{},
	}
}

// Outcomes returns the label → outcome map for kind, or nil for an invalid kind.
func (r *RegistrationResult) Outcomes(kind AssetKind) map[string]AssetOutcome {
	switch kind {
	case KindPDF:
		return r.PDF
	case KindMedia:
		return r.Media
	case KindXML:
		return r.XML
	case KindHTML:
		return r.HTML
	default:
		return nil
	}
}

// Len returns the number of asset entries across all kinds.
func (r *RegistrationResult) Len() int {
	return len(r.PDF) + len(r.Media) + len(r.XML) + len(r.HTML)
}

func (r *RegistrationResult) count(match func(AssetOutcome) bool) int {
	n := 0
	for _, kind := range AssetKinds() {
		for _, o := range r.Outcomes(kind) {
			if match(o) {
				n++
			}
		}
	}
	return n
}

// Registered returns the number of assets with a public URL.
func (r *RegistrationResult) Registered() int {
	return r.count(func(o AssetOutcome) bool { return o.Status == StatusRegistered })
}

// Failed returns the number of assets that did not register.
func (r *RegistrationResult) Failed() int {
	return r.count(func(o AssetOutcome) bool { return o.Status == StatusFailed })
}

// Pending returns the number of assets still queued remotely when the pass
// stopped waiting.
func (r *RegistrationResult) Pending() int {
	return r.count(func(o AssetOutcome) bool { return !o.Status.IsTerminal() })
}

// HasErrors reports whether any error was recorded.
func (r *RegistrationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ErrorsOf returns the recorded errors of the given kind.
func (r *RegistrationResult) ErrorsOf(kind ErrorKind) []AssetError {
	var out []AssetError
	for _, e := range r.Errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Fatal returns the first pass-level fatal error, if any.
func (r *RegistrationResult) Fatal() *AssetError {
	for i := range r.Errors {
		if r.Errors[i].Kind.Fatal() {
			return &r.Errors[i]
		}
	}
	return nil
}

// URLs returns label → URL for the registered assets of kind.
func (r *RegistrationResult) URLs(kind AssetKind) map[string]string {
	out := map[string]string{}
	for label, o := range r.Outcomes(kind) {
		if o.Registered() {
			out[label] = o.URL
		}
	}
	return out
}

// Labels returns the sorted labels recorded for kind.
func (r *RegistrationResult) Labels(kind AssetKind) []string {
	m := r.Outcomes(kind)
	labels := make([]string, 0, len(m))
	for l := range m {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
