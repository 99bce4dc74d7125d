// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gateway is the boundary to the external asset store. Stores
// register uploads asynchronously: Submit returns a task identifier that
// callers poll until it succeeds or fails, then fetch the final descriptor.
package gateway

import (
	"context"
	"strings"

	"github.com/pdiddy/asset-registrar/pkg/types"
)

// TaskState is the external state of a registration task.
type TaskState string

const (
	StateQueued  TaskState = "queued"
	StateSuccess TaskState = "success"
	StateFailure TaskState = "failure"
)

// ParseTaskState maps the store's task state strings onto TaskState. The
// store has been seen reporting both "SUCCESS" and "SUCESS".
func ParseTaskState(s string) TaskState {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCESS", "SUCESS":
		return StateSuccess
	case "FAILURE", "FAILED", "REVOKED":
		return StateFailure
	default:
		return StateQueued
	}
}

// Upload is one submission to the store.
type Upload struct {
	Content  []byte
	Filename string
	Kind     types.AssetKind
	Metadata map[string]string
	Bucket   string
}

// Descriptor is the final record of a registered asset.
type Descriptor struct {
	URL      string            `json:"url"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Gateway is the contract the registration jobs need from the store. The
// gateway never holds job references: callers keep the task identifier.
// Connectivity failures wrap types.ErrStoreUnavailable; submissions the
// store refuses wrap types.ErrSubmissionRejected.
type Gateway interface {
	// Probe reports whether the store is reachable at all.
	Probe(ctx context.Context) error

	// Submit uploads content and returns the store's task identifier.
	Submit(ctx context.Context, upload Upload) (string, error)

	// PollStatus returns the current task state without blocking on it.
	PollStatus(ctx context.Context, taskID string) (TaskState, error)

	// FetchResult returns the descriptor of a successfully registered task.
	FetchResult(ctx context.Context, taskID string) (Descriptor, error)
}
