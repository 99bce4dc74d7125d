// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assetjob tracks one asset registration from submission to a
// terminal state. A Job never blocks on the store: Poll asks once and
// returns, and the caller decides when to ask again.
package assetjob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"sync"

	"github.com/pdiddy/asset-registrar/internal/gateway"
	"github.com/pdiddy/asset-registrar/pkg/types"
)

// ErrNotTerminal is returned by Result when the job has not finished.
var ErrNotTerminal = errors.New("job has not reached a terminal state")

// Content supplies the bytes of an asset. *sources.SourceFile implements it.
type Content interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Bytes is in-memory content, used for generated HTML.
type Bytes []byte

// Open returns a reader over the bytes.
func (b Bytes) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Spec describes what a job registers.
type Spec struct {
	Kind     types.AssetKind
	Label    string
	Filename string
	Bucket   string
	Metadata map[string]string
	Content  Content

	// Source is recorded in the outcome; it is not read.
	Source string
}

// Job is one registration attempt. Status moves only forward:
// unsubmitted → queued → registered | failed.
type Job struct {
	spec Spec
	gw   gateway.Gateway

	mu     sync.Mutex
	status types.JobStatus
	taskID string
	err    error
	desc   *gateway.Descriptor
}

// New creates an unsubmitted job.
func New(gw gateway.Gateway, spec Spec) *Job {
	spec.Metadata = maps.Clone(spec.Metadata)
	return &Job{spec: spec, gw: gw, status: types.StatusUnsubmitted}
}

// Kind returns the asset kind.
func (j *Job) Kind() types.AssetKind { return j.spec.Kind }

// Label returns the language or media filename.
func (j *Job) Label() string { return j.spec.Label }

// Filename returns the registered file name.
func (j *Job) Filename() string { return j.spec.Filename }

// Bucket returns the store grouping key.
func (j *Job) Bucket() string { return j.spec.Bucket }

// Status returns the current local status without contacting the store.
func (j *Job) Status() types.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// TaskID returns the store task identifier, empty before submission.
func (j *Job) TaskID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.taskID
}

// Err returns the recorded failure, nil unless the job failed.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Submit reads the content fully and hands it to the store. A read failure
// fails the job with types.ErrFileUnreadable without contacting the store.
// Submitting a job twice is an error.
func (j *Job) Submit(ctx context.Context) error {
	j.mu.Lock()
	if j.status != types.StatusUnsubmitted {
		status := j.status
		j.mu.Unlock()
		return fmt.Errorf("submit %s: job already %s", j.spec.Filename, status)
	}
	j.mu.Unlock()

	data, err := j.read(ctx)
	if err != nil {
		j.fail(err)
		return err
	}

	taskID, err := j.gw.Submit(ctx, gateway.Upload{
		Content:  data,
		Filename: j.spec.Filename,
		Kind:     j.spec.Kind,
		Metadata: j.spec.Metadata,
		Bucket:   j.spec.Bucket,
	})
	if err != nil {
		switch types.KindOf(err) {
		case types.ErrorSubmissionRejected, types.ErrorStoreUnavailable:
		default:
			err = types.Wrap(types.ErrSubmissionRejected, "assetjob", "submit", j.spec.Filename, err)
		}
		j.fail(err)
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.taskID = taskID
	if j.status == types.StatusUnsubmitted {
		j.status = types.StatusQueued
	}
	return nil
}

// read loads the whole content and releases the handle before returning.
func (j *Job) read(ctx context.Context) ([]byte, error) {
	if j.spec.Content == nil {
		return nil, types.Wrap(types.ErrFileUnreadable, "assetjob", "read", j.spec.Filename+": no content", nil)
	}
	r, err := j.spec.Content.Open(ctx)
	if err != nil {
		if types.KindOf(err) != types.ErrorFileUnreadable {
			err = types.Wrap(types.ErrFileUnreadable, "assetjob", "read", j.spec.Filename, err)
		}
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, types.Wrap(types.ErrFileUnreadable, "assetjob", "read", j.spec.Filename, err)
	}
	return data, nil
}

// Poll asks the store for the task state once. It is idempotent: terminal
// jobs return their status without contacting the store. A poll error
// leaves a queued job queued and is returned so the caller can tell a lost
// store from a slow one.
func (j *Job) Poll(ctx context.Context) (types.JobStatus, error) {
	j.mu.Lock()
	if j.status != types.StatusQueued {
		status := j.status
		j.mu.Unlock()
		return status, nil
	}
	taskID := j.taskID
	j.mu.Unlock()

	state, err := j.gw.PollStatus(ctx, taskID)
	if err != nil {
		return types.StatusQueued, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != types.StatusQueued {
		return j.status, nil
	}
	switch state {
	case gateway.StateSuccess:
		j.status = types.StatusRegistered
	case gateway.StateFailure:
		j.status = types.StatusFailed
		j.err = types.Wrap(types.ErrRegistrationFailed, "assetjob", "poll",
			fmt.Sprintf("store reported failure for %s (task %s)", j.spec.Filename, taskID), nil)
	case gateway.StateQueued:
	}
	return j.status, nil
}

// ForceFail marks a non-terminal job failed with err. Terminal jobs are
// left untouched. It reports whether the job changed.
func (j *Job) ForceFail(err error) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.IsTerminal() {
		return false
	}
	j.status = types.StatusFailed
	j.err = err
	return true
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.IsTerminal() {
		return
	}
	j.status = types.StatusFailed
	j.err = err
}

// Result returns the final descriptor of a registered job or the recorded
// error of a failed one. Calling it on a non-terminal job returns
// ErrNotTerminal; it never waits.
func (j *Job) Result(ctx context.Context) (gateway.Descriptor, error) {
	j.mu.Lock()
	status, taskID, recorded, desc := j.status, j.taskID, j.err, j.desc
	j.mu.Unlock()

	switch status {
	case types.StatusRegistered:
		if desc != nil {
			return *desc, nil
		}
		d, err := j.gw.FetchResult(ctx, taskID)
		if err != nil {
			return gateway.Descriptor{}, err
		}
		j.mu.Lock()
		j.desc = &d
		j.mu.Unlock()
		return d, nil
	case types.StatusFailed:
		return gateway.Descriptor{}, recorded
	case types.StatusUnsubmitted, types.StatusQueued:
		return gateway.Descriptor{}, fmt.Errorf("result of %s: %w (status %s)", j.spec.Filename, ErrNotTerminal, status)
	default:
		return gateway.Descriptor{}, fmt.Errorf("result of %s: unknown status %q", j.spec.Filename, status)
	}
}

// Outcome summarizes the job for the registration result. Registered jobs
// fetch their descriptor; a fetch failure turns the outcome into a failure
// while the job itself stays registered.
func (j *Job) Outcome(ctx context.Context) types.AssetOutcome {
	out := types.AssetOutcome{
		Filename: j.spec.Filename,
		Source:   j.spec.Source,
		Status:   j.Status(),
		JobID:    j.TaskID(),
		Metadata: maps.Clone(j.spec.Metadata),
	}
	if !out.Status.IsTerminal() {
		return out
	}
	d, err := j.Result(ctx)
	if err != nil {
		ae := types.NewAssetError(j.spec.Kind, j.spec.Label, err)
		out.Status = types.StatusFailed
		out.Error = &ae
		return out
	}
	out.URL = d.URL
	if len(d.Metadata) > 0 {
		out.Metadata = maps.Clone(d.Metadata)
	}
	return out
}
