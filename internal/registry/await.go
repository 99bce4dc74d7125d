// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/asset-registrar/internal/assetjob"
	"github.com/pdiddy/asset-registrar/pkg/types"
)

// await polls the queued jobs until each is terminal or timeout elapses.
// The delay between rounds starts at PollInterval and doubles up to
// MaxPollInterval. Jobs still queued at the deadline are force-failed with
// a registration timeout. It returns false when ctx ended the wait, in
// which case queued jobs are left as they are, or when the store was lost.
func (p *pass) await(ctx context.Context, jobs []*assetjob.Job, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	delay := p.o.cfg.PollInterval

	for round := 1; ; round++ {
		if p.interrupted(ctx) {
			return false
		}
		pending, lostErr := p.pollRound(ctx, jobs)
		if ctx.Err() == nil && lostErr != nil {
			p.loseStore(lostErr)
			return false
		}
		if len(pending) == 0 {
			return true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.expire(pending, timeout)
			return true
		}
		p.logger.Debug("waiting for registration",
			slog.Int("round", round),
			slog.Int("pending", len(pending)),
			slog.Duration("delay", delay),
		)

		timer := time.NewTimer(min(delay, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			p.interrupted(ctx)
			return false
		case <-timer.C:
		}
		delay = min(delay*2, p.o.cfg.MaxPollInterval)
	}
}

// pollRound asks the store once about every queued job and returns the
// ones still queued. Connectivity errors are tolerated as long as the store
// answers something: when every poll of the round failed, or the health
// check fails after one did, the store is reported lost.
func (p *pass) pollRound(ctx context.Context, jobs []*assetjob.Job) ([]*assetjob.Job, error) {
	var (
		pending  []*assetjob.Job
		polled   int
		failures int
		lastErr  error
	)
	for _, job := range jobs {
		if job.Status() != types.StatusQueued {
			continue
		}
		polled++
		status, err := job.Poll(ctx)
		if err != nil && types.KindOf(err) == types.ErrorStoreUnavailable {
			failures++
			lastErr = err
		}
		if status == types.StatusQueued {
			pending = append(pending, job)
		}
	}
	if failures == 0 {
		return pending, nil
	}
	if failures == polled {
		return pending, lastErr
	}
	if err := p.o.deps.Gateway.Probe(ctx); err != nil {
		return pending, err
	}
	p.logger.Warn("status poll failed",
		slog.Int("failures", failures),
		slog.String("error", lastErr.Error()),
	)
	return pending, nil
}

func (p *pass) expire(jobs []*assetjob.Job, timeout time.Duration) {
	for _, job := range jobs {
		err := types.Wrap(types.ErrRegistrationTimeout, component, "await",
			fmt.Sprintf("%s not registered after %s (task %s)", job.Filename(), timeout, job.TaskID()), nil)
		if job.ForceFail(err) {
			p.logger.Warn("registration timed out",
				slog.String("kind", job.Kind().String()),
				slog.String("label", job.Label()),
				slog.String("task_id", job.TaskID()),
			)
		}
	}
}
