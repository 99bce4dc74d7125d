// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry runs registration passes. A pass submits every content
// file of one article to the asset store, waits for the media to register,
// renders the HTML against the final media URLs, submits the HTML and
// collects one outcome per asset. Individual asset failures are recorded in
// the result; only an invalid identity or an unreachable store abort a pass.
package registry

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdiddy/asset-registrar/internal/assetjob"
	"github.com/pdiddy/asset-registrar/internal/gateway"
	"github.com/pdiddy/asset-registrar/internal/htmlgen"
	"github.com/pdiddy/asset-registrar/internal/logging"
	"github.com/pdiddy/asset-registrar/internal/sources"
	"github.com/pdiddy/asset-registrar/internal/tracing"
	"github.com/pdiddy/asset-registrar/pkg/types"
)

const component = "registry"

// FileResolver finds the content files of an article. *sources.Resolver
// implements it.
type FileResolver interface {
	Resolve(article types.ArticleIdentity) (*sources.FileSet, error)
}

// Deps are the collaborators of an Orchestrator. Gateway and Resolver are
// required; the rest have usable zero values.
type Deps struct {
	Gateway  gateway.Gateway
	Resolver FileResolver

	// Renderer produces HTML for markup-native articles. Nil records a
	// render error for every such article.
	Renderer htmlgen.Renderer

	// CSSPath is handed to the renderer.
	CSSPath string

	Config types.RegistrationConfig
	Logger *slog.Logger
	Tracer trace.Tracer

	// PhaseHook, when set, is called on every phase transition.
	PhaseHook PhaseHook
}

// Orchestrator runs registration passes. It holds no per-pass state, so
// one Orchestrator may run passes for different articles concurrently.
type Orchestrator struct {
	deps Deps
	cfg  types.RegistrationConfig
}

// New returns an Orchestrator, filling defaults for the optional deps.
func New(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Tracer == nil {
		deps.Tracer = tracing.Noop().Tracer()
	}
	return &Orchestrator{deps: deps, cfg: deps.Config.WithDefaults()}
}

// Register runs one pass for article. The result is never nil. The
// returned error is non-nil only for fatal errors (invalid identity,
// store unreachable); it is also recorded in the result. A canceled ctx
// ends the pass early with an interrupted entry in the result and a nil
// error.
func (o *Orchestrator) Register(ctx context.Context, article types.Article) (*types.RegistrationResult, error) {
	id := article.ArticleIdentity
	p := &pass{
		o:       o,
		id:      id,
		bucket:  id.BucketName(),
		passID:  uuid.NewString(),
		builder: newResultBuilder(id.UUID, id.BucketName()),
		meta:    articleMetadata(id),
		files:   map[*assetjob.Job]*sources.SourceFile{},
	}
	p.logger = o.deps.Logger.With(
		slog.String("bucket", p.bucket),
		slog.String("pass_id", p.passID),
	)

	ctx, span := o.deps.Tracer.Start(ctx, "registration.pass", trace.WithAttributes(
		attribute.String(tracing.AttrBucket, p.bucket),
		attribute.String(tracing.AttrArticleUUID, id.UUID),
		attribute.String(tracing.AttrPassID, p.passID),
	))
	defer span.End()

	err := p.run(ctx)
	result := p.finish(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int(tracing.AttrAssetCount, result.Len()))
	return result, err
}

// pass is the state of one Register call. Only the pass goroutine touches
// it, except for the submit goroutines which each own one job.
type pass struct {
	o      *Orchestrator
	id     types.ArticleIdentity
	bucket string
	passID string
	logger *slog.Logger

	builder *resultBuilder
	meta    map[string]string

	set       *sources.FileSet
	primary   []*assetjob.Job
	media     []*assetjob.Job
	html      []*assetjob.Job
	files     map[*assetjob.Job]*sources.SourceFile
	stopped   bool
	phaseSpan trace.Span

	// lost is set once the store stopped answering mid-pass. Submit
	// goroutines write it, so it is guarded.
	lostMu sync.Mutex
	lost   error
}

func (p *pass) run(ctx context.Context) error {
	p.enter(ctx, PhaseResolving)
	set, err := p.o.deps.Resolver.Resolve(p.id)
	if err != nil {
		err = wrapFatal(types.ErrIdentity, "resolve", err)
		p.builder.addError(types.NewAssetError(0, "", err))
		p.logger.Error("invalid article identity", slog.String("error", err.Error()))
		return err
	}
	p.set = set
	if set.Len() == 0 {
		p.logger.Info("no content files found")
		return nil
	}
	if err := p.o.deps.Gateway.Probe(ctx); err != nil {
		err = wrapFatal(types.ErrStoreUnavailable, "probe", err)
		p.builder.addError(types.NewAssetError(0, "", err))
		p.logger.Error("asset store unavailable", slog.String("error", err.Error()))
		return err
	}

	p.enter(ctx, PhaseSubmittingPrimary)
	p.createPrimaryJobs()
	p.submitAll(ctx, p.primary)
	if p.interrupted(ctx) {
		return nil
	}
	if err := p.storeLost(); err != nil {
		return err
	}

	if len(p.media) > 0 {
		p.enter(ctx, PhaseAwaitingMedia)
		if !p.await(ctx, p.media, p.o.cfg.MediaTimeout) {
			return p.storeLost()
		}
	}

	if p.set.XML != nil && p.set.XML.Location(ctx) != "" {
		p.enter(ctx, PhaseRenderingHTML)
		renditions := p.render(ctx)
		if p.interrupted(ctx) {
			return nil
		}
		if len(renditions) > 0 {
			p.enter(ctx, PhaseSubmittingHTML)
			p.createHTMLJobs(renditions)
			p.submitAll(ctx, p.html)
			if p.interrupted(ctx) {
				return nil
			}
			if err := p.storeLost(); err != nil {
				return err
			}
		}
	}

	p.enter(ctx, PhaseAwaitingAll)
	if !p.await(ctx, p.allJobs(), p.o.cfg.Timeout) {
		return p.storeLost()
	}
	return nil
}

// loseStore records that the store stopped answering. Only the first call
// records an error; the pass then stops submitting and waiting.
func (p *pass) loseStore(err error) {
	p.lostMu.Lock()
	defer p.lostMu.Unlock()
	if p.lost != nil {
		return
	}
	p.lost = wrapFatal(types.ErrStoreUnavailable, "register", err)
	p.builder.addError(types.NewAssetError(0, "", p.lost))
	p.logger.Error("asset store lost during pass", slog.String("error", err.Error()))
}

func (p *pass) isLost() bool {
	p.lostMu.Lock()
	defer p.lostMu.Unlock()
	return p.lost != nil
}

// storeLost returns the outage error, nil while the store answers. Once
// lost, every job that is not terminal is failed with it.
func (p *pass) storeLost() error {
	p.lostMu.Lock()
	err := p.lost
	p.lostMu.Unlock()
	if err == nil {
		return nil
	}
	for _, job := range p.allJobs() {
		job.ForceFail(err)
	}
	return err
}

// wrapFatal tags err with marker unless it already carries it.
func wrapFatal(marker error, op string, err error) error {
	if types.KindOf(err) == types.KindOf(marker) {
		return err
	}
	return types.Wrap(marker, component, op, "", err)
}

// enter moves the pass to phase, closing the span of the previous phase.
func (p *pass) enter(ctx context.Context, phase Phase) {
	if p.phaseSpan != nil {
		p.phaseSpan.End()
	}
	_, p.phaseSpan = p.o.deps.Tracer.Start(ctx, "registration."+strings.ToLower(string(phase)),
		trace.WithAttributes(attribute.String(tracing.AttrPhase, string(phase))))

	p.builder.addPhase(string(phase))
	p.logger.Debug("phase", slog.String("phase", string(phase)))
	if p.o.deps.PhaseHook != nil {
		p.o.deps.PhaseHook(p.bucket, phase)
	}
}

// interrupted reports whether ctx is done, recording it once.
func (p *pass) interrupted(ctx context.Context) bool {
	if ctx.Err() == nil {
		return false
	}
	if !p.stopped {
		p.stopped = true
		err := types.Wrap(types.ErrInterrupted, component, "register", "pass canceled", ctx.Err())
		p.builder.addError(types.NewAssetError(0, "", err))
		p.logger.Warn("registration interrupted", slog.String("error", ctx.Err().Error()))
	}
	return true
}

func (p *pass) newJob(f *sources.SourceFile) *assetjob.Job {
	job := assetjob.New(p.o.deps.Gateway, assetjob.Spec{
		Kind:     f.Kind,
		Label:    f.Label,
		Filename: f.Filename,
		Bucket:   p.bucket,
		Metadata: assetMetadata(p.meta, f.Kind, f.Label),
		Content:  f,
		Source:   f.Source,
	})
	p.files[job] = f
	return job
}

func (p *pass) createPrimaryJobs() {
	for _, f := range p.set.Files() {
		job := p.newJob(f)
		p.primary = append(p.primary, job)
		if f.Kind == types.KindMedia {
			p.media = append(p.media, job)
		}
	}
}

// HTMLFilename returns the registered name of the HTML of lang.
func HTMLFilename(id types.ArticleIdentity, lang string) string {
	return lang + "_" + id.FileCode + ".html"
}

func (p *pass) createHTMLJobs(renditions []htmlgen.Rendition) {
	for _, r := range renditions {
		p.html = append(p.html, assetjob.New(p.o.deps.Gateway, assetjob.Spec{
			Kind:     types.KindHTML,
			Label:    r.Lang,
			Filename: HTMLFilename(p.id, r.Lang),
			Bucket:   p.bucket,
			Metadata: assetMetadata(p.meta, types.KindHTML, r.Lang),
			Content:  assetjob.Bytes(r.HTML),
		}))
	}
}

// submitAll submits jobs concurrently, at most MaxConcurrentUploads at a
// time. Jobs not yet started when ctx is done stay unsubmitted.
func (p *pass) submitAll(ctx context.Context, jobs []*assetjob.Job) {
	sem := make(chan struct{}, p.o.cfg.MaxConcurrentUploads)
	var wg sync.WaitGroup
	for _, job := range jobs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil || p.isLost() {
				return
			}
			if err := job.Submit(ctx); err != nil {
				if types.KindOf(err) == types.ErrorStoreUnavailable {
					p.loseStore(err)
					return
				}
				p.logger.Warn("submit failed",
					slog.String("kind", job.Kind().String()),
					slog.String("label", job.Label()),
					slog.String("error", err.Error()),
				)
				return
			}
			p.logger.Debug("submitted",
				slog.String("kind", job.Kind().String()),
				slog.String("label", job.Label()),
				slog.String("task_id", job.TaskID()),
			)
		}()
	}
	wg.Wait()
}

func (p *pass) allJobs() []*assetjob.Job {
	all := make([]*assetjob.Job, 0, len(p.primary)+len(p.html))
	all = append(all, p.primary...)
	return append(all, p.html...)
}

// render calls the renderer once with the media references pointed at the
// registered media. Media that did not register keep their original
// reference.
func (p *pass) render(ctx context.Context) []htmlgen.Rendition {
	if p.o.deps.Renderer == nil {
		err := types.Wrap(types.ErrRender, component, "render", "no renderer configured", nil)
		p.builder.addError(types.NewAssetError(types.KindHTML, "", err))
		return nil
	}

	repl := htmlgen.Replacements{}
	var unregistered []string
	for _, job := range p.media {
		d, err := job.Result(ctx)
		if err != nil || d.URL == "" {
			unregistered = append(unregistered, job.Label())
			continue
		}
		repl[job.Label()] = d.URL
	}

	xmlPath := p.set.XML.Location(ctx)
	renditions, err := p.o.deps.Renderer.Render(ctx, xmlPath, p.o.deps.CSSPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if types.KindOf(err) != types.ErrorRender {
			err = types.Wrap(types.ErrRender, component, "render", xmlPath, err)
		}
		p.builder.addError(types.NewAssetError(types.KindHTML, "", err))
		p.logger.Warn("html rendering failed", slog.String("error", err.Error()))
		return nil
	}

	var ok []htmlgen.Rendition
	for _, r := range renditions {
		if r.Err != nil {
			err := r.Err
			if types.KindOf(err) != types.ErrorRender {
				err = types.Wrap(types.ErrRender, component, "render", r.Lang, err)
			}
			p.builder.addError(types.NewAssetError(types.KindHTML, r.Lang, err))
			p.logger.Warn("html rendering failed", slog.String("label", r.Lang), slog.String("error", err.Error()))
			continue
		}
		r.HTML = htmlgen.RewriteReferences(r.HTML, repl)
		if len(unregistered) > 0 {
			if refs, err := htmlgen.MediaReferences(r.HTML, unregistered); err == nil && len(refs) > 0 {
				p.logger.Warn("html references unregistered media",
					slog.String("label", r.Lang),
					slog.String("media", strings.Join(refs, ",")),
				)
			}
		}
		ok = append(ok, r)
	}
	return ok
}

// finish closes the pass: it builds the result from every job and deletes
// downloaded files. It runs even after ctx is done, so descriptor lookups
// use a detached context.
func (p *pass) finish(ctx context.Context) *types.RegistrationResult {
	if ctx.Err() != nil {
		p.interrupted(ctx)
	}
	p.enter(ctx, PhaseDone)
	p.phaseSpan.End()

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	for _, job := range p.allJobs() {
		out := job.Outcome(fctx)
		if f, ok := p.files[job]; ok && out.Status != types.StatusUnsubmitted {
			if loc := f.Location(fctx); loc != "" {
				out.Source = loc
			}
		}
		p.builder.addOutcome(job.Kind(), job.Label(), out)
	}

	if p.set != nil && !p.o.cfg.KeepDownloads {
		if err := p.set.Cleanup(); err != nil {
			p.logger.Warn("cleanup of downloaded files failed", slog.String("error", err.Error()))
		}
	}

	result := p.builder.build()
	p.logger.Info("registration pass finished",
		slog.Int("registered", result.Registered()),
		slog.Int("failed", result.Failed()),
		slog.Int("pending", result.Pending()),
		slog.Int("errors", len(result.Errors)),
		slog.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result
}

// finalizeTimeout bounds descriptor lookups when the pass ends.
const finalizeTimeout = 30 * time.Second
