// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/asset-registrar/internal/gateway"
	"github.com/pdiddy/asset-registrar/internal/htmlgen"
	"github.com/pdiddy/asset-registrar/internal/sources"
	"github.com/pdiddy/asset-registrar/pkg/types"
)

// plan scripts how the fake store handles one filename.
type plan struct {
	polls  int  // polls answered "queued" before the terminal state
	fail   bool // terminal state is failure
	never  bool // stays queued forever
	reject bool // submit is refused
}

type upload struct {
	gateway.Upload
	taskID string
}

// fakeGateway is an in-memory asset store. It records an event log of
// submissions and first terminal answers so tests can check ordering.
type fakeGateway struct {
	probeErr error
	plans    map[string]plan

	mu      sync.Mutex
	next    int
	uploads map[string]upload // taskID -> upload
	polls   map[string]int    // taskID -> polls answered
	done    map[string]bool   // taskID -> terminal answer given
	events  []string
	probes  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		plans:   map[string]plan{},
		uploads: map[string]upload{},
		polls:   map[string]int{},
		done:    map[string]bool{},
	}
}

func (g *fakeGateway) Probe(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.probes++
	return g.probeErr
}

func (g *fakeGateway) Submit(_ context.Context, u gateway.Upload) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.plans[u.Filename].reject {
		return "", types.Wrap(types.ErrSubmissionRejected, "fake", "submit", "bucket_name required", nil)
	}
	g.next++
	id := fmt.Sprintf("task-%d", g.next)
	u.Metadata = maps.Clone(u.Metadata)
	g.uploads[id] = upload{Upload: u, taskID: id}
	g.events = append(g.events, "submit:"+u.Filename)
	return id, nil
}

func (g *fakeGateway) PollStatus(_ context.Context, taskID string) (gateway.TaskState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.uploads[taskID]
	if !ok {
		return gateway.StateFailure, nil
	}
	p := g.plans[u.Filename]
	g.polls[taskID]++
	if p.never || g.polls[taskID] <= p.polls {
		return gateway.StateQueued, nil
	}
	if !g.done[taskID] {
		g.done[taskID] = true
		g.events = append(g.events, "done:"+u.Filename)
	}
	if p.fail {
		return gateway.StateFailure, nil
	}
	return gateway.StateSuccess, nil
}

func (g *fakeGateway) FetchResult(_ context.Context, taskID string) (gateway.Descriptor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.uploads[taskID]
	if !ok {
		return gateway.Descriptor{}, types.Wrap(types.ErrRegistrationFailed, "fake", "fetch", taskID, nil)
	}
	return gateway.Descriptor{URL: assetURL(u.Bucket, u.Filename), Metadata: maps.Clone(u.Metadata)}, nil
}

func assetURL(bucket, filename string) string {
	return "https://assets.test/" + bucket + "/" + filename
}

// byFilename returns the upload of filename.
func (g *fakeGateway) byFilename(filename string) (upload, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, u := range g.uploads {
		if u.Filename == filename {
			return u, true
		}
	}
	return upload{}, false
}

func (g *fakeGateway) submitted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.uploads))
	for _, u := range g.uploads {
		names = append(names, u.Filename)
	}
	sort.Strings(names)
	return names
}

func (g *fakeGateway) buckets() map[string]bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := map[string]bool{}
	for _, u := range g.uploads {
		out[u.Bucket] = true
	}
	return out
}

func (g *fakeGateway) eventLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.events...)
}

// fakeRenderer returns one rendition per language, each referencing every
// name in media.
type fakeRenderer struct {
	langs []string
	media []string
	fail  map[string]bool
	err   error

	mu    sync.Mutex
	calls int
}

func (r *fakeRenderer) Render(_ context.Context, xmlPath, _ string) ([]htmlgen.Rendition, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if _, err := os.Stat(xmlPath); err != nil {
		return nil, err
	}
	var out []htmlgen.Rendition
	for _, lang := range r.langs {
		if r.fail[lang] {
			out = append(out, htmlgen.Rendition{Lang: lang,
				Err: types.Wrap(types.ErrRender, "fake", "render", lang+": TypeError", nil)})
			continue
		}
		var b strings.Builder
		b.WriteString(`<html lang="` + lang + `"><body>`)
		for _, m := range r.media {
			b.WriteString(`<a href="` + m + `"><img src="` + m + `"></a>`)
		}
		b.WriteString("</body></html>")
		out = append(out, htmlgen.Rendition{Lang: lang, HTML: b.String()})
	}
	return out, nil
}

// fixture is a tree of source folders for the rsp/v40n3 issue.
type fixture struct {
	root string
	cfg  types.SourcesConfig
}

func newFixture(root string) *fixture {
	return &fixture{
		root: root,
		cfg: types.SourcesConfig{
			PDFRoot:   filepath.Join(root, "pdf"),
			MediaRoot: filepath.Join(root, "img"),
			XMLRoot:   filepath.Join(root, "xml"),
			CacheRoot: filepath.Join(root, "cache"),
		},
	}
}

func (f *fixture) write(rel, content string) error {
	path := filepath.Join(f.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func (f *fixture) pdf(name string) error   { return f.write(filepath.Join("pdf", "rsp", "v40n3", name), "%PDF "+name) }
func (f *fixture) media(name string) error { return f.write(filepath.Join("img", "rsp", "v40n3", name), "img "+name) }
func (f *fixture) xml() error              { return f.write(filepath.Join("xml", "rsp", "v40n3", "07.xml"), "<article/>") }

func (f *fixture) resolver() *sources.Resolver {
	return sources.NewResolver(f.cfg, nil, nil)
}

func identity() types.ArticleIdentity {
	return types.ArticleIdentity{
		UUID:             "3f1c9a",
		PID:              "S0034-89102006000300007",
		JournalAcronym:   "RSP",
		IssueCode:        "v40n3",
		FileCode:         "07",
		OriginalLanguage: "pt",
		Languages:        []string{"pt", "en"},
	}
}

// legacyArticle lists its PDFs in the fulltext map and has no markup.
func legacyArticle() types.Article {
	id := identity()
	id.Fulltexts = map[string]map[string]string{"pdf": {"pt": "", "en": ""}}
	return types.Article{ArticleIdentity: id}
}

func markupArticle() types.Article {
	id := identity()
	id.DataModelVersion = types.DataModelXML
	return types.Article{ArticleIdentity: id}
}

func fastConfig() types.RegistrationConfig {
	return types.RegistrationConfig{
		PollInterval:         time.Millisecond,
		MaxPollInterval:      5 * time.Millisecond,
		MediaTimeout:         150 * time.Millisecond,
		Timeout:              300 * time.Millisecond,
		MaxConcurrentUploads: 3,
		Parallelism:          2,
	}
}

// downGateway answers the health check, then loses connectivity for
// submits or status polls. flaky names a file whose first poll fails while
// the store stays up.
type downGateway struct {
	*fakeGateway
	submitDown bool
	pollDown   bool
	flaky      string

	flakyHit bool
	pollErrs int
}

func outage(op string) error {
	return types.Wrap(types.ErrStoreUnavailable, "fake", op, "connection refused", nil)
}

func (g *downGateway) Submit(ctx context.Context, u gateway.Upload) (string, error) {
	if g.submitDown {
		return "", outage("submit")
	}
	return g.fakeGateway.Submit(ctx, u)
}

func (g *downGateway) PollStatus(ctx context.Context, taskID string) (gateway.TaskState, error) {
	g.mu.Lock()
	failing := g.pollDown
	if !failing && g.flaky != "" && !g.flakyHit && g.uploads[taskID].Filename == g.flaky {
		g.flakyHit = true
		failing = true
	}
	if failing {
		g.pollErrs++
	}
	g.mu.Unlock()
	if failing {
		return "", outage("poll")
	}
	return g.fakeGateway.PollStatus(ctx, taskID)
}
