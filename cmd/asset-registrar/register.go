// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/asset-registrar/internal/container"
	"github.com/pdiddy/asset-registrar/internal/gateway"
	"github.com/pdiddy/asset-registrar/internal/htmlgen"
	"github.com/pdiddy/asset-registrar/internal/metadata"
	"github.com/pdiddy/asset-registrar/internal/record"
	"github.com/pdiddy/asset-registrar/internal/registry"
	"github.com/pdiddy/asset-registrar/internal/sources"
	"github.com/pdiddy/asset-registrar/pkg/types"
)

var registerCmd = &cobra.Command{
	Use:   "register [article files or directories...]",
	Short: "Register the assets of one or more articles",
	Long: `Register reads article records (YAML), locates each article's PDFs, media
and XML, submits them to the asset store, renders and submits HTML for
markup-native articles, and writes the resulting URLs to the article
document store. Articles are processed concurrently up to --parallelism.`,
	RunE: runRegister,
}

func init() {
	f := registerCmd.Flags()
	f.Bool("summary", false, "print a per-asset table after the batch")
	f.Bool("dry-run", false, "list the files each article would register without contacting the store")
	f.Bool("no-store", false, "do not write article records to the document store")
	f.String("results-dir", "", "write one <bucket>.result.yaml per article to this directory")
	f.Int("parallelism", 0, "articles registered concurrently")
	f.Bool("keep-downloads", false, "keep files downloaded from remote fallbacks")
	f.Duration("timeout", 0, "bound on the final wait for outstanding jobs")

	_ = viper.BindPFlag("registration.parallelism", f.Lookup("parallelism"))
	_ = viper.BindPFlag("registration.keep_downloads", f.Lookup("keep-downloads"))
	_ = viper.BindPFlag("registration.timeout", f.Lookup("timeout"))

	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more article record files or directories")
	}
	articles, err := loadArticles(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		return dryRun(cmd.Context(), out, articles)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := gateway.NewHTTPClient(cfg.Gateway, nil, logger)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: cfg.Sources.Timeout}
	orch := registry.New(registry.Deps{
		Gateway:  gw,
		Resolver: sources.NewResolver(cfg.Sources, client, logger),
		Renderer: newRenderer(ctx, articles),
		CSSPath:  cfg.Renderer.CSSPath,
		Config:   cfg.Registration,
		Logger:   logger,
		Tracer:   provider.Tracer(),
	})

	batch := orch.RegisterBatch(ctx, articles, out)

	if err := saveResults(cmd, articles, batch); err != nil {
		return err
	}
	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		fmt.Fprintln(out, renderTable(
			[]string{"Bucket", "Kind", "Label", "Status", "URL / Error"},
			summaryRows(batch.Results),
			nil,
		))
	}

	if batch.HasFailures() {
		return fmt.Errorf("%d article(s) failed, %d partial, %d skipped", batch.Failed, batch.Partial, batch.Skipped)
	}
	return nil
}

func loadArticles(paths []string) ([]types.Article, error) {
	var articles []types.Article
	for _, p := range paths {
		a, err := metadata.Load(p)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a...)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("no article records found in %v", paths)
	}
	return articles, nil
}

// newRenderer returns the container renderer, or nil when no article needs
// one or no container runtime is usable. A nil renderer records a render
// error for each markup-native article.
func newRenderer(ctx context.Context, articles []types.Article) htmlgen.Renderer {
	needed := false
	for _, a := range articles {
		if a.MarkupNative() {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}
	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		logger.Warn("html rendering unavailable", "error", err)
		return nil
	}
	r, err := htmlgen.NewContainerRenderer(ctx, rt, cfg.Renderer.Image)
	if err != nil {
		logger.Warn("html rendering unavailable", "runtime", rt.Name(), "error", err)
		return nil
	}
	return r
}

// saveResults writes result files and article records for every article
// whose pass ran.
func saveResults(cmd *cobra.Command, articles []types.Article, batch registry.BatchResult) error {
	resultsDir, _ := cmd.Flags().GetString("results-dir")
	noStore, _ := cmd.Flags().GetBool("no-store")

	var store *record.Store
	if !noStore {
		s, err := record.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	// Records are written even after an interrupt.
	ctx := context.WithoutCancel(cmd.Context())
	for i, res := range batch.Results {
		if res == nil {
			continue
		}
		if resultsDir != "" {
			if _, err := metadata.WriteResult(resultsDir, res); err != nil {
				return err
			}
		}
		// A pass that lost the store midway still keeps what it registered.
		if store != nil && (res.Fatal() == nil || res.Registered() > 0) {
			if err := store.Upsert(ctx, record.Build(articles[i], res)); err != nil {
				return err
			}
		}
	}
	return nil
}

// summaryRows lists one row per asset outcome, ordered by article, kind and
// label.
func summaryRows(results []*types.RegistrationResult) [][]string {
	var rows [][]string
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, kind := range types.AssetKinds() {
			outcomes := res.Outcomes(kind)
			for _, label := range res.Labels(kind) {
				o := outcomes[label]
				detail := o.URL
				if o.Error != nil {
					detail = string(o.Error.Kind) + ": " + o.Error.Message
				}
				rows = append(rows, []string{res.Bucket, kind.String(), label, string(o.Status), detail})
			}
		}
		if f := res.Fatal(); f != nil {
			rows = append(rows, []string{res.Bucket, "", "", string(f.Kind), f.Message})
		}
	}
	return rows
}

// dryRun resolves every article's files without downloading or submitting.
func dryRun(ctx context.Context, w io.Writer, articles []types.Article) error {
	srcCfg := cfg.Sources
	srcCfg.DisableDownloads = true
	resolver := sources.NewResolver(srcCfg, nil, logger)

	var rows [][]string
	for _, a := range articles {
		set, err := resolver.Resolve(a.ArticleIdentity)
		if err != nil {
			rows = append(rows, []string{a.BucketName(), "", "", "", err.Error()})
			continue
		}
		for _, f := range set.Files() {
			state := f.Location(ctx)
			if state == "" {
				state = "missing"
				if err := f.Err(); err != nil {
					state = err.Error()
				}
			}
			rows = append(rows, []string{a.BucketName(), f.Kind.String(), f.Label, f.Filename, state})
		}
		if a.MarkupNative() {
			for _, lang := range a.Languages {
				rows = append(rows, []string{a.BucketName(), types.KindHTML.String(), lang,
					registry.HTMLFilename(a.ArticleIdentity, lang), "generated"})
			}
		}
	}
	fmt.Fprintln(w, renderTable([]string{"Bucket", "Kind", "Label", "Filename", "Location"}, rows, nil))
	return nil
}
