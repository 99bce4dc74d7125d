// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the asset-registrar CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/asset-registrar/internal/logging"
	"github.com/pdiddy/asset-registrar/internal/secrets"
	"github.com/pdiddy/asset-registrar/internal/tracing"
	"github.com/pdiddy/asset-registrar/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state prepared by the root command before any subcommand runs.
var (
	cfg      types.Config
	logger   = logging.Discard()
	provider = tracing.Noop()
)

// rootCmd is the base command for the asset-registrar CLI.
var rootCmd = &cobra.Command{
	Use:   "asset-registrar",
	Short: "Register article PDFs, media, XML and HTML in the asset store",
	Long: `asset-registrar collects the content files of journal articles, registers
each one in the asset store under a bucket shared by the article's assets,
renders HTML from structured markup, and records the public URLs in the
article document store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c

		l, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(logger)

		dir, _ := cmd.Flags().GetString("secrets-dir")
		token, err := secrets.Token(cfg.Gateway.Token, dir, logger)
		if err != nil {
			return err
		}
		cfg.Gateway.Token = token

		p, err := tracing.NewProvider(cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		provider = p
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return provider.Shutdown(ctx)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./asset-registrar.yaml or ~/.config/asset-registrar/config.yaml)")
	pf.String("secrets-dir", secrets.DefaultDir, "directory holding secret files (asset-store-token)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: auto, console, json")
	pf.String("store-url", "", "asset store API base URL")
	pf.String("db", "", "article document database path")

	_ = viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("gateway.base_url", pf.Lookup("store-url"))
	_ = viper.BindPFlag("store.path", pf.Lookup("db"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("asset-registrar")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "asset-registrar"))
		}
	}

	viper.SetEnvPrefix("ASSET_REGISTRAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so environment variables reach Unmarshal.
// Flags bound with BindPFlag fall back to these when unset.
func setDefaults(d types.Config) {
	defaults := map[string]any{
		"sources.timeout":           d.Sources.Timeout,
		"sources.user_agent":        d.Sources.UserAgent,
		"sources.pdf_root":          d.Sources.PDFRoot,
		"sources.media_root":        d.Sources.MediaRoot,
		"sources.xml_root":          d.Sources.XMLRoot,
		"sources.cache_root":        d.Sources.CacheRoot,
		"sources.disable_downloads": d.Sources.DisableDownloads,

		"gateway.timeout":          d.Gateway.Timeout,
		"gateway.user_agent":       d.Gateway.UserAgent,
		"gateway.base_url":         d.Gateway.BaseURL,
		"gateway.token":            d.Gateway.Token,
		"gateway.request_interval": d.Gateway.RequestInterval,
		"gateway.max_retries":      d.Gateway.MaxRetries,
		"gateway.result_cache_ttl": d.Gateway.ResultCacheTTL,

		"registration.poll_interval":          d.Registration.PollInterval,
		"registration.max_poll_interval":      d.Registration.MaxPollInterval,
		"registration.media_timeout":          d.Registration.MediaTimeout,
		"registration.timeout":                d.Registration.Timeout,
		"registration.max_concurrent_uploads": d.Registration.MaxConcurrentUploads,
		"registration.parallelism":            d.Registration.Parallelism,
		"registration.keep_downloads":         d.Registration.KeepDownloads,

		"renderer.image":    d.Renderer.Image,
		"renderer.css_path": d.Renderer.CSSPath,

		"store.path": d.Store.Path,

		"logging.level":  d.Logging.Level,
		"logging.format": d.Logging.Format,

		"tracing.enabled":       d.Tracing.Enabled,
		"tracing.exporter":      d.Tracing.Exporter,
		"tracing.file_path":     d.Tracing.FilePath,
		"tracing.otlp_endpoint": d.Tracing.OTLPEndpoint,
		"tracing.service_name":  d.Tracing.ServiceName,
	}
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

// loadConfig decodes the merged viper settings over the defaults.
func loadConfig() (types.Config, error) {
	c := types.DefaultConfig()
	if err := viper.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
