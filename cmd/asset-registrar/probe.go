// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/asset-registrar/internal/container"
	"github.com/pdiddy/asset-registrar/internal/gateway"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the asset store and the HTML renderer are reachable",
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	gw, err := gateway.NewHTTPClient(cfg.Gateway, nil, logger)
	if err != nil {
		return err
	}
	storeErr := gw.Probe(ctx)
	if storeErr != nil {
		fmt.Fprintf(out, "asset store: unreachable at %s (%v)\n", cfg.Gateway.BaseURL, storeErr)
	} else {
		fmt.Fprintf(out, "asset store: ok (%s)\n", cfg.Gateway.BaseURL)
	}

	// The renderer is optional: articles without markup never need it.
	rt, err := container.DetectRuntime(ctx)
	switch {
	case err != nil:
		fmt.Fprintf(out, "renderer:    unavailable (%v)\n", err)
	default:
		if err := rt.ImageExists(ctx, cfg.Renderer.Image); err != nil {
			fmt.Fprintf(out, "renderer:    %s image %s missing (%v)\n", rt.Name(), cfg.Renderer.Image, err)
		} else {
			fmt.Fprintf(out, "renderer:    ok (%s, %s)\n", rt.Name(), cfg.Renderer.Image)
		}
	}

	return storeErr
}
