//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Register registers every article record under articles/ and writes the
// per-article results to results/.
func Register() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath(), "register", "--results-dir", "results", "--summary", "articles")
}

// DryRun lists the files every article under articles/ would register.
func DryRun() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "register", "--dry-run", "articles")
}

// Probe checks that the asset store answers.
func Probe() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "probe")
}

// Records lists the stored article records.
func Records() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "show")
}
