//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const coverProfile = "coverage.out"

// Test groups test targets (all, unit, backends, cover).
type Test mg.Namespace

// All runs every test with the race detector.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Unit runs tests for packages that do not open a storage backend.
func (Test) Unit() error {
	pkgs, err := listPackages(func(pkg string) bool {
		return !isBackendPackage(pkg)
	})
	if err != nil {
		return err
	}
	return runTests(pkgs)
}

// Backends runs the store conformance suite against every backend plus the
// facade and CLI tests that attach one.
func (Test) Backends() error {
	pkgs, err := listPackages(isBackendPackage)
	if err != nil {
		return err
	}
	return runTests(pkgs)
}

// Cover runs all tests with a coverage profile and prints the summary.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverProfile)
}

func isBackendPackage(pkg string) bool {
	for _, suffix := range []string{"/internal/memory", "/internal/sqlite", "/pkg/recordstore", "/internal/cli"} {
		if strings.HasSuffix(pkg, suffix) {
			return true
		}
	}
	return false
}

func listPackages(keep func(string) bool) ([]string, error) {
	out, err := sh.Output(binGo, "list", "./...")
	if err != nil {
		return nil, err
	}
	var pkgs []string
	for _, pkg := range strings.Split(out, "\n") {
		if pkg != "" && keep(pkg) {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

func runTests(pkgs []string) error {
	if len(pkgs) == 0 {
		fmt.Println("No test packages found.")
		return nil
	}
	args := append([]string{"test", "-v"}, pkgs...)
	return sh.RunV(binGo, args...)
}
