//go:build mage

// Package main provides build targets for the qom project using Mage.
//
// Usage:
//
//	mage build          Compile qomctl to bin/
//	mage test:all       Run all tests
//	mage test:short     Run tests with -short
//	mage test:cover     Run tests with a coverage profile
//	mage lint           Run golangci-lint
//	mage vet            Run go vet
//	mage clean          Remove build artifacts
//	mage install        Install qomctl to GOPATH/bin
//	mage snapshot       Build, then record a snapshot of the sample machine
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "qomctl"
	binaryDir  = "bin"
	cmdDir     = "./cmd/qomctl"
	coverFile  = "coverage.out"
)

var Default = Build

// Build compiles the qomctl binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", binaryPath(), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	if err := sh.Rm(coverFile); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), binaryPath())
}

// Snapshot builds qomctl and records a snapshot of the sample machine in
// the default data directory.
func Snapshot() error {
	mg.Deps(Build)
	return sh.RunV(binaryPath(), "snapshot")
}

func binaryPath() string {
	return filepath.Join(binaryDir, binaryName)
}
