// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the coursealloc project using Mage.
//
// Usage:
//
//	mage build          Compile coursealloc binary to bin/
//	mage test:all       Run all tests
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write a coverage profile to bin/
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install coursealloc to GOPATH/bin
//	mage serve          Build and start the HTTP server
package main

const (
	binGo      = "go"
	binaryName = "coursealloc"
	binaryDir  = "bin"
	cmdDir     = "./cmd/coursealloc"
	versionVar = "github.com/mesh-intelligence/coursealloc/internal/cli.Version"
)
