// Package version provides build version information for pullpipe binaries.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/pullpipe/version.Version=1.0.0"
//
// Anything not set is filled from the module's embedded build info.
package version
