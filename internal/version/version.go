// Package version carries build metadata for the running binary.
// Version and Commit are meant to be overridden at build time:
//
//	go build -ldflags "-X .../internal/version.Version=v0.2.0 -X .../internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = time.Now().Format(time.RFC3339)
	GoVersion = runtime.Version()
)
