// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package version

// Version is the current version of the influximport binary.
// It is overridden at build time via -ldflags.
var Version = "0.2.0-dev"
