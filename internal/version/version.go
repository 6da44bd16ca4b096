package version

import "runtime"

// Set at build time with -ldflags "-X github.com/MrSnakeDoc/portal/internal/version.Version=..."
var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2026-10-17T18:42:00Z
	GoVersion = runtime.Version() // toolchain that built the binary
)
