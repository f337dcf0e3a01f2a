package internal

import (
	"fmt"
	"runtime"
)

// VersionInfo is the version and build metadata baked into the binary.
type VersionInfo struct {
	Version string
	// Commit is the Git commit the binary was built from, set via -ldflags.
	Commit string
}

// Version of the current build, overridable at link time.
var Version = &VersionInfo{Version: "0.1.0"}

// Print writes human-readable version and build information to stdout.
func (v *VersionInfo) Print(projectName string) {
	fmt.Println(projectName, "version:", v.Version)
	fmt.Println()

	fmt.Println("Build information:")
	fmt.Printf("  Go version: %s (%s, %s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if v.Commit != "" {
		fmt.Println("  Git commit:", v.Commit)
	}
}
