package version

import "fmt"

// Product prefixes the User-Agent of outgoing requests.
const Product = "room-automation"

var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// Commit is the short git SHA, or "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns the semantic version.
func Short() string {
	return Version
}

// Full returns the version with commit and build time.
func Full() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", Product, Version, Commit, BuildTime)
}

// UserAgent identifies the binaries to the sensor and actuator services.
func UserAgent() string {
	return Product + "/" + Version
}
