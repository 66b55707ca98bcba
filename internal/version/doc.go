// Package version holds the build metadata of the room automation binaries.
//
// Version, Commit and BuildTime are set with -ldflags at build time. The
// values surface in the `version` subcommand, the service.version trace
// resource attribute and the User-Agent of outgoing HTTP requests.
package version
