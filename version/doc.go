// Package version reports build information for the pinch binary and
// the default User-Agent sent by the native backend.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/pinch/version.Version=1.0.0" ./cmd/pinch
package version
