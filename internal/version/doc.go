// Package version exposes build metadata for the controller.
//
// Version, Commit and BuildTime are injected at build time via -ldflags.
// UserAgent is sent with every request to the chat and telemetry APIs.
package version
