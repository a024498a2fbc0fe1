// Package instance refuses to start a second monitor on the same host.
// Two pollers on one bot token would split the update feed between them.
package instance
