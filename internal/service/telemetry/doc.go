// Package telemetry pushes ward snapshots to the cloud dashboard, either as
// an HTTP update request or as an MQTT publish on the channel topic.
package telemetry
