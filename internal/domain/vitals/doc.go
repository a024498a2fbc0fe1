// Package vitals holds the Reading sampled from the room sensors.
package vitals
