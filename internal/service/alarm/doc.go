// Package alarm evaluates readings against the vital-sign thresholds and
// acts on alarm transitions: the buzzer starts and one alert is sent when the
// alarm is raised, the buzzer stops when it clears.
package alarm
