// Package alarm contains the vital-sign alarm domain.
//
// Kind enumerates the threshold breaches, Reasons is a set of them,
// Thresholds turns a Reading into Reasons and State is the latched alarm.
// Only the critical kinds latch the alarm; HumidityHigh is reported but
// neither raises nor holds it.
package alarm
