// Package scheduler runs a fixed table of periodic tasks on one goroutine.
//
// Time is a wrapping millisecond counter. A task is due when
// now-lastFire >= interval in uint32 arithmetic, so the comparison keeps
// working after the counter overflows.
package scheduler
