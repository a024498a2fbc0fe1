// Package ward holds the per-process state of the monitored room.
//
// Ward is owned by the scheduler goroutine and handed by pointer to the
// components that mutate one part of it. Snapshot is the read-only copy
// handed to reporting code.
package ward
