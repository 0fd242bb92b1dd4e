// Package monitor runs the disc insertion loop.
//
// A single Monitor per host holds a file lock in the state directory. Disc
// insertions arrive from udev netlink events when the socket is available and
// from a presence poll at service.check_interval otherwise. Every event is
// handled on the loop goroutine, so the pipeline never runs concurrently, and
// each event carries its own session id in the logs. Edits to the config
// file are picked up between events.
package monitor
