// Package daemonrun wires configuration, logging, the disc database, the
// pipeline, and the monitor into one foreground process. Both cmd/mkvautod
// and "mkvauto monitor" call Run.
package daemonrun
