// Package preflight provides the readiness checks behind "mkvauto doctor".
//
// Checks cover the external binaries (makemkvcon is required; ffprobe and
// eject degrade gracefully), the optical drive node, the library and state
// directories, and free space on the library filesystem. Optional checks
// never count as failures.
package preflight
