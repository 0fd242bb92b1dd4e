// Package main hosts the mkvauto operator CLI.
//
// Commands scan a drive and explain the classification, dry-run the output
// decision, rip once, run the monitor loop in the foreground, inspect the
// disc database, scaffold configuration, and run doctor checks. Every
// command that prints a report also accepts --json.
package main
