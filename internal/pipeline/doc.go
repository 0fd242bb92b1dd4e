// Package pipeline wires configuration into the disc-processing steps.
//
// An Engine scans the drive, classifies the disc, resolves the output folder,
// and then either skips the disc or rips it and records its identity. The
// monitor drives one Engine per daemon; the CLI builds one per command.
package pipeline
