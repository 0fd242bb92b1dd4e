// Package ripping runs `makemkvcon mkv` for a resolved output folder.
//
// The ripper streams robot-mode output, reports PRGV progress to the caller,
// and classifies MSG lines: read errors and evaluation-mode notices are
// warnings, licence expiry and write failures abort the rip. Summarize counts
// the MKV files a rip produced.
package ripping
