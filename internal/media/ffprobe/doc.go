// Package ffprobe wraps ffprobe JSON output.
//
// Inspect decodes the container format and stream list of a media file.
// Prober reads only the container duration and is what the output resolver
// uses to estimate the runtime of files already in the library.
package ffprobe
