// Package disc talks to the optical drive through makemkvcon.
//
// Scanner runs `makemkvcon info` in robot mode and turns the CINFO, TINFO,
// DRV, and MSG lines into a ScanResult that converts directly into a
// classify.Descriptor. The drive status ioctl and the eject helper live here
// too so device quirks stay out of the pipeline.
package disc
