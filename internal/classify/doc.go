// Package classify decides whether an optical disc holds a movie or a TV
// series from its name and title statistics.
//
// Classification runs in two phases. Short-circuit strategies (manual
// overrides, the known-series registry, trailing multi-disc tokens) return a
// decisive verdict when they match. Otherwise five voting detectors each
// emit a verdict and a weighted vote picks the class. The package performs
// no I/O; callers supply a Descriptor built from a disc scan.
package classify
