// Package output decides where a disc's rip should land.
//
// The resolver inspects the library folder derived from the sanitized disc
// name. Free folders are used as is. Occupied folders are resolved by disc
// identity first, then by numbering ("Name Disc 2" for TV sets, "Name (2)"
// for distinct movies), with a similarity check that skips a movie already
// ripped under the same name.
package output
