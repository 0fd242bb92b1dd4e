// Package discdb records which disc identities have been ripped and where
// their output landed, so a re-inserted disc can be recognised and skipped.
//
// Two backends implement Store: a JSON file (the default, readable by hand)
// and a SQLite database for larger collections.
package discdb
