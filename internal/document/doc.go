// Package document treats a JSON configuration file as a set of named
// top-level sections.
//
// A component reads and replaces only its own section. Every other key is
// carried over byte for byte, so settings owned by other programs (the
// editor's file_path, tail.n, ...) survive a save untouched. Writes go to a
// temporary file that is renamed over the original.
package document
