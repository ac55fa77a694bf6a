// Package packing holds the pre-computed circle-packing layouts that drive
// optimal-spacing site selection.
//
// Responsibilities: layout normalization checks, the count-keyed layout
// library, and loading layout CSV files from a directory.
// Key types: Set, Library, MissingSetError.
//
// Layouts are produced offline by a packing optimiser and shipped as data;
// nothing in this package computes packings. A request for a count with no
// shipped layout fails loudly — there is no nearest-size fallback.
package packing
