// Package sampler selects training subsets from an ordered candidate site
// table. Two policy families are provided: periodic decimation of the table
// order, and optimal-spacing selection driven by pre-computed circle-packing
// layouts.
//
// Responsibilities: index selection, request validation, spacing
// diagnostics. Key types: Selector, Selection, SpacingSelector.
//
// All results are 0-based indices into the caller's site order. Inputs are
// never mutated and every call allocates a fresh result, so selectors are
// safe to share across requests.
package sampler
