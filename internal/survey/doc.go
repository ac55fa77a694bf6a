// Package survey owns the core domain types for measurement campaigns:
// candidate sites, their bounding extents, and CSV interchange for site
// lists and selections.
//
// Responsibilities: site parsing/serialisation, bounding-box geometry.
// Key types: Point, Site, Bounds.
//
// Dependency rule: survey depends only on the standard library; sampler,
// packing, and storage all build on top of it.
package survey
