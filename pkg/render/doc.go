// Package render interprets UI trees into typed elements and renders them as HTML.
//
// The interpreter never fails on a malformed tree. Unknown component types become
// placeholders, missing children are skipped, cyclic back-edges are omitted, and props
// that do not fit the catalog fall back to their defaults. Every such recovery is
// recorded as a warning on the resulting View.
package render
