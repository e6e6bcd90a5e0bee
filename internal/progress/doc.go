// Package progress persists per-repository migration state.
//
// A Store maps repository slugs to the ordered set of completed step names,
// backed by a comma-delimited record file. Updates rewrite the whole file and
// atomically replace the prior version so a crash mid-write never corrupts state.
package progress
