// Package locmirror mirrors a bounded website to local storage.
// Starting from a root URL it discovers in-scope pages and the assets they
// reference, fetches each exactly once, and saves them under a directory
// layout that mirrors the URL hierarchy. Files already on disk from an
// earlier run are treated as fetched, which makes runs resumable.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, http/).
package locmirror
