// Package model defines the core data structures used throughout cookiesnap.
//
// This package contains the following main types:
//   - Cookie: One session artifact read from (or written to) a browser session
//   - Site: A persisted URL that owns an ordered set of cookies
//   - Visit: The per-target state carried through the collection pipeline
//   - RunResult: The aggregate outcome of one multi-target acquisition run
//
// Target normalization also validates v3 onion hosts (onion_address.go).
//
// Models live in their own package so that the collector, orchestrator,
// database and report packages can share them without import cycles.
// Cookie serializes to the same JSON shape browser drivers use, which is
// also the export/import interchange format.
package model
